package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lunch-voting/internal/database"
	"lunch-voting/internal/models"
	"lunch-voting/internal/restaurant"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func orderItems(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("item.id ASC")
}

func (d *DB) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	_, err := d.Bun.NewInsert().Model(r).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return restaurant.ErrRestaurantExists
	}
	return err
}

func (d *DB) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error) {
	var r models.Restaurant
	err := d.Bun.NewSelect().
		Model(&r).
		Where("restaurant.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, restaurant.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DB) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	restaurants := []models.Restaurant{}
	err := d.Bun.NewSelect().
		Model(&restaurants).
		Order("restaurant.id ASC").
		Scan(ctx)
	return restaurants, err
}

// CreateMenu inserts the menu and its items in one transaction.
func (d *DB) CreateMenu(ctx context.Context, menu *models.Menu) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(menu).Exec(ctx); err != nil {
			if database.IsUniqueViolation(err) {
				return restaurant.ErrMenuExists
			}
			return err
		}
		if len(menu.Items) == 0 {
			return nil
		}
		for i := range menu.Items {
			menu.Items[i].MenuID = menu.ID
		}
		_, err := tx.NewInsert().Model(&menu.Items).Exec(ctx)
		return err
	})
}

func (d *DB) GetMenu(ctx context.Context, id int64) (*models.Menu, error) {
	var menu models.Menu
	err := d.Bun.NewSelect().
		Model(&menu).
		Relation("Items", orderItems).
		Where("menu.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, restaurant.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (d *DB) MenuExists(ctx context.Context, id int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Menu)(nil)).
		Where("menu.id = ?", id).
		Exists(ctx)
}

func (d *DB) MenusByRestaurant(ctx context.Context, restaurantID int64) ([]models.Menu, error) {
	menus := []models.Menu{}
	err := d.Bun.NewSelect().
		Model(&menus).
		Relation("Items", orderItems).
		Where("menu.restaurant_id = ?", restaurantID).
		Order("menu.id ASC").
		Scan(ctx)
	return menus, err
}

func (d *DB) MenusByDate(ctx context.Context, date time.Time) ([]models.Menu, error) {
	menus := []models.Menu{}
	err := d.Bun.NewSelect().
		Model(&menus).
		Relation("Items", orderItems).
		Where("menu.date = ?", date).
		Order("menu.id ASC").
		Scan(ctx)
	return menus, err
}

func (d *DB) MenusByIDs(ctx context.Context, ids []int64) ([]models.Menu, error) {
	menus := []models.Menu{}
	err := d.Bun.NewSelect().
		Model(&menus).
		Relation("Items", orderItems).
		Where("menu.id IN (?)", bun.In(ids)).
		Order("menu.id ASC").
		Scan(ctx)
	return menus, err
}
