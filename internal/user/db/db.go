package db

import (
	"context"
	"database/sql"
	"errors"

	"lunch-voting/internal/database"
	"lunch-voting/internal/models"
	"lunch-voting/internal/user"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// CreateUser inserts u. A unique violation that slipped past the service's
// pre-checks is reported as a taken username.
func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := d.Bun.NewInsert().Model(u).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return user.ErrUsernameTaken
	}
	return err
}

func (d *DB) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := d.Bun.NewSelect().
		Model(&u).
		Where("u.username = ?", username).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *DB) UsernameExists(ctx context.Context, username string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("u.username = ?", username).
		Exists(ctx)
}

func (d *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("LOWER(u.email) = LOWER(?)", email).
		Exists(ctx)
}
