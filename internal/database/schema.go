package database

import (
	"context"
	"fmt"

	"lunch-voting/internal/models"

	"github.com/uptrace/bun"
)

// CreateSchema creates every table the service needs. Safe to call more than
// once. Production databases are normally built from migrations/ instead.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		model      interface{}
		foreignKey string
	}{
		{(*models.User)(nil), ""},
		{(*models.Restaurant)(nil), ""},
		{(*models.Menu)(nil), ""},
		{(*models.Item)(nil), ""},
		{(*models.Vote)(nil), `("menu_id") REFERENCES "menus" ("id")`},
	}
	for _, table := range tables {
		q := db.NewCreateTable().Model(table.model).IfNotExists()
		if table.foreignKey != "" {
			q = q.ForeignKey(table.foreignKey)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", table.model, err)
		}
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*models.Menu)(nil), "idx_menus_date", []string{"date"}},
		{(*models.Item)(nil), "idx_items_menu_id", []string{"menu_id"}},
		{(*models.Vote)(nil), "idx_votes_menu_id", []string{"menu_id"}},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}
