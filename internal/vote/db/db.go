package db

import (
	"context"
	"time"

	"lunch-voting/internal/database"
	"lunch-voting/internal/models"
	"lunch-voting/internal/vote"

	"github.com/uptrace/bun"
)

// DB is the vote ledger. The (user_id, menu_id) unique index is what keeps a
// vote at most once; HasVoted is only a fast path.
type DB struct {
	Bun *bun.DB
}

func (d *DB) HasVoted(ctx context.Context, userID string, menuID int64) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Vote)(nil)).
		Where("vote.user_id = ?", userID).
		Where("vote.menu_id = ?", menuID).
		Exists(ctx)
}

func (d *DB) Record(ctx context.Context, userID string, menuID int64, at time.Time) (int64, error) {
	v := &models.Vote{
		UserID:   userID,
		MenuID:   menuID,
		VoteDate: at.UTC(),
	}

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Menu)(nil)).
			Where("menu.id = ?", menuID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return vote.ErrMenuNotFound
		}

		if _, err := tx.NewInsert().Model(v).Exec(ctx); err != nil {
			switch {
			case database.IsUniqueViolation(err):
				return vote.ErrDuplicateVote
			case database.IsForeignKeyViolation(err):
				// removed after the existence check
				return vote.ErrMenuNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return v.ID, nil
}

func (d *DB) AggregateByDate(ctx context.Context, date time.Time) ([]models.VoteCount, error) {
	counts := []models.VoteCount{}
	err := d.Bun.NewSelect().
		TableExpr("votes AS v").
		Join("JOIN menus AS m ON m.id = v.menu_id").
		ColumnExpr("v.menu_id AS menu_id").
		ColumnExpr("m.restaurant_id AS restaurant_id").
		ColumnExpr("COUNT(v.id) AS vote_count").
		Where("m.date = ?", date).
		GroupExpr("v.menu_id, m.restaurant_id").
		OrderExpr("v.menu_id ASC").
		Scan(ctx, &counts)
	if err != nil {
		return nil, err
	}
	return counts, nil
}
