package vote

import (
	"context"
	"fmt"
	"time"

	"lunch-voting/internal/clock"
	"lunch-voting/internal/models"
)

// Winners returns every menu id whose count equals the maximum, in input
// order. Ties are kept. No counts means no winners.
func Winners(counts []models.VoteCount) []int64 {
	winners := []int64{}
	top := 0
	for _, c := range counts {
		switch {
		case c.VoteCount > top:
			top = c.VoteCount
			winners = append(winners[:0], c.MenuID)
		case c.VoteCount == top && top > 0:
			winners = append(winners, c.MenuID)
		}
	}
	return winners
}

// Tally derives statistics from the ledger on every call; it keeps no state.
type Tally struct {
	Ledger Ledger
	Menus  Menus
	Clock  clock.Clock
}

func NewTally(ledger Ledger, menus Menus, clk clock.Clock) *Tally {
	return &Tally{Ledger: ledger, Menus: menus, Clock: clk}
}

func (t *Tally) Statistics(ctx context.Context, date time.Time) ([]models.VoteCount, error) {
	counts, err := t.Ledger.AggregateByDate(ctx, clock.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("aggregate votes: %w", err)
	}
	if counts == nil {
		counts = []models.VoteCount{}
	}
	return counts, nil
}

func (t *Tally) WinningMenus(ctx context.Context, date time.Time) ([]int64, error) {
	counts, err := t.Statistics(ctx, date)
	if err != nil {
		return nil, err
	}
	return Winners(counts), nil
}

// TodayWinners resolves today's winning menu ids to full menus.
func (t *Tally) TodayWinners(ctx context.Context) ([]models.Menu, error) {
	ids, err := t.WinningMenus(ctx, t.Clock.Today())
	if err != nil {
		return nil, err
	}
	return t.Menus.ByIDs(ctx, ids)
}

func (t *Tally) TodayStatistics(ctx context.Context) ([]models.VoteCount, error) {
	return t.Statistics(ctx, t.Clock.Today())
}
