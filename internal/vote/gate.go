package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lunch-voting/internal/clock"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/metrics"
	"lunch-voting/internal/models"
	"lunch-voting/internal/restaurant"
)

const sideEffectTimeout = 5 * time.Second

type Gate struct {
	Menus   Menus
	Ledger  Ledger
	Cache   Cache
	Events  Publisher
	Metrics *metrics.VoteMetrics
	Clock   clock.Clock
	Log     *logger.Logger
}

type GateOption func(*Gate)

func WithCache(c Cache) GateOption { return func(g *Gate) { g.Cache = c } }

func WithPublisher(p Publisher) GateOption { return func(g *Gate) { g.Events = p } }

func WithMetrics(m *metrics.VoteMetrics) GateOption { return func(g *Gate) { g.Metrics = m } }

func NewGate(menus Menus, ledger Ledger, clk clock.Clock, log *logger.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		Menus:  menus,
		Ledger: ledger,
		Cache:  noopCache{},
		Events: noopPublisher{},
		Clock:  clk,
		Log:    log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cast runs one vote attempt. Rejections are reported in the Result; the
// error is reserved for storage failures.
func (g *Gate) Cast(ctx context.Context, userID string, menuID int64) (Result, error) {
	start := time.Now()

	res, menu, err := g.decide(ctx, userID, menuID)
	if err != nil {
		return Result{}, err
	}

	elapsed := time.Since(start)
	if !res.Accepted() {
		g.Metrics.ObserveRejected(string(res.Reason), elapsed)
		g.Log.LogVote("REJECTED", menuID, fmt.Sprintf("user %s: %s", userID, res.Reason))
		return res, nil
	}

	g.Metrics.ObserveAccepted(elapsed)
	g.Log.LogVote("ACCEPTED", menuID, fmt.Sprintf("vote %d by user %s", res.VoteID, userID))

	// The vote is committed; the caller going away must not stop the follow-up work.
	g.afterCommit(context.WithoutCancel(ctx), userID, menu, res.VoteID)
	return res, nil
}

func (g *Gate) decide(ctx context.Context, userID string, menuID int64) (Result, *models.Menu, error) {
	menu, err := g.Menus.Menu(ctx, menuID)
	if errors.Is(err, restaurant.ErrNotFound) {
		return rejected(ReasonMenuNotFound), nil, nil
	}
	if err != nil {
		return Result{}, nil, fmt.Errorf("load menu %d: %w", menuID, err)
	}

	voted, err := g.hasVoted(ctx, userID, menuID)
	if err != nil {
		return Result{}, nil, err
	}
	if voted {
		return rejected(ReasonAlreadyVoted), menu, nil
	}

	if !restaurant.VotingAllowed(*menu, g.Clock.Today()) {
		return rejected(ReasonVotingClosed), menu, nil
	}

	id, err := g.Ledger.Record(ctx, userID, menuID, g.Clock.Now())
	switch {
	case errors.Is(err, ErrDuplicateVote):
		return rejected(ReasonAlreadyVoted), menu, nil
	case errors.Is(err, ErrMenuNotFound):
		return rejected(ReasonMenuNotFound), menu, nil
	case err != nil:
		return Result{}, nil, fmt.Errorf("record vote: %w", err)
	}
	return accepted(id), menu, nil
}

func (g *Gate) hasVoted(ctx context.Context, userID string, menuID int64) (bool, error) {
	cached, err := g.Cache.HasVoted(ctx, userID, menuID)
	if err != nil {
		g.Log.Warn("CACHE", fmt.Sprintf("vote cache lookup failed, using ledger: %v", err))
	} else if cached {
		return true, nil
	}

	voted, err := g.Ledger.HasVoted(ctx, userID, menuID)
	if err != nil {
		return false, fmt.Errorf("check existing vote: %w", err)
	}
	if voted {
		if err := g.Cache.MarkVoted(ctx, userID, menuID); err != nil {
			g.Log.Warn("CACHE", fmt.Sprintf("failed to backfill vote cache: %v", err))
		}
	}
	return voted, nil
}

func (g *Gate) afterCommit(ctx context.Context, userID string, menu *models.Menu, voteID int64) {
	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()

	if err := g.Cache.MarkVoted(ctx, userID, menu.ID); err != nil {
		g.Log.Warn("CACHE", fmt.Sprintf("failed to mark vote %d in cache: %v", voteID, err))
	}

	ev := models.VoteCastEvent{
		VoteID:       voteID,
		UserID:       userID,
		MenuID:       menu.ID,
		RestaurantID: menu.RestaurantID,
		MenuDate:     menu.Day(),
		CastAt:       g.Clock.Now(),
	}
	if err := g.Events.PublishVoteCast(ctx, ev); err != nil {
		g.Log.Error("KAFKA", fmt.Sprintf("failed to publish vote %d: %v", voteID, err))
	}
}
