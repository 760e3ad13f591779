// Package vote holds the vote ledger contract, the tally engine and the
// eligibility gate that decides whether a vote attempt is accepted.
package vote

import (
	"context"
	"errors"
	"time"

	"lunch-voting/internal/models"
)

var (
	// ErrDuplicateVote means the storage unique index on (user, menu)
	// rejected the insert.
	ErrDuplicateVote = errors.New("duplicate vote")
	ErrMenuNotFound  = errors.New("menu not found")
)

type Status int

const (
	Accepted Status = iota + 1
	Rejected
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "ACCEPTED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

type Reason string

const (
	ReasonMenuNotFound Reason = "MenuNotFound"
	ReasonAlreadyVoted Reason = "AlreadyVoted"
	ReasonVotingClosed Reason = "VotingClosed"
)

// Result is the outcome of one vote attempt. VoteID is set only when
// Status is Accepted; Reason only when it is Rejected.
type Result struct {
	Status Status
	Reason Reason
	VoteID int64
}

func (r Result) Accepted() bool { return r.Status == Accepted }

func accepted(id int64) Result { return Result{Status: Accepted, VoteID: id} }

func rejected(reason Reason) Result { return Result{Status: Rejected, Reason: reason} }

type Ledger interface {
	HasVoted(ctx context.Context, userID string, menuID int64) (bool, error)
	// Record inserts the vote atomically. It returns ErrDuplicateVote when
	// (userID, menuID) already exists and ErrMenuNotFound when the menu is gone.
	Record(ctx context.Context, userID string, menuID int64, at time.Time) (int64, error)
	// AggregateByDate counts votes per menu dated date, ordered by menu id.
	// Menus without votes are omitted.
	AggregateByDate(ctx context.Context, date time.Time) ([]models.VoteCount, error)
}

// Menus is the slice of the menu registry the vote path reads.
type Menus interface {
	Menu(ctx context.Context, menuID int64) (*models.Menu, error)
	ByIDs(ctx context.Context, ids []int64) ([]models.Menu, error)
}

// Cache short-circuits obvious duplicates. It is never authoritative.
type Cache interface {
	HasVoted(ctx context.Context, userID string, menuID int64) (bool, error)
	MarkVoted(ctx context.Context, userID string, menuID int64) error
}

type Publisher interface {
	PublishVoteCast(ctx context.Context, ev models.VoteCastEvent) error
}

type noopCache struct{}

func (noopCache) HasVoted(context.Context, string, int64) (bool, error) { return false, nil }
func (noopCache) MarkVoted(context.Context, string, int64) error        { return nil }

type noopPublisher struct{}

func (noopPublisher) PublishVoteCast(context.Context, models.VoteCastEvent) error { return nil }

type fanout []Publisher

// Fanout publishes each event to every p in order. All publishers are tried;
// their errors are joined.
func Fanout(ps ...Publisher) Publisher {
	return fanout(ps)
}

func (f fanout) PublishVoteCast(ctx context.Context, ev models.VoteCastEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishVoteCast(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
