package clock

import (
	"fmt"
	"time"
)

// Clock supplies the current time. Everything date-sensitive in the vote path
// takes a Clock instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// DateOf truncates t to its calendar date (as seen in t's location) and
// returns it at midnight UTC. Menu dates are stored in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into the stored date form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

type System struct {
	loc *time.Location
}

// NewSystem returns a wall clock whose calendar day is computed in the named
// IANA zone.
func NewSystem(timezone string) (*System, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", timezone, err)
	}
	return &System{loc: loc}, nil
}

func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

func (s *System) Today() time.Time {
	return DateOf(s.Now())
}

// Fixed always reports the same instant. Used by tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time   { return f.T }
func (f Fixed) Today() time.Time { return DateOf(f.T) }
