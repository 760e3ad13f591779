package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Vote is one user's endorsement of one menu. (user_id, menu_id) is unique.
type Vote struct {
	bun.BaseModel `bun:"table:votes,alias:vote"`

	ID       int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID   string    `bun:"user_id,notnull,unique:votes_user_menu" json:"user_id"`
	MenuID   int64     `bun:"menu_id,notnull,unique:votes_user_menu" json:"menu_id"`
	VoteDate time.Time `bun:"vote_date,notnull" json:"vote_date"`
}

// VoteCount is a derived tally entry, never stored.
type VoteCount struct {
	MenuID       int64 `bun:"menu_id" json:"menu"`
	RestaurantID int64 `bun:"restaurant_id" json:"restaurant_id"`
	VoteCount    int   `bun:"vote_count" json:"vote_count"`
}

type VoteRequest struct {
	MenuID int64 `json:"menu"`
}

type VoteResponse struct {
	ID     int64  `json:"id"`
	UserID string `json:"user"`
	MenuID int64  `json:"menu"`
}

// VoteCastEvent is published once a vote has been committed.
type VoteCastEvent struct {
	VoteID       int64     `json:"vote_id"`
	UserID       string    `json:"user_id"`
	MenuID       int64     `json:"menu_id"`
	RestaurantID int64     `json:"restaurant_id"`
	MenuDate     string    `json:"menu_date"`
	CastAt       time.Time `json:"cast_at"`
}
