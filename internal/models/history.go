package models

import (
	"time"

	"github.com/google/uuid"
)

// AccountHistoryCap bounds the account-scope watch history; re-adds move an
// entry back to the top rather than duplicating it.
const AccountHistoryCap = 50

// DefaultHistoryDuration is assumed (in minutes) when a history add carries
// no duration.
const DefaultHistoryDuration = 120

// AccountHistoryEntry is one row of the account-scope watch history, kept
// separately from per-profile history.
type AccountHistoryEntry struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"-"`
	MovieID     string    `json:"movieId"`
	Title       string    `json:"title"`
	PosterPath  string    `json:"posterPath,omitempty"`
	Genres      []string  `json:"genres"`
	Duration    int       `json:"duration"`
	VoteAverage *float64  `json:"voteAverage,omitempty"`
	WatchedAt   time.Time `json:"watchedAt"`
}

// AccountListEntry is one row of the account-level my list (distinct from
// the per-profile lists).
type AccountListEntry struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"-"`
	MovieID    string    `json:"movieId"`
	Title      string    `json:"title"`
	PosterPath string    `json:"posterPath,omitempty"`
	MediaType  string    `json:"mediaType"`
	AddedAt    time.Time `json:"addedAt"`
}
