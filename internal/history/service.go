package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/movieflix/backend/internal/models"
)

// Store is the persistence surface of the account-scope watch history.
type Store interface {
	Begin(ctx context.Context) (pgx.Tx, error)

	List(ctx context.Context, accountID uuid.UUID) ([]models.AccountHistoryEntry, error)
	// Upsert replaces any entry with the same movie id, moving it to the top.
	Upsert(ctx context.Context, tx pgx.Tx, e *models.AccountHistoryEntry) error
	Trim(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, keep int) error
	Clear(ctx context.Context, accountID uuid.UUID) error
}

// Service owns the account-level watch history, a flat recently-watched
// list independent of the per-profile histories.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// AddInput is a validated history add.
type AddInput struct {
	MovieID     string
	Title       string
	PosterPath  string
	Genres      []string
	Duration    int
	VoteAverage *float64
}

// Add records a watch. Re-adding a movie moves it to the top instead of
// duplicating it, and the list is trimmed to the 50 most recent entries.
func (s *Service) Add(ctx context.Context, accountID uuid.UUID, in AddInput) ([]models.AccountHistoryEntry, error) {
	entry := &models.AccountHistoryEntry{
		ID:          uuid.New(),
		AccountID:   accountID,
		MovieID:     in.MovieID,
		Title:       in.Title,
		PosterPath:  in.PosterPath,
		Genres:      in.Genres,
		Duration:    in.Duration,
		VoteAverage: in.VoteAverage,
		WatchedAt:   s.now(),
	}
	if entry.Genres == nil {
		entry.Genres = []string{}
	}
	if entry.Duration == 0 {
		entry.Duration = models.DefaultHistoryDuration
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.store.Upsert(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := s.store.Trim(ctx, tx, accountID, models.AccountHistoryCap); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.store.List(ctx, accountID)
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]models.AccountHistoryEntry, error) {
	return s.store.List(ctx, accountID)
}

func (s *Service) Clear(ctx context.Context, accountID uuid.UUID) error {
	return s.store.Clear(ctx, accountID)
}
