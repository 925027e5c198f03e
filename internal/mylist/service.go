package mylist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/models"
)

var (
	// ErrAlreadyInList is returned for a duplicate add.
	ErrAlreadyInList = errors.New("movie already in list")
	// ErrNotInList is returned when removing a movie that is not listed.
	ErrNotInList = errors.New("movie not found in list")
)

// Store is the persistence surface of the account-level my list.
type Store interface {
	List(ctx context.Context, accountID uuid.UUID) ([]models.AccountListEntry, error)
	Insert(ctx context.Context, e *models.AccountListEntry) error
	Remove(ctx context.Context, accountID uuid.UUID, movieID string) (bool, error)
	Contains(ctx context.Context, accountID uuid.UUID, movieID string) (bool, error)
	Clear(ctx context.Context, accountID uuid.UUID) error
}

// Service owns the account-level saved list, kept apart from the
// per-profile lists.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// AddInput is a validated list add.
type AddInput struct {
	MovieID    string
	Title      string
	PosterPath string
	MediaType  string
}

func (s *Service) Add(ctx context.Context, accountID uuid.UUID, in AddInput) (*models.AccountListEntry, error) {
	mediaType := in.MediaType
	if mediaType == "" {
		mediaType = "movie"
	}
	e := &models.AccountListEntry{
		ID:         uuid.New(),
		AccountID:  accountID,
		MovieID:    in.MovieID,
		Title:      in.Title,
		PosterPath: in.PosterPath,
		MediaType:  mediaType,
		AddedAt:    s.now(),
	}
	if err := s.store.Insert(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Remove(ctx context.Context, accountID uuid.UUID, movieID string) error {
	removed, err := s.store.Remove(ctx, accountID, movieID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotInList
	}
	return nil
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]models.AccountListEntry, error) {
	return s.store.List(ctx, accountID)
}

func (s *Service) Contains(ctx context.Context, accountID uuid.UUID, movieID string) (bool, error) {
	return s.store.Contains(ctx, accountID, movieID)
}

func (s *Service) Clear(ctx context.Context, accountID uuid.UUID) error {
	return s.store.Clear(ctx, accountID)
}
