package mylist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID][]models.AccountListEntry
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[uuid.UUID][]models.AccountListEntry)}
}

var _ Store = (*memStore)(nil)

func (m *memStore) List(_ context.Context, accountID uuid.UUID) ([]models.AccountListEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AccountListEntry(nil), m.entries[accountID]...), nil
}

func (m *memStore) Insert(_ context.Context, e *models.AccountListEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.entries[e.AccountID] {
		if cur.MovieID == e.MovieID {
			return ErrAlreadyInList
		}
	}
	m.entries[e.AccountID] = append(m.entries[e.AccountID], *e)
	return nil
}

func (m *memStore) Remove(_ context.Context, accountID uuid.UUID, movieID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.entries[accountID]
	for i, cur := range list {
		if cur.MovieID == movieID {
			m.entries[accountID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Contains(_ context.Context, accountID uuid.UUID, movieID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.entries[accountID] {
		if cur.MovieID == movieID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) Clear(_ context.Context, accountID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, accountID)
	return nil
}

func TestAddRemoveCheck(t *testing.T) {
	svc := NewService(newMemStore())
	accountID := uuid.New()
	ctx := context.Background()

	e, err := svc.Add(ctx, accountID, AddInput{MovieID: "m1", Title: "Movie One"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if e.MediaType != "movie" {
		t.Errorf("missing media type should default to movie, got %q", e.MediaType)
	}

	if _, err := svc.Add(ctx, accountID, AddInput{MovieID: "m1", Title: "Movie One"}); !errors.Is(err, ErrAlreadyInList) {
		t.Errorf("duplicate add: got %v, want ErrAlreadyInList", err)
	}

	in, err := svc.Contains(ctx, accountID, "m1")
	if err != nil || !in {
		t.Errorf("Contains(m1): got %v, %v", in, err)
	}
	in, _ = svc.Contains(ctx, accountID, "ghost")
	if in {
		t.Error("Contains(ghost) should be false")
	}

	if err := svc.Remove(ctx, accountID, "ghost"); !errors.Is(err, ErrNotInList) {
		t.Errorf("removing absent movie: got %v, want ErrNotInList", err)
	}
	if err := svc.Remove(ctx, accountID, "m1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	list, _ := svc.List(ctx, accountID)
	if len(list) != 0 {
		t.Errorf("list after remove: got %d entries", len(list))
	}
}

func TestClearList(t *testing.T) {
	svc := NewService(newMemStore())
	accountID := uuid.New()
	ctx := context.Background()

	svc.Add(ctx, accountID, AddInput{MovieID: "m1", Title: "A", MediaType: "tv"})
	svc.Add(ctx, accountID, AddInput{MovieID: "m2", Title: "B"})

	if err := svc.Clear(ctx, accountID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	list, _ := svc.List(ctx, accountID)
	if len(list) != 0 {
		t.Errorf("list after clear: got %d entries", len(list))
	}

	// Other accounts are untouched.
	other := uuid.New()
	svc.Add(ctx, other, AddInput{MovieID: "m9", Title: "Z"})
	svc.Clear(ctx, accountID)
	list, _ = svc.List(ctx, other)
	if len(list) != 1 {
		t.Errorf("other account's list should survive, got %d entries", len(list))
	}
}
