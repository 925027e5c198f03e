package plans

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/models"
)

type memStore struct {
	mu    sync.Mutex
	plans map[uuid.UUID]*models.Plan
}

func newMemStore() *memStore {
	return &memStore{plans: make(map[uuid.UUID]*models.Plan)}
}

var _ Store = (*memStore)(nil)

func (m *memStore) ListActive(context.Context) ([]*models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Plan
	for _, p := range m.plans {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) GetByName(_ context.Context, name string) (*models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.Name == name && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plans), nil
}

func (m *memStore) Insert(_ context.Context, p *models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.plans {
		if other.IsActive && other.Name == p.Name {
			return ErrNameTaken
		}
	}
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, p *models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func TestSeed(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Fatalf("plans after seed: got %d, want 3", n)
	}

	basic, err := svc.GetByName(ctx, models.PlanBasic)
	if err != nil {
		t.Fatalf("GetByName basic: %v", err)
	}
	if basic.Price.Monthly != 199 || basic.Price.Yearly != 1999 {
		t.Errorf("basic price: got %+v", basic.Price)
	}
	if basic.Resolution != "720p" {
		t.Errorf("basic resolution: got %q", basic.Resolution)
	}

	premium, _ := svc.GetByName(ctx, models.PlanPremium)
	if premium == nil || premium.Price.Monthly != 649 || premium.Resolution != "4K+HDR" {
		t.Errorf("premium: got %+v", premium)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// An admin edit must survive a re-seed.
	standard, _ := svc.GetByName(ctx, models.PlanStandard)
	newPrice := models.PlanPrice{Monthly: 599, Yearly: 5999}
	if _, err := svc.Update(ctx, standard.ID, UpdateInput{Price: &newPrice}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("plans after second seed: got %d, want 3", n)
	}
	standard, _ = svc.GetByName(ctx, models.PlanStandard)
	if standard.Price.Monthly != 599 {
		t.Errorf("re-seed must not overwrite the edited price, got %d", standard.Price.Monthly)
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	_, err := svc.Create(ctx, CreateInput{
		Name:        models.PlanBasic,
		DisplayName: "Basic again",
		Price:       models.PlanPrice{Monthly: 99, Yearly: 999},
		Quality:     "Good",
		Resolution:  "720p",
		Devices:     "1",
	})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("duplicate name: got %v, want ErrNameTaken", err)
	}
	if n, _ := store.Count(ctx); n != 3 {
		t.Errorf("catalog after rejected create: got %d plans, want 3", n)
	}
	// GetByName must stay unambiguous.
	basic, err := svc.GetByName(ctx, models.PlanBasic)
	if err != nil || basic.Price.Monthly != 199 {
		t.Errorf("seeded basic tier should be untouched, got %+v (%v)", basic, err)
	}

	// A deactivated plan frees its name for recreation.
	if err := svc.Deactivate(ctx, basic.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{
		Name:        models.PlanBasic,
		DisplayName: "Basic v2",
		Price:       models.PlanPrice{Monthly: 249, Yearly: 2499},
		Quality:     "Good",
		Resolution:  "720p",
		Devices:     "1",
	}); err != nil {
		t.Fatalf("recreate after deactivation: %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)
	ctx := context.Background()

	if err := svc.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	basic, _ := svc.GetByName(ctx, models.PlanBasic)

	if err := svc.Deactivate(ctx, basic.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if _, err := svc.GetByName(ctx, models.PlanBasic); !errors.Is(err, ErrNotFound) {
		t.Errorf("deactivated plan should not resolve by name, got %v", err)
	}
	active, _ := svc.List(ctx)
	if len(active) != 2 {
		t.Errorf("active plans: got %d, want 2", len(active))
	}

	if err := svc.Deactivate(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}
