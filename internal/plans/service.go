package plans

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/models"
)

var (
	// ErrNotFound is returned when no active plan matches the lookup.
	ErrNotFound = errors.New("plan not found")
	// ErrNameTaken is returned when an active plan already uses the name.
	ErrNameTaken = errors.New("plan name already exists")
)

// Store is the persistence surface of the plan catalog.
type Store interface {
	ListActive(ctx context.Context) ([]*models.Plan, error)
	GetByName(ctx context.Context, name string) (*models.Plan, error)
	Count(ctx context.Context) (int, error)
	Insert(ctx context.Context, p *models.Plan) error
	Update(ctx context.Context, p *models.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

// Service owns the subscription plan catalog.
type Service struct {
	store Store
	log   *slog.Logger
}

func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// defaultPlans are the tiers loaded into an empty catalog.
var defaultPlans = []models.Plan{
	{
		Name:        models.PlanBasic,
		DisplayName: "Basic",
		Price:       models.PlanPrice{Monthly: 199, Yearly: 1999},
		Features:    []string{"HD available", "Watch on 1 device", "Unlimited movies & TV shows"},
		Quality:     "Good",
		Resolution:  "720p",
		Devices:     "1",
	},
	{
		Name:        models.PlanStandard,
		DisplayName: "Standard",
		Price:       models.PlanPrice{Monthly: 499, Yearly: 4999},
		Features:    []string{"Full HD available", "Watch on 2 devices", "Unlimited movies & TV shows", "No ads"},
		Quality:     "Better",
		Resolution:  "1080p",
		Devices:     "2",
	},
	{
		Name:        models.PlanPremium,
		DisplayName: "Premium",
		Price:       models.PlanPrice{Monthly: 649, Yearly: 6499},
		Features:    []string{"Ultra HD available", "Watch on 4 devices", "Unlimited movies & TV shows", "No ads", "Spatial audio"},
		Quality:     "Best",
		Resolution:  "4K+HDR",
		Devices:     "4",
	},
}

// Seed loads the default tiers when the catalog is empty. Idempotent: a
// non-empty catalog, including one an admin has edited, is left alone.
func (s *Service) Seed(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, tier := range defaultPlans {
		p := tier
		p.ID = uuid.New()
		p.IsActive = true
		if err := s.store.Insert(ctx, &p); err != nil {
			return err
		}
	}
	s.log.Info("default plans seeded", "count", len(defaultPlans))
	return nil
}

func (s *Service) List(ctx context.Context) ([]*models.Plan, error) {
	return s.store.ListActive(ctx)
}

func (s *Service) GetByName(ctx context.Context, name string) (*models.Plan, error) {
	return s.store.GetByName(ctx, name)
}

// CreateInput is a validated admin plan create.
type CreateInput struct {
	Name        string
	DisplayName string
	Price       models.PlanPrice
	Features    []string
	Quality     string
	Resolution  string
	Devices     string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Plan, error) {
	p := &models.Plan{
		ID:          uuid.New(),
		Name:        in.Name,
		DisplayName: in.DisplayName,
		Price:       in.Price,
		Features:    in.Features,
		Quality:     in.Quality,
		Resolution:  in.Resolution,
		Devices:     in.Devices,
		IsActive:    true,
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateInput carries partial plan changes; nil fields are untouched.
type UpdateInput struct {
	DisplayName *string
	Price       *models.PlanPrice
	Features    []string
	Quality     *string
	Resolution  *string
	Devices     *string
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Plan, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.DisplayName != nil {
		p.DisplayName = *in.DisplayName
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Features != nil {
		p.Features = in.Features
	}
	if in.Quality != nil {
		p.Quality = *in.Quality
	}
	if in.Resolution != nil {
		p.Resolution = *in.Resolution
	}
	if in.Devices != nil {
		p.Devices = *in.Devices
	}
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate soft-deletes a plan; existing subscriptions keep referencing it
// by name.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	p.IsActive = false
	return s.store.Update(ctx, p)
}
