package testimonials

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/models"
)

var (
	// ErrNotFound is returned when the testimonial does not exist.
	ErrNotFound = errors.New("testimonial not found")
	// ErrInvalidRating rejects ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrTextTooLong rejects review text over the cap.
	ErrTextTooLong = errors.New("review text too long")
	// ErrMissingFields rejects a submission without name, rating, or text.
	ErrMissingFields = errors.New("name, rating, and text are required")
)

// publicLimit caps the public listing.
const publicLimit = 20

// Store is the persistence surface of the testimonial wall.
type Store interface {
	ListApproved(ctx context.Context, limit int) ([]*models.Testimonial, error)
	ListAll(ctx context.Context) ([]*models.Testimonial, error)
	Insert(ctx context.Context, t *models.Testimonial) error
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*models.Testimonial, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service owns the public testimonial wall.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) ListApproved(ctx context.Context) ([]*models.Testimonial, error) {
	return s.store.ListApproved(ctx, publicLimit)
}

func (s *Service) ListAll(ctx context.Context) ([]*models.Testimonial, error) {
	return s.store.ListAll(ctx)
}

// Submit validates and stores a review. Submissions are auto-approved so
// they show up immediately; admins can still take them down.
func (s *Service) Submit(ctx context.Context, name, role string, rating int, text string) (*models.Testimonial, error) {
	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)
	role = strings.TrimSpace(role)

	if name == "" || text == "" || rating == 0 {
		return nil, ErrMissingFields
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if len(text) > models.MaxTestimonialLen {
		return nil, ErrTextTooLong
	}
	if role == "" {
		role = models.DefaultTestimonialRole
	}

	t := &models.Testimonial{
		ID:         uuid.New(),
		Name:       name,
		Role:       role,
		Rating:     rating,
		Text:       text,
		Avatar:     avatarURL(name),
		IsApproved: true,
		CreatedAt:  s.now(),
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	return s.store.SetApproved(ctx, id, true)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

func avatarURL(name string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=e50914&color=fff&size=150",
		url.QueryEscape(name))
}
