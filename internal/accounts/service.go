package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/identity"
	"github.com/movieflix/backend/internal/models"
)

// conflictError marks uniqueness violations so transport code can detect
// them through errors.As without importing this package.
type conflictError struct{ msg string }

func (e conflictError) Error() string  { return e.msg }
func (e conflictError) Conflict() bool { return true }

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrConflict is returned when a uniqueness constraint is violated,
	// e.g. two concurrent first-logins for the same subject.
	ErrConflict error = conflictError{"account already exists"}
	// ErrPermanentAdmin guards permanent admins from role changes and
	// deletion.
	ErrPermanentAdmin = errors.New("cannot modify permanent admin")
	// ErrInvalidRole is returned for a role outside the allowed set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrTrialActive is returned when starting a trial over a running one.
	ErrTrialActive = errors.New("trial already active")
)

// TrialDays is the free-trial length.
const TrialDays = 7

// Store is the persistence surface the directory service needs.
type Store interface {
	GetBySubject(ctx context.Context, subject string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Insert(ctx context.Context, a *models.Account) error
	Update(ctx context.Context, a *models.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, role string, limit, offset int) ([]*models.Account, int, error)
	Search(ctx context.Context, q string, limit, offset int) ([]*models.Account, int, error)
}

// Revoker removes the caller's account at the identity provider when an
// admin deletes it here. Deployments without provider admin credentials
// wire NopRevoker.
type Revoker interface {
	Revoke(ctx context.Context, subject string) error
}

// NopRevoker ignores revocations.
type NopRevoker struct{}

func (NopRevoker) Revoke(context.Context, string) error { return nil }

// Service is the account directory: it maps verified identities onto
// account records and owns subscription and admin mutations.
type Service struct {
	store  Store
	admins *AdminList
	revoke Revoker
	now    func() time.Time
}

func NewService(store Store, admins *AdminList, revoke Revoker) *Service {
	if revoke == nil {
		revoke = NopRevoker{}
	}
	return &Service{store: store, admins: admins, revoke: revoke, now: time.Now}
}

// Admins exposes the permanent-admin list for authorization middleware.
func (s *Service) Admins() *AdminList { return s.admins }

// Sync resolves a verified identity to an account, creating one on first
// sight. Lookup order: subject id, then email (identity providers can
// reissue subject ids for the same address), then create. Denormalized
// identity fields and lastLoginAt are refreshed on every call, and
// permanent-admin emails are coerced to the admin role every time.
func (s *Service) Sync(ctx context.Context, ident *identity.Identity) (*models.Account, error) {
	email := strings.ToLower(strings.TrimSpace(ident.Email))

	acc, err := s.store.GetBySubject(ctx, ident.Subject)
	if errors.Is(err, ErrNotFound) && email != "" {
		acc, err = s.store.GetByEmail(ctx, email)
		if err == nil {
			// Provider reissued the uid; re-link it onto the account.
			acc.SubjectID = ident.Subject
		}
	}

	switch {
	case err == nil:
		s.refresh(acc, ident, email)
		if err := s.store.Update(ctx, acc); err != nil {
			return nil, err
		}
		return acc, nil

	case errors.Is(err, ErrNotFound):
		acc = &models.Account{
			ID:        uuid.New(),
			SubjectID: ident.Subject,
			Email:     email,
			Role:      models.RoleUser,
			IsActive:  true,
			Subscription: models.Subscription{
				Plan:         "none",
				Status:       models.SubStatusNone,
				BillingCycle: "monthly",
			},
		}
		s.refresh(acc, ident, email)
		if err := s.store.Insert(ctx, acc); err != nil {
			return nil, err
		}
		return acc, nil

	default:
		return nil, err
	}
}

func (s *Service) refresh(acc *models.Account, ident *identity.Identity, email string) {
	if email != "" {
		acc.Email = email
	}
	switch {
	case ident.Name != "":
		acc.DisplayName = ident.Name
	case acc.DisplayName == "" && acc.Email != "":
		acc.DisplayName = strings.SplitN(acc.Email, "@", 2)[0]
	case acc.DisplayName == "":
		acc.DisplayName = "User"
	}
	if ident.Picture != "" {
		p := ident.Picture
		acc.PhotoURL = &p
	}
	acc.EmailVerified = ident.EmailVerified
	acc.LastLoginAt = s.now()
	if s.admins.IsElevated(acc.Email) {
		acc.Role = models.RoleAdmin
	}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) GetBySubject(ctx context.Context, subject string) (*models.Account, error) {
	return s.store.GetBySubject(ctx, subject)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*models.Account, int, error) {
	return s.store.List(ctx, role, limit, offset)
}

func (s *Service) Search(ctx context.Context, q string, limit, offset int) ([]*models.Account, int, error) {
	return s.store.Search(ctx, q, limit, offset)
}

// SubscriptionUpdate carries field-wise subscription changes; nil fields
// are left untouched.
type SubscriptionUpdate struct {
	Plan         *string
	Status       *string
	BillingCycle *string
	StartDate    *time.Time
	EndDate      *time.Time
}

func (s *Service) UpdateSubscription(ctx context.Context, acc *models.Account, upd SubscriptionUpdate) error {
	if upd.Plan != nil {
		acc.Subscription.Plan = *upd.Plan
	}
	if upd.Status != nil {
		acc.Subscription.Status = *upd.Status
	}
	if upd.BillingCycle != nil {
		acc.Subscription.BillingCycle = *upd.BillingCycle
	}
	if upd.StartDate != nil {
		acc.Subscription.StartDate = upd.StartDate
	}
	if upd.EndDate != nil {
		acc.Subscription.EndDate = upd.EndDate
	}
	return s.store.Update(ctx, acc)
}

// StartTrial begins a 7-day trial unless one is still running.
func (s *Service) StartTrial(ctx context.Context, acc *models.Account) error {
	now := s.now()
	if acc.Subscription.Status == models.SubStatusTrial &&
		acc.Subscription.TrialEnd != nil && acc.Subscription.TrialEnd.After(now) {
		return ErrTrialActive
	}
	end := now.Add(TrialDays * 24 * time.Hour)
	acc.Subscription = models.Subscription{
		Plan:         "trial",
		Status:       models.SubStatusTrial,
		BillingCycle: "monthly",
		TrialStart:   &now,
		TrialEnd:     &end,
	}
	return s.store.Update(ctx, acc)
}

func (s *Service) CancelSubscription(ctx context.Context, acc *models.Account) error {
	acc.Subscription.Status = models.SubStatusCancelled
	return s.store.Update(ctx, acc)
}

// UpdateRole changes a stored role. Permanent admins keep theirs.
func (s *Service) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.Account, error) {
	if !models.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	acc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.admins.IsElevated(acc.Email) {
		return nil, ErrPermanentAdmin
	}
	acc.Role = role
	if err := s.store.Update(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// DeleteAccount removes the account and revokes it at the identity
// provider. Permanent admins cannot be deleted.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	acc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.admins.IsElevated(acc.Email) {
		return ErrPermanentAdmin
	}
	if err := s.revoke.Revoke(ctx, acc.SubjectID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *Service) Update(ctx context.Context, acc *models.Account) error {
	return s.store.Update(ctx, acc)
}
