package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/movieflix/backend/internal/identity"
	"github.com/movieflix/backend/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory Store
// ---------------------------------------------------------------------------

type memStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*models.Account
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[uuid.UUID]*models.Account)}
}

var _ Store = (*memStore)(nil)

func (m *memStore) GetBySubject(_ context.Context, subject string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.SubjectID == subject {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == strings.ToLower(email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Insert(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.accounts {
		if cur.SubjectID == a.SubjectID || cur.Email == a.Email {
			return ErrConflict
		}
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.ID]; !ok {
		return ErrNotFound
	}
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *memStore) List(_ context.Context, role string, _, _ int) ([]*models.Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Account
	for _, a := range m.accounts {
		if role == "" || a.Role == role {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *memStore) Search(_ context.Context, q string, _, _ int) ([]*models.Account, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Account
	for _, a := range m.accounts {
		if strings.Contains(a.Email, q) || strings.Contains(a.DisplayName, q) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type recordingRevoker struct {
	subjects []string
}

func (r *recordingRevoker) Revoke(_ context.Context, subject string) error {
	r.subjects = append(r.subjects, subject)
	return nil
}

func newTestService(store Store, adminEmails ...string) *Service {
	return NewService(store, NewAdminList(adminEmails), nil)
}

func ident(subject, email string) *identity.Identity {
	return &identity.Identity{Subject: subject, Email: email, EmailVerified: true}
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

func TestSync_CreatesOnFirstSight(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	acc, err := svc.Sync(context.Background(), &identity.Identity{
		Subject: "uid-1", Email: "New.User@Example.COM", Name: "New User", EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if acc.Email != "new.user@example.com" {
		t.Errorf("email should be lowercased, got %q", acc.Email)
	}
	if acc.Role != models.RoleUser {
		t.Errorf("new accounts default to user role, got %q", acc.Role)
	}
	if !acc.IsActive {
		t.Error("new accounts start active")
	}
	if acc.Subscription.Status != models.SubStatusNone {
		t.Errorf("new accounts have no subscription, got %q", acc.Subscription.Status)
	}
	if acc.DisplayName != "New User" {
		t.Errorf("display name from identity: got %q", acc.DisplayName)
	}
}

func TestSync_SecondCallIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.Sync(ctx, ident("uid-1", "a@example.com"))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	second, err := svc.Sync(ctx, ident("uid-1", "a@example.com"))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if first.ID != second.ID {
		t.Error("same subject must map to the same account")
	}
	if _, total, _ := store.List(ctx, "", 0, 0); total != 1 {
		t.Errorf("accounts in store: got %d, want 1", total)
	}
}

func TestSync_RelinksReissuedSubject(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	orig, err := svc.Sync(ctx, ident("uid-old", "same@example.com"))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// Provider reissued the uid for the same email.
	relinked, err := svc.Sync(ctx, ident("uid-new", "same@example.com"))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if relinked.ID != orig.ID {
		t.Error("email match should re-link, not create a second account")
	}
	if relinked.SubjectID != "uid-new" {
		t.Errorf("subject should be re-linked to the new uid, got %q", relinked.SubjectID)
	}
}

func TestSync_DisplayNameFallbacks(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)

	acc, err := svc.Sync(context.Background(), ident("uid-1", "local.part@example.com"))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if acc.DisplayName != "local.part" {
		t.Errorf("display name should fall back to the email local part, got %q", acc.DisplayName)
	}
}

func TestSync_PermanentAdminCoercion(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "Boss@Example.com")
	ctx := context.Background()

	acc, err := svc.Sync(ctx, ident("uid-boss", "boss@example.com"))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if acc.Role != models.RoleAdmin {
		t.Errorf("permanent admin should be coerced to admin role, got %q", acc.Role)
	}

	// Even if the stored role is tampered with, the next sync coerces back.
	acc.Role = models.RoleUser
	if err := store.Update(ctx, acc); err != nil {
		t.Fatalf("Update: %v", err)
	}
	acc, err = svc.Sync(ctx, ident("uid-boss", "boss@example.com"))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if acc.Role != models.RoleAdmin {
		t.Errorf("role should be re-coerced on sync, got %q", acc.Role)
	}
}

func TestSync_RefreshesLastLogin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	first, _ := svc.Sync(ctx, ident("uid-1", "a@example.com"))

	svc.now = func() time.Time { return base.Add(time.Hour) }
	second, _ := svc.Sync(ctx, ident("uid-1", "a@example.com"))

	if !second.LastLoginAt.After(first.LastLoginAt) {
		t.Error("lastLoginAt should be refreshed on every sync")
	}
}

// ---------------------------------------------------------------------------
// Subscription
// ---------------------------------------------------------------------------

func TestStartTrial(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	acc, _ := svc.Sync(ctx, ident("uid-1", "a@example.com"))
	if err := svc.StartTrial(ctx, acc); err != nil {
		t.Fatalf("StartTrial: %v", err)
	}
	if acc.Subscription.Status != models.SubStatusTrial {
		t.Errorf("status: got %q, want trial", acc.Subscription.Status)
	}
	wantEnd := base.Add(TrialDays * 24 * time.Hour)
	if acc.Subscription.TrialEnd == nil || !acc.Subscription.TrialEnd.Equal(wantEnd) {
		t.Errorf("trial end: got %v, want %v", acc.Subscription.TrialEnd, wantEnd)
	}

	// Starting again while running is rejected.
	svc.now = func() time.Time { return base.Add(24 * time.Hour) }
	if err := svc.StartTrial(ctx, acc); !errors.Is(err, ErrTrialActive) {
		t.Errorf("second trial while running: got %v, want ErrTrialActive", err)
	}

	// After expiry a fresh trial is allowed.
	svc.now = func() time.Time { return wantEnd.Add(time.Hour) }
	if err := svc.StartTrial(ctx, acc); err != nil {
		t.Errorf("trial after expiry: got %v", err)
	}
}

func TestUpdateSubscription_PartialFields(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	acc, _ := svc.Sync(ctx, ident("uid-1", "a@example.com"))
	plan := models.PlanPremium
	status := models.SubStatusActive
	if err := svc.UpdateSubscription(ctx, acc, SubscriptionUpdate{Plan: &plan, Status: &status}); err != nil {
		t.Fatalf("UpdateSubscription: %v", err)
	}
	if acc.Subscription.Plan != models.PlanPremium || acc.Subscription.Status != models.SubStatusActive {
		t.Errorf("subscription: got %+v", acc.Subscription)
	}
	// Billing cycle untouched.
	if acc.Subscription.BillingCycle != "monthly" {
		t.Errorf("billing cycle should be untouched, got %q", acc.Subscription.BillingCycle)
	}

	if err := svc.CancelSubscription(ctx, acc); err != nil {
		t.Fatalf("CancelSubscription: %v", err)
	}
	if acc.Subscription.Status != models.SubStatusCancelled {
		t.Errorf("status after cancel: got %q", acc.Subscription.Status)
	}
	// Plan retained for win-back flows.
	if acc.Subscription.Plan != models.PlanPremium {
		t.Errorf("plan should survive cancellation, got %q", acc.Subscription.Plan)
	}
}

// ---------------------------------------------------------------------------
// Admin mutations
// ---------------------------------------------------------------------------

func TestUpdateRole(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, "boss@example.com")
	ctx := context.Background()

	user, _ := svc.Sync(ctx, ident("uid-user", "user@example.com"))
	boss, _ := svc.Sync(ctx, ident("uid-boss", "boss@example.com"))

	updated, err := svc.UpdateRole(ctx, user.ID, models.RoleModerator)
	if err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if updated.Role != models.RoleModerator {
		t.Errorf("role: got %q", updated.Role)
	}

	if _, err := svc.UpdateRole(ctx, user.ID, "superuser"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bogus role: got %v, want ErrInvalidRole", err)
	}
	if _, err := svc.UpdateRole(ctx, boss.ID, models.RoleUser); !errors.Is(err, ErrPermanentAdmin) {
		t.Errorf("demoting permanent admin: got %v, want ErrPermanentAdmin", err)
	}
	if _, err := svc.UpdateRole(ctx, uuid.New(), models.RoleUser); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	store := newMemStore()
	revoker := &recordingRevoker{}
	svc := NewService(store, NewAdminList([]string{"boss@example.com"}), revoker)
	ctx := context.Background()

	user, _ := svc.Sync(ctx, ident("uid-user", "user@example.com"))
	boss, _ := svc.Sync(ctx, ident("uid-boss", "boss@example.com"))

	if err := svc.DeleteAccount(ctx, boss.ID); !errors.Is(err, ErrPermanentAdmin) {
		t.Errorf("deleting permanent admin: got %v, want ErrPermanentAdmin", err)
	}

	if err := svc.DeleteAccount(ctx, user.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := store.GetByID(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Error("account should be gone from the store")
	}
	if len(revoker.subjects) != 1 || revoker.subjects[0] != "uid-user" {
		t.Errorf("identity revocation: got %v", revoker.subjects)
	}
}

func TestErrConflictMarksConflict(t *testing.T) {
	var conflict interface{ Conflict() bool }
	if !errors.As(ErrConflict, &conflict) || !conflict.Conflict() {
		t.Fatal("ErrConflict must report Conflict() true")
	}
	wrapped := fmt.Errorf("sync: %w", ErrConflict)
	if !errors.Is(wrapped, ErrConflict) {
		t.Error("wrapped ErrConflict should match errors.Is")
	}
	if !errors.As(wrapped, &conflict) {
		t.Error("wrapped ErrConflict should still carry the conflict marker")
	}
}
