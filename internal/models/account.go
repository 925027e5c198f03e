package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles assignable to an account. Permanent admins are coerced to RoleAdmin
// on every sync regardless of the stored value.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Subscription statuses.
const (
	SubStatusActive    = "active"
	SubStatusInactive  = "inactive"
	SubStatusCancelled = "cancelled"
	SubStatusExpired   = "expired"
	SubStatusTrial     = "trial"
	SubStatusNone      = "none"
)

// Subscription is the billing descriptor denormalized onto the account.
type Subscription struct {
	Plan         string     `json:"plan"`
	Status       string     `json:"status"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	BillingCycle string     `json:"billingCycle"`
	TrialStart   *time.Time `json:"trialStart,omitempty"`
	TrialEnd     *time.Time `json:"trialEnd,omitempty"`
}

// Account is the identity-linked root entity. SubjectID is the stable
// identifier issued by the external identity provider; it is unique, as is
// the lowercased email.
type Account struct {
	ID            uuid.UUID    `json:"id"`
	SubjectID     string       `json:"subjectId"`
	Email         string       `json:"email"`
	DisplayName   string       `json:"displayName"`
	PhotoURL      *string      `json:"photoURL,omitempty"`
	Role          string       `json:"role"`
	IsActive      bool         `json:"isActive"`
	EmailVerified bool         `json:"isEmailVerified"`
	Subscription  Subscription `json:"subscription"`

	// MaxProfiles overrides the plan-derived profile ceiling when set.
	MaxProfiles     *int       `json:"maxProfiles,omitempty"`
	ActiveProfileID *uuid.UUID `json:"activeProfile,omitempty"`

	LastLoginAt time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidRole reports whether r is an assignable role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin || r == RoleModerator
}
