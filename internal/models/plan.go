package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan tier names.
const (
	PlanBasic    = "basic"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// PlanPrice holds the monthly and yearly price points.
type PlanPrice struct {
	Monthly int `json:"monthly"`
	Yearly  int `json:"yearly"`
}

// Plan is a subscription tier descriptor. Read-mostly; mutated only by
// admins, soft-deleted via IsActive.
type Plan struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Price       PlanPrice `json:"price"`
	Features    []string  `json:"features"`
	Quality     string    `json:"quality"`
	Resolution  string    `json:"resolution"`
	Devices     string    `json:"devices"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidPlanName reports whether name is one of the known tiers.
func ValidPlanName(name string) bool {
	return name == PlanBasic || name == PlanStandard || name == PlanPremium
}
