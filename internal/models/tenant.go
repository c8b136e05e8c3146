package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant lifecycle statuses.
const (
	TenantStatusTrial     = "TRIAL"
	TenantStatusActive    = "ACTIVE"
	TenantStatusSuspended = "SUSPENDED"
	TenantStatusCancelled = "CANCELLED"
)

// Tenant is one subscribing institute. The billing core only reads plan,
// add-ons, status and creation date; the record itself is owned by the
// onboarding service.
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Plan      string    `json:"plan" db:"plan"`
	Addons    []string  `json:"addons" db:"addons"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
