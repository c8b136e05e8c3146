package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Revenue event statuses. Only confirmed and completed events count toward
// revenue sums; pending and cancelled are excluded everywhere.
const (
	RevenueEventPending   = "PENDING"
	RevenueEventConfirmed = "CONFIRMED"
	RevenueEventCompleted = "COMPLETED"
	RevenueEventCancelled = "CANCELLED"
)

// RevenueEvent is a reservation or order that earned (or would have earned)
// revenue for a tenant. Immutable once created.
type RevenueEvent struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	TenantID  uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Status    string          `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Counted reports whether the event contributes to revenue sums.
func (e *RevenueEvent) Counted() bool {
	return e.Status == RevenueEventConfirmed || e.Status == RevenueEventCompleted
}
