package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice document types.
const (
	InvoiceTypeInvoice    = "INVOICE"
	InvoiceTypeCreditNote = "CREDIT_NOTE"
)

// Invoice statuses. Regular invoices move DRAFT -> ISSUED -> {PAID, CANCELLED};
// credit notes are created ISSUED and PAID in one step.
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusIssued    = "ISSUED"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice number prefixes. The formats INV-YYYY-NNNN and AV-YYYY-NNNN are
// parsed by external accounting systems and must not change.
const (
	InvoicePrefix    = "INV"
	CreditNotePrefix = "AV"
)

// Invoice is a subscription invoice or credit note. AmountCents is signed
// minor units: positive for invoices, negative for credit notes.
type Invoice struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	TenantID      uuid.UUID          `json:"tenant_id" db:"tenant_id"`
	InvoiceNumber string             `json:"invoice_number" db:"invoice_number"`
	AmountCents   int64              `json:"amount_cents" db:"amount_cents"`
	Plan          string             `json:"plan" db:"plan"`
	Type          string             `json:"type" db:"type"`
	Status        string             `json:"status" db:"status"`
	BillingPeriod string             `json:"billing_period,omitempty" db:"billing_period"`
	IssueDate     time.Time          `json:"issue_date" db:"issue_date"`
	DueDate       time.Time          `json:"due_date" db:"due_date"`
	PaidDate      *time.Time         `json:"paid_date" db:"paid_date"`
	Description   string             `json:"description" db:"description"`
	CreditNote    *CreditNoteAudit   `json:"credit_note,omitempty" db:"credit_note"`
	Cancellation  *CancellationAudit `json:"cancellation,omitempty" db:"cancellation"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}

// CreditNoteAudit is the audit trail carried by a credit note. It duplicates
// the original invoice's essentials so the note stays self-describing after
// the original is archived.
type CreditNoteAudit struct {
	OriginalInvoiceID     uuid.UUID `json:"original_invoice_id"`
	OriginalInvoiceNumber string    `json:"original_invoice_number"`
	OriginalAmountCents   int64     `json:"original_amount_cents"`
	CreditAmountCents     int64     `json:"credit_amount_cents"`
	Reason                string    `json:"reason"`
	IsPartial             bool      `json:"is_partial"`
	IssuedBy              uuid.UUID `json:"issued_by"`
}

// CancellationAudit is attached to an invoice cancelled by a full credit note.
type CancellationAudit struct {
	CancelledAt      time.Time `json:"cancelled_at"`
	CancelledBy      uuid.UUID `json:"cancelled_by"`
	CreditNoteID     uuid.UUID `json:"credit_note_id"`
	CreditNoteNumber string    `json:"credit_note_number"`
}
