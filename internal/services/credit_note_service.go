package services

import (
	"context"
	"fmt"

	"laiaconnect/internal/common"
	"laiaconnect/internal/metrics"
	"laiaconnect/internal/models"
	"laiaconnect/internal/money"
	"laiaconnect/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditNoteServiceInterface issues full or partial credit notes (avoirs)
// against existing invoices. French invoicing rules apply: an avoir never
// deletes the original invoice, always references it, and carries a negative
// amount.
type CreditNoteServiceInterface interface {
	// IssueCreditNote reverses an invoice. A nil amount issues a full credit
	// note and cancels the original; a non-nil amount issues a partial note,
	// bounded by what remains creditable.
	IssueCreditNote(ctx context.Context, originalInvoiceID uuid.UUID, amount *decimal.Decimal, reason string, issuerID uuid.UUID) (*models.Invoice, error)
	ListForInvoice(ctx context.Context, originalInvoiceID uuid.UUID) ([]*models.Invoice, error)
}

type creditNoteService struct {
	invoiceRepo repositories.InvoiceRepository
	clock       common.Clock
}

// NewCreditNoteService creates a new credit note service
func NewCreditNoteService(invoiceRepo repositories.InvoiceRepository, clock common.Clock) CreditNoteServiceInterface {
	return &creditNoteService{
		invoiceRepo: invoiceRepo,
		clock:       clock,
	}
}

func (s *creditNoteService) IssueCreditNote(ctx context.Context, originalInvoiceID uuid.UUID, amount *decimal.Decimal, reason string, issuerID uuid.UUID) (*models.Invoice, error) {
	original, err := s.invoiceRepo.GetByID(ctx, originalInvoiceID)
	if err != nil {
		return nil, err
	}
	if original.Type != models.InvoiceTypeInvoice {
		return nil, common.NewDomainError(common.KindIllegalTransition,
			"credit notes can only be issued against invoices",
			"invoice_id", originalInvoiceID.String(), "type", original.Type)
	}
	if original.Status == models.InvoiceStatusDraft {
		return nil, common.NewDomainError(common.KindIllegalTransition,
			"cannot credit a draft invoice",
			"invoice_id", originalInvoiceID.String())
	}

	existing, err := s.invoiceRepo.ListCreditNotesForInvoice(ctx, originalInvoiceID)
	if err != nil {
		return nil, err
	}

	var creditedCents int64
	for _, note := range existing {
		if note.CreditNote != nil && !note.CreditNote.IsPartial {
			return nil, common.NewDomainError(common.KindDuplicateCreditNote,
				fmt.Sprintf("a full credit note (%s) already exists for this invoice", note.InvoiceNumber),
				"invoice_id", originalInvoiceID.String(), "credit_note_id", note.ID.String())
		}
		if note.AmountCents < 0 {
			creditedCents += -note.AmountCents
		} else {
			creditedCents += note.AmountCents
		}
	}

	remainingCents := original.AmountCents - creditedCents

	isPartial := amount != nil
	var creditCents int64
	if isPartial {
		creditCents, err = money.ToMinorUnits(*amount)
		if err != nil {
			return nil, err
		}
		if creditCents == 0 {
			return nil, common.NewDomainError(common.KindInvalidAmount,
				"partial credit amount must be positive",
				"invoice_id", originalInvoiceID.String())
		}
		if creditCents > remainingCents {
			return nil, common.NewDomainError(common.KindOverCredit,
				fmt.Sprintf("credit of %s exceeds the %s still creditable",
					money.ToMajorUnits(creditCents), money.ToMajorUnits(remainingCents)),
				"invoice_id", originalInvoiceID.String(),
				"remaining", money.ToMajorUnits(remainingCents).String())
		}
	} else {
		// A full credit note reverses the entire invoice; once partials have
		// eaten into it, only partials for the remainder are possible.
		if creditedCents > 0 {
			return nil, common.NewDomainError(common.KindOverCredit,
				"partial credit notes already exist; issue a partial note for the remainder instead",
				"invoice_id", originalInvoiceID.String(),
				"remaining", money.ToMajorUnits(remainingCents).String())
		}
		creditCents = original.AmountCents
	}

	if reason == "" {
		reason = "Annulation"
	}

	now := s.clock.Now()
	note := &models.Invoice{
		ID:          uuid.New(),
		TenantID:    original.TenantID,
		AmountCents: -creditCents,
		Plan:        original.Plan,
		Type:        models.InvoiceTypeCreditNote,
		// An avoir is settled the moment it is issued; there is no draft phase.
		Status:      models.InvoiceStatusPaid,
		IssueDate:   now,
		DueDate:     now,
		PaidDate:    &now,
		Description: fmt.Sprintf("Avoir sur facture %s - %s", original.InvoiceNumber, reason),
		CreditNote: &models.CreditNoteAudit{
			OriginalInvoiceID:     original.ID,
			OriginalInvoiceNumber: original.InvoiceNumber,
			OriginalAmountCents:   original.AmountCents,
			CreditAmountCents:     -creditCents,
			Reason:                reason,
			IsPartial:             isPartial,
			IssuedBy:              issuerID,
		},
	}

	if err := s.invoiceRepo.CreateWithNumber(ctx, note); err != nil {
		return nil, err
	}

	if !isPartial {
		audit := &models.CancellationAudit{
			CancelledAt:      now,
			CancelledBy:      issuerID,
			CreditNoteID:     note.ID,
			CreditNoteNumber: note.InvoiceNumber,
		}
		if err := s.invoiceRepo.AttachCancellation(ctx, original.ID, audit); err != nil {
			return nil, err
		}
		metrics.CreditNotesIssued.WithLabelValues("full").Inc()
	} else {
		metrics.CreditNotesIssued.WithLabelValues("partial").Inc()
	}

	return note, nil
}

func (s *creditNoteService) ListForInvoice(ctx context.Context, originalInvoiceID uuid.UUID) ([]*models.Invoice, error) {
	return s.invoiceRepo.ListCreditNotesForInvoice(ctx, originalInvoiceID)
}
