package services

import (
	"context"
	"fmt"
	"time"

	"laiaconnect/internal/common"
	"laiaconnect/internal/metrics"
	"laiaconnect/internal/models"
	"laiaconnect/internal/money"
	"laiaconnect/internal/plans"
	"laiaconnect/internal/repositories"

	"github.com/google/uuid"
)

// BillingPeriod identifies the subscription month an invoice covers.
type BillingPeriod struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// BillingServiceInterface is the invoice ledger: it turns a tenant's plan and
// add-ons into an issued monthly invoice and drives the invoice state machine.
type BillingServiceInterface interface {
	GenerateInvoice(ctx context.Context, tenantID uuid.UUID, period BillingPeriod) (*models.Invoice, error)
	MarkPaid(ctx context.Context, invoiceID uuid.UUID) error
	Cancel(ctx context.Context, invoiceID uuid.UUID) error
	GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error)
	ListInvoices(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Invoice, error)
}

type billingService struct {
	tenantRepo  repositories.TenantRepository
	invoiceRepo repositories.InvoiceRepository
	clock       common.Clock
}

// NewBillingService creates a new billing service
func NewBillingService(tenantRepo repositories.TenantRepository, invoiceRepo repositories.InvoiceRepository, clock common.Clock) BillingServiceInterface {
	return &billingService{
		tenantRepo:  tenantRepo,
		invoiceRepo: invoiceRepo,
		clock:       clock,
	}
}

// GenerateInvoice issues the subscription invoice for one tenant and billing
// period. Only ACTIVE tenants are billable; everything else returns the
// NOT_BILLABLE signal, which billing runners treat as a silent skip. The call
// is idempotent per (tenant, period): a live invoice already issued for the
// period is returned as-is instead of minting a duplicate. The invoice is
// created directly in ISSUED with an immediate due date (SEPA pull, no net-30
// terms).
func (s *billingService) GenerateInvoice(ctx context.Context, tenantID uuid.UUID, period BillingPeriod) (*models.Invoice, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if tenant.Status != models.TenantStatusActive {
		return nil, common.NewDomainError(common.KindNotBillable,
			fmt.Sprintf("tenant is %s, only ACTIVE tenants are billed", tenant.Status),
			"tenant_id", tenantID.String())
	}

	existing, err := s.invoiceRepo.GetByTenantAndPeriod(ctx, tenantID, period.String())
	if err == nil {
		return existing, nil
	}
	if common.KindOf(err) != common.KindNotFound {
		return nil, err
	}

	amount := plans.TotalMonthlyAmount(tenant.Plan, tenant.Addons)
	amountCents, err := money.ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoice := &models.Invoice{
		ID:            uuid.New(),
		TenantID:      tenant.ID,
		AmountCents:   amountCents,
		Plan:          tenant.Plan,
		Type:          models.InvoiceTypeInvoice,
		Status:        models.InvoiceStatusIssued,
		BillingPeriod: period.String(),
		IssueDate:     now,
		DueDate:       now,
		Description:   fmt.Sprintf("Abonnement LAIA %s - %s", tenant.Plan, period),
	}

	if err := s.invoiceRepo.CreateWithNumber(ctx, invoice); err != nil {
		return nil, err
	}

	metrics.InvoicesIssued.WithLabelValues(tenant.Plan).Inc()
	return invoice, nil
}

// MarkPaid transitions an ISSUED invoice to PAID and stamps the payment date.
func (s *billingService) MarkPaid(ctx context.Context, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusIssued {
		return common.NewDomainError(common.KindIllegalTransition,
			fmt.Sprintf("cannot mark %s invoice paid", invoice.Status),
			"invoice_id", invoiceID.String(), "status", invoice.Status)
	}
	now := s.clock.Now()
	return s.invoiceRepo.UpdateStatus(ctx, invoiceID, models.InvoiceStatusPaid, &now)
}

// Cancel transitions an ISSUED invoice to CANCELLED. Paid invoices are
// reversed with a credit note instead, never cancelled in place.
func (s *billingService) Cancel(ctx context.Context, invoiceID uuid.UUID) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice.Status != models.InvoiceStatusIssued {
		return common.NewDomainError(common.KindIllegalTransition,
			fmt.Sprintf("cannot cancel %s invoice", invoice.Status),
			"invoice_id", invoiceID.String(), "status", invoice.Status)
	}
	return s.invoiceRepo.UpdateStatus(ctx, invoiceID, models.InvoiceStatusCancelled, nil)
}

func (s *billingService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, invoiceID)
}

func (s *billingService) ListInvoices(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.invoiceRepo.ListByTenant(ctx, tenantID, limit, offset)
}
