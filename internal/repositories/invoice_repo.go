package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"laiaconnect/internal/common"
	"laiaconnect/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// numberingRetries bounds the insert-retry loop on invoice_number conflicts.
const numberingRetries = 3

// InvoiceRepository persists invoices and credit notes. CreateWithNumber is
// the only write path that mints a document number: it allocates the next
// year-scoped sequence value and inserts the row in a single transaction, so
// concurrent billing runs can never collide on a number.
type InvoiceRepository interface {
	CreateWithNumber(ctx context.Context, invoice *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, paidDate *time.Time) error
	AttachCancellation(ctx context.Context, id uuid.UUID, audit *models.CancellationAudit) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Invoice, error)
	ListCreditNotesForInvoice(ctx context.Context, originalInvoiceID uuid.UUID) ([]*models.Invoice, error)
	GetByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, period string) (*models.Invoice, error)
}

type invoiceRepo struct {
	db Database
}

func NewInvoiceRepo(db Database) InvoiceRepository {
	return &invoiceRepo{db: db}
}

const invoiceColumns = `id, tenant_id, invoice_number, amount_cents, plan, type, status, billing_period, issue_date, due_date, paid_date, description, credit_note, cancellation, created_at, updated_at`

// CreateWithNumber allocates the next INV- or AV- sequence number for the
// invoice's issue year and inserts the row, atomically. The sequence row is
// bumped with an upsert inside the same transaction as the insert; the unique
// constraint on invoice_number is the backstop, retried a bounded number of
// times before surfacing CONFLICT_RETRY_FAILED.
func (r *invoiceRepo) CreateWithNumber(ctx context.Context, invoice *models.Invoice) error {
	prefix := models.InvoicePrefix
	if invoice.Type == models.InvoiceTypeCreditNote {
		prefix = models.CreditNotePrefix
	}
	year := invoice.IssueDate.Year()

	var lastErr error
	for attempt := 0; attempt < numberingRetries; attempt++ {
		err := r.tryCreate(ctx, invoice, prefix, year)
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			lastErr = err
			continue
		}
		return err
	}
	return common.NewDomainError(common.KindConflictRetryFailed,
		fmt.Sprintf("could not allocate a unique %s number after %d attempts: %v", prefix, numberingRetries, lastErr),
		"tenant_id", invoice.TenantID.String())
}

func (r *invoiceRepo) tryCreate(ctx context.Context, invoice *models.Invoice, prefix string, year int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seqQuery := `
		INSERT INTO invoice_sequences (prefix, year, last_number, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (prefix, year)
		DO UPDATE SET
			last_number = invoice_sequences.last_number + 1,
			updated_at = NOW()
		RETURNING last_number
	`
	var seq int
	if err := tx.QueryRow(ctx, seqQuery, prefix, year).Scan(&seq); err != nil {
		return fmt.Errorf("failed to advance %s-%d sequence: %w", prefix, year, err)
	}

	invoice.InvoiceNumber = fmt.Sprintf("%s-%d-%04d", prefix, year, seq)

	insertQuery := `
		INSERT INTO invoices (id, tenant_id, invoice_number, amount_cents, plan, type, status, billing_period, issue_date, due_date, paid_date, description, credit_note, cancellation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	`
	_, err = tx.Exec(ctx, insertQuery,
		invoice.ID, invoice.TenantID, invoice.InvoiceNumber, invoice.AmountCents,
		invoice.Plan, invoice.Type, invoice.Status, invoice.BillingPeriod, invoice.IssueDate, invoice.DueDate,
		invoice.PaidDate, invoice.Description, invoice.CreditNote, invoice.Cancellation)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&invoice.ID, &invoice.TenantID, &invoice.InvoiceNumber, &invoice.AmountCents,
		&invoice.Plan, &invoice.Type, &invoice.Status, &invoice.BillingPeriod, &invoice.IssueDate, &invoice.DueDate,
		&invoice.PaidDate, &invoice.Description, &invoice.CreditNote, &invoice.Cancellation,
		&invoice.CreatedAt, &invoice.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewDomainError(common.KindNotFound, "invoice not found", "invoice_id", id.String())
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, paidDate *time.Time) error {
	query := `
		UPDATE invoices
		SET status = $1, paid_date = COALESCE($2, paid_date), updated_at = NOW()
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, status, paidDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewDomainError(common.KindNotFound, "invoice not found", "invoice_id", id.String())
	}
	return nil
}

func (r *invoiceRepo) AttachCancellation(ctx context.Context, id uuid.UUID, audit *models.CancellationAudit) error {
	query := `
		UPDATE invoices
		SET status = $1, cancellation = $2, updated_at = NOW()
		WHERE id = $3
	`
	tag, err := r.db.Exec(ctx, query, models.InvoiceStatusCancelled, audit, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return common.NewDomainError(common.KindNotFound, "invoice not found", "invoice_id", id.String())
	}
	return nil
}

func (r *invoiceRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1
		ORDER BY issue_date DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// ListCreditNotesForInvoice returns every credit note whose audit trail
// references the given original invoice.
func (r *invoiceRepo) ListCreditNotesForInvoice(ctx context.Context, originalInvoiceID uuid.UUID) ([]*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE type = $1 AND credit_note->>'original_invoice_id' = $2
		ORDER BY issue_date ASC
	`
	rows, err := r.db.Query(ctx, query, models.InvoiceTypeCreditNote, originalInvoiceID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

// GetByTenantAndPeriod looks up the live invoice issued to a tenant for a
// billing period. Cancelled invoices are ignored so a new one can replace
// them; credit notes never carry a billing period.
func (r *invoiceRepo) GetByTenantAndPeriod(ctx context.Context, tenantID uuid.UUID, period string) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tenant_id = $1 AND billing_period = $2 AND type = $3 AND status != $4
	`
	err := r.db.QueryRow(ctx, query, tenantID, period, models.InvoiceTypeInvoice, models.InvoiceStatusCancelled).Scan(
		&invoice.ID, &invoice.TenantID, &invoice.InvoiceNumber, &invoice.AmountCents,
		&invoice.Plan, &invoice.Type, &invoice.Status, &invoice.BillingPeriod, &invoice.IssueDate, &invoice.DueDate,
		&invoice.PaidDate, &invoice.Description, &invoice.CreditNote, &invoice.Cancellation,
		&invoice.CreatedAt, &invoice.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.NewDomainError(common.KindNotFound, "no invoice for period",
			"tenant_id", tenantID.String(), "period", period)
	}
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

func scanInvoices(rows pgx.Rows) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	for rows.Next() {
		invoice := &models.Invoice{}
		if err := rows.Scan(
			&invoice.ID, &invoice.TenantID, &invoice.InvoiceNumber, &invoice.AmountCents,
			&invoice.Plan, &invoice.Type, &invoice.Status, &invoice.BillingPeriod, &invoice.IssueDate, &invoice.DueDate,
			&invoice.PaidDate, &invoice.Description, &invoice.CreditNote, &invoice.Cancellation,
			&invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}
