package handlers

import (
	"net/http"
	"strconv"
	"time"

	"laiaconnect/internal/common"
	"laiaconnect/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// BillingHandlers handles HTTP requests for invoices and credit notes
type BillingHandlers struct {
	billingService    services.BillingServiceInterface
	creditNoteService services.CreditNoteServiceInterface
	clock             common.Clock
}

// NewBillingHandlers creates a new billing handlers instance
func NewBillingHandlers(billingService services.BillingServiceInterface, creditNoteService services.CreditNoteServiceInterface, clock common.Clock) *BillingHandlers {
	return &BillingHandlers{
		billingService:    billingService,
		creditNoteService: creditNoteService,
		clock:             clock,
	}
}

// GenerateInvoice handles POST /api/tenants/:id/invoices
func (h *BillingHandlers) GenerateInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	now := h.clock.Now()
	if req.Year == 0 {
		req.Year = now.Year()
		req.Month = int(now.Month())
	}
	if req.Month < 1 || req.Month > 12 {
		return common.SendValidationError(c, "month", "month must be between 1 and 12")
	}

	period := services.BillingPeriod{Year: req.Year, Month: time.Month(req.Month)}
	invoice, err := h.billingService.GenerateInvoice(ctx, tenantID, period)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// ListInvoices handles GET /api/tenants/:id/invoices
func (h *BillingHandlers) ListInvoices(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	invoices, err := h.billingService.ListInvoices(ctx, tenantID, limit, offset)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, invoices)
}

// GetInvoice handles GET /api/invoices/:id
func (h *BillingHandlers) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "invoice id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	invoice, err := h.billingService.GetInvoice(ctx, invoiceID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// MarkPaid handles POST /api/invoices/:id/pay
func (h *BillingHandlers) MarkPaid(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "invoice id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	if err := h.billingService.MarkPaid(ctx, invoiceID); err != nil {
		return common.SendDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelInvoice handles POST /api/invoices/:id/cancel
func (h *BillingHandlers) CancelInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "invoice id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	if err := h.billingService.Cancel(ctx, invoiceID); err != nil {
		return common.SendDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// IssueCreditNote handles POST /api/invoices/:id/credit-note
func (h *BillingHandlers) IssueCreditNote(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "invoice id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	issuerID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		Amount *string `json:"amount"`
		Reason string  `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		parsed, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return common.SendValidationError(c, "amount", "amount must be a decimal string")
		}
		amount = &parsed
	}

	note, err := h.creditNoteService.IssueCreditNote(ctx, invoiceID, amount, req.Reason, issuerID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, note)
}

// ListCreditNotes handles GET /api/invoices/:id/credit-notes
func (h *BillingHandlers) ListCreditNotes(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := common.ValidateUUID(c.Param("id"), "invoice id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	notes, err := h.creditNoteService.ListForInvoice(ctx, invoiceID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, notes)
}
