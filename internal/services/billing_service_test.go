package services

import (
	"context"
	"testing"
	"time"

	"laiaconnect/internal/common"
	"laiaconnect/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type BillingServiceTestSuite struct {
	suite.Suite
	mockTenantRepo  *MockTenantRepository
	mockInvoiceRepo *MockInvoiceRepository
	service         BillingServiceInterface
	clock           *common.FixedClock
	tenantID        uuid.UUID
	ctx             context.Context
}

func (suite *BillingServiceTestSuite) SetupTest() {
	suite.mockTenantRepo = &MockTenantRepository{}
	suite.mockInvoiceRepo = &MockInvoiceRepository{}
	suite.clock = &common.FixedClock{At: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	suite.service = NewBillingService(suite.mockTenantRepo, suite.mockInvoiceRepo, suite.clock)
	suite.tenantID = uuid.New()
	suite.ctx = context.Background()
}

func (suite *BillingServiceTestSuite) TestGenerateInvoice_Success() {
	// Arrange
	tenant := &models.Tenant{
		ID:     suite.tenantID,
		Name:   "Institut Belle Vie",
		Plan:   "TEAM",
		Addons: []string{"whatsapp_automation"},
		Status: models.TenantStatusActive,
	}
	suite.mockTenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(tenant, nil)
	suite.mockInvoiceRepo.On("GetByTenantAndPeriod", suite.ctx, suite.tenantID, "2026-03").
		Return(nil, common.NewDomainError(common.KindNotFound, "no invoice for period"))
	suite.mockInvoiceRepo.On("CreateWithNumber", suite.ctx, mock.AnythingOfType("*models.Invoice")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Invoice).InvoiceNumber = "INV-2026-0001"
		}).Return(nil)

	// Act
	invoice, err := suite.service.GenerateInvoice(suite.ctx, suite.tenantID, BillingPeriod{Year: 2026, Month: time.March})

	// Assert
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), invoice)
	// TEAM at 119 plus whatsapp_automation at 20
	assert.Equal(suite.T(), int64(13900), invoice.AmountCents)
	assert.Equal(suite.T(), "INV-2026-0001", invoice.InvoiceNumber)
	assert.Equal(suite.T(), models.InvoiceStatusIssued, invoice.Status)
	assert.Equal(suite.T(), models.InvoiceTypeInvoice, invoice.Type)
	assert.Equal(suite.T(), "Abonnement LAIA TEAM - 2026-03", invoice.Description)
	assert.Equal(suite.T(), "2026-03", invoice.BillingPeriod)
	assert.Equal(suite.T(), suite.clock.At, invoice.IssueDate)
	assert.Equal(suite.T(), suite.clock.At, invoice.DueDate)
	assert.Nil(suite.T(), invoice.PaidDate)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *BillingServiceTestSuite) TestGenerateInvoice_IncludedAddonNotDoubleBilled() {
	// Arrange
	tenant := &models.Tenant{
		ID:     suite.tenantID,
		Plan:   "DUO",
		Addons: []string{"blog"},
		Status: models.TenantStatusActive,
	}
	suite.mockTenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(tenant, nil)
	suite.mockInvoiceRepo.On("GetByTenantAndPeriod", suite.ctx, suite.tenantID, "2026-03").
		Return(nil, common.NewDomainError(common.KindNotFound, "no invoice for period"))
	suite.mockInvoiceRepo.On("CreateWithNumber", suite.ctx, mock.AnythingOfType("*models.Invoice")).Return(nil)

	// Act
	invoice, err := suite.service.GenerateInvoice(suite.ctx, suite.tenantID, BillingPeriod{Year: 2026, Month: time.March})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(6900), invoice.AmountCents)
}

func (suite *BillingServiceTestSuite) TestGenerateInvoice_SamePeriodReturnsExisting() {
	// Arrange
	tenant := &models.Tenant{
		ID:     suite.tenantID,
		Plan:   "TEAM",
		Status: models.TenantStatusActive,
	}
	existing := &models.Invoice{
		ID:            uuid.New(),
		TenantID:      suite.tenantID,
		InvoiceNumber: "INV-2026-0001",
		BillingPeriod: "2026-03",
		Status:        models.InvoiceStatusIssued,
	}
	suite.mockTenantRepo.On("GetByID", suite.ctx, suite.tenantID).Return(tenant, nil)
	suite.mockInvoiceRepo.On("GetByTenantAndPeriod", suite.ctx, suite.tenantID, "2026-03").Return(existing, nil)

	// Act
	invoice, err := suite.service.GenerateInvoice(suite.ctx, suite.tenantID, BillingPeriod{Year: 2026, Month: time.March})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), existing, invoice)
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "CreateWithNumber", mock.Anything, mock.Anything)
}

func (suite *BillingServiceTestSuite) TestGenerateInvoice_NotBillableStatuses() {
	for _, status := range []string{models.TenantStatusTrial, models.TenantStatusSuspended, models.TenantStatusCancelled} {
		// Arrange
		tenantID := uuid.New()
		tenant := &models.Tenant{ID: tenantID, Plan: "SOLO", Status: status}
		suite.mockTenantRepo.On("GetByID", suite.ctx, tenantID).Return(tenant, nil)

		// Act
		invoice, err := suite.service.GenerateInvoice(suite.ctx, tenantID, BillingPeriod{Year: 2026, Month: time.March})

		// Assert
		assert.Nil(suite.T(), invoice)
		assert.True(suite.T(), common.IsNotBillable(err), "status %s should not be billable", status)
	}
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "CreateWithNumber", mock.Anything, mock.Anything)
}

func (suite *BillingServiceTestSuite) TestGenerateInvoice_TenantNotFound() {
	// Arrange
	suite.mockTenantRepo.On("GetByID", suite.ctx, suite.tenantID).
		Return(nil, common.NewDomainError(common.KindNotFound, "tenant not found"))

	// Act
	invoice, err := suite.service.GenerateInvoice(suite.ctx, suite.tenantID, BillingPeriod{Year: 2026, Month: time.March})

	// Assert
	assert.Nil(suite.T(), invoice)
	assert.Equal(suite.T(), common.KindNotFound, common.KindOf(err))
}

func (suite *BillingServiceTestSuite) TestMarkPaid_Success() {
	// Arrange
	invoiceID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, Status: models.InvoiceStatusIssued}
	suite.mockInvoiceRepo.On("GetByID", suite.ctx, invoiceID).Return(invoice, nil)
	suite.mockInvoiceRepo.On("UpdateStatus", suite.ctx, invoiceID, models.InvoiceStatusPaid, &suite.clock.At).Return(nil)

	// Act
	err := suite.service.MarkPaid(suite.ctx, invoiceID)

	// Assert
	assert.NoError(suite.T(), err)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *BillingServiceTestSuite) TestMarkPaid_AlreadyPaid() {
	// Arrange
	invoiceID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, Status: models.InvoiceStatusPaid}
	suite.mockInvoiceRepo.On("GetByID", suite.ctx, invoiceID).Return(invoice, nil)

	// Act
	err := suite.service.MarkPaid(suite.ctx, invoiceID)

	// Assert
	assert.Equal(suite.T(), common.KindIllegalTransition, common.KindOf(err))
	suite.mockInvoiceRepo.AssertNotCalled(suite.T(), "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BillingServiceTestSuite) TestCancel_Success() {
	// Arrange
	invoiceID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, Status: models.InvoiceStatusIssued}
	suite.mockInvoiceRepo.On("GetByID", suite.ctx, invoiceID).Return(invoice, nil)
	suite.mockInvoiceRepo.On("UpdateStatus", suite.ctx, invoiceID, models.InvoiceStatusCancelled, (*time.Time)(nil)).Return(nil)

	// Act
	err := suite.service.Cancel(suite.ctx, invoiceID)

	// Assert
	assert.NoError(suite.T(), err)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func (suite *BillingServiceTestSuite) TestCancel_PaidInvoiceRejected() {
	// Arrange
	invoiceID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, Status: models.InvoiceStatusPaid}
	suite.mockInvoiceRepo.On("GetByID", suite.ctx, invoiceID).Return(invoice, nil)

	// Act
	err := suite.service.Cancel(suite.ctx, invoiceID)

	// Assert
	assert.Equal(suite.T(), common.KindIllegalTransition, common.KindOf(err))
}

func (suite *BillingServiceTestSuite) TestCancel_CancelledInvoiceRejected() {
	// Arrange
	invoiceID := uuid.New()
	invoice := &models.Invoice{ID: invoiceID, Status: models.InvoiceStatusCancelled}
	suite.mockInvoiceRepo.On("GetByID", suite.ctx, invoiceID).Return(invoice, nil)

	// Act
	err := suite.service.Cancel(suite.ctx, invoiceID)

	// Assert
	assert.Equal(suite.T(), common.KindIllegalTransition, common.KindOf(err))
}

func (suite *BillingServiceTestSuite) TestListInvoices_DefaultLimit() {
	// Arrange
	suite.mockInvoiceRepo.On("ListByTenant", suite.ctx, suite.tenantID, 50, 0).Return([]*models.Invoice{}, nil)

	// Act
	invoices, err := suite.service.ListInvoices(suite.ctx, suite.tenantID, 0, -5)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), invoices)
	suite.mockInvoiceRepo.AssertExpectations(suite.T())
}

func TestBillingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BillingServiceTestSuite))
}
