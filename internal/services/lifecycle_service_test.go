package services

import (
	"context"
	"testing"
	"time"

	"laiaconnect/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LifecycleServiceTestSuite struct {
	suite.Suite
	mockTenantRepo *MockTenantRepository
	mockEventRepo  *MockRevenueEventRepository
	service        LifecycleServiceInterface
	asOf           time.Time
	ctx            context.Context
}

func (suite *LifecycleServiceTestSuite) SetupTest() {
	suite.mockTenantRepo = &MockTenantRepository{}
	suite.mockEventRepo = &MockRevenueEventRepository{}
	suite.service = NewLifecycleService(suite.mockTenantRepo, suite.mockEventRepo, DefaultThresholds())
	suite.asOf = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	suite.ctx = context.Background()
}

func (suite *LifecycleServiceTestSuite) tenantCreatedDaysAgo(days int, status string) *models.Tenant {
	return &models.Tenant{
		ID:        uuid.New(),
		Plan:      "DUO",
		Status:    status,
		CreatedAt: suite.asOf.AddDate(0, 0, -days),
	}
}

// eventsSpread returns count confirmed events of equal amounts summing to
// total, evenly spaced with the most recent one lastDaysAgo before asOf.
func (suite *LifecycleServiceTestSuite) eventsSpread(count int, total int64, lastDaysAgo int) []*models.RevenueEvent {
	events := make([]*models.RevenueEvent, 0, count)
	amount := decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(count)))
	for i := 0; i < count; i++ {
		events = append(events, &models.RevenueEvent{
			ID:        uuid.New(),
			Amount:    amount,
			Status:    models.RevenueEventConfirmed,
			CreatedAt: suite.asOf.AddDate(0, 0, -(lastDaysAgo + i*15)),
		})
	}
	return events
}

func (suite *LifecycleServiceTestSuite) TestScoreFromEvents_EstablishedInstitute() {
	// Arrange: 200 day old DUO tenant, 12 bookings worth 2400, last one 10
	// days ago.
	tenant := suite.tenantCreatedDaysAgo(200, models.TenantStatusActive)
	events := suite.eventsSpread(12, 2400, 10)

	// Act
	score := suite.service.ScoreFromEvents(tenant, events, suite.asOf)

	// Assert
	assert.Equal(suite.T(), 4, score.RecencyScore)
	assert.Equal(suite.T(), 3, score.FrequencyScore)
	assert.Equal(suite.T(), 3, score.MonetaryScore)
	assert.Equal(suite.T(), 66, score.RFMScore)
	assert.Equal(suite.T(), models.SegmentPrometteurs, score.Segment)
	assert.Equal(suite.T(), models.ChurnRiskLow, score.ChurnRisk)
	assert.Equal(suite.T(), 10, score.DaysSinceActivity)
	assert.Equal(suite.T(), 12, score.EventCount)
	assert.True(suite.T(), score.TotalRevenue.Equal(decimal.NewFromInt(2400)))
}

func (suite *LifecycleServiceTestSuite) TestScoreFromEvents_Champion() {
	// Arrange: 60 bookings worth 12000, last one 3 days ago.
	tenant := suite.tenantCreatedDaysAgo(400, models.TenantStatusActive)
	events := suite.eventsSpread(60, 12000, 3)

	// Act
	score := suite.service.ScoreFromEvents(tenant, events, suite.asOf)

	// Assert
	assert.Equal(suite.T(), 5, score.RecencyScore)
	assert.Equal(suite.T(), 5, score.FrequencyScore)
	assert.Equal(suite.T(), 5, score.MonetaryScore)
	assert.Equal(suite.T(), 100, score.RFMScore)
	assert.Equal(suite.T(), models.SegmentChampions, score.Segment)
}

func (suite *LifecycleServiceTestSuite) TestScoreFromEvents_NoEventsOldTenant() {
	// Arrange: recency falls back to the creation date.
	tenant := suite.tenantCreatedDaysAgo(400, models.TenantStatusActive)

	// Act
	score := suite.service.ScoreFromEvents(tenant, nil, suite.asOf)

	// Assert
	assert.Equal(suite.T(), 1, score.RecencyScore)
	assert.Equal(suite.T(), 1, score.FrequencyScore)
	assert.Equal(suite.T(), 1, score.MonetaryScore)
	assert.Equal(suite.T(), 20, score.RFMScore)
	assert.Equal(suite.T(), models.SegmentPerdus, score.Segment)
	assert.Equal(suite.T(), models.ChurnRiskHigh, score.ChurnRisk)
	assert.Equal(suite.T(), 400, score.DaysSinceActivity)
	assert.Equal(suite.T(), 0, score.EventCount)
	assert.True(suite.T(), score.TotalRevenue.IsZero())
}

func (suite *LifecycleServiceTestSuite) TestScoreFromEvents_DormantMidRecency() {
	// Arrange: 150 quiet days leaves recency 2 with nothing else to match.
	tenant := suite.tenantCreatedDaysAgo(150, models.TenantStatusActive)

	// Act
	score := suite.service.ScoreFromEvents(tenant, nil, suite.asOf)

	// Assert
	assert.Equal(suite.T(), 2, score.RecencyScore)
	assert.Equal(suite.T(), models.SegmentDormant, score.Segment)
	assert.Equal(suite.T(), models.ChurnRiskMedium, score.ChurnRisk)
}

func (suite *LifecycleServiceTestSuite) TestScoreFromEvents_IgnoresPendingAndCancelled() {
	// Arrange
	tenant := suite.tenantCreatedDaysAgo(100, models.TenantStatusActive)
	events := []*models.RevenueEvent{
		{Amount: decimal.NewFromInt(900), Status: models.RevenueEventPending, CreatedAt: suite.asOf.AddDate(0, 0, -2)},
		{Amount: decimal.NewFromInt(900), Status: models.RevenueEventCancelled, CreatedAt: suite.asOf.AddDate(0, 0, -3)},
		{Amount: decimal.NewFromInt(600), Status: models.RevenueEventCompleted, CreatedAt: suite.asOf.AddDate(0, 0, -40)},
	}

	// Act
	score := suite.service.ScoreFromEvents(tenant, events, suite.asOf)

	// Assert: only the COMPLETED event counts.
	assert.Equal(suite.T(), 1, score.EventCount)
	assert.True(suite.T(), score.TotalRevenue.Equal(decimal.NewFromInt(600)))
	assert.Equal(suite.T(), 40, score.DaysSinceActivity)
	assert.Equal(suite.T(), 3, score.RecencyScore)
}

func (suite *LifecycleServiceTestSuite) TestScoreFromEvents_Segments() {
	cases := []struct {
		name        string
		daysAgo     int
		count       int
		total       int64
		wantSegment string
	}{
		{"loyal regular", 20, 25, 1000, models.SegmentLoyaux},
		{"big spender gone quiet", 60, 8, 11000, models.SegmentGrosDepensiers},
		{"frequent but lapsed", 100, 15, 1000, models.SegmentARisque},
		{"rich but lapsed", 120, 7, 3000, models.SegmentHibernation},
	}
	for _, tc := range cases {
		tenant := suite.tenantCreatedDaysAgo(500, models.TenantStatusActive)
		events := suite.eventsSpread(tc.count, tc.total, tc.daysAgo)
		score := suite.service.ScoreFromEvents(tenant, events, suite.asOf)
		assert.Equal(suite.T(), tc.wantSegment, score.Segment, tc.name)
	}
}

func (suite *LifecycleServiceTestSuite) TestChurnProbability_RecencyBands() {
	cases := []struct {
		daysAgo int
		want    float64
	}{
		{10, 0.05},
		{30, 0.05},
		{60, 0.2},
		{120, 0.5},
		{200, 0.8},
	}
	for _, tc := range cases {
		tenant := suite.tenantCreatedDaysAgo(500, models.TenantStatusActive)
		events := suite.eventsSpread(5, 1000, tc.daysAgo)
		p := suite.service.ChurnProbability(tenant, events, suite.asOf)
		assert.InDelta(suite.T(), tc.want, p, 1e-9, "days ago %d", tc.daysAgo)
	}
}

func (suite *LifecycleServiceTestSuite) TestChurnProbability_StatusOverrides() {
	// Arrange: activity 5 days ago would normally mean 0.05.
	events := suite.eventsSpread(5, 1000, 5)

	// Act / Assert
	cancelled := suite.tenantCreatedDaysAgo(300, models.TenantStatusCancelled)
	assert.InDelta(suite.T(), 1.0, suite.service.ChurnProbability(cancelled, events, suite.asOf), 1e-9)

	suspended := suite.tenantCreatedDaysAgo(300, models.TenantStatusSuspended)
	assert.InDelta(suite.T(), 0.9, suite.service.ChurnProbability(suspended, events, suite.asOf), 1e-9)

	trial := suite.tenantCreatedDaysAgo(10, models.TenantStatusTrial)
	assert.InDelta(suite.T(), 0.3, suite.service.ChurnProbability(trial, events, suite.asOf), 1e-9)

	// A lapsed trial keeps its band probability when it is above the floor.
	lapsedTrial := suite.tenantCreatedDaysAgo(300, models.TenantStatusTrial)
	lapsedEvents := suite.eventsSpread(5, 1000, 200)
	assert.InDelta(suite.T(), 0.8, suite.service.ChurnProbability(lapsedTrial, lapsedEvents, suite.asOf), 1e-9)
}

func (suite *LifecycleServiceTestSuite) TestScoreTenant_LoadsFromRepos() {
	// Arrange
	tenant := suite.tenantCreatedDaysAgo(200, models.TenantStatusActive)
	events := suite.eventsSpread(12, 2400, 10)
	suite.mockTenantRepo.On("GetByID", suite.ctx, tenant.ID).Return(tenant, nil)
	suite.mockEventRepo.On("ListForTenant", suite.ctx, tenant.ID, (*time.Time)(nil)).Return(events, nil)

	// Act
	score, err := suite.service.ScoreTenant(suite.ctx, tenant.ID, suite.asOf)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 66, score.RFMScore)
	suite.mockTenantRepo.AssertExpectations(suite.T())
	suite.mockEventRepo.AssertExpectations(suite.T())
}

func TestLifecycleServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleServiceTestSuite))
}
