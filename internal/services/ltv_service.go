package services

import (
	"context"
	"math"
	"time"

	"laiaconnect/internal/models"
	"laiaconnect/internal/plans"
	"laiaconnect/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// minMonthlyChurn floors the monthly churn rate so lifetime expectancy never
// divides by zero.
const minMonthlyChurn = 0.01

// LTVServiceInterface projects historical and forward-looking lifetime value
// for a tenant from its revenue history and subscription fee.
type LTVServiceInterface interface {
	ProjectLTV(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.LTVProjection, error)
	ProjectFromEvents(tenant *models.Tenant, events []*models.RevenueEvent, asOf time.Time) *models.LTVProjection
}

type ltvService struct {
	tenantRepo repositories.TenantRepository
	eventRepo  repositories.RevenueEventRepository
	lifecycle  LifecycleServiceInterface
}

// NewLTVService creates a new LTV projection service
func NewLTVService(tenantRepo repositories.TenantRepository, eventRepo repositories.RevenueEventRepository, lifecycle LifecycleServiceInterface) LTVServiceInterface {
	return &ltvService{
		tenantRepo: tenantRepo,
		eventRepo:  eventRepo,
		lifecycle:  lifecycle,
	}
}

func (s *ltvService) ProjectLTV(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.LTVProjection, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListForTenant(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}
	return s.ProjectFromEvents(tenant, events, asOf), nil
}

// ProjectFromEvents is the pure projection core. Tenants with no revenue at
// all get well-defined floor values, never an error: lifetimeMonths and
// activeMonths bottom out at 1 and every revenue sum at zero.
func (s *ltvService) ProjectFromEvents(tenant *models.Tenant, events []*models.RevenueEvent, asOf time.Time) *models.LTVProjection {
	fee := plans.TotalMonthlyAmount(tenant.Plan, tenant.Addons)

	totalRevenue := decimal.Zero
	activeMonths := make(map[string]bool)
	for _, e := range events {
		if !e.Counted() {
			continue
		}
		totalRevenue = totalRevenue.Add(e.Amount)
		activeMonths[e.CreatedAt.Format("2006-01")] = true
	}

	lifetimeMonths := daysBetween(tenant.CreatedAt, asOf) / 30
	if lifetimeMonths < 1 {
		lifetimeMonths = 1
	}

	churnProb := s.lifecycle.ChurnProbability(tenant, events, asOf)
	monthlyChurn := churnProb / 12
	if monthlyChurn < minMonthlyChurn {
		monthlyChurn = minMonthlyChurn
	}
	expectancyMonths := int(math.Round(1 / monthlyChurn))

	months := len(activeMonths)
	if months < 1 {
		months = 1
	}
	arpu := totalRevenue.Div(decimal.NewFromInt(int64(months)))

	historical := totalRevenue.Add(fee.Mul(decimal.NewFromInt(int64(lifetimeMonths))))
	predictedMonthly := arpu.Add(fee)
	predicted := predictedMonthly.Mul(decimal.NewFromInt(int64(expectancyMonths)))

	remainingMonths := expectancyMonths - lifetimeMonths
	if remainingMonths < 0 {
		remainingMonths = 0
	}
	remaining := predictedMonthly.Mul(decimal.NewFromInt(int64(remainingMonths)))

	return &models.LTVProjection{
		TenantID:                 tenant.ID,
		AsOf:                     asOf,
		HistoricalLTV:            historical.Round(2),
		PredictedLTV:             predicted.Round(2),
		RemainingLTV:             remaining.Round(2),
		ChurnProbability:         churnProb,
		LifetimeExpectancyMonths: expectancyMonths,
		LifetimeMonths:           lifetimeMonths,
		MonthlyARPU:              arpu.Round(2),
		PredictedMonthlyRevenue:  predictedMonthly.Round(2),
		MonthlyGrowthRatePercent: growthRate(events, asOf),
	}
}

// growthRate compares counted revenue in the trailing three months with the
// three months before that. An empty prior window yields 0%, not an error.
func growthRate(events []*models.RevenueEvent, asOf time.Time) decimal.Decimal {
	recentStart := asOf.AddDate(0, -3, 0)
	priorStart := asOf.AddDate(0, -6, 0)

	recent := decimal.Zero
	prior := decimal.Zero
	for _, e := range events {
		if !e.Counted() || e.CreatedAt.After(asOf) {
			continue
		}
		switch {
		case e.CreatedAt.After(recentStart):
			recent = recent.Add(e.Amount)
		case e.CreatedAt.After(priorStart):
			prior = prior.Add(e.Amount)
		}
	}
	if prior.IsZero() {
		return decimal.Zero
	}
	return recent.Sub(prior).Div(prior).Mul(decimal.NewFromInt(100)).Round(2)
}
