// Package analytics composes per-tenant lifecycle scores and LTV projections
// into portfolio-level reporting for the super-admin views. It only groups
// and sums; all scoring stays in the services package.
package analytics

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"laiaconnect/internal/caching"
	"laiaconnect/internal/models"
	"laiaconnect/internal/repositories"
	"laiaconnect/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTopN bounds the top-tenants ranking in portfolio reports.
const DefaultTopN = 10

const reportCacheTTL = 10 * time.Minute

// AnalyticsService aggregates portfolio statistics across tenants.
type AnalyticsService struct {
	tenantRepo repositories.TenantRepository
	eventRepo  repositories.RevenueEventRepository
	lifecycle  services.LifecycleServiceInterface
	ltv        services.LTVServiceInterface
	cacheSvc   caching.CacheService
}

func NewAnalyticsService(tenantRepo repositories.TenantRepository, eventRepo repositories.RevenueEventRepository, lifecycle services.LifecycleServiceInterface, ltv services.LTVServiceInterface, cacheSvc caching.CacheService) *AnalyticsService {
	return &AnalyticsService{
		tenantRepo: tenantRepo,
		eventRepo:  eventRepo,
		lifecycle:  lifecycle,
		ltv:        ltv,
		cacheSvc:   cacheSvc,
	}
}

// AggregatePortfolio scores every given tenant as of the same instant and
// rolls the results up. A nil tenantIDs slice means the whole portfolio.
func (a *AnalyticsService) AggregatePortfolio(ctx context.Context, tenantIDs []uuid.UUID, asOf time.Time, topN int) (*models.PortfolioReport, error) {
	tenants, err := a.resolveTenants(ctx, tenantIDs)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	report := &models.PortfolioReport{
		AsOf:        asOf,
		TenantCount: len(tenants),
		BySegment:   make(map[string]int),
		ByChurnRisk: make(map[string]int),
	}

	type planAgg struct {
		count int
		total decimal.Decimal
	}
	byPlan := make(map[string]*planAgg)

	var (
		sumRFM        int
		sumHistorical = decimal.Zero
		sumPredicted  = decimal.Zero
		sumRemaining  = decimal.Zero
		ranks         []models.TenantLTVRank
	)

	for _, tenant := range tenants {
		events, err := a.eventRepo.ListForTenant(ctx, tenant.ID, nil)
		if err != nil {
			return nil, err
		}

		score := a.lifecycle.ScoreFromEvents(tenant, events, asOf)
		projection := a.ltv.ProjectFromEvents(tenant, events, asOf)

		report.BySegment[score.Segment]++
		report.ByChurnRisk[score.ChurnRisk]++
		sumRFM += score.RFMScore
		sumHistorical = sumHistorical.Add(projection.HistoricalLTV)
		sumPredicted = sumPredicted.Add(projection.PredictedLTV)
		sumRemaining = sumRemaining.Add(projection.RemainingLTV)

		ranks = append(ranks, models.TenantLTVRank{
			TenantID:     tenant.ID,
			Name:         tenant.Name,
			Plan:         tenant.Plan,
			PredictedLTV: projection.PredictedLTV,
		})

		agg, ok := byPlan[tenant.Plan]
		if !ok {
			agg = &planAgg{total: decimal.Zero}
			byPlan[tenant.Plan] = agg
		}
		agg.count++
		agg.total = agg.total.Add(projection.PredictedLTV)
	}

	report.TotalHistoricalLTV = sumHistorical.Round(2)
	report.TotalPredictedLTV = sumPredicted.Round(2)
	report.TotalRemainingLTV = sumRemaining.Round(2)

	if len(tenants) > 0 {
		n := decimal.NewFromInt(int64(len(tenants)))
		report.AvgRFMScore = decimal.NewFromInt(int64(sumRFM)).Div(n).Round(2)
		report.AvgHistoricalLTV = sumHistorical.Div(n).Round(2)
		report.AvgPredictedLTV = sumPredicted.Div(n).Round(2)
	} else {
		report.AvgRFMScore = decimal.Zero
		report.AvgHistoricalLTV = decimal.Zero
		report.AvgPredictedLTV = decimal.Zero
	}

	sort.Slice(ranks, func(i, j int) bool {
		return ranks[i].PredictedLTV.GreaterThan(ranks[j].PredictedLTV)
	})
	if len(ranks) > topN {
		ranks = ranks[:topN]
	}
	report.TopTenantsByPredicted = ranks

	planIDs := make([]string, 0, len(byPlan))
	for plan := range byPlan {
		planIDs = append(planIDs, plan)
	}
	sort.Strings(planIDs)
	for _, plan := range planIDs {
		agg := byPlan[plan]
		avg := agg.total.Div(decimal.NewFromInt(int64(agg.count))).Round(2)
		report.ByPlan = append(report.ByPlan, models.PlanBreakdown{
			Plan:            plan,
			TenantCount:     agg.count,
			AvgPredictedLTV: avg,
			TotalLTV:        agg.total.Round(2),
		})
	}

	return report, nil
}

// CachedPortfolio serves the whole-portfolio report through the cache with a
// short TTL. Cache failures degrade to a fresh computation.
func (a *AnalyticsService) CachedPortfolio(ctx context.Context, asOf time.Time, topN int) (*models.PortfolioReport, error) {
	key := fmt.Sprintf("%s:%d", asOf.Format("2006-01-02"), topN)
	if a.cacheSvc != nil {
		cached, err := a.cacheSvc.GetPortfolioReport(ctx, key)
		if err != nil {
			log.Printf("WARN: portfolio cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	report, err := a.AggregatePortfolio(ctx, nil, asOf, topN)
	if err != nil {
		return nil, err
	}

	if a.cacheSvc != nil {
		if err := a.cacheSvc.SetPortfolioReport(ctx, key, report, reportCacheTTL); err != nil {
			log.Printf("WARN: portfolio cache write failed: %v", err)
		}
	}
	return report, nil
}

func (a *AnalyticsService) resolveTenants(ctx context.Context, tenantIDs []uuid.UUID) ([]*models.Tenant, error) {
	if len(tenantIDs) == 0 {
		return a.tenantRepo.ListAll(ctx)
	}
	tenants := make([]*models.Tenant, 0, len(tenantIDs))
	for _, id := range tenantIDs {
		tenant, err := a.tenantRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, nil
}
