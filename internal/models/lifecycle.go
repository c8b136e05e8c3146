package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Churn risk buckets, derived purely from recency.
const (
	ChurnRiskLow    = "Low"
	ChurnRiskMedium = "Medium"
	ChurnRiskHigh   = "High"
)

// RFM segment labels, evaluated in priority order.
const (
	SegmentChampions      = "Champions"
	SegmentLoyaux         = "Loyaux"
	SegmentGrosDepensiers = "Gros dépensiers"
	SegmentPrometteurs    = "Prometteurs"
	SegmentARisque        = "À risque"
	SegmentHibernation    = "Hibernation"
	SegmentPerdus         = "Perdus"
	SegmentDormant        = "Dormant"
)

// LifecycleScore is the RFM scoring of one tenant at a point in time.
// It is recomputed on every query and never persisted by this service.
type LifecycleScore struct {
	TenantID          uuid.UUID       `json:"tenant_id"`
	AsOf              time.Time       `json:"as_of"`
	RecencyScore      int             `json:"recency_score"`
	FrequencyScore    int             `json:"frequency_score"`
	MonetaryScore     int             `json:"monetary_score"`
	RFMScore          int             `json:"rfm_score"`
	Segment           string          `json:"segment"`
	ChurnRisk         string          `json:"churn_risk"`
	DaysSinceActivity int             `json:"days_since_activity"`
	EventCount        int             `json:"event_count"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
}

// LTVProjection is the lifetime-value projection of one tenant.
type LTVProjection struct {
	TenantID                 uuid.UUID       `json:"tenant_id"`
	AsOf                     time.Time       `json:"as_of"`
	HistoricalLTV            decimal.Decimal `json:"historical_ltv"`
	PredictedLTV             decimal.Decimal `json:"predicted_ltv"`
	RemainingLTV             decimal.Decimal `json:"remaining_ltv"`
	ChurnProbability         float64         `json:"churn_probability"`
	LifetimeExpectancyMonths int             `json:"lifetime_expectancy_months"`
	LifetimeMonths           int             `json:"lifetime_months"`
	MonthlyARPU              decimal.Decimal `json:"monthly_arpu"`
	PredictedMonthlyRevenue  decimal.Decimal `json:"predicted_monthly_revenue"`
	MonthlyGrowthRatePercent decimal.Decimal `json:"monthly_growth_rate_percent"`
}

// PlanBreakdown is one row of the per-plan portfolio table.
type PlanBreakdown struct {
	Plan            string          `json:"plan"`
	TenantCount     int             `json:"tenant_count"`
	AvgPredictedLTV decimal.Decimal `json:"avg_predicted_ltv"`
	TotalLTV        decimal.Decimal `json:"total_ltv"`
}

// TenantLTVRank is one entry of the top-N ranking by predicted LTV.
type TenantLTVRank struct {
	TenantID     uuid.UUID       `json:"tenant_id"`
	Name         string          `json:"name"`
	Plan         string          `json:"plan"`
	PredictedLTV decimal.Decimal `json:"predicted_ltv"`
}

// PortfolioReport aggregates per-tenant scores into the super-admin view.
type PortfolioReport struct {
	AsOf                  time.Time       `json:"as_of"`
	TenantCount           int             `json:"tenant_count"`
	BySegment             map[string]int  `json:"by_segment"`
	ByChurnRisk           map[string]int  `json:"by_churn_risk"`
	AvgRFMScore           decimal.Decimal `json:"avg_rfm_score"`
	AvgHistoricalLTV      decimal.Decimal `json:"avg_historical_ltv"`
	AvgPredictedLTV       decimal.Decimal `json:"avg_predicted_ltv"`
	TotalHistoricalLTV    decimal.Decimal `json:"total_historical_ltv"`
	TotalPredictedLTV     decimal.Decimal `json:"total_predicted_ltv"`
	TotalRemainingLTV     decimal.Decimal `json:"total_remaining_ltv"`
	TopTenantsByPredicted []TenantLTVRank `json:"top_tenants_by_predicted"`
	ByPlan                []PlanBreakdown `json:"by_plan"`
}
