package services

import (
	"context"
	"math"
	"time"

	"laiaconnect/internal/models"
	"laiaconnect/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScoringThresholds gathers every tunable constant of the RFM model in one
// place, so the buckets can change without touching scoring logic.
type ScoringThresholds struct {
	// RecencyDays maps days-since-last-activity to scores 5..2; anything
	// beyond the last bound scores 1.
	RecencyDays [4]int
	// FrequencyMin maps counted-event totals to scores 5..2.
	FrequencyMin [4]int
	// MonetaryMin maps revenue totals (major units) to scores 5..2.
	MonetaryMin [4]int64

	RecencyWeight   float64
	FrequencyWeight float64
	MonetaryWeight  float64

	// Churn-risk bucket bounds, days since last activity.
	ChurnHighDays   int
	ChurnMediumDays int

	// ChurnProbabilities maps the recency bands <=30/<=90/<=180/beyond to a
	// churn probability, before tenant-status overrides.
	ChurnProbabilities [4]float64
	ChurnBandDays      [3]int
}

// DefaultThresholds is the production scoring configuration.
func DefaultThresholds() ScoringThresholds {
	return ScoringThresholds{
		RecencyDays:        [4]int{7, 30, 90, 180},
		FrequencyMin:       [4]int{50, 20, 10, 5},
		MonetaryMin:        [4]int64{10000, 5000, 2000, 500},
		RecencyWeight:      0.3,
		FrequencyWeight:    0.3,
		MonetaryWeight:     0.4,
		ChurnHighDays:      180,
		ChurnMediumDays:    90,
		ChurnProbabilities: [4]float64{0.05, 0.2, 0.5, 0.8},
		ChurnBandDays:      [3]int{30, 90, 180},
	}
}

// LifecycleServiceInterface computes RFM scores and churn classification for
// a tenant from its revenue-event history. Scores are recomputed on every
// call; nothing is cached or persisted here.
type LifecycleServiceInterface interface {
	ScoreTenant(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.LifecycleScore, error)
	ScoreFromEvents(tenant *models.Tenant, events []*models.RevenueEvent, asOf time.Time) *models.LifecycleScore
	ChurnProbability(tenant *models.Tenant, events []*models.RevenueEvent, asOf time.Time) float64
}

type lifecycleService struct {
	tenantRepo repositories.TenantRepository
	eventRepo  repositories.RevenueEventRepository
	thresholds ScoringThresholds
}

// NewLifecycleService creates a new lifecycle scoring service
func NewLifecycleService(tenantRepo repositories.TenantRepository, eventRepo repositories.RevenueEventRepository, thresholds ScoringThresholds) LifecycleServiceInterface {
	return &lifecycleService{
		tenantRepo: tenantRepo,
		eventRepo:  eventRepo,
		thresholds: thresholds,
	}
}

func (s *lifecycleService) ScoreTenant(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*models.LifecycleScore, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListForTenant(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}
	return s.ScoreFromEvents(tenant, events, asOf), nil
}

// ScoreFromEvents is the pure scoring core: deterministic for a fixed event
// snapshot and asOf instant.
func (s *lifecycleService) ScoreFromEvents(tenant *models.Tenant, events []*models.RevenueEvent, asOf time.Time) *models.LifecycleScore {
	t := s.thresholds

	count := 0
	total := decimal.Zero
	var lastActivity time.Time
	for _, e := range events {
		if !e.Counted() {
			continue
		}
		count++
		total = total.Add(e.Amount)
		if e.CreatedAt.After(lastActivity) {
			lastActivity = e.CreatedAt
		}
	}
	// With no counted activity the tenant's creation date anchors recency.
	if lastActivity.IsZero() {
		lastActivity = tenant.CreatedAt
	}

	days := daysBetween(lastActivity, asOf)

	recency := bucketDescending(days, t.RecencyDays)
	frequency := bucketAscending(count, t.FrequencyMin)
	monetary := bucketAscendingInt64(total, t.MonetaryMin)

	weighted := float64(recency)*t.RecencyWeight + float64(frequency)*t.FrequencyWeight + float64(monetary)*t.MonetaryWeight
	rfm := int(math.Round(weighted * 20))

	churnRisk := models.ChurnRiskLow
	switch {
	case days > t.ChurnHighDays:
		churnRisk = models.ChurnRiskHigh
	case days > t.ChurnMediumDays:
		churnRisk = models.ChurnRiskMedium
	}

	return &models.LifecycleScore{
		TenantID:          tenant.ID,
		AsOf:              asOf,
		RecencyScore:      recency,
		FrequencyScore:    frequency,
		MonetaryScore:     monetary,
		RFMScore:          rfm,
		Segment:           segmentFor(recency, frequency, monetary),
		ChurnRisk:         churnRisk,
		DaysSinceActivity: days,
		EventCount:        count,
		TotalRevenue:      total,
	}
}

// ChurnProbability maps the recency band to a probability, then applies the
// tenant-status overrides: CANCELLED is certain churn, SUSPENDED near-certain,
// and TRIAL tenants carry a 0.3 floor whatever their activity says.
func (s *lifecycleService) ChurnProbability(tenant *models.Tenant, events []*models.RevenueEvent, asOf time.Time) float64 {
	t := s.thresholds

	var lastActivity time.Time
	for _, e := range events {
		if e.Counted() && e.CreatedAt.After(lastActivity) {
			lastActivity = e.CreatedAt
		}
	}
	if lastActivity.IsZero() {
		lastActivity = tenant.CreatedAt
	}
	days := daysBetween(lastActivity, asOf)

	p := t.ChurnProbabilities[3]
	switch {
	case days <= t.ChurnBandDays[0]:
		p = t.ChurnProbabilities[0]
	case days <= t.ChurnBandDays[1]:
		p = t.ChurnProbabilities[1]
	case days <= t.ChurnBandDays[2]:
		p = t.ChurnProbabilities[2]
	}

	switch tenant.Status {
	case models.TenantStatusCancelled:
		return 1.0
	case models.TenantStatusSuspended:
		return 0.9
	case models.TenantStatusTrial:
		if p < 0.3 {
			return 0.3
		}
	}
	return p
}

// segmentFor applies the segmentation rules in priority order; the first
// matching label wins.
func segmentFor(recency, frequency, monetary int) string {
	switch {
	case recency >= 4 && frequency >= 4 && monetary >= 4:
		return models.SegmentChampions
	case recency >= 3 && frequency >= 4:
		return models.SegmentLoyaux
	case monetary >= 4:
		return models.SegmentGrosDepensiers
	case recency >= 4:
		return models.SegmentPrometteurs
	case recency <= 2 && frequency >= 3:
		return models.SegmentARisque
	case recency <= 2 && monetary >= 3:
		return models.SegmentHibernation
	case recency == 1 && frequency == 1:
		return models.SegmentPerdus
	default:
		return models.SegmentDormant
	}
}

func daysBetween(from, to time.Time) int {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// bucketDescending scores 5 when value is within the tightest bound, down to
// 1 beyond the last.
func bucketDescending(value int, bounds [4]int) int {
	for i, b := range bounds {
		if value <= b {
			return 5 - i
		}
	}
	return 1
}

// bucketAscending scores 5 at or above the highest bound, down to 1 below
// the last.
func bucketAscending(value int, mins [4]int) int {
	for i, m := range mins {
		if value >= m {
			return 5 - i
		}
	}
	return 1
}

func bucketAscendingInt64(value decimal.Decimal, mins [4]int64) int {
	for i, m := range mins {
		if value.GreaterThanOrEqual(decimal.NewFromInt(m)) {
			return 5 - i
		}
	}
	return 1
}
