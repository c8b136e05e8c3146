package jobs

import (
	"context"
	"log"
	"time"

	"laiaconnect/internal/analytics"
	"laiaconnect/internal/caching"
	"laiaconnect/internal/common"
	"laiaconnect/internal/metrics"
	"laiaconnect/internal/models"
	"laiaconnect/internal/repositories"
	"laiaconnect/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// BillingScheduler runs the recurring background jobs: the monthly billing
// cycle on the first of every month and a periodic portfolio cache warmup.
type BillingScheduler struct {
	scheduler    gocron.Scheduler
	billingSvc   services.BillingServiceInterface
	analyticsSvc *analytics.AnalyticsService
	cacheSvc     caching.CacheService
	tenantRepo   repositories.TenantRepository
	clock        common.Clock
}

// NewBillingScheduler creates the scheduler and registers its jobs. billingHour
// is the local hour of day the monthly run fires at.
func NewBillingScheduler(billingSvc services.BillingServiceInterface, analyticsSvc *analytics.AnalyticsService,
	cacheSvc caching.CacheService, tenantRepo repositories.TenantRepository, clock common.Clock, billingHour int) (*BillingScheduler, error) {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	bs := &BillingScheduler{
		scheduler:    scheduler,
		billingSvc:   billingSvc,
		analyticsSvc: analyticsSvc,
		cacheSvc:     cacheSvc,
		tenantRepo:   tenantRepo,
		clock:        clock,
	}

	_, err = scheduler.NewJob(
		gocron.MonthlyJob(1,
			gocron.NewDaysOfTheMonth(1),
			gocron.NewAtTimes(gocron.NewAtTime(uint(billingHour), 0, 0)),
		),
		gocron.NewTask(bs.RunBillingCycle, context.Background()),
		gocron.WithName("monthly-billing-cycle"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(bs.warmPortfolioCache, context.Background()),
		gocron.WithName("portfolio-cache-warmup"),
	)
	if err != nil {
		return nil, err
	}

	return bs, nil
}

func (bs *BillingScheduler) Start() {
	log.Printf("Starting billing scheduler")
	bs.scheduler.Start()
}

func (bs *BillingScheduler) Stop() error {
	log.Printf("Stopping billing scheduler")
	return bs.scheduler.Shutdown()
}

// RunBillingCycle issues the current period's subscription invoice for every
// ACTIVE tenant. Tenants that became unbillable between listing and invoicing
// are skipped silently; real failures are logged and counted but never abort
// the run for the remaining tenants.
func (bs *BillingScheduler) RunBillingCycle(ctx context.Context) {
	now := bs.clock.Now()
	period := services.BillingPeriod{Year: now.Year(), Month: now.Month()}

	tenants, err := bs.tenantRepo.ListByStatus(ctx, models.TenantStatusActive)
	if err != nil {
		log.Printf("Billing cycle %s: failed to list active tenants: %v", period, err)
		metrics.BillingRunErrors.Inc()
		return
	}

	issued := 0
	skipped := 0
	failed := 0
	for _, tenant := range tenants {
		invoice, err := bs.billingSvc.GenerateInvoice(ctx, tenant.ID, period)
		if err != nil {
			if common.IsNotBillable(err) {
				skipped++
				metrics.BillingRunSkipped.Inc()
				continue
			}
			log.Printf("Billing cycle %s: tenant %s: %v", period, tenant.ID, err)
			failed++
			metrics.BillingRunErrors.Inc()
			continue
		}
		issued++
		log.Printf("Billing cycle %s: issued %s for tenant %s", period, invoice.InvoiceNumber, tenant.ID)
	}

	log.Printf("Billing cycle %s done: %d issued, %d skipped, %d failed", period, issued, skipped, failed)

	if issued > 0 {
		if err := bs.cacheSvc.InvalidatePortfolio(ctx); err != nil {
			log.Printf("Billing cycle %s: cache invalidation failed: %v", period, err)
		}
	}
}

// warmPortfolioCache recomputes the portfolio report so dashboard reads stay
// warm between invalidations.
func (bs *BillingScheduler) warmPortfolioCache(ctx context.Context) {
	if _, err := bs.analyticsSvc.CachedPortfolio(ctx, bs.clock.Now(), analytics.DefaultTopN); err != nil {
		log.Printf("Portfolio cache warmup failed: %v", err)
	}
}
