package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"laiaconnect/internal/analytics"
	"laiaconnect/internal/caching"
	"laiaconnect/internal/common"
	"laiaconnect/internal/config"
	"laiaconnect/internal/handlers"
	"laiaconnect/internal/jobs"
	"laiaconnect/internal/middleware"
	"laiaconnect/internal/repositories"
	"laiaconnect/internal/services"
	"laiaconnect/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	eventRepo := repositories.NewRevenueEventRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Create services
	clock := common.NewSystemClock()
	billingSvc := services.NewBillingService(tenantRepo, invoiceRepo, clock)
	creditNoteSvc := services.NewCreditNoteService(invoiceRepo, clock)
	lifecycleSvc := services.NewLifecycleService(tenantRepo, eventRepo, services.DefaultThresholds())
	ltvSvc := services.NewLTVService(tenantRepo, eventRepo, lifecycleSvc)
	analyticsSvc := analytics.NewAnalyticsService(tenantRepo, eventRepo, lifecycleSvc, ltvSvc, cacheSvc)

	// Create handlers
	billingHandlers := handlers.NewBillingHandlers(billingSvc, creditNoteSvc, clock)
	analyticsHandlers := handlers.NewAnalyticsHandlers(lifecycleSvc, ltvSvc, analyticsSvc, clock)

	// Background jobs
	scheduler, err := jobs.NewBillingScheduler(billingSvc, analyticsSvc, cacheSvc, tenantRepo, clock, cfg.BillingHour)
	if err != nil {
		log.Fatalf("Failed to create billing scheduler: %v", err)
	}
	scheduler.Start()

	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Protected routes
	protected := e.Group("/api")
	protected.Use(middleware.JWTMiddleware(cfg.JWTSecret))

	protected.POST("/tenants/:id/invoices", billingHandlers.GenerateInvoice)
	protected.GET("/tenants/:id/invoices", billingHandlers.ListInvoices)
	protected.GET("/invoices/:id", billingHandlers.GetInvoice)
	protected.POST("/invoices/:id/pay", billingHandlers.MarkPaid)
	protected.POST("/invoices/:id/cancel", billingHandlers.CancelInvoice)
	protected.POST("/invoices/:id/credit-note", billingHandlers.IssueCreditNote)
	protected.GET("/invoices/:id/credit-notes", billingHandlers.ListCreditNotes)

	protected.GET("/tenants/:id/score", analyticsHandlers.GetTenantScore)
	protected.GET("/tenants/:id/ltv", analyticsHandlers.GetTenantLTV)
	protected.GET("/analytics/portfolio", analyticsHandlers.GetPortfolioReport)

	// Start server
	go func() {
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down")
	if err := scheduler.Stop(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
