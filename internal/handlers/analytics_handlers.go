package handlers

import (
	"net/http"
	"strconv"

	"laiaconnect/internal/analytics"
	"laiaconnect/internal/common"
	"laiaconnect/internal/services"

	"github.com/labstack/echo/v4"
)

// AnalyticsHandlers handles HTTP requests for lifecycle scores, LTV
// projections and portfolio reports
type AnalyticsHandlers struct {
	lifecycleService services.LifecycleServiceInterface
	ltvService       services.LTVServiceInterface
	analyticsService *analytics.AnalyticsService
	clock            common.Clock
}

// NewAnalyticsHandlers creates a new analytics handlers instance
func NewAnalyticsHandlers(lifecycleService services.LifecycleServiceInterface, ltvService services.LTVServiceInterface, analyticsService *analytics.AnalyticsService, clock common.Clock) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		lifecycleService: lifecycleService,
		ltvService:       ltvService,
		analyticsService: analyticsService,
		clock:            clock,
	}
}

// GetTenantScore handles GET /api/tenants/:id/score
func (h *AnalyticsHandlers) GetTenantScore(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	asOf, err := common.ParseAsOf(c.QueryParam("as_of"), h.clock.Now())
	if err != nil {
		return common.SendValidationError(c, "as_of", err.Error())
	}

	score, err := h.lifecycleService.ScoreTenant(ctx, tenantID, asOf)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, score)
}

// GetTenantLTV handles GET /api/tenants/:id/ltv
func (h *AnalyticsHandlers) GetTenantLTV(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	asOf, err := common.ParseAsOf(c.QueryParam("as_of"), h.clock.Now())
	if err != nil {
		return common.SendValidationError(c, "as_of", err.Error())
	}

	projection, err := h.ltvService.ProjectLTV(ctx, tenantID, asOf)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, projection)
}

// GetPortfolioReport handles GET /api/analytics/portfolio
func (h *AnalyticsHandlers) GetPortfolioReport(c echo.Context) error {
	ctx := c.Request().Context()

	asOf, err := common.ParseAsOf(c.QueryParam("as_of"), h.clock.Now())
	if err != nil {
		return common.SendValidationError(c, "as_of", err.Error())
	}
	topN, _ := strconv.Atoi(c.QueryParam("top"))

	report, err := h.analyticsService.CachedPortfolio(ctx, asOf, topN)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
