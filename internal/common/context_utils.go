package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	TenantIDKey contextKey = "tenant_id"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendDomainError maps a DomainError kind to an HTTP status and renders the
// structured response. Non-domain errors fall through as 500s without
// leaking internals.
func SendDomainError(c echo.Context, err error) error {
	var de *DomainError
	if !errors.As(err, &de) {
		return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", "Internal server error", nil))
	}
	status := http.StatusInternalServerError
	switch de.Kind {
	case KindInvalidAmount, KindIllegalTransition, KindOverCredit, KindDuplicateCreditNote, KindUnknownPlan:
		status = http.StatusBadRequest
	case KindNotFound:
		status = http.StatusNotFound
	case KindNotBillable:
		// Not an error for billing runners, but an explicit answer for the UI.
		status = http.StatusUnprocessableEntity
	case KindConflictRetryFailed:
		status = http.StatusConflict
	}
	return c.JSON(status, CreateErrorResponse(string(de.Kind), de.Message, de.Fields))
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// GetUserIDFromContext extracts the authenticated user id set by the JWT middleware
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok
}

// GetTenantIDFromContext extracts the tenant id set by the JWT middleware
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return id, ok
}

// WithUserID returns a context carrying the authenticated user id
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// WithTenantID returns a context carrying the tenant id
func WithTenantID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, id)
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID: %v", fieldName, err)
	}
	return id, nil
}

// ValidateDateRange validates that a start/end pair is ordered and bounded
func ValidateDateRange(startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return fmt.Errorf("end date must not be before start date")
	}
	if endDate.Sub(startDate) > 5*365*24*time.Hour {
		return fmt.Errorf("date range cannot exceed 5 years")
	}
	return nil
}

// ParseAsOf parses an optional as_of query parameter (RFC 3339 or
// YYYY-MM-DD), falling back to the provided default when empty.
func ParseAsOf(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("as_of must be RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}
