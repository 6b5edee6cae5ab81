package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/eventtria/internal/auth"
	"github.com/smallbiznis/eventtria/internal/authorization"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	limitsdomain "github.com/smallbiznis/eventtria/internal/limits/domain"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	"github.com/smallbiznis/eventtria/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	"github.com/smallbiznis/eventtria/pkg/db"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var quotaErr *limitsdomain.QuotaError
	switch {
	case errors.As(err, &quotaErr):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "limit_exceeded",
			Message: quotaErr.Error(),
		}
	case errors.Is(err, limitsdomain.ErrLimitExceeded):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "limit_exceeded",
			Message: "limit exceeded",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: validationMessage(err),
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, subscriptiondomain.ErrTrialAlreadyUsed):
		return http.StatusConflict, errorPayload{
			Type:    "trial_already_used",
			Message: "trial already used",
		}
	case errors.Is(err, eventdomain.ErrEventCancelled):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "event is cancelled",
		}
	case db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ratelimit.ErrThrottled),
		errors.Is(err, ratelimit.ErrLockHeld):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, limitsdomain.ErrUsageUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, plandomain.ErrUnknownAction),
		errors.Is(err, plandomain.ErrUnknownPlan),
		errors.Is(err, subscriptiondomain.ErrInvalidUserID),
		errors.Is(err, subscriptiondomain.ErrInvalidPlan),
		errors.Is(err, subscriptiondomain.ErrInvalidPeriod),
		errors.Is(err, usagedomain.ErrInvalidUserID),
		errors.Is(err, usagedomain.ErrInvalidDelta),
		errors.Is(err, eventdomain.ErrInvalidUserID),
		errors.Is(err, eventdomain.ErrInvalidTitle),
		errors.Is(err, eventdomain.ErrInvalidEmail),
		errors.Is(err, eventdomain.ErrEmptyInviteList),
		errors.Is(err, eventdomain.ErrInvalidMessage),
		errors.Is(err, eventdomain.ErrInvalidPageToken):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, eventdomain.ErrEventNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, subscriptiondomain.ErrPlanNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationMessage(err error) string {
	code := err.Error()
	if idx := strings.Index(code, ":"); idx > 0 {
		code = code[:idx]
	}
	return strings.ReplaceAll(code, "_", " ")
}

func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return payload.Type, "server"
	case status == http.StatusTooManyRequests:
		return payload.Type, "throttle"
	default:
		return payload.Type, "client"
	}
}
