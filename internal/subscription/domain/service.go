package domain

import (
	"context"
	"errors"
	"time"

	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
)

type ActivatePlanRequest struct {
	UserID    string          `json:"user_id"`
	Plan      plandomain.Plan `json:"plan"`
	PeriodEnd time.Time       `json:"period_end"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	// EnsureSubscription guarantees the user has a subscription row, creating a
	// Free one when absent. It reports false when that could not be guaranteed.
	EnsureSubscription(ctx context.Context, userID string) bool
	ActivateTrial(ctx context.Context, userID string) (UserSubscription, error)
	ActivatePlan(ctx context.Context, req ActivatePlanRequest) (UserSubscription, error)
	Cancel(ctx context.Context, userID string) error
	CurrentPlan(ctx context.Context, userID string) (ActivePlan, error)
	TrialAvailable(ctx context.Context, userID string) (bool, error)
	ExpireLapsed(ctx context.Context) (int64, error)
}

var (
	ErrInvalidUserID        = errors.New("invalid_user_id")
	ErrInvalidPlan          = errors.New("invalid_plan")
	ErrInvalidPeriod        = errors.New("invalid_period")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrPlanNotFound         = errors.New("plan_not_found")
	ErrTrialAlreadyUsed     = errors.New("trial_already_used")
)
