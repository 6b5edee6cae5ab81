package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
)

var (
	ErrLimitExceeded    = errors.New("limit_exceeded")
	ErrUsageUnavailable = errors.New("usage_unavailable")
)

// Degradation reasons reported when limits fall back to Free.
const (
	ReasonEnsureFailed = "ensure_failed"
	ReasonPlanLookup   = "plan_lookup"
	ReasonUnknownPlan  = "unknown_plan"
	ReasonUsageQuery   = "usage_query"
)

// Resolution is the plan a user is held to right now.
type Resolution struct {
	Limits    plandomain.LimitSet       `json:"limits"`
	Status    subscriptiondomain.Status `json:"status,omitempty"`
	IsTrial   bool                      `json:"is_trial"`
	PeriodEnd *time.Time                `json:"period_end,omitempty"`
	Entitled  bool                      `json:"entitled"`
	Degraded  bool                      `json:"degraded"`
	Reason    string                    `json:"reason,omitempty"`
}

// Decision is the outcome of checking one action against the user's plan.
// Used counts prior uses; the action is allowed while Used < Limit.
type Decision struct {
	Action       plandomain.ActionType `json:"action"`
	ScopeID      *snowflake.ID         `json:"scope_id,omitempty"`
	Plan         plandomain.Plan       `json:"plan"`
	Allowed      bool                  `json:"allowed"`
	Unlimited    bool                  `json:"unlimited"`
	Limit        int64                 `json:"limit"`
	Used         int64                 `json:"used"`
	Remaining    int64                 `json:"remaining"`
	UsageUnknown bool                  `json:"usage_unknown,omitempty"`
	Degraded     bool                  `json:"degraded,omitempty"`
}

// Fits reports whether n more uses fit under the limit.
func (d Decision) Fits(n int64) bool {
	if !d.Allowed {
		return false
	}
	return d.Unlimited || n <= d.Remaining
}

// Err converts a denial into an error, nil when the action is allowed.
func (d Decision) Err() error {
	switch {
	case !d.Action.Valid():
		return plandomain.ErrUnknownAction
	case d.Allowed:
		return nil
	case d.UsageUnknown:
		return ErrUsageUnavailable
	default:
		return &QuotaError{Action: d.Action, Plan: d.Plan, Limit: d.Limit, Used: d.Used}
	}
}

// Summary is a user's plan with one decision per action.
type Summary struct {
	Plan           plandomain.Plan  `json:"plan"`
	Flags          plandomain.Flags `json:"flags"`
	Resolution     Resolution       `json:"subscription"`
	TrialAvailable bool             `json:"trial_available"`
	Actions        []Decision       `json:"actions"`
}

// QuotaError reports an action blocked by its plan limit.
type QuotaError struct {
	Action plandomain.ActionType
	Plan   plandomain.Plan
	Limit  int64
	Used   int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s limit reached: %d of %d used on the %s plan", e.Action, e.Used, e.Limit, e.Plan)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrLimitExceeded
}

//go:generate mockgen -source=decision.go -destination=./mocks/mock_resolver.go -package=mocks
type Resolver interface {
	ResolveLimits(planName string) plandomain.LimitSet
	CurrentLimits(ctx context.Context, userID string) Resolution
	CanPerformAction(ctx context.Context, userID string, action plandomain.ActionType, scopeID *snowflake.ID) bool
	Check(ctx context.Context, userID string, action plandomain.ActionType, scopeID *snowflake.ID) Decision
	Summary(ctx context.Context, userID string) Summary
	RecordUsage(ctx context.Context, req usagedomain.RecordUsageRequest) error
}
