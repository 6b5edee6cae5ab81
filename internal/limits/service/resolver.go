package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eventtria/internal/clock"
	limitsdomain "github.com/smallbiznis/eventtria/internal/limits/domain"
	"github.com/smallbiznis/eventtria/internal/observability/logger"
	"github.com/smallbiznis/eventtria/internal/observability/metrics"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Resolver struct {
	log     *zap.Logger
	clock   clock.Clock
	metrics *metrics.Metrics

	subscriptions subscriptiondomain.Service
	usage         usagedomain.Service
}

type ResolverParam struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	Metrics       *metrics.Metrics `optional:"true"`
	Subscriptions subscriptiondomain.Service
	Usage         usagedomain.Service
}

func NewResolver(p ResolverParam) limitsdomain.Resolver {
	return &Resolver{
		log:     p.Log.Named("limits.resolver"),
		clock:   p.Clock,
		metrics: p.Metrics,

		subscriptions: p.Subscriptions,
		usage:         p.Usage,
	}
}

// ResolveLimits implements domain.Resolver.
func (r *Resolver) ResolveLimits(planName string) plandomain.LimitSet {
	return plandomain.ResolveLimits(planName)
}

// CurrentLimits implements domain.Resolver. Any failure resolves to Free.
func (r *Resolver) CurrentLimits(ctx context.Context, userID string) limitsdomain.Resolution {
	log := logger.WithContext(ctx, r.log)
	free := plandomain.LimitsFor(plandomain.PlanFree)

	if !r.subscriptions.EnsureSubscription(ctx, userID) {
		r.metrics.RecordLimitDegraded(ctx, limitsdomain.ReasonEnsureFailed)
		return limitsdomain.Resolution{Limits: free, Degraded: true, Reason: limitsdomain.ReasonEnsureFailed}
	}

	active, err := r.subscriptions.CurrentPlan(ctx, userID)
	if err != nil {
		log.Warn("resolve current plan", zap.String("user_id", userID), zap.Error(err))
		r.metrics.RecordLimitDegraded(ctx, limitsdomain.ReasonPlanLookup)
		return limitsdomain.Resolution{Limits: free, Degraded: true, Reason: limitsdomain.ReasonPlanLookup}
	}

	sub := active.Subscription
	periodEnd := sub.PeriodEnd
	res := limitsdomain.Resolution{
		Status:    sub.Status,
		IsTrial:   sub.IsTrial,
		PeriodEnd: &periodEnd,
	}

	if !sub.EntitledAt(r.clock.Now()) {
		res.Limits = free
		return res
	}
	res.Entitled = true

	if _, ok := plandomain.ParsePlan(active.Plan.Name); !ok {
		log.Warn("subscription references unknown plan",
			zap.String("user_id", userID),
			zap.String("plan_name", active.Plan.Name),
		)
		r.metrics.RecordLimitDegraded(ctx, limitsdomain.ReasonUnknownPlan)
		res.Degraded = true
		res.Reason = limitsdomain.ReasonUnknownPlan
	}
	res.Limits = r.ResolveLimits(active.Plan.Name)
	return res
}

// CanPerformAction implements domain.Resolver.
func (r *Resolver) CanPerformAction(ctx context.Context, userID string, action plandomain.ActionType, scopeID *snowflake.ID) bool {
	return r.check(ctx, userID, action, scopeID, false).Allowed
}

// Check implements domain.Resolver. Unlike CanPerformAction it always counts
// usage, so unlimited plans still report what has been used.
func (r *Resolver) Check(ctx context.Context, userID string, action plandomain.ActionType, scopeID *snowflake.ID) limitsdomain.Decision {
	return r.check(ctx, userID, action, scopeID, true)
}

func (r *Resolver) check(ctx context.Context, userID string, action plandomain.ActionType, scopeID *snowflake.ID, countUnlimited bool) limitsdomain.Decision {
	decision := limitsdomain.Decision{Action: action, ScopeID: scopeID}
	if !action.Valid() {
		decision.Plan = plandomain.PlanFree
		return decision
	}

	res := r.CurrentLimits(ctx, userID)
	return r.decide(ctx, userID, res, action, scopeID, countUnlimited)
}

func (r *Resolver) decide(ctx context.Context, userID string, res limitsdomain.Resolution, action plandomain.ActionType, scopeID *snowflake.ID, countUnlimited bool) limitsdomain.Decision {
	decision := limitsdomain.Decision{
		Action:   action,
		ScopeID:  scopeID,
		Plan:     res.Limits.Plan,
		Degraded: res.Degraded,
	}

	limit, ok := res.Limits.Limit(action)
	if !ok {
		r.metrics.RecordLimitCheck(ctx, string(action), string(decision.Plan), false)
		return decision
	}
	decision.Limit = limit

	if limit == plandomain.Unlimited {
		decision.Allowed = true
		decision.Unlimited = true
		decision.Remaining = plandomain.Unlimited
		if countUnlimited {
			if used, err := r.usage.GetUsage(ctx, userID, action, scopeID); err == nil {
				decision.Used = used
			}
		}
		r.metrics.RecordLimitCheck(ctx, string(action), string(decision.Plan), true)
		return decision
	}

	used, err := r.usage.GetUsage(ctx, userID, action, scopeID)
	if err != nil {
		logger.WithContext(ctx, r.log).Warn("usage count failed, denying action",
			zap.String("user_id", userID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		r.metrics.RecordLimitDegraded(ctx, limitsdomain.ReasonUsageQuery)
		r.metrics.RecordLimitCheck(ctx, string(action), string(decision.Plan), false)
		decision.UsageUnknown = true
		decision.Degraded = true
		return decision
	}

	decision.Used = used
	decision.Allowed = used < limit
	if remaining := limit - used; remaining > 0 {
		decision.Remaining = remaining
	}
	r.metrics.RecordLimitCheck(ctx, string(action), string(decision.Plan), decision.Allowed)
	return decision
}

// Summary implements domain.Resolver.
func (r *Resolver) Summary(ctx context.Context, userID string) limitsdomain.Summary {
	res := r.CurrentLimits(ctx, userID)
	summary := limitsdomain.Summary{
		Plan:       res.Limits.Plan,
		Flags:      res.Limits.Flags,
		Resolution: res,
		Actions:    make([]limitsdomain.Decision, 0, len(plandomain.Actions())),
	}

	if available, err := r.subscriptions.TrialAvailable(ctx, userID); err == nil {
		summary.TrialAvailable = available
	}
	for _, action := range plandomain.Actions() {
		summary.Actions = append(summary.Actions, r.decide(ctx, userID, res, action, nil, true))
	}
	return summary
}

// RecordUsage implements domain.Resolver.
func (r *Resolver) RecordUsage(ctx context.Context, req usagedomain.RecordUsageRequest) error {
	return r.usage.RecordUsage(ctx, req)
}
