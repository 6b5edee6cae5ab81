package cache

import (
	"strings"
	"time"

	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
)

const defaultPlanTTL = 10 * time.Minute

// ResolverCache stores hot-path lookups made while resolving a user's limits.
type ResolverCache interface {
	GetPlan(planID string) (plandomain.SubscriptionPlan, bool)
	SetPlan(planID string, plan plandomain.SubscriptionPlan)
	GetPlanByName(name string) (plandomain.SubscriptionPlan, bool)
	SetPlanByName(name string, plan plandomain.SubscriptionPlan)
}

type resolverCache struct {
	byID   Cache[string, plandomain.SubscriptionPlan]
	byName Cache[string, plandomain.SubscriptionPlan]
	ttl    time.Duration
}

// NewResolverCache returns an in-memory cache for plan rows. A non-positive
// ttl uses the default of ten minutes.
func NewResolverCache(ttl time.Duration, opts ...Option) ResolverCache {
	if ttl <= 0 {
		ttl = defaultPlanTTL
	}
	return &resolverCache{
		byID:   NewTTLCache[string, plandomain.SubscriptionPlan](opts...),
		byName: NewTTLCache[string, plandomain.SubscriptionPlan](opts...),
		ttl:    ttl,
	}
}

func (c *resolverCache) GetPlan(planID string) (plandomain.SubscriptionPlan, bool) {
	return c.byID.Get(cacheKey(planID))
}

func (c *resolverCache) SetPlan(planID string, plan plandomain.SubscriptionPlan) {
	if plan.ID == 0 {
		return
	}
	c.byID.Set(cacheKey(planID), plan, c.ttl)
}

func (c *resolverCache) GetPlanByName(name string) (plandomain.SubscriptionPlan, bool) {
	return c.byName.Get(cacheKey(name))
}

func (c *resolverCache) SetPlanByName(name string, plan plandomain.SubscriptionPlan) {
	if plan.ID == 0 {
		return
	}
	c.byName.Set(cacheKey(name), plan, c.ttl)
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
