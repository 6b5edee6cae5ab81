package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountrepository "github.com/smallbiznis/eventtria/internal/account/repository"
	"github.com/smallbiznis/eventtria/internal/clock"
	"github.com/smallbiznis/eventtria/internal/config"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	limitsdomain "github.com/smallbiznis/eventtria/internal/limits/domain"
	"github.com/smallbiznis/eventtria/internal/migration"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	planrepository "github.com/smallbiznis/eventtria/internal/plan/repository"
	"github.com/smallbiznis/eventtria/internal/seed"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	subscriptionrepository "github.com/smallbiznis/eventtria/internal/subscription/repository"
	subscriptionservice "github.com/smallbiznis/eventtria/internal/subscription/service"
	"github.com/smallbiznis/eventtria/internal/testutil"
	usagerepository "github.com/smallbiznis/eventtria/internal/usage/repository"
	usageservice "github.com/smallbiznis/eventtria/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stack struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	subs     subscriptiondomain.Service
	resolver limitsdomain.Resolver
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.OpenSQLite(t, migration.Models()...)
	node := testutil.MustNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	require.NoError(t, seed.EnsurePlans(context.Background(), db, node))

	subs := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Config:      config.NewStaticSubscriptionConfigHolder(config.DefaultSubscriptionConfig()),
		Repo:        subscriptionrepository.Provide(),
		PlanRepo:    planrepository.Provide(),
		AccountRepo: accountrepository.Provide(),
	})
	usage, err := usageservice.NewService(usageservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  usagerepository.Provide(),
	})
	require.NoError(t, err)

	return &stack{
		db:    db,
		node:  node,
		clock: clk,
		subs:  subs,
		resolver: NewResolver(ResolverParam{
			Log:           zap.NewNop(),
			Clock:         clk,
			Subscriptions: subs,
			Usage:         usage,
		}),
	}
}

func (s *stack) seedEvents(t *testing.T, userID string, n int, status eventdomain.EventStatus) {
	t.Helper()
	for i := 0; i < n; i++ {
		id := s.node.Generate()
		require.NoError(t, s.db.Create(&eventdomain.Event{
			ID:          id,
			OrganizerID: userID,
			Title:       fmt.Sprintf("Event %d", i),
			Slug:        fmt.Sprintf("event-%s", id.Base36()),
			Status:      status,
		}).Error)
	}
}

func (s *stack) seedInvites(t *testing.T, userID string, n int) {
	t.Helper()
	eventID := s.node.Generate()
	require.NoError(t, s.db.Create(&eventdomain.Event{
		ID:          eventID,
		OrganizerID: userID,
		Title:       "Launch party",
		Slug:        "launch-party-" + eventID.Base36(),
		Status:      eventdomain.EventStatusPublished,
	}).Error)

	invites := make([]eventdomain.EventInvite, 0, n)
	for i := 0; i < n; i++ {
		invites = append(invites, eventdomain.EventInvite{
			ID:        s.node.Generate(),
			EventID:   eventID,
			InviterID: userID,
			Email:     fmt.Sprintf("guest%d@example.com", i),
			Status:    eventdomain.InviteStatusPending,
		})
	}
	require.NoError(t, s.db.CreateInBatches(invites, 100).Error)
}

func TestResolverProvisionsFreeForNewUser(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	assert.True(t, s.resolver.CanPerformAction(ctx, testUserID, plandomain.ActionEventsCreated, nil))

	var sub subscriptiondomain.UserSubscription
	require.NoError(t, s.db.Where("user_id = ?", testUserID).First(&sub).Error)
	assert.Equal(t, subscriptiondomain.StatusActive, sub.Status)
	assert.False(t, sub.IsTrial)

	res := s.resolver.CurrentLimits(ctx, testUserID)
	assert.Equal(t, plandomain.PlanFree, res.Limits.Plan)
	assert.Equal(t, int64(10), res.Limits.Limits[plandomain.ActionEventsCreated])
}

func TestResolverBlocksFreeUserAtTenEvents(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.seedEvents(t, testUserID, 10, eventdomain.EventStatusPublished)

	d := s.resolver.Check(ctx, testUserID, plandomain.ActionEventsCreated, nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(10), d.Used)
	assert.ErrorIs(t, d.Err(), limitsdomain.ErrLimitExceeded)
}

func TestResolverAllowsFreeUserAtNineEvents(t *testing.T) {
	s := newStack(t)
	s.seedEvents(t, testUserID, 9, eventdomain.EventStatusDraft)

	assert.True(t, s.resolver.CanPerformAction(context.Background(), testUserID, plandomain.ActionEventsCreated, nil))
}

func TestResolverIgnoresCancelledEvents(t *testing.T) {
	s := newStack(t)
	s.seedEvents(t, testUserID, 9, eventdomain.EventStatusPublished)
	s.seedEvents(t, testUserID, 4, eventdomain.EventStatusCancelled)

	d := s.resolver.Check(context.Background(), testUserID, plandomain.ActionEventsCreated, nil)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(9), d.Used)
}

func TestResolverLargePlanIsUnlimited(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	_, err := s.subs.ActivatePlan(ctx, subscriptiondomain.ActivatePlanRequest{
		UserID:    testUserID,
		Plan:      plandomain.PlanLargeEventOrg,
		PeriodEnd: s.clock.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	s.seedInvites(t, testUserID, 500)

	assert.True(t, s.resolver.CanPerformAction(ctx, testUserID, plandomain.ActionInvitePeople, nil))

	d := s.resolver.Check(ctx, testUserID, plandomain.ActionInvitePeople, nil)
	assert.True(t, d.Unlimited)
	assert.Equal(t, int64(500), d.Used)
}

func TestResolverTrialGrantsSmallPlanUntilExpiry(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.seedEvents(t, testUserID, 12, eventdomain.EventStatusPublished)

	assert.False(t, s.resolver.CanPerformAction(ctx, testUserID, plandomain.ActionEventsCreated, nil))

	_, err := s.subs.ActivateTrial(ctx, testUserID)
	require.NoError(t, err)
	assert.True(t, s.resolver.CanPerformAction(ctx, testUserID, plandomain.ActionEventsCreated, nil))

	s.clock.Advance(31 * 24 * time.Hour)
	res := s.resolver.CurrentLimits(ctx, testUserID)
	assert.Equal(t, plandomain.PlanFree, res.Limits.Plan)
	assert.Equal(t, subscriptiondomain.StatusTrialing, res.Status)
	assert.False(t, res.Entitled)
	assert.False(t, s.resolver.CanPerformAction(ctx, testUserID, plandomain.ActionEventsCreated, nil))
}

func TestResolverInvalidUserIsDenied(t *testing.T) {
	s := newStack(t)

	d := s.resolver.Check(context.Background(), "not-a-uuid", plandomain.ActionEventsCreated, nil)
	assert.False(t, d.Allowed)
	assert.True(t, d.Degraded)
}
