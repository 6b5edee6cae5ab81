package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	accountrepository "github.com/smallbiznis/eventtria/internal/account/repository"
	"github.com/smallbiznis/eventtria/internal/clock"
	"github.com/smallbiznis/eventtria/internal/config"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	eventrepository "github.com/smallbiznis/eventtria/internal/event/repository"
	limitsdomain "github.com/smallbiznis/eventtria/internal/limits/domain"
	limitsservice "github.com/smallbiznis/eventtria/internal/limits/service"
	"github.com/smallbiznis/eventtria/internal/migration"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	planrepository "github.com/smallbiznis/eventtria/internal/plan/repository"
	"github.com/smallbiznis/eventtria/internal/seed"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	subscriptionrepository "github.com/smallbiznis/eventtria/internal/subscription/repository"
	subscriptionservice "github.com/smallbiznis/eventtria/internal/subscription/service"
	"github.com/smallbiznis/eventtria/internal/testutil"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	usagerepository "github.com/smallbiznis/eventtria/internal/usage/repository"
	usageservice "github.com/smallbiznis/eventtria/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const organizerID = "3f2c1d4e-5a6b-4c7d-8e9f-a0b1c2d3e4f5"

type fixture struct {
	db    *gorm.DB
	svc   eventdomain.Service
	subs  subscriptiondomain.Service
	usage usagedomain.Service
	clock *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenSQLite(t, migration.Models()...)
	node := testutil.MustNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
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
	resolver := limitsservice.NewResolver(limitsservice.ResolverParam{
		Log:           zap.NewNop(),
		Clock:         clk,
		Subscriptions: subs,
		Usage:         usage,
	})

	return &fixture{
		db: db,
		svc: NewService(ServiceParam{
			DB:       db,
			Log:      zap.NewNop(),
			GenID:    node,
			Clock:    clk,
			Repo:     eventrepository.Provide(),
			Resolver: resolver,
		}),
		subs:  subs,
		usage: usage,
		clock: clk,
	}
}

func (f *fixture) createEvents(t *testing.T, n int) []*eventdomain.Event {
	t.Helper()
	out := make([]*eventdomain.Event, 0, n)
	for i := 0; i < n; i++ {
		ev, err := f.svc.CreateEvent(context.Background(), eventdomain.CreateEventRequest{
			UserID:  organizerID,
			Title:   fmt.Sprintf("Meetup #%d", i+1),
			Publish: true,
		})
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func TestCreateEventAssignsSlugAndRecordsUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev, err := f.svc.CreateEvent(ctx, eventdomain.CreateEventRequest{
		UserID:      strings.ToUpper(organizerID),
		Title:       "  Go Meetup: Jakarta!  ",
		Description: "talks and pizza",
	})
	require.NoError(t, err)
	assert.Equal(t, organizerID, ev.OrganizerID)
	assert.Equal(t, "Go Meetup: Jakarta!", ev.Title)
	assert.Equal(t, eventdomain.EventStatusDraft, ev.Status)
	assert.True(t, strings.HasPrefix(ev.Slug, "go-meetup-jakarta-"), ev.Slug)

	used, err := f.usage.GetUsage(ctx, organizerID, plandomain.ActionEventsCreated, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), used)

	history, err := f.usage.History(ctx, organizerID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(1), history[0].Delta)
}

func TestCreateEventValidatesInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateEvent(ctx, eventdomain.CreateEventRequest{UserID: "nope", Title: "x"})
	assert.ErrorIs(t, err, eventdomain.ErrInvalidUserID)

	_, err = f.svc.CreateEvent(ctx, eventdomain.CreateEventRequest{UserID: organizerID, Title: "   "})
	assert.ErrorIs(t, err, eventdomain.ErrInvalidTitle)
}

func TestCreateEventBlockedAtFreeLimit(t *testing.T) {
	f := newFixture(t)
	f.createEvents(t, 10)

	_, err := f.svc.CreateEvent(context.Background(), eventdomain.CreateEventRequest{UserID: organizerID, Title: "Eleventh"})
	require.Error(t, err)
	assert.ErrorIs(t, err, limitsdomain.ErrLimitExceeded)

	var quotaErr *limitsdomain.QuotaError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, int64(10), quotaErr.Limit)
	assert.Equal(t, int64(10), quotaErr.Used)

	var count int64
	require.NoError(t, f.db.Model(&eventdomain.Event{}).Count(&count).Error)
	assert.Equal(t, int64(10), count)
}

func TestCancelEventFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	events := f.createEvents(t, 10)

	cancelled, err := f.svc.CancelEvent(ctx, organizerID, events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, eventdomain.EventStatusCancelled, cancelled.Status)

	_, err = f.svc.CreateEvent(ctx, eventdomain.CreateEventRequest{UserID: organizerID, Title: "Replacement"})
	require.NoError(t, err)

	// cancelling twice writes a single release entry
	_, err = f.svc.CancelEvent(ctx, organizerID, events[0].ID)
	require.NoError(t, err)

	var releases int64
	require.NoError(t, f.db.Model(&usagedomain.LedgerEntry{}).Where("delta < 0").Count(&releases).Error)
	assert.Equal(t, int64(1), releases)
}

func TestCancelEventRequiresOwner(t *testing.T) {
	f := newFixture(t)
	events := f.createEvents(t, 1)

	_, err := f.svc.CancelEvent(context.Background(), "0d9a1c2b-3e4f-4a5b-8c6d-7e8f9a0b1c2d", events[0].ID)
	assert.ErrorIs(t, err, eventdomain.ErrEventNotFound)
}

func TestListEventsPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	events := f.createEvents(t, 5)
	_, err := f.svc.CancelEvent(ctx, organizerID, events[4].ID)
	require.NoError(t, err)

	page, err := f.svc.ListEvents(ctx, eventdomain.ListEventsRequest{UserID: organizerID, Pagination: paginationOf("", 2)})
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	assert.Equal(t, events[3].ID, page.Events[0].ID)
	assert.Equal(t, events[2].ID, page.Events[1].ID)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	next, err := f.svc.ListEvents(ctx, eventdomain.ListEventsRequest{UserID: organizerID, Pagination: paginationOf(page.NextPageToken, 2)})
	require.NoError(t, err)
	require.Len(t, next.Events, 2)
	assert.Equal(t, events[1].ID, next.Events[0].ID)
	assert.Equal(t, events[0].ID, next.Events[1].ID)
	assert.False(t, next.HasMore)
	assert.Empty(t, next.NextPageToken)

	all, err := f.svc.ListEvents(ctx, eventdomain.ListEventsRequest{UserID: organizerID, IncludeCancelled: true, Pagination: paginationOf("", 10)})
	require.NoError(t, err)
	assert.Len(t, all.Events, 5)

	_, err = f.svc.ListEvents(ctx, eventdomain.ListEventsRequest{UserID: organizerID, Pagination: paginationOf("%%%", 2)})
	assert.ErrorIs(t, err, eventdomain.ErrInvalidPageToken)
}

func TestInviteAttendeesDeduplicatesAndSkipsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.createEvents(t, 1)[0]

	res, err := f.svc.InviteAttendees(ctx, eventdomain.InviteRequest{
		UserID:  organizerID,
		EventID: ev.ID,
		Emails:  []string{"Ana@Example.com", "ana@example.com ", "budi@example.com"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Invited, 2)
	assert.Empty(t, res.Skipped)

	res, err = f.svc.InviteAttendees(ctx, eventdomain.InviteRequest{
		UserID:  organizerID,
		EventID: ev.ID,
		Emails:  []string{"budi@example.com", "citra@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, res.Invited, 1)
	assert.Equal(t, "citra@example.com", res.Invited[0].Email)
	assert.Equal(t, []string{"budi@example.com"}, res.Skipped)

	used, err := f.usage.GetUsage(ctx, organizerID, plandomain.ActionInvitePeople, &ev.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), used)
}

func TestInviteAttendeesRejectsBatchOverRemaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.createEvents(t, 1)[0]

	emails := make([]string, 0, 101)
	for i := 0; i < 101; i++ {
		emails = append(emails, fmt.Sprintf("guest%03d@example.com", i))
	}

	_, err := f.svc.InviteAttendees(ctx, eventdomain.InviteRequest{UserID: organizerID, EventID: ev.ID, Emails: emails})
	assert.ErrorIs(t, err, limitsdomain.ErrLimitExceeded)

	res, err := f.svc.InviteAttendees(ctx, eventdomain.InviteRequest{UserID: organizerID, EventID: ev.ID, Emails: emails[:100]})
	require.NoError(t, err)
	assert.Len(t, res.Invited, 100)

	_, err = f.svc.InviteAttendees(ctx, eventdomain.InviteRequest{UserID: organizerID, EventID: ev.ID, Emails: emails[100:]})
	assert.ErrorIs(t, err, limitsdomain.ErrLimitExceeded)
}

func TestInviteAttendeesValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.createEvents(t, 1)[0]

	_, err := f.svc.InviteAttendees(ctx, eventdomain.InviteRequest{UserID: organizerID, EventID: ev.ID, Emails: []string{" "}})
	assert.ErrorIs(t, err, eventdomain.ErrEmptyInviteList)

	_, err = f.svc.InviteAttendees(ctx, eventdomain.InviteRequest{UserID: organizerID, EventID: ev.ID, Emails: []string{"not an email"}})
	assert.ErrorIs(t, err, eventdomain.ErrInvalidEmail)

	_, err = f.svc.CancelEvent(ctx, organizerID, ev.ID)
	require.NoError(t, err)
	_, err = f.svc.InviteAttendees(ctx, eventdomain.InviteRequest{UserID: organizerID, EventID: ev.ID, Emails: []string{"a@example.com"}})
	assert.ErrorIs(t, err, eventdomain.ErrEventCancelled)
}

func TestPostChatMessageHonoursPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := f.svc.PostChatMessage(ctx, eventdomain.ChatMessageRequest{UserID: organizerID, Content: "plan my venue"})
		require.NoError(t, err)
	}
	_, err := f.svc.PostChatMessage(ctx, eventdomain.ChatMessageRequest{UserID: organizerID, Content: "one more"})
	assert.ErrorIs(t, err, limitsdomain.ErrLimitExceeded)

	_, err = f.subs.ActivateTrial(ctx, organizerID)
	require.NoError(t, err)

	msg, err := f.svc.PostChatMessage(ctx, eventdomain.ChatMessageRequest{UserID: organizerID, Content: "one more"})
	require.NoError(t, err)
	assert.Equal(t, eventdomain.ChatRoleUser, msg.Role)

	_, err = f.svc.PostChatMessage(ctx, eventdomain.ChatMessageRequest{UserID: organizerID, Content: "   "})
	assert.ErrorIs(t, err, eventdomain.ErrInvalidMessage)
}

func TestPostChatMessageScopedToEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.createEvents(t, 1)[0]

	_, err := f.svc.PostChatMessage(ctx, eventdomain.ChatMessageRequest{UserID: organizerID, EventID: &ev.ID, Content: "agenda?"})
	require.NoError(t, err)
	_, err = f.svc.PostChatMessage(ctx, eventdomain.ChatMessageRequest{UserID: organizerID, Content: "general"})
	require.NoError(t, err)

	scoped, err := f.usage.GetUsage(ctx, organizerID, plandomain.ActionAIChatMessages, &ev.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped)

	missing := ev.ID + 1
	_, err = f.svc.PostChatMessage(ctx, eventdomain.ChatMessageRequest{UserID: organizerID, EventID: &missing, Content: "?"})
	assert.ErrorIs(t, err, eventdomain.ErrEventNotFound)
}
