package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/eventtria/internal/auth"
	"github.com/smallbiznis/eventtria/internal/authorization"
	eventdomain "github.com/smallbiznis/eventtria/internal/event/domain"
	limitsdomain "github.com/smallbiznis/eventtria/internal/limits/domain"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	"github.com/smallbiznis/eventtria/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	"github.com/smallbiznis/eventtria/internal/subscription/domain/mocks"
	"github.com/smallbiznis/eventtria/internal/testutil"
	usagedomain "github.com/smallbiznis/eventtria/internal/usage/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	testUserID  = "8f14e45f-ceea-467f-a1c4-6c3b2f8a9d01"
	testAdminID = "c9f0f895-fb98-4b91-9f3b-7d2e0a1c6b22"
	otherUserID = "45c48cce-2e2d-4fbd-8a7e-3f1b9c0d2e33"
)

type stubProvider struct{}

func (stubProvider) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	switch token {
	case "user-token":
		return auth.Identity{UserID: testUserID, Role: auth.RoleUser}, nil
	case "admin-token":
		return auth.Identity{UserID: testAdminID, Role: auth.RoleAdmin}, nil
	default:
		return auth.Identity{}, auth.ErrInvalidToken
	}
}

type stubResolver struct {
	decision   limitsdomain.Decision
	resolution limitsdomain.Resolution
	checked    []plandomain.ActionType
	scopes     []*snowflake.ID
}

func (r *stubResolver) ResolveLimits(planName string) plandomain.LimitSet {
	return plandomain.ResolveLimits(planName)
}

func (r *stubResolver) CurrentLimits(context.Context, string) limitsdomain.Resolution {
	return r.resolution
}

func (r *stubResolver) CanPerformAction(ctx context.Context, userID string, action plandomain.ActionType, scopeID *snowflake.ID) bool {
	return r.Check(ctx, userID, action, scopeID).Allowed
}

func (r *stubResolver) Check(_ context.Context, _ string, action plandomain.ActionType, scopeID *snowflake.ID) limitsdomain.Decision {
	r.checked = append(r.checked, action)
	r.scopes = append(r.scopes, scopeID)
	d := r.decision
	d.Action = action
	if !action.Valid() {
		return limitsdomain.Decision{Action: action, Plan: plandomain.PlanFree}
	}
	return d
}

func (r *stubResolver) Summary(_ context.Context, userID string) limitsdomain.Summary {
	return limitsdomain.Summary{Plan: r.resolution.Limits.Plan, Resolution: r.resolution}
}

func (r *stubResolver) RecordUsage(context.Context, usagedomain.RecordUsageRequest) error {
	return nil
}

type stubEvents struct {
	createErr error
	created   []eventdomain.CreateEventRequest
	invites   []eventdomain.InviteRequest
}

func (s *stubEvents) CreateEvent(_ context.Context, req eventdomain.CreateEventRequest) (*eventdomain.Event, error) {
	s.created = append(s.created, req)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &eventdomain.Event{ID: 42, OrganizerID: req.UserID, Title: req.Title, Status: eventdomain.EventStatusDraft}, nil
}

func (s *stubEvents) CancelEvent(_ context.Context, userID string, eventID snowflake.ID) (*eventdomain.Event, error) {
	if eventID != 42 {
		return nil, eventdomain.ErrEventNotFound
	}
	return &eventdomain.Event{ID: eventID, OrganizerID: userID, Status: eventdomain.EventStatusCancelled}, nil
}

func (s *stubEvents) GetEvent(_ context.Context, userID string, eventID snowflake.ID) (*eventdomain.Event, error) {
	return nil, eventdomain.ErrEventNotFound
}

func (s *stubEvents) ListEvents(_ context.Context, req eventdomain.ListEventsRequest) (eventdomain.ListEventsResponse, error) {
	return eventdomain.ListEventsResponse{Events: []eventdomain.Event{}}, nil
}

func (s *stubEvents) InviteAttendees(_ context.Context, req eventdomain.InviteRequest) (eventdomain.InviteResult, error) {
	s.invites = append(s.invites, req)
	return eventdomain.InviteResult{Skipped: []string{}}, nil
}

func (s *stubEvents) PostChatMessage(_ context.Context, req eventdomain.ChatMessageRequest) (*eventdomain.ChatMessage, error) {
	return nil, fmt.Errorf("%w: retry after 1s", ratelimit.ErrThrottled)
}

type testServer struct {
	server   *Server
	subs     *mocks.MockService
	resolver *stubResolver
	events   *stubEvents
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.OpenSQLite(t)
	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	subs := mocks.NewMockService(ctrl)
	resolver := &stubResolver{
		resolution: limitsdomain.Resolution{Limits: plandomain.LimitsFor(plandomain.PlanFree), Entitled: true},
	}
	events := &stubEvents{}

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	srv := NewServer(ServerParams{
		Gin:             engine,
		DB:              db,
		Log:             zap.NewNop(),
		AuthProvider:    stubProvider{},
		AuthzSvc:        authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		SubscriptionSvc: subs,
		Resolver:        resolver,
		EventSvc:        events,
	})
	return &testServer{server: srv, subs: subs, resolver: resolver, events: events}
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthAndPlansArePublic(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/plans", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []plandomain.LimitSet `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, plandomain.PlanFree, resp.Data[0].Plan)
	assert.Equal(t, int64(10), resp.Data[0].Limits[plandomain.ActionEventsCreated])
}

func TestAPIRequiresBearerToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/usage", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Type)

	rec = ts.do(http.MethodGet, "/api/usage", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckActionPassesScope(t *testing.T) {
	ts := newTestServer(t)
	ts.resolver.decision = limitsdomain.Decision{Plan: plandomain.PlanFree, Allowed: true, Limit: 100, Used: 3, Remaining: 97}

	rec := ts.do(http.MethodGet, "/api/usage/invite_people?event_id=77", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data limitsdomain.Decision `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Allowed)
	assert.Equal(t, int64(97), resp.Data.Remaining)
	require.Len(t, ts.resolver.scopes, 1)
	require.NotNil(t, ts.resolver.scopes[0])
	assert.Equal(t, snowflake.ID(77), *ts.resolver.scopes[0])
}

func TestCheckActionUnknownIsDenied(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/usage/teleport", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data limitsdomain.Decision `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Allowed)
}

func TestCheckActionRejectsBadEventID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/usage/invite_people?event_id=abc", "user-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.resolver.checked)
}

func TestCreateEventQuotaMapsTo402(t *testing.T) {
	ts := newTestServer(t)
	ts.events.createErr = &limitsdomain.QuotaError{
		Action: plandomain.ActionEventsCreated,
		Plan:   plandomain.PlanFree,
		Limit:  10,
		Used:   10,
	}

	rec := ts.do(http.MethodPost, "/api/events", "user-token", `{"title":"Launch"}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "limit_exceeded", payload.Type)
	assert.Contains(t, payload.Message, "10 of 10")

	require.Len(t, ts.events.created, 1)
	assert.Equal(t, testUserID, ts.events.created[0].UserID)
}

func TestCreateEventValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.events.createErr = eventdomain.ErrInvalidTitle

	rec := ts.do(http.MethodPost, "/api/events", "user-token", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid title", decodeError(t, rec).Message)

	rec = ts.do(http.MethodPost, "/api/events", "user-token", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelEvent(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/events/42/cancel", "user-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/events/7/cancel", "user-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/events/not-an-id/cancel", "user-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInviteAttendeesBindsPathAndBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/events/42/invites", "user-token", `{"emails":["a@example.com"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.events.invites, 1)
	assert.Equal(t, snowflake.ID(42), ts.events.invites[0].EventID)
	assert.Equal(t, []string{"a@example.com"}, ts.events.invites[0].Emails)
}

func TestThrottledMapsTo429(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/chat/messages", "user-token", `{"content":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestEnsureSubscription(t *testing.T) {
	ts := newTestServer(t)
	gomock.InOrder(
		ts.subs.EXPECT().EnsureSubscription(gomock.Any(), testUserID).Return(true),
		ts.subs.EXPECT().EnsureSubscription(gomock.Any(), testUserID).Return(false),
	)

	rec := ts.do(http.MethodPost, "/api/subscription/ensure", "user-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/subscription/ensure", "user-token", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestActivateTrialConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.subs.EXPECT().ActivateTrial(gomock.Any(), testUserID).Return(subscriptiondomain.UserSubscription{}, subscriptiondomain.ErrTrialAlreadyUsed)

	rec := ts.do(http.MethodPost, "/api/subscription/trial", "user-token", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "trial_already_used", decodeError(t, rec).Type)
}

func TestGetSubscriptionIncludesTrialAvailability(t *testing.T) {
	ts := newTestServer(t)
	ts.subs.EXPECT().TrialAvailable(gomock.Any(), testUserID).Return(true, nil)

	rec := ts.do(http.MethodGet, "/api/subscription", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Limits         plandomain.LimitSet `json:"limits"`
			TrialAvailable bool                `json:"trial_available"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.TrialAvailable)
	assert.Equal(t, plandomain.PlanFree, resp.Data.Limits.Plan)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/admin/users/"+otherUserID+"/usage", "user-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodGet, "/admin/users/"+otherUserID+"/usage", "admin-token", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/admin/users/not-a-uuid/usage", "admin-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminActivatePlan(t *testing.T) {
	ts := newTestServer(t)
	ts.subs.EXPECT().
		ActivatePlan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req subscriptiondomain.ActivatePlanRequest) (subscriptiondomain.UserSubscription, error) {
			assert.Equal(t, otherUserID, req.UserID)
			assert.Equal(t, plandomain.PlanLargeEventOrg, req.Plan)
			return subscriptiondomain.UserSubscription{UserID: req.UserID, Status: subscriptiondomain.StatusActive}, nil
		})

	body := `{"plan":"Large Event Org","period_end":"2030-01-01T00:00:00Z"}`
	rec := ts.do(http.MethodPost, "/admin/users/"+otherUserID+"/subscription/activate", "admin-token", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/admin/users/"+otherUserID+"/subscription/activate", "admin-token", `{"plan":"Gold"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminExpireWithoutScheduler(t *testing.T) {
	ts := newTestServer(t)
	ts.subs.EXPECT().ExpireLapsed(gomock.Any()).Return(int64(2), nil)

	rec := ts.do(http.MethodPost, "/admin/subscriptions/expire", "admin-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"expired":2}}`, rec.Body.String())
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{limitsdomain.ErrUsageUnavailable, http.StatusServiceUnavailable},
		{ratelimit.ErrLockHeld, http.StatusTooManyRequests},
		{eventdomain.ErrEventCancelled, http.StatusConflict},
		{subscriptiondomain.ErrSubscriptionNotFound, http.StatusNotFound},
		{plandomain.ErrUnknownAction, http.StatusBadRequest},
		{authorization.ErrForbidden, http.StatusForbidden},
		{gorm.ErrDuplicatedKey, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
	}
}
