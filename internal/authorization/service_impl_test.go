package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/eventtria/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	db := testutil.OpenSQLite(t)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeUserPermissions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := Actor{ID: "u1", Role: RoleUser}

	assert.NoError(t, svc.Authorize(ctx, user, ObjectEvent, ActionEventCreate))
	assert.NoError(t, svc.Authorize(ctx, user, ObjectSubscription, ActionSubscriptionTrial))
	assert.ErrorIs(t, svc.Authorize(ctx, user, ObjectSubscription, ActionSubscriptionActivate), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, user, ObjectUsage, ActionUsageViewAny), ErrForbidden)
}

func TestAuthorizeAdminInheritsUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	admin := Actor{ID: "a1", Role: " Admin "}

	assert.NoError(t, svc.Authorize(ctx, admin, ObjectSubscription, ActionSubscriptionActivate))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectUsage, ActionUsageViewAny))
	assert.NoError(t, svc.Authorize(ctx, admin, ObjectEvent, ActionEventCreate))
}

func TestAuthorizeSystemActor(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, SystemActor, ObjectSubscription, ActionSubscriptionExpire))
	assert.ErrorIs(t, svc.Authorize(ctx, SystemActor, ObjectEvent, ActionEventCreate), ErrForbidden)
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, Actor{Role: RoleUser}, ObjectEvent, ActionEventView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{ID: "u1"}, ObjectEvent, ActionEventView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{ID: "u1", Role: RoleUser}, " ", ActionEventView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{ID: "u1", Role: RoleUser}, ObjectEvent, ""), ErrInvalidAction)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{ID: "u1", Role: "guest"}, ObjectEvent, ActionEventView), ErrForbidden)
}

func TestNewEnforcerIsIdempotent(t *testing.T) {
	db := testutil.OpenSQLite(t)
	_, err := NewEnforcer(db)
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	policies, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, policies, 15)
}
