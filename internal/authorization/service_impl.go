package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/eventtria/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleSystem = "system"
)

const (
	ObjectPlan         = "plan"
	ObjectSubscription = "subscription"
	ObjectUsage        = "usage"
	ObjectEvent        = "event"
	ObjectChat         = "chat"
)

const (
	ActionPlanView = "plan.view"

	ActionSubscriptionView     = "subscription.view"
	ActionSubscriptionTrial    = "subscription.trial"
	ActionSubscriptionActivate = "subscription.activate"
	ActionSubscriptionCancel   = "subscription.cancel"
	ActionSubscriptionViewAny  = "subscription.view_any"
	ActionSubscriptionExpire   = "subscription.expire"

	ActionUsageView    = "usage.view"
	ActionUsageViewAny = "usage.view_any"

	ActionEventCreate = "event.create"
	ActionEventView   = "event.view"
	ActionEventCancel = "event.cancel"
	ActionEventInvite = "event.invite"

	ActionChatPost = "chat.post"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads policies from the casbin_rule table and seeds the
// built-in role permissions.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor Actor, object string, action string) error {
	role := strings.ToLower(strings.TrimSpace(actor.Role))
	if strings.TrimSpace(actor.ID) == "" || role == "" {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(roleSubject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		logger.WithContext(ctx, s.log).Info("authorization denied",
			zap.String("actor_id", actor.ID),
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func roleSubject(role string) string {
	return "role:" + role
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Signed-in users act on their own data
		{roleSubject(RoleUser), ObjectPlan, ActionPlanView},
		{roleSubject(RoleUser), ObjectSubscription, ActionSubscriptionView},
		{roleSubject(RoleUser), ObjectSubscription, ActionSubscriptionTrial},
		{roleSubject(RoleUser), ObjectUsage, ActionUsageView},
		{roleSubject(RoleUser), ObjectEvent, ActionEventCreate},
		{roleSubject(RoleUser), ObjectEvent, ActionEventView},
		{roleSubject(RoleUser), ObjectEvent, ActionEventCancel},
		{roleSubject(RoleUser), ObjectEvent, ActionEventInvite},
		{roleSubject(RoleUser), ObjectChat, ActionChatPost},

		// Admins manage any user's subscription
		{roleSubject(RoleAdmin), ObjectSubscription, ActionSubscriptionActivate},
		{roleSubject(RoleAdmin), ObjectSubscription, ActionSubscriptionCancel},
		{roleSubject(RoleAdmin), ObjectSubscription, ActionSubscriptionViewAny},
		{roleSubject(RoleAdmin), ObjectSubscription, ActionSubscriptionExpire},
		{roleSubject(RoleAdmin), ObjectUsage, ActionUsageViewAny},

		// Background jobs
		{roleSubject(RoleSystem), ObjectSubscription, ActionSubscriptionExpire},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	if _, err := enforcer.AddGroupingPolicy(roleSubject(RoleAdmin), roleSubject(RoleUser)); err != nil {
		return err
	}
	return nil
}
