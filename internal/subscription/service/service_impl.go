package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/eventtria/internal/account/domain"
	"github.com/smallbiznis/eventtria/internal/cache"
	"github.com/smallbiznis/eventtria/internal/clock"
	"github.com/smallbiznis/eventtria/internal/config"
	"github.com/smallbiznis/eventtria/internal/observability/logger"
	"github.com/smallbiznis/eventtria/internal/observability/metrics"
	plandomain "github.com/smallbiznis/eventtria/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	"github.com/smallbiznis/eventtria/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID   *snowflake.Node
	clock   clock.Clock
	cfg     *config.SubscriptionConfigHolder
	metrics *metrics.Metrics

	repo        subscriptiondomain.Repository
	planRepo    plandomain.Repository
	accountRepo accountdomain.Repository
	plans       cache.ResolverCache
}

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Config      *config.SubscriptionConfigHolder
	Metrics     *metrics.Metrics `optional:"true"`
	Repo        subscriptiondomain.Repository
	PlanRepo    plandomain.Repository
	AccountRepo accountdomain.Repository
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	cfg := p.Config
	if cfg == nil {
		cfg = config.NewStaticSubscriptionConfigHolder(config.DefaultSubscriptionConfig())
	}
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		genID:   p.GenID,
		clock:   p.Clock,
		cfg:     cfg,
		metrics: p.Metrics,

		repo:        p.Repo,
		planRepo:    p.PlanRepo,
		accountRepo: p.AccountRepo,
		plans:       cache.NewResolverCache(cfg.Get().PlanCacheTTL),
	}
}

// EnsureSubscription implements domain.Service.
func (s *Service) EnsureSubscription(ctx context.Context, userID string) bool {
	log := logger.WithContext(ctx, s.log)

	userID, err := normalizeUserID(userID)
	if err != nil {
		log.Warn("ensure subscription rejected", zap.Error(err))
		s.metrics.RecordSubscriptionEnsured(ctx, false, false)
		return false
	}

	free, err := s.planByName(ctx, plandomain.PlanFree)
	if err != nil {
		log.Error("ensure subscription: load free plan", zap.String("user_id", userID), zap.Error(err))
		s.metrics.RecordSubscriptionEnsured(ctx, false, false)
		return false
	}

	now := s.clock.Now()
	sub := &subscriptiondomain.UserSubscription{
		ID:          s.genID.Generate(),
		UserID:      userID,
		PlanID:      free.ID,
		Status:      subscriptiondomain.StatusActive,
		PeriodStart: now,
		PeriodEnd:   s.cfg.Get().FreePeriodEnd(now),
	}

	created, err := s.repo.InsertIfAbsent(ctx, s.db, sub)
	s.metrics.RecordSubscriptionEnsured(ctx, created, err == nil)
	if err != nil {
		log.Error("ensure subscription: insert", zap.String("user_id", userID), zap.Error(err))
		return false
	}
	if created {
		log.Info("provisioned free subscription",
			zap.String("user_id", userID),
			zap.Time("period_end", sub.PeriodEnd),
		)
	}
	return true
}

// ActivateTrial implements domain.Service.
func (s *Service) ActivateTrial(ctx context.Context, userID string) (subscriptiondomain.UserSubscription, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return subscriptiondomain.UserSubscription{}, err
	}

	trialPlan, err := s.planByName(ctx, plandomain.TrialPlan)
	if err != nil {
		return subscriptiondomain.UserSubscription{}, err
	}

	now := s.clock.Now()
	trialStart := now
	trialEnd := now.Add(s.cfg.Get().TrialDuration())

	var out subscriptiondomain.UserSubscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.Ensure(ctx, tx, userID); err != nil {
			return fmt.Errorf("ensure account status: %w", err)
		}
		consumed, err := s.accountRepo.ConsumeNewAccount(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("consume new account flag: %w", err)
		}
		if !consumed {
			return subscriptiondomain.ErrTrialAlreadyUsed
		}

		sub := &subscriptiondomain.UserSubscription{
			ID:          s.genID.Generate(),
			UserID:      userID,
			PlanID:      trialPlan.ID,
			Status:      subscriptiondomain.StatusTrialing,
			PeriodStart: trialStart,
			PeriodEnd:   trialEnd,
			IsTrial:     true,
			TrialStart:  &trialStart,
			TrialEnd:    &trialEnd,
		}
		if err := s.repo.UpsertByUserID(ctx, tx, sub); err != nil {
			return fmt.Errorf("upsert trial subscription: %w", err)
		}

		stored, err := s.repo.FindByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if stored == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		out = *stored
		return nil
	})
	if err != nil {
		return subscriptiondomain.UserSubscription{}, err
	}

	s.metrics.RecordTrialActivated(ctx, string(plandomain.TrialPlan))
	logger.WithContext(ctx, s.log).Info("trial activated",
		zap.String("user_id", userID),
		zap.String("plan", string(plandomain.TrialPlan)),
		zap.Time("trial_end", trialEnd),
	)
	return out, nil
}

// ActivatePlan implements domain.Service. It records a paid upgrade confirmed
// by the payment collaborator.
func (s *Service) ActivatePlan(ctx context.Context, req subscriptiondomain.ActivatePlanRequest) (subscriptiondomain.UserSubscription, error) {
	userID, err := normalizeUserID(req.UserID)
	if err != nil {
		return subscriptiondomain.UserSubscription{}, err
	}
	if !req.Plan.Valid() {
		return subscriptiondomain.UserSubscription{}, subscriptiondomain.ErrInvalidPlan
	}

	now := s.clock.Now()
	if !req.PeriodEnd.After(now) {
		return subscriptiondomain.UserSubscription{}, subscriptiondomain.ErrInvalidPeriod
	}

	planRow, err := s.planByName(ctx, req.Plan)
	if err != nil {
		return subscriptiondomain.UserSubscription{}, err
	}

	sub := &subscriptiondomain.UserSubscription{
		ID:          s.genID.Generate(),
		UserID:      userID,
		PlanID:      planRow.ID,
		Status:      subscriptiondomain.StatusActive,
		PeriodStart: now,
		PeriodEnd:   req.PeriodEnd.UTC(),
	}
	if err := s.repo.UpsertByUserID(ctx, s.db, sub); err != nil {
		return subscriptiondomain.UserSubscription{}, err
	}

	stored, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return subscriptiondomain.UserSubscription{}, err
	}
	if stored == nil {
		return subscriptiondomain.UserSubscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	logger.WithContext(ctx, s.log).Info("plan activated",
		zap.String("user_id", userID),
		zap.String("plan", string(req.Plan)),
		zap.Time("period_end", stored.PeriodEnd),
	)
	return *stored, nil
}

// Cancel implements domain.Service.
func (s *Service) Cancel(ctx context.Context, userID string) error {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return err
	}
	updated, err := s.repo.UpdateStatus(ctx, s.db, userID, subscriptiondomain.StatusCancelled)
	if err != nil {
		return err
	}
	if !updated {
		return subscriptiondomain.ErrSubscriptionNotFound
	}
	return nil
}

// CurrentPlan implements domain.Service.
func (s *Service) CurrentPlan(ctx context.Context, userID string) (subscriptiondomain.ActivePlan, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return subscriptiondomain.ActivePlan{}, err
	}

	sub, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return subscriptiondomain.ActivePlan{}, err
	}
	if sub == nil {
		return subscriptiondomain.ActivePlan{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	planRow, err := s.planByID(ctx, sub.PlanID)
	if err != nil {
		return subscriptiondomain.ActivePlan{}, err
	}

	return subscriptiondomain.ActivePlan{Subscription: *sub, Plan: planRow}, nil
}

// TrialAvailable implements domain.Service.
func (s *Service) TrialAvailable(ctx context.Context, userID string) (bool, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return false, err
	}
	status, err := s.accountRepo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return false, err
	}
	if status == nil {
		return true, nil
	}
	return status.NewAccount, nil
}

// ExpireLapsed implements domain.Service.
func (s *Service) ExpireLapsed(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireLapsed(ctx, s.db, s.clock.Now())
	if err != nil {
		return 0, err
	}
	s.metrics.RecordSubscriptionsExpired(ctx, count)
	return count, nil
}

func (s *Service) planByName(ctx context.Context, p plandomain.Plan) (plandomain.SubscriptionPlan, error) {
	if cached, ok := s.plans.GetPlanByName(string(p)); ok {
		return cached, nil
	}
	row, err := s.planRepo.FindByName(ctx, s.db, string(p))
	if err != nil {
		return plandomain.SubscriptionPlan{}, err
	}
	if row == nil {
		return plandomain.SubscriptionPlan{}, fmt.Errorf("%w: %s", subscriptiondomain.ErrPlanNotFound, p)
	}
	s.plans.SetPlanByName(string(p), *row)
	s.plans.SetPlan(row.ID.String(), *row)
	return *row, nil
}

func (s *Service) planByID(ctx context.Context, id snowflake.ID) (plandomain.SubscriptionPlan, error) {
	key := id.String()
	if cached, ok := s.plans.GetPlan(key); ok {
		return cached, nil
	}
	row, err := s.planRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return plandomain.SubscriptionPlan{}, err
	}
	if row == nil {
		return plandomain.SubscriptionPlan{}, subscriptiondomain.ErrPlanNotFound
	}
	s.plans.SetPlan(key, *row)
	return *row, nil
}

func normalizeUserID(raw string) (string, error) {
	userID, ok := usercontext.Normalize(raw)
	if !ok {
		return "", subscriptiondomain.ErrInvalidUserID
	}
	return userID, nil
}
