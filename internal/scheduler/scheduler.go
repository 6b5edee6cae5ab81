package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eventtria/internal/authorization"
	"github.com/smallbiznis/eventtria/internal/clock"
	obsmetrics "github.com/smallbiznis/eventtria/internal/observability/metrics"
	subscriptiondomain "github.com/smallbiznis/eventtria/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobExpireSubscriptions = "expire_subscriptions"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	SubscriptionSvc subscriptiondomain.Service
	AuthzSvc        authorization.Service  `optional:"true"`
	JobMetrics      *obsmetrics.JobMetrics `optional:"true"`
	Config          Config                 `optional:"true"`
}

type Scheduler struct {
	log             *zap.Logger
	cfg             Config
	genID           *snowflake.Node
	clock           clock.Clock
	subscriptionSvc subscriptiondomain.Service
	authzSvc        authorization.Service
	metrics         *obsmetrics.JobMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.SubscriptionSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:             p.Config.withDefaults(),
		genID:           p.GenID,
		clock:           p.Clock,
		subscriptionSvc: p.SubscriptionSvc,
		authzSvc:        p.AuthzSvc,
		metrics:         p.JobMetrics,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(name, err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	if !s.isJobEnabled(JobExpireSubscriptions) {
		return nil
	}
	return s.runJob(parent, JobExpireSubscriptions, s.cfg.SweepTimeout, func(ctx context.Context) error {
		_, err := s.ExpireSubscriptionsJob(ctx)
		return err
	})
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// ExpireSubscriptionsJob marks subscriptions whose window has ended as
// expired. Running it again finds nothing to do.
func (s *Scheduler) ExpireSubscriptionsJob(ctx context.Context) (int64, error) {
	ctx, run, _ := s.ensureJobRun(ctx, JobExpireSubscriptions)

	if s.authzSvc != nil {
		err := s.authzSvc.Authorize(ctx, authorization.SystemActor, authorization.ObjectSubscription, authorization.ActionSubscriptionExpire)
		if err != nil {
			s.logSchedulerError(ctx, run, "scheduler.expire.unauthorized", err)
			return 0, err
		}
	}

	expired, err := s.subscriptionSvc.ExpireLapsed(ctx)
	if err != nil {
		s.logSchedulerError(ctx, run, "scheduler.expire.failed", err)
		return 0, err
	}
	run.AddProcessed(int(expired))
	s.metrics.AddProcessed(JobExpireSubscriptions, "subscription", expired)
	if expired > 0 {
		s.logger(ctx).Info("scheduler.expire.done", zap.Int64("expired", expired))
	}
	return expired, nil
}

// RunExpirySweep runs the expiry job once under the configured timeout and
// reports how many subscriptions it expired.
func (s *Scheduler) RunExpirySweep(parent context.Context) (int64, error) {
	var expired int64
	err := s.runJob(parent, JobExpireSubscriptions, s.cfg.SweepTimeout, func(ctx context.Context) error {
		n, err := s.ExpireSubscriptionsJob(ctx)
		expired = n
		return err
	})
	return expired, err
}
