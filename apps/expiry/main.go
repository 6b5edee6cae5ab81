package main

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eventtria/internal/account"
	"github.com/smallbiznis/eventtria/internal/authorization"
	"github.com/smallbiznis/eventtria/internal/clock"
	"github.com/smallbiznis/eventtria/internal/config"
	"github.com/smallbiznis/eventtria/internal/observability"
	"github.com/smallbiznis/eventtria/internal/plan"
	"github.com/smallbiznis/eventtria/internal/scheduler"
	"github.com/smallbiznis/eventtria/internal/subscription"
	"github.com/smallbiznis/eventtria/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// expiry runs a single subscription expiry sweep and exits. It is meant for
// cron style deployments where the api runs with SCHEDULER_ENABLED=false.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		account.Module,
		plan.Module,
		subscription.Module,
		authorization.Module,

		fx.Provide(scheduler.ProvideConfig),
		fx.Provide(scheduler.New),

		// No server module!
		fx.Invoke(RunSweep),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		panic(err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	_ = app.Stop(stopCtx)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

func RunSweep(lc fx.Lifecycle, s *scheduler.Scheduler, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			expired, err := s.RunExpirySweep(ctx)
			if err != nil {
				log.Error("expiry sweep failed", zap.Error(err))
				return err
			}
			log.Info("expiry sweep finished", zap.Int64("expired", expired))
			return nil
		},
	})
}
