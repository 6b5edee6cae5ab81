package ratelimit

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewActionLimiter),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, limiter *ActionLimiter, log *zap.Logger) {
	if !limiter.Enabled() {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := limiter.Ping(ctx); err != nil {
				log.Warn("rate limit redis unreachable", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return limiter.Close()
		},
	})
}
