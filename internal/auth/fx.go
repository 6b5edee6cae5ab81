package auth

import "go.uber.org/fx"

var Module = fx.Module("auth",
	fx.Provide(NewVerifier),
	fx.Provide(NewCachedProvider),
	fx.Provide(func(p *CachedProvider) Provider { return p }),
)
