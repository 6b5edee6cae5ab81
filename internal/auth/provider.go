package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/smallbiznis/eventtria/internal/cache"
	"github.com/smallbiznis/eventtria/internal/config"
)

const defaultSessionCacheTTL = 5 * time.Second

// Provider resolves a bearer token to the caller's identity.
type Provider interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// CachedProvider memoises verified tokens for a short TTL. Keys are token
// digests so raw tokens never sit in memory longer than a request.
type CachedProvider struct {
	verifier *Verifier
	loader   *cache.Loader[Identity]
}

func NewCachedProvider(cfg config.Config, verifier *Verifier) *CachedProvider {
	return newCachedProvider(verifier, cfg.Auth.SessionCacheTTL, cache.NewTTLCache[string, Identity]())
}

func newCachedProvider(verifier *Verifier, ttl time.Duration, c cache.Cache[string, Identity]) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultSessionCacheTTL
	}
	return &CachedProvider{
		verifier: verifier,
		loader:   cache.NewLoader(c, ttl),
	}
}

func (p *CachedProvider) Authenticate(ctx context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	return p.loader.Get(ctx, tokenKey(token), func(context.Context) (Identity, error) {
		return p.verifier.Verify(token)
	})
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
