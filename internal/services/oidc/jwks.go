package oidc

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// KeySource supplies the key set tokens are verified against.
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// RemoteKeys fetches a JWKS document and refreshes it in the background.
type RemoteKeys struct {
	cache *jwk.Cache
	url   string
}

// NewRemoteKeys registers url with an auto refreshing cache whose lifetime
// is bound to ctx.
func NewRemoteKeys(ctx context.Context, url string, minRefresh time.Duration) (*RemoteKeys, error) {
	if minRefresh <= 0 {
		minRefresh = 15 * time.Minute
	}
	cache := jwk.NewCache(ctx)
	if err := cache.Register(url, jwk.WithMinRefreshInterval(minRefresh)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS url: %w", err)
	}
	return &RemoteKeys{cache: cache, url: url}, nil
}

func (r *RemoteKeys) Keys(ctx context.Context) (jwk.Set, error) {
	set, err := r.cache.Get(ctx, r.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	return set, nil
}

// StaticKeys serves a fixed key set.
type StaticKeys struct {
	Set jwk.Set
}

func (s StaticKeys) Keys(context.Context) (jwk.Set, error) {
	return s.Set, nil
}
