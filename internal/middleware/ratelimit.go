package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/request"
)

const DefaultRate = "20-S"

// RateSource reads and seeds the stored rate.
type RateSource interface {
	RateLimit(ctx context.Context) (*models.RateLimitSetting, error)
	SetRateLimit(ctx context.Context, rate string) error
}

// RateLimitReloader applies ulule/limiter backed by Redis with a rate read
// from storage and reloaded periodically. Signed in users are limited per
// user, anonymous callers per client IP.
type RateLimitReloader struct {
	hotSwap
	store       limiter.Store
	source      RateSource
	defaultRate string
}

func NewRateLimitReloader(client *redis.Client, source RateSource, defaultRate string, log *zap.Logger, reloadInterval time.Duration) (*RateLimitReloader, error) {
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "codemate:ratelimit"})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}
	return newRateLimitReloader(store, source, defaultRate, log, reloadInterval), nil
}

func newRateLimitReloader(store limiter.Store, source RateSource, defaultRate string, log *zap.Logger, reloadInterval time.Duration) *RateLimitReloader {
	if defaultRate == "" {
		defaultRate = DefaultRate
	}
	r := &RateLimitReloader{store: store, source: source, defaultRate: defaultRate}
	r.hotSwap = hotSwap{name: "ratelimit", build: r.build, log: log, interval: reloadInterval}
	return r
}

// Middleware returns the reloading rate limit middleware. It must run after
// authentication so signed in users get their own bucket.
func (r *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return r.wrap
}

// rate returns the stored rate, seeding storage with the default when empty.
func (r *RateLimitReloader) rate(ctx context.Context) string {
	setting, err := r.source.RateLimit(ctx)
	switch {
	case err != nil:
		r.log.Warn("failed_to_load_ratelimit_config_using_default", zap.Error(err), zap.String("default_rate", r.defaultRate))
		return r.defaultRate
	case setting == nil || setting.Rate == "":
		if err := r.source.SetRateLimit(ctx, r.defaultRate); err != nil {
			r.log.Error("failed_to_save_default_ratelimit_config", zap.Error(err), zap.String("default_rate", r.defaultRate))
		}
		return r.defaultRate
	default:
		return setting.Rate
	}
}

func (r *RateLimitReloader) build(ctx context.Context, next http.Handler) (http.Handler, error) {
	raw := r.rate(ctx)
	rate, err := limiter.NewRateFromFormatted(raw)
	if err != nil {
		r.log.Error("failed_to_parse_rate_limit_using_default", zap.Error(err), zap.String("rate", raw))
		if rate, err = limiter.NewRateFromFormatted(r.defaultRate); err != nil {
			return nil, fmt.Errorf("invalid default rate %q: %w", r.defaultRate, err)
		}
	}

	mw := stdlibmw.NewMiddleware(limiter.New(r.store, rate),
		stdlibmw.WithKeyGetter(rateLimitKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, req *http.Request) {
			writeError(w, req, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down", r.log)
		}),
	)
	return mw.Handler(next), nil
}

func rateLimitKey(r *http.Request) string {
	if u := request.UserFromContext(r); u != nil {
		return "user:" + u.ID.String()
	}
	return "ip:" + request.ClientIP(r)
}
