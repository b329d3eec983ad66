package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/database"
	"github.com/benvon/codemate/internal/models"
)

// CORSSource reads the stored CORS setting. A nil setting means none is stored.
type CORSSource interface {
	CORS(ctx context.Context) (*models.CORSSetting, error)
}

// CORSReloader applies rs/cors with origins read from storage and reloaded
// periodically. Without a stored setting it falls back to the frontend URL.
type CORSReloader struct {
	hotSwap
	source   CORSSource
	fallback []string
}

func NewCORSReloader(source CORSSource, frontendURL string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	r := &CORSReloader{
		source:   source,
		fallback: database.SplitOrigins(frontendURL),
	}
	if len(r.fallback) == 0 {
		r.fallback = []string{"http://localhost:3000"}
	}
	r.hotSwap = hotSwap{name: "cors", build: r.build, log: log, interval: reloadInterval}
	return r
}

// Middleware returns the reloading CORS middleware.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return r.wrap
}

func (r *CORSReloader) options(ctx context.Context) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   r.fallback,
		AllowCredentials: true,
		MaxAge:           86400,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
	}
	setting, err := r.source.CORS(ctx)
	if err != nil {
		r.log.Warn("failed_to_load_cors_setting_using_fallback", zap.Error(err), zap.Strings("origins", r.fallback))
		return opts
	}
	if setting != nil && len(setting.AllowedOrigins) > 0 {
		opts.AllowedOrigins = setting.AllowedOrigins
		opts.AllowCredentials = setting.AllowCredentials
		opts.MaxAge = setting.MaxAge
	}
	return opts
}

func (r *CORSReloader) build(ctx context.Context, next http.Handler) (http.Handler, error) {
	return cors.New(r.options(ctx)).Handler(next), nil
}
