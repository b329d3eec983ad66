package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ulule/limiter/v3"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/models"
)

const settingsKey = "default"

// SettingsRepository stores the runtime tunables the server hot reloads:
// the rate limit and the CORS origin list.
type SettingsRepository struct {
	db *DB
}

func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// RateLimit returns the stored rate, or nil when none has been set.
func (r *SettingsRepository) RateLimit(ctx context.Context) (*models.RateLimitSetting, error) {
	s := &models.RateLimitSetting{}
	err := r.db.QueryRowContext(ctx,
		`SELECT rate, updated_at FROM ratelimit_config WHERE config_key = $1`, settingsKey,
	).Scan(&s.Rate, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.FromStorage("get rate limit", err)
	}
	return s, nil
}

// SetRateLimit validates rate in limiter notation and stores it.
func (r *SettingsRepository) SetRateLimit(ctx context.Context, rate string) error {
	rate = strings.TrimSpace(rate)
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return apperror.InvalidInput("rate", "rate must look like 5-S, 100-M or 1000-H")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratelimit_config (config_key, rate)
		VALUES ($1, $2)
		ON CONFLICT (config_key) DO UPDATE SET rate = EXCLUDED.rate, updated_at = now()
	`, settingsKey, rate)
	if err != nil {
		return apperror.FromStorage("set rate limit", err)
	}
	return nil
}

// CORS returns the stored CORS setting, or nil when none has been set.
func (r *SettingsRepository) CORS(ctx context.Context) (*models.CORSSetting, error) {
	s := &models.CORSSetting{}
	var origins string
	err := r.db.QueryRowContext(ctx, `
		SELECT allowed_origins, allow_credentials, max_age, updated_at
		FROM cors_config WHERE config_key = $1
	`, settingsKey).Scan(&origins, &s.AllowCredentials, &s.MaxAge, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.FromStorage("get cors setting", err)
	}
	s.AllowedOrigins = SplitOrigins(origins)
	return s, nil
}

// SetCORS stores the CORS setting. At least one origin is required.
func (r *SettingsRepository) SetCORS(ctx context.Context, s *models.CORSSetting) error {
	origins := SplitOrigins(strings.Join(s.AllowedOrigins, ","))
	if len(origins) == 0 {
		return apperror.InvalidInput("allowed_origins", "at least one origin is required")
	}
	if s.MaxAge < 0 {
		return apperror.InvalidInput("max_age", "max age cannot be negative")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cors_config (config_key, allowed_origins, allow_credentials, max_age)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (config_key) DO UPDATE SET
			allowed_origins = EXCLUDED.allowed_origins,
			allow_credentials = EXCLUDED.allow_credentials,
			max_age = EXCLUDED.max_age,
			updated_at = now()
	`, settingsKey, strings.Join(origins, ","), s.AllowCredentials, s.MaxAge)
	if err != nil {
		return apperror.FromStorage("set cors setting", err)
	}
	return nil
}

// SplitOrigins parses a comma separated origin list, trimming blanks and
// dropping duplicates while keeping order.
func SplitOrigins(raw string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		out = append(out, origin)
	}
	return out
}
