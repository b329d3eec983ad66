package commands

import (
	"context"
	"fmt"

	"github.com/benvon/codemate/internal/config"
	"github.com/benvon/codemate/internal/database"
	"github.com/benvon/codemate/internal/models"
)

// Backend is the storage the configure commands operate on.
type Backend interface {
	Migrate(ctx context.Context) error
	RateLimit(ctx context.Context) (*models.RateLimitSetting, error)
	SetRateLimit(ctx context.Context, rate string) error
	CORS(ctx context.Context) (*models.CORSSetting, error)
	SetCORS(ctx context.Context, s *models.CORSSetting) error
	PruneEmpty(ctx context.Context) (int64, error)
	Close() error
}

// Opener connects a Backend.
type Opener func(ctx context.Context) (Backend, error)

type dbBackend struct {
	*database.SettingsRepository
	*database.TagRepository
	db *database.DB
}

func (b *dbBackend) Migrate(ctx context.Context) error { return b.db.Migrate(ctx) }
func (b *dbBackend) Close() error                      { return b.db.Close() }

// OpenDatabase connects to DATABASE_URL from the environment or .env.
func OpenDatabase(_ context.Context) (Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &dbBackend{
		SettingsRepository: database.NewSettingsRepository(db),
		TagRepository:      database.NewTagRepository(db),
		db:                 db,
	}, nil
}

// withBackend opens a backend for one command run and closes it afterwards.
func withBackend(ctx context.Context, open Opener, fn func(Backend) error) (err error) {
	b, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close backend: %w", closeErr)
		}
	}()
	return fn(b)
}
