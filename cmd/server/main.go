package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/cache"
	"github.com/benvon/codemate/internal/config"
	"github.com/benvon/codemate/internal/database"
	"github.com/benvon/codemate/internal/handlers"
	"github.com/benvon/codemate/internal/logger"
	"github.com/benvon/codemate/internal/middleware"
	"github.com/benvon/codemate/internal/queue"
	"github.com/benvon/codemate/internal/services/ai"
	forumsvc "github.com/benvon/codemate/internal/services/forum"
	"github.com/benvon/codemate/internal/services/oidc"
	"github.com/benvon/codemate/internal/telemetry"
)

const serviceName = "codemate-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging, including LLM request bodies")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag
	level := cfg.LogLevel
	if debugMode {
		level = "debug"
	}

	zapLogger, err := logger.New(logger.Options{Level: level, Format: cfg.LogFormat, Service: serviceName})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, debugMode, zapLogger); err != nil {
		zapLogger.Error("server_failed", zap.Error(err))
		_ = logger.Sync(zapLogger)
		os.Exit(1)
	}
	zapLogger.Info("server_exited")
}

func run(ctx context.Context, cfg *config.Config, debugMode bool, zapLogger *zap.Logger) error {
	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, serviceName, cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Redis backs both the read cache and the rate limiter.
	redisCache, err := cache.New(ctx, cfg.RedisURL, cfg.CacheTTL, zapLogger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// Jobs are optional for the API: without a broker, new tags simply wait
	// for an on-demand description.
	var jobs queue.Publisher
	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = queue.DialWithRetry(ctx, cfg.RabbitMQURL, 10, zapLogger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		jobs = jobQueue
		zapLogger.Info("connected_to_rabbitmq")
	} else {
		zapLogger.Warn("rabbitmq_not_configured_background_jobs_disabled")
	}

	authenticator, loginClient, err := setupAuth(ctx, cfg, database.NewUserRepository(db), zapLogger)
	if err != nil {
		return err
	}

	var assistant forumsvc.Assistant
	if a, err := ai.NewAssistantFromConfig(ctx, cfg.AIProvider, ai.ProviderConfig{
		APIKey:  cfg.AIKey(),
		Model:   cfg.AIModel,
		BaseURL: cfg.AIBaseURL,
		Logger:  zapLogger,
		Debug:   debugMode,
	}); err != nil {
		zapLogger.Warn("failed_to_create_ai_provider_ai_features_disabled", zap.Error(err))
	} else {
		assistant = a
	}

	svc := forumsvc.NewService(forumsvc.Stores{
		Questions:    database.NewQuestionRepository(db),
		Answers:      database.NewAnswerRepository(db),
		Tags:         database.NewTagRepository(db),
		Users:        database.NewUserRepository(db),
		Interactions: database.NewInteractionRepository(db),
		Votes:        database.NewVoteRepository(db),
		Search:       database.NewSearchRepository(db),
	}, redisCache, jobs, assistant, forumsvc.Options{
		PageSize:       cfg.QuestionsPageSize,
		PruneEmptyTags: cfg.TagPruneEmpty,
	}, zapLogger)

	settings := database.NewSettingsRepository(db)
	corsReloader := middleware.NewCORSReloader(settings, cfg.FrontendURL, zapLogger, time.Minute)
	rateLimitReloader, err := middleware.NewRateLimitReloader(redisCache.Client(), settings, cfg.RateLimit, zapLogger, time.Minute)
	if err != nil {
		return err
	}

	healthDeps := map[string]handlers.HealthCheckable{"database": db, "cache": redisCache}
	if jobQueue != nil {
		healthDeps["queue"] = jobQueue
	}

	r := mux.NewRouter()
	// Middleware registered first runs outermost.
	if tracingEnabled {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.Recover(zapLogger))
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(corsReloader.Middleware())
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.RequireJSON)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))

	r.HandleFunc("/healthz", handlers.NewHealthChecker(healthDeps).HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	// Resolve the caller once so the limiter can key on the user.
	api.Use(authenticator.Optional)
	api.Use(rateLimitReloader.Middleware())

	if openAPI, err := handlers.NewOpenAPIHandler(cfg.OpenAPIPath); err != nil {
		zapLogger.Warn("openapi_document_unavailable", zap.Error(err))
	} else {
		openAPI.RegisterRoutes(api)
	}
	handlers.NewForumHandler(svc, authenticator, zapLogger).RegisterRoutes(api)
	handlers.NewAIHandler(svc, authenticator, zapLogger).RegisterRoutes(api.PathPrefix("/ai").Subrouter())
	var login handlers.LoginURLer
	if loginClient != nil {
		login = loginClient
	}
	handlers.NewAuthHandler(login, authenticator, zapLogger).RegisterRoutes(api.PathPrefix("/auth").Subrouter())

	// Preflight requests match no method-specific route; CORS has already
	// answered them by the time this runs.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go corsReloader.Start(ctx)
	go rateLimitReloader.Start(ctx)

	if jobQueue != nil {
		dlqGC := queue.NewGarbageCollector(jobQueue, time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	zapLogger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// setupAuth discovers the identity provider and builds the token
// authenticator. The login client is nil when no OAuth client is configured.
func setupAuth(ctx context.Context, cfg *config.Config, users middleware.UserSyncer, zapLogger *zap.Logger) (*middleware.Authenticator, *oidc.Client, error) {
	if cfg.OIDCIssuer == "" {
		return nil, nil, errors.New("OIDC_ISSUER is required")
	}

	discoverCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	endpoints, err := oidc.Discover(discoverCtx, &http.Client{Timeout: 10 * time.Second}, cfg.OIDCIssuer)
	if err != nil {
		return nil, nil, fmt.Errorf("discover identity provider: %w", err)
	}

	jwksURL := cfg.OIDCJWKSURL
	if jwksURL == "" {
		jwksURL = endpoints.JWKSURI
	}
	keys, err := oidc.NewRemoteKeys(ctx, jwksURL, 15*time.Minute)
	if err != nil {
		return nil, nil, fmt.Errorf("load signing keys: %w", err)
	}
	zapLogger.Info("oidc_configured",
		zap.String("issuer", endpoints.Issuer),
		zap.String("jwks_url", jwksURL),
	)

	authenticator := middleware.NewAuthenticator(oidc.NewVerifier(keys, endpoints.Issuer, cfg.OIDCClientID), users, zapLogger)

	if cfg.OIDCClientID == "" || cfg.OIDCRedirectURI == "" {
		zapLogger.Warn("oidc_client_not_configured_login_url_disabled")
		return authenticator, nil, nil
	}
	client := oidc.NewClient(oidc.ClientConfig{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURI:  cfg.OIDCRedirectURI,
		Endpoints:    *endpoints,
	})
	return authenticator, client, nil
}
