// Package main is the entrypoint for the Personagen API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oklog/ulid/v2"

	"github.com/personagen/personagen/internal/apilog"
	"github.com/personagen/personagen/internal/cache"
	"github.com/personagen/personagen/internal/config"
	"github.com/personagen/personagen/internal/generator"
	"github.com/personagen/personagen/internal/handler"
	"github.com/personagen/personagen/internal/metrics"
	"github.com/personagen/personagen/internal/middleware"
	"github.com/personagen/personagen/internal/repository"
	"github.com/personagen/personagen/internal/server"
	"github.com/personagen/personagen/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Initialize services
	recorder := metrics.NewNoop()
	accountService := service.NewAccountService(repo, repo, logger)
	profileService := service.NewProfileService(
		cacheClient,
		generator.New(),
		cfg.ProfileCacheTTL,
		cfg.BulkMaxCount,
		logger,
		recorder,
	)

	// Request log pipeline
	logPublisher := apilog.NewPublisher(cacheClient.Client(), logger, recorder)
	logWorker := apilog.NewWorker(cacheClient.Client(), repo, logger, ulid.Make().String(), recorder)
	if err := logWorker.Start(ctx); err != nil {
		logger.Error("failed to start log worker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	accountHandler := handler.NewAccountHandler(accountService, logger)
	profileHandler := handler.NewProfileHandler(profileService, logger)
	statsHandler := handler.NewStatsHandler(repo, logger)

	r := setupRouter(h, healthHandler, accountHandler, profileHandler, statsHandler,
		repo, cacheClient, logPublisher, recorder, cfg, logger)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("apilog worker", logWorker.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	accountHandler *handler.AccountHandler,
	profileHandler *handler.ProfileHandler,
	statsHandler *handler.StatsHandler,
	repo *repository.Repository,
	cacheClient *cache.Cache,
	logPublisher *apilog.Publisher,
	recorder metrics.Recorder,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	if origins := cfg.GetCORSAllowedOrigins(); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			MaxAge:         300,
		}))
	}

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	// Public endpoints
	r.Post("/register", accountHandler.Register)
	r.Post("/generate-api-key", accountHandler.GenerateAPIKey)
	r.Get("/countries", profileHandler.Countries)

	authCfg := middleware.AuthConfig{
		Logger: logger,
		Keys:   repo,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Limiter: cacheClient,
		Metrics: recorder,
		Enabled: cfg.RateLimitEnabled,
	}

	// Key-protected endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authCfg))
		r.Use(middleware.RequestLog(logPublisher))

		r.Get("/list-api-keys", accountHandler.ListAPIKeys)
		r.Delete("/revoke-api-key", accountHandler.RevokeAPIKey)
		r.Get("/stats", statsHandler.Stats)

		r.With(middleware.RateLimit(rateLimitCfg, "generate", cfg.GenerateRPM, cfg.GenerateBurst)).
			Get("/generate", profileHandler.Generate)
		r.With(middleware.RateLimit(rateLimitCfg, "bulk-generate", cfg.BulkRPM, cfg.BulkBurst)).
			Get("/bulk-generate", profileHandler.BulkGenerate)
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
