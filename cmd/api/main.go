// Package main is the entrypoint for the SpendWise API server.
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

	"github.com/spendwise/spendwise/internal/auth"
	"github.com/spendwise/spendwise/internal/cache"
	"github.com/spendwise/spendwise/internal/config"
	"github.com/spendwise/spendwise/internal/handler"
	"github.com/spendwise/spendwise/internal/metrics"
	"github.com/spendwise/spendwise/internal/middleware"
	"github.com/spendwise/spendwise/internal/repository"
	"github.com/spendwise/spendwise/internal/server"
	"github.com/spendwise/spendwise/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
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
	metricsRecorder := metrics.NewInMemory()
	issuer := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	authService := service.NewAuthService(repo, cacheClient, issuer, metricsRecorder)
	categoryService := service.NewCategoryService(repo, cacheClient, cfg.ListCacheTTL, metricsRecorder)
	budgetService := service.NewBudgetService(repo, cacheClient, cfg.ListCacheTTL, metricsRecorder)
	expenseService := service.NewExpenseService(repo, repo, cacheClient, cfg.ListCacheTTL, metricsRecorder)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	metricsHandler := handler.NewMetricsHandler(metricsRecorder)
	authHandler := handler.NewAuthHandler(authService, logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, logger)
	budgetHandler := handler.NewBudgetHandler(budgetService, logger)
	expenseHandler := handler.NewExpenseHandler(expenseService, logger)

	// Setup router
	r := setupRouter(routerDeps{
		base:       h,
		health:     healthHandler,
		metrics:    metricsHandler,
		auth:       authHandler,
		categories: categoryHandler,
		budgets:    budgetHandler,
		expenses:   expenseHandler,
		issuer:     issuer,
		cache:      cacheClient,
		recorder:   metricsRecorder,
		cfg:        cfg,
		logger:     logger,
	})

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

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

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
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

// routerDeps bundles everything setupRouter needs.
type routerDeps struct {
	base       *handler.Handler
	health     *handler.HealthHandler
	metrics    *handler.MetricsHandler
	auth       *handler.AuthHandler
	categories *handler.CategoryHandler
	budgets    *handler.BudgetHandler
	expenses   *handler.ExpenseHandler
	issuer     *auth.TokenIssuer
	cache      *cache.Cache
	recorder   metrics.Recorder
	cfg        *config.Config
	logger     *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.logger))
	r.Use(middleware.Recoverer(deps.logger))
	r.Use(middleware.Security(middleware.DefaultSecurityConfig()))
	r.Use(middleware.MaxBodySize(deps.cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Health endpoints (no auth required)
	r.Get("/healthz", deps.health.Healthz)
	r.Get("/readyz", deps.health.Readyz)
	r.Get("/metrics", deps.metrics.Metrics)

	// Root info endpoint
	r.Get("/", deps.base.Root)

	// Session middleware configuration
	sessionCfg := middleware.SessionConfig{
		Logger:   deps.logger,
		Issuer:   deps.issuer,
		Sessions: deps.cache,
		Metrics:  deps.recorder,
	}

	// Rate limit middleware configuration
	rateLimitCfg := middleware.RateLimitConfig{
		Logger:      deps.logger,
		Cache:       deps.cache,
		APIEnabled:  deps.cfg.RateLimitAPIEnabled,
		APIRPM:      deps.cfg.RateLimitAPIRPM,
		APIBurst:    deps.cfg.RateLimitAPIBurst,
		AuthEnabled: deps.cfg.RateLimitAuthEnabled,
		AuthRPS:     deps.cfg.RateLimitAuthRPS,
		AuthBurst:   deps.cfg.RateLimitAuthBurst,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Credential endpoints: IP rate limited, no session required
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitAuth(rateLimitCfg))
			r.Post("/auth/register", deps.auth.Register)
			r.Post("/auth/login", deps.auth.Login)
		})

		// Everything else requires a live session
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(sessionCfg))
			r.Use(middleware.RateLimitAPI(rateLimitCfg))

			r.Post("/auth/logout", deps.auth.Logout)
			r.Get("/me", deps.auth.Me)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", deps.categories.List)
				r.Post("/", deps.categories.Create)
				r.Patch("/{id}", deps.categories.Update)
				r.Delete("/{id}", deps.categories.Delete)
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", deps.budgets.List)
				r.Post("/", deps.budgets.Create)
				r.Patch("/{id}", deps.budgets.Update)
				r.Delete("/{id}", deps.budgets.Delete)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", deps.expenses.List)
				r.Post("/", deps.expenses.Create)
				r.Patch("/{id}", deps.expenses.Update)
				r.Delete("/{id}", deps.expenses.Delete)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(deps.base.NotFound)
	r.MethodNotAllowed(deps.base.MethodNotAllowed)

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
