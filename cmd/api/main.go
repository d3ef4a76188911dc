// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/kidsask/api/internal/account"
	"github.com/kidsask/api/internal/admin"
	"github.com/kidsask/api/internal/auth"
	"github.com/kidsask/api/internal/chat"
	"github.com/kidsask/api/internal/config"
	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/geo"
	"github.com/kidsask/api/internal/health"
	"github.com/kidsask/api/internal/maintenance"
	"github.com/kidsask/api/internal/middleware"
	"github.com/kidsask/api/internal/notify"
	"github.com/kidsask/api/internal/server"
	"github.com/kidsask/api/internal/subscription"
	"github.com/kidsask/api/migrations"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	envFile := flag.String("env-file", ".env", "path to dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load env file", "path", *envFile, "error", err)
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(db.SQL()); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "HS256",
		"access_token_expire", cfg.JWT.AccessTokenExpire,
	)

	mailer, err := notify.New(cfg.Mail, cfg.App.Name)
	if err != nil {
		return err
	}

	geoResolver, err := geo.NewResolver(cfg.GeoIP.DatabasePath)
	if err != nil {
		logger.Warn("geoip database unavailable, login country disabled", "error", err)
		geoResolver = nil
	}

	catalog := subscription.NewCatalog(cfg.Plans)

	subscriptionRepo := subscription.NewRepository(db.DB)
	subscriptionSvc := subscription.NewService(subscriptionRepo, catalog)
	subscriptionHandler := subscription.NewHandler(subscriptionSvc)

	accountRepo := account.NewRepository(db.DB)
	accountSvc := account.NewService(accountRepo, catalog)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		accountSvc,
		jwtManager,
		catalog,
		mailer,
		cfg.Auth,
		auth.WithThrottle(core.NewCooldown(redis.Client, "reset:", cfg.Auth.ResetRequestWindow)),
		auth.WithCountryResolver(geoResolver),
	)
	authHandler := auth.NewHandler(authSvc, accountSvc)

	aiClient := chat.NewAIClient(cfg.AI)
	chatRepo := chat.NewRepository(db.DB)
	chatSvc := chat.NewService(chatRepo, aiClient, subscriptionSvc)
	chatHandler := chat.NewHandler(chatSvc)

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db, Critical: true},
		health.Dependency{Name: "redis", Checker: redis, Critical: true},
		health.Dependency{Name: "ai", Checker: aiClient},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Accounts:   accountSvc,
		Plans:      subscriptionSvc,
		Usage:      chatSvc,
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	var cleaner *maintenance.Cleaner
	if cfg.Maintenance.Enabled {
		cleaner = maintenance.NewCleaner(cfg.Maintenance, subscriptionSvc, authSvc)
		if err := cleaner.Start(); err != nil {
			return err
		}
		logger.Info("maintenance scheduler started")
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		MetricsConfig: cfg.Metrics,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	trustedProxies, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return err
	}
	if len(trustedProxies) > 0 {
		logger.Info("forwarding headers trusted", "proxies", len(trustedProxies))
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP(trustedProxies))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Metrics)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	srv.MountMetrics()

	authenticator := middleware.Authenticator(jwtManager)
	adminOnly := middleware.RequireAdmin
	strict := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.Auth.StrictRequests,
			cfg.Auth.StrictRequests,
			cfg.Auth.StrictWindow,
		),
		KeyFunc:  middleware.KeyByIPAndEndpoint,
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator, strict)
		subscriptionHandler.RegisterRoutes(r, authenticator)
		chatHandler.RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if cleaner != nil {
		select {
		case <-cleaner.Stop().Done():
		case <-shutdownCtx.Done():
			logger.Warn("maintenance jobs still running at shutdown")
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := geoResolver.Close(); err != nil {
		logger.Error("geoip close error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
