package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"startup_boilerplate/internal/app/di"
	"startup_boilerplate/internal/app/router"
	"startup_boilerplate/internal/app/worker"
	authhandler "startup_boilerplate/internal/feature/auth/transport/handler"
	authusecase "startup_boilerplate/internal/feature/auth/usecase"
	"startup_boilerplate/internal/feature/landing"
	landinghandler "startup_boilerplate/internal/feature/landing/transport/handler"
	userhandler "startup_boilerplate/internal/feature/user/transport/handler"
	userusecase "startup_boilerplate/internal/feature/user/usecase"
	"startup_boilerplate/internal/platform/config"
	"startup_boilerplate/internal/platform/db"
	"startup_boilerplate/internal/platform/http/handler"
	"startup_boilerplate/internal/platform/http/middleware"
	jwtmw "startup_boilerplate/internal/platform/jwt"
	"startup_boilerplate/internal/platform/logger"
	platformredis "startup_boilerplate/internal/platform/redis"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg := config.Load()
	logger.New(cfg.Env, cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DB, db.Up, 0); err != nil {
			return err
		}
		slog.Info("migrations applied")
	}

	// db
	gdb, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	// Redis is optional: sessions fall back to the database and the user cache is skipped.
	var rdb *redisv9.Client
	if cfg.Redis.Enabled() {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err = platformredis.NewRedisClient(pingCtx, cfg.Redis)
		cancel()
		if err != nil {
			slog.Warn("redis unavailable, running without cache", "error", err)
			rdb = nil
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close redis client", "error", err)
				}
			}()
		}
	}

	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set; /login and bearer access to /api are unusable until it is")
	}

	// Usecase
	userUC := userusecase.NewUserUsecase(di.NewUserRepository(rdb, gdb, cfg.UserCacheTTL))
	authUC := authusecase.NewAuthUsecase(
		userUC,
		di.NewSessionRepository(rdb, gdb),
		jwtmw.NewGenerator(cfg.JWTSecret, cfg.JWTExpiration),
		authusecase.Config{SessionTTL: cfg.SessionTTL, MaxSessionsPerUser: cfg.MaxSessionsPerUser},
	)

	// Handler
	gateway := di.NewIdentityGateway(cfg)
	metrics := middleware.NewMetrics()
	renderer, err := landing.NewRenderer()
	if err != nil {
		return err
	}
	providers := gateway.Providers()

	checks := map[string]handler.Check{"postgres": sqlDB.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	engine, err := router.NewRouter(router.Handlers{
		Landing: landinghandler.NewLandingHandler(renderer, authUC, cfg.SessionCookieName, landing.Links{
			SignInURL:       cfg.SignInURL(providers),
			SignOutURL:      "/auth/logout",
			AfterSignOutURL: cfg.AfterSignOutURL,
		}, landing.NewProviders(providers)),
		Auth: authhandler.NewAuthHandler(authUC, gateway, authhandler.CookieConfig{
			Name:            cfg.SessionCookieName,
			Secure:          cfg.CookieSecure,
			TTL:             cfg.SessionTTL,
			AfterSignOutURL: cfg.AfterSignOutURL,
		}, metrics),
		User:  userhandler.NewUserHandler(userUC),
		Ready: handler.Ready(2*time.Second, checks),
	}, router.Options{
		Principals:        authUC,
		JWTSecret:         cfg.JWTSecret,
		SessionCookieName: cfg.SessionCookieName,
		AdminUserIDs:      cfg.AdminUserIDs(),
		TrustedProxies:    cfg.TrustedProxies(),
		CORSOrigins:       cfg.CORSOrigins(),
		Limiter:           di.NewLimiter(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow),
		Metrics:           metrics,
		Logger:            slog.Default(),
	})
	if err != nil {
		return err
	}

	go worker.RunSessionSweeper(ctx, authUC, cfg.SessionSweepInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "providers", providers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server exited")
	return nil
}
