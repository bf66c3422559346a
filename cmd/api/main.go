// @title                       ModernShop API
// @version                     1.0
// @description                 Accounts and shopping cart for the ModernShop storefront.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/modernshop/shop-api/internal/api"
	"github.com/modernshop/shop-api/internal/api/handler"
	"github.com/modernshop/shop-api/internal/api/middleware"
	"github.com/modernshop/shop-api/internal/core/service"
	"github.com/modernshop/shop-api/internal/infrastructure/db/mongo"
	"github.com/modernshop/shop-api/internal/infrastructure/db/redis"
	"github.com/modernshop/shop-api/internal/pkg/config"
	"github.com/modernshop/shop-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shop-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:       cfg.LogLevel,
		Pretty:      !cfg.IsProduction(),
		Service:     "shop-api",
		Environment: cfg.Env,
	})

	store, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	users := mongo.NewUserRepository(store.Database())
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}

	checks := map[string]handler.DependencyCheck{
		"mongodb": store.Ping,
		"redis":   nil,
	}
	rateLimit := middleware.RateLimitConfig{Logger: logger.Component("ratelimit")}

	if cfg.RedisEnabled() {
		rdb, err := redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)

		checks["redis"] = redis.Pinger(rdb)
		rateLimit.Store = redis.NewRateLimitStore(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		rateLimit.Backend = "redis"
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis, rate limits are shared")
	} else {
		rateLimit.Store = middleware.NewMemoryRateLimitStore(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		rateLimit.Backend = "memory"
	}

	sessions := service.NewSessionIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	authService := service.NewAuthService(users, sessions, cfg.Auth.BcryptCost, logger.Component("auth"))
	cartService := service.NewCartService(users, cfg.Cart.MaxWriteAttempts, logger.Component("cart"))

	e := api.NewRouter(api.Dependencies{
		Logger:             log,
		Environment:        cfg.Env,
		ExposeErrorDetails: cfg.IsDevelopment(),
		FrontendURL:        cfg.FrontendURL,
		BodyLimit:          cfg.BodyLimit,
		Auth:               authService,
		Cart:               cartService,
		Sessions:           sessions,
		Users:              users,
		RateLimit:          rateLimit,
		Checks:             checks,
	})

	return serve(ctx, e, ":"+cfg.Port, log)
}

// serve runs e until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, e *echo.Echo, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
}
