// @title        Users API
// @version      1.0
// @description  CRUD over user accounts with soft delete and unique, normalized emails.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/apiusers/user-service/internal/api"
	"github.com/apiusers/user-service/internal/infrastructure/db/redis"
	"github.com/apiusers/user-service/internal/infrastructure/db/sqlstore"
	"github.com/apiusers/user-service/internal/pkg/config"
	"github.com/apiusers/user-service/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "user-service",
		Env:     cfg.Env,
	})
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open record store")
	}
	defer store.Close()
	log.Info().Str("driver", store.DriverName()).Msg("record store ready")

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotency keys enabled")
	}

	e := api.NewRouter(api.Deps{
		Store:          store,
		Redis:          rdb,
		Logger:         log,
		IdempotencyTTL: cfg.Redis.IdempotencyTTL,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
