package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrymomot/filebox/internal/api"
	"github.com/dmitrymomot/filebox/internal/auth"
	"github.com/dmitrymomot/filebox/internal/background"
	"github.com/dmitrymomot/filebox/internal/config"
	"github.com/dmitrymomot/filebox/internal/file"
	"github.com/dmitrymomot/filebox/internal/logger"
	"github.com/dmitrymomot/filebox/internal/metadata"
	"github.com/dmitrymomot/filebox/internal/ratelimit"
	"github.com/dmitrymomot/filebox/internal/server"
	"github.com/dmitrymomot/filebox/internal/storage"
	"github.com/dmitrymomot/filebox/internal/thumbnail"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("fatal", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log, os.Stderr)
	slog.SetDefault(log)

	pool, err := metadata.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := metadata.Migrate(ctx, pool); err != nil {
		return err
	}

	redisClient, err := ratelimit.Connect(ctx, cfg.RateLimit)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.JWT.SigningKey, cfg.JWT.TTL)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(metadata.NewUsers(pool), tokens)

	tasks := background.NewRunner(log)
	fileSvc := file.NewService(
		metadata.NewFiles(pool),
		blobs,
		thumbnail.New(),
		tasks,
		log,
		cfg.SignedURLTTL,
	)

	limiter := ratelimit.New(redisClient, cfg.RateLimit)

	router := server.NewRouter(cfg.Server, server.RouterDeps{
		Auth:        api.NewAuthHandler(authSvc, log),
		Files:       api.NewFilesHandler(fileSvc, log),
		Verifier:    authSvc,
		UploadLimit: limiter,
		Health: api.Health(
			api.HealthCheck{Name: "postgres", Check: pool.Ping},
			api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
			api.HealthCheck{Name: "s3", Check: blobs.Ping},
		),
		Log: log,
	})

	srv := server.New(cfg.Server, log)
	if err := srv.Run(ctx, router); err != nil {
		return err
	}

	// Give in-flight thumbnail tasks a bounded chance to finish.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := tasks.Wait(drainCtx); err != nil {
		log.Warn("background tasks still running at shutdown", logger.Error(err))
	}
	return nil
}
