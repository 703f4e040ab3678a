package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/vitalora/staffgate/config"
	"github.com/vitalora/staffgate/internal/bootstrap"
	"github.com/vitalora/staffgate/internal/observability/tracing"
)

// version is set at build time.
var version = "dev"

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if err = bootstrap.ValidateServiceConfig(&cfg); err != nil {
		return err
	}
	logStartupInfo(ctx, logger, &cfg)

	shutdownTracing, err := tracing.InitTraceProvider(ctx, cfg.Observability.TracingEndpoint, cfg.Observability.ServiceName, version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if terr := shutdownTracing(context.WithoutCancel(ctx)); terr != nil {
			logger.ErrorContext(ctx, "flush traces failed", "error", terr)
		}
	}()

	db, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer closeInfrastructure(ctx, logger, db, redisClient)

	if db != nil && cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			return err
		}
	}

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cfg,
		DB:          db,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting staffgate",
		"version", version,
		"enabled_services", bootstrap.GetEnabledServices(cfg),
		"auth_mode", cfg.Auth.Mode,
		"session_ttl", cfg.Auth.SessionTTL,
		"throttle_backend", cfg.Throttle.Backend,
		"audit_enabled", cfg.Audit.Enabled,
		"dev", cfg.IsDev,
	)
}

// initInfrastructure connects only what the enabled features need; both results may be nil.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	deps := bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	var db *sql.DB
	if cfg.NeedsPostgres() {
		var err error
		if db, err = bootstrap.ConnectDB(deps); err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
	}

	var redisClient redis.UniversalClient
	if cfg.NeedsRedis() {
		var err error
		if redisClient, err = bootstrap.ConnectRedis(deps); err != nil {
			closeInfrastructure(ctx, logger, db, nil)
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	return db, redisClient, nil
}

func closeInfrastructure(ctx context.Context, logger *slog.Logger, db *sql.DB, redisClient redis.UniversalClient) {
	if db != nil {
		if err := db.Close(); err != nil {
			logger.ErrorContext(ctx, "close database failed", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", err)
		}
	}
}
