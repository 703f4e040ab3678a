package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vitalora/staffgate/config"
	"github.com/vitalora/staffgate/internal/data"
	"github.com/vitalora/staffgate/internal/observability/metrics"
	"github.com/vitalora/staffgate/internal/ports"
	"github.com/vitalora/staffgate/internal/service"
)

const shutdownWaitTimeout = 10 * time.Second

// ServiceContainer holds the constructed services.
type ServiceContainer struct {
	Auth *service.AuthService
	// AuditRepo is nil when the audit trail is disabled.
	AuditRepo *data.LoginAuditRepo
	// Retention is nil unless the audit-pruner service is enabled.
	Retention *service.AuditRetentionService
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry
}

// ServiceDeps contains the infrastructure services are built on.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB               // Optional: required when the audit trail is enabled
	RedisClient redis.UniversalClient // Optional: required by the redis throttle backend
	Logger      *slog.Logger
}

// NewServices builds every service the enabled modes need.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	var container ServiceContainer
	support := AuthSupportDeps{Metrics: metrics.Noop{}}

	if cfg.Observability.MetricsEnabled {
		container.Registry = newMetricsRegistry()
		support.Metrics = metrics.NewAuthMetrics(container.Registry)
	}

	if cfg.Audit.Enabled {
		if deps.DB == nil {
			return ServiceContainer{}, errors.New("audit trail enabled but no database connection")
		}
		container.AuditRepo = data.NewLoginAuditRepo(deps.DB)
		support.Audit = container.AuditRepo
	}

	auth, err := BuildAuthService(AuthConfig{
		Auth:        cfg.Auth,
		Throttle:    cfg.Throttle,
		RedisClient: deps.RedisClient,
		Support:     support,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth service: %w", err)
	}
	container.Auth = auth

	if cfg.IsAuditPrunerEnabled() {
		retention, retErr := newAuditRetention(container.AuditRepo, cfg.Audit, logger)
		if retErr != nil {
			return ServiceContainer{}, retErr
		}
		container.Retention = retention
	}

	return container, nil
}

func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newAuditRetention(pruner ports.AuditPruner, cfg config.AuditConfig, logger *slog.Logger) (*service.AuditRetentionService, error) {
	svc, err := service.NewAuditRetentionService(service.AuditRetentionServiceOptions{
		Pruner: pruner,
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build audit retention: %w", err)
	}
	return svc, nil
}

// ServiceOrchestrationConfig contains dependencies for running services.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown runs the enabled services until SIGINT/SIGTERM or the first failure,
// then stops the rest gracefully.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunServices(ctx, cfg)
}

// RunServices runs the enabled services until ctx is canceled or one of them fails.
func RunServices(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	group, gctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		server, serverErr := NewHTTPServer(&HTTPServerConfig{Config: cfg.Config, Services: cfg.Services, Logger: logger})
		if serverErr != nil {
			return serverErr
		}
		group.Go(func() error {
			logger.Info("starting HTTP server", "addr", server.Addr)
			if listenErr := server.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", listenErr)
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			return ShutdownHTTPServer(context.WithoutCancel(gctx), server, logger)
		})
	}

	if cfg.Services.Retention != nil {
		group.Go(func() error {
			logger.Info("starting audit retention pruner")
			return cfg.Services.Retention.Run(gctx)
		})
	}

	err = group.Wait()
	logger.Info("services stopped")
	return err
}
