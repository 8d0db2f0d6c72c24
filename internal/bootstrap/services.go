package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/boycepro/folio/config"
	"github.com/boycepro/folio/internal/data"
	httpx "github.com/boycepro/folio/internal/http"
	"github.com/boycepro/folio/internal/observability/metrics"
	"github.com/boycepro/folio/internal/ports"
	"github.com/boycepro/folio/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth    *AuthComponents
	Roles   *service.RoleService
	Content *service.ContentService
	Admin   *service.AdminService
	Metrics ObservabilityContainer
	// HealthChecks back /healthz.
	HealthChecks []httpx.HealthCheck
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Collector *metrics.Collector
	Registry  *prometheus.Registry
	Config    config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Identities ports.IdentityStore
	Roles      ports.RoleStore
	Content    ports.ContentStore
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB) serviceRepositories {
	return serviceRepositories{
		Identities: data.NewIdentityRepo(db),
		Roles:      data.NewRoleRepo(db),
		Content:    data.NewContentRepo(db),
	}
}

// buildObservability registers the folio collector on a private registry
// alongside the Go runtime and process collectors.
func buildObservability(cfg config.ObservabilityMetricsConfig) ObservabilityContainer {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return ObservabilityContainer{
		Collector: metrics.NewCollector(reg),
		Registry:  reg,
		Config:    cfg,
	}
}

// NewServices initializes all application services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	repos := buildRepositories(deps.DB)
	services, err := newServices(deps.Config, repos, deps.RedisClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	if deps.DB != nil {
		services.HealthChecks = append(services.HealthChecks, httpx.HealthCheck{
			Name:  "postgres",
			Check: deps.DB.PingContext,
		})
	}
	return services, nil
}

func newServices(
	cfg *config.AppConfig,
	repos serviceRepositories,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
) (ServiceContainer, error) {
	obs := buildObservability(cfg.Observability.Metrics)

	auth, err := BuildAuth(AuthConfig{
		Auth:        cfg.Auth,
		RedisClient: redisClient,
		Identities:  repos.Identities,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build auth: %w", err)
	}

	return ServiceContainer{
		Auth: auth,
		Roles: service.NewRoleService(service.RoleServiceOptions{
			Store:  repos.Roles,
			Logger: logger,
		}),
		Content: service.NewContentService(service.ContentServiceOptions{
			Store:    repos.Content,
			Observer: obs.Collector,
			Logger:   logger,
		}),
		Admin: service.NewAdminService(service.AdminServiceOptions{
			Identities: auth.Provider,
			Roles:      repos.Roles,
			Logger:     logger,
		}),
		Metrics: obs,
		HealthChecks: []httpx.HealthCheck{{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}},
	}, nil
}

// ServiceOrchestrationConfig contains dependencies for running the server.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts the HTTP server and blocks until a signal
// or a server error, then shuts down gracefully.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server, err := NewHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", serveErr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return waitForShutdown(shutdownConfig{
		quit:    quit,
		errCh:   errCh,
		server:  server,
		timeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:  logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	quit    <-chan os.Signal
	errCh   <-chan error
	server  *Server
	timeout time.Duration
	logger  *slog.Logger
}

// waitForShutdown waits for shutdown signal or server error.
func waitForShutdown(cfg shutdownConfig) error {
	select {
	case sig := <-cfg.quit:
		cfg.logger.Info("shutting down", "signal", sig.String())
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.server,
			Timeout: cfg.timeout,
			Logger:  cfg.logger,
		})
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  cfg.server,
			Timeout: cfg.timeout,
			Logger:  cfg.logger,
		}); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}
