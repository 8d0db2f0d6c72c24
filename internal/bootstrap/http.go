package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/boycepro/folio/config"
	"github.com/boycepro/folio/internal/adapters/catalog"
	"github.com/boycepro/folio/internal/gate"
	httpx "github.com/boycepro/folio/internal/http"
	"github.com/boycepro/folio/internal/observability/metrics"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// Server is the HTTP server plus the background pieces that stop with it.
type Server struct {
	*http.Server
	limiter *httpx.RateLimiter
}

// NewHTTPServer builds the router and server without starting it.
func NewHTTPServer(cfg *HTTPServerConfig) (*Server, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("http server config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler, limiter, err := buildHTTPHandler(cfg.Config, cfg.Services, logger)
	if err != nil {
		return nil, err
	}

	addr := cfg.Config.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.Config.HTTP.ReadHeaderTimeout,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		limiter: limiter,
	}, nil
}

func buildHTTPHandler(
	appCfg *config.AppConfig,
	services ServiceContainer,
	logger *slog.Logger,
) (http.Handler, *httpx.RateLimiter, error) {
	if services.Auth == nil || services.Roles == nil || services.Content == nil {
		return nil, nil, errors.New("auth, role and content services are required")
	}

	cat, err := catalog.Default()
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	gates, err := gate.NewRenderer()
	if err != nil {
		return nil, nil, fmt.Errorf("load gate templates: %w", err)
	}
	templates, err := httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("load templates: %w", err)
	}

	limits := appCfg.Auth.RateLimit
	limiter := httpx.NewRateLimiter(httpx.RateLimiterConfig{
		Rate:              rate.Limit(limits.PerMinute / 60.0),
		Burst:             limits.Burst,
		TrustForwardedFor: limits.TrustForwardedFor,
	}, logger)

	router := httpx.RouterServices{
		Catalog: cat,
		Content: services.Content,
		Session: httpx.SessionDeps{
			Provider:     services.Auth.Provider,
			States:       services.Auth.States,
			Roles:        services.Roles,
			CallbackURL:  appCfg.Auth.CallbackURL,
			ReadyTimeout: appCfg.Auth.ReadyTimeout,
			Cookies:      httpx.CookieConfig{Domain: appCfg.HTTP.CookieDomain},
			Logger:       logger,
		},
		Templates:    templates,
		Gates:        gates,
		LinkLimiter:  limiter,
		HealthChecks: services.HealthChecks,
		Logger:       logger,
	}
	if services.Auth.DevLinks != nil {
		router.DevLinks = services.Auth.DevLinks
	}
	if obs := services.Metrics; obs.Collector != nil {
		router.Session.Observer = obs.Collector
		router.Session.Degraded = obs.Collector
		if obs.Config.IsEnabled() {
			router.Metrics = metrics.Handler(obs.Registry)
			router.MetricsPath = obs.Config.Path
		}
	}

	return httpx.NewRouter(router), limiter, nil
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	if cfg.Server.limiter != nil {
		cfg.Server.limiter.Stop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
