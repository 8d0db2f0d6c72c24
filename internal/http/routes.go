package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/gate"
	"github.com/boycepro/folio/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Catalog   ports.GuideCatalog
	Content   ContentService
	Session   SessionDeps
	Templates *TemplateRenderer
	Gates     *gate.Renderer
	// LinkLimiter throttles sign-in link requests (optional).
	LinkLimiter *RateLimiter
	// DevLinks exposes captured links in development mode (optional).
	DevLinks DevLinkSource
	// Metrics serves the scrape endpoint at MetricsPath (optional).
	Metrics     http.Handler
	MetricsPath string
	// HealthChecks are run by /healthz (optional).
	HealthChecks []HealthCheck
	Logger       *slog.Logger
}

// NewRouter creates and configures a new HTTP router with browser middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	ui := &UIHandlers{
		T:       services.Templates,
		Gates:   services.Gates,
		Catalog: services.Catalog,
		Content: services.Content,
		Logger:  logger,
	}
	authHandlers := &AuthHandlers{
		UI:            ui,
		Cookies:       services.Session.Cookies,
		DevLinks:      services.DevLinks,
		SettleTimeout: services.Session.settleTimeout(),
		Logger:        logger,
	}
	contentHandlers := &ContentHandlers{Svc: services.Content, Logger: logger}

	health := healthHandler(services.HealthChecks, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	if services.Metrics != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, services.Metrics)
	}

	withSession := SessionContext(services.Session)
	registerAuthRoutes(mux, authHandlers, withSession, services.LinkLimiter)
	registerUIRoutes(mux, ui, withSession)
	registerContentRoutes(mux, contentHandlers, withSession)
	mux.Handle("/", withSession(http.HandlerFunc(ui.NotFound)))

	var handler http.Handler = mux
	handler = CSRFProtection(services.Session.Cookies)(handler)
	handler = BrowserDetection()(handler)
	handler = Logging(logger)(handler)
	return Recover(logger)(handler)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, withSession func(http.Handler) http.Handler, limiter *RateLimiter) {
	requestLink := withSession(http.HandlerFunc(h.RequestLink))
	if limiter != nil {
		requestLink = limiter.Middleware()(requestLink)
	}
	mux.Handle("GET /auth", withSession(http.HandlerFunc(h.SignInForm)))
	mux.Handle("POST /auth/link", requestLink)
	mux.Handle("GET /auth/callback", withSession(http.HandlerFunc(h.Callback)))
	mux.Handle("POST /auth/callback", withSession(http.HandlerFunc(h.CallbackSubmit)))
	mux.Handle("POST /auth/logout", withSession(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /auth/status", withSession(http.HandlerFunc(h.Status)))
	if h.DevLinks != nil {
		mux.HandleFunc("GET /auth/dev/latest", h.DevLatest)
	}
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, withSession func(http.Handler) http.Handler) {
	mux.Handle("GET /{$}", withSession(http.HandlerFunc(h.Home)))
	mux.Handle("GET /guides", withSession(http.HandlerFunc(h.Guides)))
	mux.Handle("GET /guides/{slug}", withSession(http.HandlerFunc(h.Guide)))
	mux.Handle("GET /blog", withSession(http.HandlerFunc(h.Blog)))
	mux.Handle("GET /blog/{slug}", withSession(http.HandlerFunc(h.Post)))

	adminOnly := RequireRole(domainauth.RoleAdmin, h.RoleDenied(domainauth.RoleAdmin))
	mux.Handle("GET /admin", withSession(adminOnly(http.HandlerFunc(h.Admin))))
}

func registerContentRoutes(mux *http.ServeMux, h *ContentHandlers, withSession func(http.Handler) http.Handler) {
	mux.Handle("GET /api/pages/{pageID}", withSession(http.HandlerFunc(h.GetPage)))
	// The content service re-checks the role; the guard answers early with 401/403.
	adminOnly := RequireRole(domainauth.RoleAdmin, nil)
	mux.Handle("PUT /api/pages/{pageID}/sections/{sectionKey}", withSession(adminOnly(http.HandlerFunc(h.SaveSection))))
}
