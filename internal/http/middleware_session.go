package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/boycepro/folio/internal/identity"
	"github.com/boycepro/folio/internal/ports"
	"github.com/boycepro/folio/internal/session"
)

// SessionDeps groups what SessionContext needs to build one UI session per request.
type SessionDeps struct {
	Provider     ports.IdentityProvider
	States       ports.AuthStateStore
	Roles        ports.RoleResolver
	CallbackURL  string
	ReadyTimeout time.Duration
	// SettleTimeout bounds how long a request waits for the session to
	// leave loading. It should cover ReadyTimeout plus one role lookup.
	SettleTimeout time.Duration
	Observer      identity.Observer
	Degraded      session.DegradedRecorder
	Cookies       CookieConfig
	Logger        *slog.Logger
}

func (d SessionDeps) settleTimeout() time.Duration {
	if d.SettleTimeout > 0 {
		return d.SettleTimeout
	}
	ready := d.ReadyTimeout
	if ready <= 0 {
		ready = session.DefaultReadyTimeout
	}
	return 2 * ready
}

// SessionContext returns a middleware that gives every request its own
// session: the browser's identity adapter is restored from the auth-state
// store, the role is resolved and the settled snapshot is attached to the
// request context. The session is closed once the handler returns.
func SessionContext(deps SessionDeps) func(http.Handler) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc, err := newRequestSession(w, r, deps, logger)
			if err != nil {
				logger.ErrorContext(r.Context(), "session setup failed", "error", err)
				WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "session_unavailable", Err: err})
				return
			}
			defer sc.Close()

			if err := sc.Start(r.Context()); err != nil {
				logger.ErrorContext(r.Context(), "session start failed", "error", err)
				WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "session_unavailable", Err: err})
				return
			}

			waitCtx, cancel := context.WithTimeout(r.Context(), deps.settleTimeout())
			snap, err := sc.Wait(waitCtx)
			cancel()
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				// client went away
				return
			}

			ctx := SetSessionInContext(r.Context(), sc, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRequestSession(w http.ResponseWriter, r *http.Request, deps SessionDeps, logger *slog.Logger) (*session.Context, error) {
	browserID := deps.Cookies.ensureBrowserID(w, r)
	adapter, err := identity.New(identity.Options{
		Provider:  deps.Provider,
		States:    deps.States,
		Tickets:   newCookieTicketStore(w, r, deps.Cookies),
		BrowserID: browserID,
		RotateBrowserID: func() string {
			return deps.Cookies.rotateBrowserID(w, r)
		},
		CallbackURL: deps.CallbackURL,
		Observer:    deps.Observer,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		Identity:     adapter,
		Roles:        deps.Roles,
		ReadyTimeout: deps.ReadyTimeout,
		Degraded:     deps.Degraded,
		Logger:       logger,
	})
}

// settled waits for sc to reflect a change made by the handler itself, such
// as a completed sign-in, and returns the new snapshot.
func settled(ctx context.Context, sc *session.Context, timeout time.Duration) session.Snapshot {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	snap, _ := sc.Wait(waitCtx)
	return snap
}
