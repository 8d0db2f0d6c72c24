package httpx

import (
	"context"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/session"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// requestSession is what SessionContext attaches to a request: the live
// session and the snapshot it settled on before the handler ran.
type requestSession struct {
	ctx  *session.Context
	snap session.Snapshot
}

// SetSessionInContext returns a child context that carries the given session
// and its settled snapshot. If sc is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, sc *session.Context, snap session.Snapshot) context.Context {
	if sc == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, requestSession{ctx: sc, snap: snap})
}

// GetSessionFromContext returns the request's session context and a boolean indicating presence.
func GetSessionFromContext(ctx context.Context) (*session.Context, bool) {
	rs, ok := ctx.Value(sessionKey{}).(requestSession)
	if !ok || rs.ctx == nil {
		return nil, false
	}
	return rs.ctx, true
}

// GetSnapshotFromContext returns the snapshot the request settled on.
// Requests that bypassed SessionContext look anonymous.
func GetSnapshotFromContext(ctx context.Context) session.Snapshot {
	if rs, ok := ctx.Value(sessionKey{}).(requestSession); ok {
		return rs.snap
	}
	return session.Snapshot{State: session.StateAnonymous}
}

// IsAnonymous reports whether the current request has no signed-in identity.
func IsAnonymous(ctx context.Context) bool {
	return !GetSnapshotFromContext(ctx).SignedIn()
}

// RoleFromContext returns the effective role of the request, RoleNone when anonymous.
func RoleFromContext(ctx context.Context) domainauth.Role {
	snap := GetSnapshotFromContext(ctx)
	if !snap.SignedIn() {
		return domainauth.RoleNone
	}
	return snap.Role
}
