// Package ports defines the interfaces (hexagonal ports) between the sign-in,
// session and content services and their adapters in internal/adapters and internal/data.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
)

// ErrNotFound is wrapped by every store's not-found error so callers can
// test for absence without knowing the adapter.
var ErrNotFound = errors.New("not found")

// SendLinkInput carries a sign-in link request.
type SendLinkInput struct {
	Email       string
	CallbackURL string
}

// IdentityProvider is the shared backend that issues one-time sign-in links
// and vouches for identities. Errors wrap the domainauth link sentinels.
type IdentityProvider interface {
	SendSignInLink(ctx context.Context, in SendLinkInput) error
	// IsSignInLink is pure: it inspects the URL shape only.
	IsSignInLink(link string) bool
	SignInWithLink(ctx context.Context, email, link string) (domainauth.Identity, error)
	// Refresh re-validates a previously issued identity. Revoked or deleted
	// identities yield domainauth.ErrSessionRevoked or domainauth.ErrUnknownUser.
	Refresh(ctx context.Context, id domainauth.Identity) (domainauth.Identity, error)
	Revoke(ctx context.Context, identityID string) error
}

// IdentityAdmin is the privileged provider surface used by administrative tooling.
type IdentityAdmin interface {
	GetUserByEmail(ctx context.Context, email string) (domainauth.Identity, error)
	SetCustomClaims(ctx context.Context, identityID string, claims map[string]any) error
}

// LinkSender delivers a sign-in link to an inbox.
type LinkSender interface {
	SendLink(ctx context.Context, email, link string) error
}

// LinkLedger records consumed link identifiers.
type LinkLedger interface {
	// Consume marks id as used and reports whether this call was the first use.
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// IdentityRecord is the provider-side account behind an Identity.
type IdentityRecord struct {
	ID               string         `db:"id"`
	Email            string         `db:"email"`
	Claims           map[string]any `db:"claims"`
	TokensValidAfter time.Time      `db:"tokens_valid_after"`
	CreatedAt        time.Time      `db:"created_at"`
	LastSignInAt     *time.Time     `db:"last_sign_in_at"`
}

// IdentityStore persists provider-side accounts.
type IdentityStore interface {
	// RecordSignIn returns the account for email, creating it when absent,
	// and stamps last_sign_in_at.
	RecordSignIn(ctx context.Context, email string, at time.Time) (IdentityRecord, error)
	GetByID(ctx context.Context, id string) (IdentityRecord, error)
	GetByEmail(ctx context.Context, email string) (IdentityRecord, error)
	SetClaims(ctx context.Context, id string, claims map[string]any) error
	RevokeTokens(ctx context.Context, id string, at time.Time) error
}

// AuthStateStore persists the signed-in identity of one browser across page loads.
type AuthStateStore interface {
	Save(ctx context.Context, browserID string, id domainauth.Identity) error
	Get(ctx context.Context, browserID string) (domainauth.Identity, error)
	Delete(ctx context.Context, browserID string) error
}

// TicketStore holds the pending sign-in ticket of one browser.
type TicketStore interface {
	Load() (domainauth.PendingTicket, bool)
	Store(t domainauth.PendingTicket)
	Clear()
}

// RoleStore persists one RoleRecord per identity.
type RoleStore interface {
	GetRole(ctx context.Context, id string) (domainauth.RoleRecord, error)
	// ProvisionDefaultRole creates a free record when none exists and returns
	// the stored record. An existing record is returned unchanged.
	ProvisionDefaultRole(ctx context.Context, id, email string) (domainauth.RoleRecord, error)
	SetRole(ctx context.Context, id, email string, role domainauth.Role) error
}

// RoleResolver yields the effective role for an identity.
type RoleResolver interface {
	Resolve(ctx context.Context, id domainauth.Identity) (domainauth.Role, error)
}
