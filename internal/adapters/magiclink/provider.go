// Package magiclink is a self-hosted passwordless identity provider. It issues
// signed one-time sign-in links, redeems each link at most once and keeps the
// provider-side account for every verified email.
package magiclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/ports"
)

// Query parameters of a sign-in link.
const (
	ParamMode    = "mode"
	ParamOOBCode = "oobCode"
	ModeSignIn   = "signIn"
)

const (
	minKeyLen      = 32
	defaultLinkTTL = 15 * time.Minute
)

var (
	_ ports.IdentityProvider = (*Provider)(nil)
	_ ports.IdentityAdmin    = (*Provider)(nil)
)

// Options configures Provider.
type Options struct {
	SigningKey []byte
	Issuer     string
	LinkTTL    time.Duration

	Sender     ports.LinkSender
	Ledger     ports.LinkLedger
	Identities ports.IdentityStore

	Logger *slog.Logger
	Now    func() time.Time
}

// Provider implements ports.IdentityProvider and ports.IdentityAdmin.
type Provider struct {
	codec      tokenCodec
	sender     ports.LinkSender
	ledger     ports.LinkLedger
	identities ports.IdentityStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewProvider validates opts and builds a Provider.
func NewProvider(opts Options) (*Provider, error) {
	if len(opts.SigningKey) < minKeyLen {
		return nil, fmt.Errorf("signing key must be at least %d bytes", minKeyLen)
	}
	if opts.Sender == nil || opts.Ledger == nil || opts.Identities == nil {
		return nil, errors.New("sender, ledger and identity store are required")
	}
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = defaultLinkTTL
	}
	if opts.Issuer == "" {
		opts.Issuer = "folio"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		codec: tokenCodec{
			key:    opts.SigningKey,
			issuer: opts.Issuer,
			ttl:    opts.LinkTTL,
			now:    opts.Now,
		},
		sender:     opts.Sender,
		ledger:     opts.Ledger,
		identities: opts.Identities,
		logger:     logger.With("component", "magiclink"),
		now:        opts.Now,
	}, nil
}

// SendSignInLink issues a link for in.Email pointing at in.CallbackURL and hands it to the sender.
func (p *Provider) SendSignInLink(ctx context.Context, in ports.SendLinkInput) error {
	email, err := domainauth.NormalizeEmail(in.Email)
	if err != nil {
		return err
	}
	cb, err := url.Parse(in.CallbackURL)
	if err != nil || cb.Host == "" {
		return fmt.Errorf("invalid callback url %q", in.CallbackURL)
	}

	token, jti, err := p.codec.issue(email)
	if err != nil {
		return err
	}
	q := cb.Query()
	q.Set(ParamMode, ModeSignIn)
	q.Set(ParamOOBCode, token)
	cb.RawQuery = q.Encode()

	if err := p.sender.SendLink(ctx, email, cb.String()); err != nil {
		return fmt.Errorf("deliver sign-in link: %w", err)
	}
	p.logger.InfoContext(ctx, "sign-in link sent", "link_id", jti)
	return nil
}

// IsSignInLink reports whether link carries a sign-in mode and an oobCode shaped like a token.
func (p *Provider) IsSignInLink(link string) bool {
	_, ok := oobCode(link)
	return ok
}

func oobCode(link string) (string, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	q := u.Query()
	code := q.Get(ParamOOBCode)
	if q.Get(ParamMode) != ModeSignIn || strings.Count(code, ".") != 2 {
		return "", false
	}
	return code, true
}

// SignInWithLink redeems link for email. The link must verify, belong to email
// and not have been redeemed before.
func (p *Provider) SignInWithLink(ctx context.Context, email, link string) (domainauth.Identity, error) {
	code, ok := oobCode(link)
	if !ok {
		return domainauth.Identity{}, domainauth.ErrNotSignInLink
	}
	normalized, err := domainauth.NormalizeEmail(email)
	if err != nil {
		return domainauth.Identity{}, err
	}
	claims, err := p.codec.parse(code)
	if err != nil {
		return domainauth.Identity{}, err
	}
	if claims.Subject != normalized {
		return domainauth.Identity{}, domainauth.ErrEmailMismatch
	}

	now := p.now().UTC()
	ttl := claims.ExpiresAt.Sub(now)
	first, err := p.ledger.Consume(ctx, claims.ID, ttl)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("consume link: %w", err)
	}
	if !first {
		p.logger.WarnContext(ctx, "sign-in link reused", "link_id", claims.ID)
		return domainauth.Identity{}, domainauth.ErrLinkConsumed
	}

	rec, err := p.identities.RecordSignIn(ctx, normalized, now)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("record sign-in: %w", err)
	}
	return domainauth.Identity{
		ID:            rec.ID,
		Email:         rec.Email,
		EmailVerified: true,
		SignedInAt:    now,
	}, nil
}

// Refresh re-reads the account behind id and rejects sign-ins older than its last revocation.
func (p *Provider) Refresh(ctx context.Context, id domainauth.Identity) (domainauth.Identity, error) {
	rec, err := p.identities.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domainauth.Identity{}, domainauth.ErrUnknownUser
		}
		return domainauth.Identity{}, fmt.Errorf("refresh identity: %w", err)
	}
	if id.SignedInAt.Before(rec.TokensValidAfter) {
		return domainauth.Identity{}, domainauth.ErrSessionRevoked
	}
	id.Email = rec.Email
	return id, nil
}

// Revoke invalidates every sign-in of identityID issued so far.
func (p *Provider) Revoke(ctx context.Context, identityID string) error {
	err := p.identities.RevokeTokens(ctx, identityID, p.now().UTC())
	if errors.Is(err, ports.ErrNotFound) {
		return domainauth.ErrUnknownUser
	}
	return err
}

// GetUserByEmail resolves the account registered for email.
func (p *Provider) GetUserByEmail(ctx context.Context, email string) (domainauth.Identity, error) {
	normalized, err := domainauth.NormalizeEmail(email)
	if err != nil {
		return domainauth.Identity{}, err
	}
	rec, err := p.identities.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domainauth.Identity{}, domainauth.ErrUnknownUser
		}
		return domainauth.Identity{}, err
	}
	return domainauth.Identity{ID: rec.ID, Email: rec.Email, EmailVerified: true}, nil
}

// SetCustomClaims replaces the provider-side claims of identityID.
func (p *Provider) SetCustomClaims(ctx context.Context, identityID string, claims map[string]any) error {
	err := p.identities.SetClaims(ctx, identityID, claims)
	if errors.Is(err, ports.ErrNotFound) {
		return domainauth.ErrUnknownUser
	}
	return err
}
