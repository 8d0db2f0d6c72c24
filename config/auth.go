package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode selects how sign-in links are delivered.
type AuthMode string

const (
	// AuthModeMagicLink emails sign-in links over SMTP.
	AuthModeMagicLink AuthMode = "magiclink"
	// AuthModeDev logs sign-in links and exposes them on /auth/dev/latest (development only).
	AuthModeDev AuthMode = "dev"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "magiclink", "dev":
		*a = AuthMode(v)
		return nil
	case "mock":
		// accepted for older .env files
		*a = AuthModeDev
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: magiclink, dev)", v)
	}
}

// SMTPConfig configures link delivery when Mode=magiclink.
type SMTPConfig struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT"     envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM"     envDefault:"no-reply@localhost"`
	Subject  string        `env:"SUBJECT"  envDefault:"Your sign-in link"`
	Timeout  time.Duration `env:"TIMEOUT"  envDefault:"10s"`
}

// DevAuthConfig controls the development link sender.
// Used when AUTH_MODE=dev.
type DevAuthConfig struct {
	// AllowedDomains limits which inboxes receive links (empty allows all).
	AllowedDomains []string `env:"ALLOWED_DOMAINS" envSeparator:";"`
}

// RateLimitConfig bounds sign-in link requests per client IP.
type RateLimitConfig struct {
	// PerMinute is the sustained request rate.
	PerMinute float64 `env:"PER_MINUTE"          envDefault:"5"`
	Burst     int     `env:"BURST"               envDefault:"5"`
	// TrustForwardedFor keys clients by X-Forwarded-For; enable only behind a proxy.
	TrustForwardedFor bool `env:"TRUST_FORWARDED_FOR" envDefault:"false"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines how sign-in links are delivered.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"magiclink"`

	// LinkSigningKey signs link tokens. At least 32 bytes.
	LinkSigningKey string `env:"AUTH_LINK_SIGNING_KEY,required"`

	// LinkTTL is how long an emailed link stays valid.
	LinkTTL time.Duration `env:"AUTH_LINK_TTL" envDefault:"15m"`

	// CallbackURL is the fixed URL every link points at. Defaults to APP_BASE_URL + /auth/callback.
	CallbackURL string `env:"AUTH_CALLBACK_URL"`

	// ReadyTimeout bounds how long a session waits for the first identity notification.
	ReadyTimeout time.Duration `env:"AUTH_READY_TIMEOUT" envDefault:"2s"`

	// StateTTL is how long a browser stays signed in without activity.
	StateTTL time.Duration `env:"AUTH_STATE_TTL" envDefault:"720h"`

	SMTP      SMTPConfig      `envPrefix:"SMTP_"`
	DevAuth   DevAuthConfig   `envPrefix:"DEV_AUTH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

const (
	minSigningKeyLen   = 32
	defaultLinkTTL     = 15 * time.Minute
	defaultReadyWait   = 2 * time.Second
	maxLinkTTL         = 24 * time.Hour
	callbackPath       = "/auth/callback"
	defaultSMTPTimeout = 10 * time.Second
)

// Sanitize applies guardrails and fills the callback URL from baseURL.
func (a *AuthConfig) Sanitize(baseURL string) {
	if a.Mode == "" {
		a.Mode = AuthModeMagicLink
	}
	if a.LinkTTL <= 0 {
		a.LinkTTL = defaultLinkTTL
	}
	if a.LinkTTL > maxLinkTTL {
		a.LinkTTL = maxLinkTTL
	}
	if a.ReadyTimeout <= 0 {
		a.ReadyTimeout = defaultReadyWait
	}
	a.CallbackURL = strings.TrimSpace(a.CallbackURL)
	if a.CallbackURL == "" {
		a.CallbackURL = strings.TrimRight(baseURL, "/") + callbackPath
	}
	if a.SMTP.Timeout <= 0 {
		a.SMTP.Timeout = defaultSMTPTimeout
	}
	a.SMTP.Host = strings.TrimSpace(a.SMTP.Host)
	if a.RateLimit.PerMinute <= 0 {
		a.RateLimit.PerMinute = 5
	}
	if a.RateLimit.Burst <= 0 {
		a.RateLimit.Burst = 1
	}
}

// Validate reports configuration that cannot work.
func (a *AuthConfig) Validate() error {
	if len(a.LinkSigningKey) < minSigningKeyLen {
		return fmt.Errorf("AUTH_LINK_SIGNING_KEY must be at least %d bytes", minSigningKeyLen)
	}
	if a.Mode == AuthModeMagicLink && a.SMTP.Host == "" {
		return fmt.Errorf("SMTP_HOST is required when AUTH_MODE=%s", AuthModeMagicLink)
	}
	return nil
}
