package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/boycepro/folio/config"
	"github.com/boycepro/folio/internal/adapters/devauth"
	"github.com/boycepro/folio/internal/adapters/magiclink"
	"github.com/boycepro/folio/internal/adapters/mailer"
	redisadapter "github.com/boycepro/folio/internal/adapters/redis"
	"github.com/boycepro/folio/internal/ports"
)

const siteName = "Folio"

// AuthConfig contains configuration for the sign-in stack.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Identities  ports.IdentityStore
	Logger      *slog.Logger
}

// AuthComponents is the assembled sign-in stack.
type AuthComponents struct {
	Provider *magiclink.Provider
	States   *redisadapter.AuthStateStore
	// DevLinks is set only when AUTH_MODE=dev.
	DevLinks *devauth.Sender
}

// BuildAuth wires the magic-link provider to its link sender, the Redis
// link ledger and the Redis auth state store.
func BuildAuth(cfg AuthConfig) (*AuthComponents, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth requires a redis client")
	}
	if cfg.Identities == nil {
		return nil, errors.New("auth requires an identity store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sender, devLinks, err := buildLinkSender(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	provider, err := magiclink.NewProvider(magiclink.Options{
		SigningKey: []byte(cfg.Auth.LinkSigningKey),
		LinkTTL:    cfg.Auth.LinkTTL,
		Sender:     sender,
		Ledger:     redisadapter.NewLinkLedger(cfg.RedisClient),
		Identities: cfg.Identities,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build magic-link provider: %w", err)
	}

	return &AuthComponents{
		Provider: provider,
		States: redisadapter.NewAuthStateStore(cfg.RedisClient, redisadapter.AuthStateStoreOptions{
			TTL: cfg.Auth.StateTTL,
		}),
		DevLinks: devLinks,
	}, nil
}

//nolint:ireturn // the sender implementation depends on AUTH_MODE.
func buildLinkSender(auth config.AuthConfig, logger *slog.Logger) (ports.LinkSender, *devauth.Sender, error) {
	switch auth.Mode {
	case config.AuthModeDev:
		logger.Warn("dev auth mode: sign-in links are logged, not emailed")
		sender := devauth.NewSender(devauth.Config{
			AllowedDomains: auth.DevAuth.AllowedDomains,
			Logger:         logger,
		})
		return sender, sender, nil

	case config.AuthModeMagicLink, "":
		sender, err := mailer.NewSMTPSender(mailer.Config{
			Host:     auth.SMTP.Host,
			Port:     auth.SMTP.Port,
			Username: auth.SMTP.Username,
			Password: auth.SMTP.Password,
			From:     auth.SMTP.From,
			Subject:  auth.SMTP.Subject,
			SiteName: siteName,
			Timeout:  auth.SMTP.Timeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("build smtp sender: %w", err)
		}
		return sender, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported auth mode %q", auth.Mode)
	}
}
