package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: sign-in links, SMTP delivery, dev links, rate limiting
//   - database.go: Postgres and Redis configuration
//   - http.go: HTTP server configuration
//   - observability.go: metrics endpoint
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication configuration
	Auth AuthConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Auth.Sanitize(c.HTTP.BaseURL)
	c.Observability.Sanitize()

	c.detectDevMode()
}

// Validate reports combinations the server cannot start with.
// Call it after Sanitize.
func (c *AppConfig) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if c.Auth.Mode == AuthModeDev && !c.IsDev {
		return errors.New("AUTH_MODE=dev requires DEV=true")
	}
	if c.Redis.UseCluster && len(c.Redis.ClusterNodes) == 0 {
		return errors.New("REDIS_CLUSTER_NODES is required when REDIS_USE_CLUSTER=true")
	}
	return nil
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
