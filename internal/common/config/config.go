package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	commonerrors "github.com/AlibekovAA/storybooks/internal/common/errors"
)

type StoriesConfig struct {
	HTTPPort       string        `env:"STORIES_HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"STORIES_REQUEST_TIMEOUT" envDefault:"5s"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"var/storybooks.db"`

	SessionSecret        string        `env:"SESSION_SECRET"`
	SessionMaxAge        time.Duration `env:"SESSION_MAX_AGE" envDefault:"168h"`
	SessionSecureCookies bool          `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	JWTSecret      string        `env:"JWT_SECRET"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/auth/google/callback"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	CircuitBreakerThreshold int32         `env:"DB_CIRCUIT_BREAKER_THRESHOLD" envDefault:"50"`
	CircuitBreakerTimeout   time.Duration `env:"DB_CIRCUIT_BREAKER_TIMEOUT" envDefault:"15s"`
	CircuitBreakerReset     time.Duration `env:"DB_CIRCUIT_BREAKER_RESET" envDefault:"10s"`

	FeedSendBufSize int `env:"FEED_SEND_BUF_SIZE" envDefault:"64"`
}

func LoadStoriesConfig() (StoriesConfig, error) {
	var cfg StoriesConfig
	if err := env.Parse(&cfg); err != nil {
		return StoriesConfig{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return StoriesConfig{}, err
	}

	return cfg, nil
}

// GoogleLoginEnabled reports whether both OAuth client credentials are set.
func (c StoriesConfig) GoogleLoginEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

func (c *StoriesConfig) validate() error {
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	switch c.DatabaseDriver {
	case constants.DriverPostgres:
		if c.DatabaseURL == "" {
			return missing("DATABASE_URL")
		}
	case constants.DriverSQLite:
		if c.SQLitePath == "" {
			return missing("SQLITE_PATH")
		}
	default:
		return commonerrors.ErrUnsupportedDatabaseDriver.WithCause(fmt.Errorf("got %q", c.DatabaseDriver))
	}

	if c.SessionSecret == "" {
		return missing("SESSION_SECRET")
	}
	if len(c.SessionSecret) < constants.SessionSecretMinLength {
		return commonerrors.ErrInvalidSessionSecret.WithCause(fmt.Errorf("got %d bytes", len(c.SessionSecret)))
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < constants.JWTSecretMinLength {
		return commonerrors.ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(c.JWTSecret)))
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = constants.DefaultStoriesRequestTimeout
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = constants.DefaultSessionMaxAge
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = constants.DefaultAccessTokenTTL
	}
	if c.CircuitBreakerThreshold <= 0 {
		c.CircuitBreakerThreshold = constants.DefaultCircuitBreakerThreshold
	}
	if c.CircuitBreakerTimeout <= 0 {
		c.CircuitBreakerTimeout = constants.DefaultCircuitBreakerTimeout
	}
	if c.CircuitBreakerReset <= 0 {
		c.CircuitBreakerReset = constants.DefaultCircuitBreakerReset
	}
	if c.FeedSendBufSize <= 0 {
		c.FeedSendBufSize = constants.FeedSendBufSize
	}

	return nil
}

func missing(key string) error {
	return commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s", key))
}
