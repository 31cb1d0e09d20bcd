package server

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
)

// Config represents a server config
type Config struct {
	ListenAddr    string `env:"DIOADMIN_LISTEN_ADDR" envDefault:":8080"`
	TLSListenAddr string `env:"DIOADMIN_TLS_ADDR" envDefault:":8443"`
	TLSOnly       bool   `env:"DIOADMIN_TLS_ONLY"`
	TLS           TLSConfig
	Verbose       bool `env:"DIOADMIN_VERBOSE"`

	// BackendURL is the upstream REST API all data comes from
	BackendURL string `env:"DIOADMIN_BACKEND_URL"`
	// RequestTimeout bounds every backend call. Must be finite; a
	// dead backend must never hang the dashboard.
	RequestTimeout time.Duration `env:"DIOADMIN_REQUEST_TIMEOUT" envDefault:"15s"`

	SessionSecret string        `env:"DIOADMIN_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"DIOADMIN_SESSION_TTL" envDefault:"12h"`

	CacheStaleAfter      time.Duration `env:"DIOADMIN_CACHE_STALE_AFTER" envDefault:"30s"`
	CacheIdleExpiration  time.Duration `env:"DIOADMIN_CACHE_IDLE_EXPIRATION" envDefault:"10m"`
	CacheCleanupInterval time.Duration `env:"DIOADMIN_CACHE_CLEANUP_INTERVAL" envDefault:"1m"`
}

// TLSConfig represents a TLS configuration
type TLSConfig struct {
	KeyFile  string `env:"DIOADMIN_TLS_KEY"`
	CertFile string `env:"DIOADMIN_TLS_CERT"`
}

// FromEnv builds a config from the environment
func FromEnv() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "failed to parse config from environment")
	}
	return c, nil
}

// Validate checks the config is usable
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.BackendURL, validation.Required, is.URL),
		validation.Field(&c.SessionSecret, validation.Required, validation.Length(16, 0)),
	)
	if err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive and finite")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	return nil
}
