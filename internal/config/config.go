// Package config holds the node configuration read from RELIEF_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/eigerco/relief/internal/common"
	"github.com/eigerco/relief/internal/identity"
	"github.com/eigerco/relief/pkg/log"
)

type Config struct {
	ListenAddr string `env:"RELIEF_LISTEN_ADDR" envDefault:"127.0.0.1:9900"`
	// Network must match on both ends of a connection.
	Network string `env:"RELIEF_NETWORK" envDefault:"relief"`
	// DataDir is where the pebble store lives. Empty keeps everything in memory.
	DataDir string `env:"RELIEF_DATA_DIR"`
	KeyFile string `env:"RELIEF_KEY_FILE" envDefault:"relief.key"`
	// Authority defaults to the node's own key when unset.
	Authority       identity.AccountID `env:"RELIEF_AUTHORITY"`
	RequireVerified bool               `env:"RELIEF_REQUIRE_VERIFIED" envDefault:"false"`
	MinStake        uint64             `env:"RELIEF_MIN_STAKE" envDefault:"1"`

	LogLevel  string `env:"RELIEF_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"RELIEF_LOG_FORMAT" envDefault:"console"`

	CertValidity   time.Duration `env:"RELIEF_CERT_VALIDITY" envDefault:"24h"`
	RequestTimeout time.Duration `env:"RELIEF_REQUEST_TIMEOUT" envDefault:"10s"`
	// DigestInterval is how often the journal digest is logged; zero disables it.
	DigestInterval time.Duration `env:"RELIEF_DIGEST_INTERVAL" envDefault:"1m"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.Network == "" {
		return fmt.Errorf("network name is required")
	}
	if c.MinStake == 0 {
		return fmt.Errorf("minimum stake must be positive: %w", common.ErrInvalidAmount)
	}
	if c.CertValidity <= 0 {
		return fmt.Errorf("certificate validity %s must be positive", c.CertValidity)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout %s must be positive", c.RequestTimeout)
	}
	if c.DigestInterval < 0 {
		return fmt.Errorf("digest interval %s must not be negative", c.DigestInterval)
	}
	if _, err := c.LogOptions(); err != nil {
		return err
	}
	return nil
}

// LogOptions turns the log settings into options for log.Init.
func (c Config) LogOptions() (log.Options, error) {
	level, err := log.ParseLogLevel(c.LogLevel)
	if err != nil {
		return log.Options{}, fmt.Errorf("log level: %w", err)
	}
	typ, err := log.ParseLoggerType(c.LogFormat)
	if err != nil {
		return log.Options{}, fmt.Errorf("log format: %w", err)
	}
	return log.Options{LogLevel: level, Type: typ}, nil
}

// ResolveAuthority returns the configured authority, or self when none is set.
func (c Config) ResolveAuthority(self identity.AccountID) identity.AccountID {
	if c.Authority.IsZero() {
		return self
	}
	return c.Authority
}
