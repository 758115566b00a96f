// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// Addr is the address the HTTP server listens on (e.g. :8080).
	Addr string `mapstructure:"ADDR"`
	// DatabaseURL is the Postgres DSN; empty selects the in-memory store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret signs session and recovery tokens. Required.
	JWTSecret string `mapstructure:"SECRET_JWT_KEY"`
	// BcryptCost is the bcrypt cost factor (4-31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SessionTTL is the session lifetime for user principals (e.g. "2h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// AdminSessionTTL is the session lifetime for admin principals (e.g. "1h").
	AdminSessionTTL string `mapstructure:"ADMIN_SESSION_TTL"`
	// RecoveryWindow is how long a recovery code stays valid (e.g. "10m").
	RecoveryWindow string `mapstructure:"RECOVERY_WINDOW"`
	// BrevoAPIKey authenticates against the Brevo transactional email API.
	BrevoAPIKey string `mapstructure:"BREVO_API_KEY"`
	// BrevoSender is the from address on recovery emails.
	BrevoSender string `mapstructure:"BREVO_SENDER"`
	// BrevoBaseURL overrides the Brevo endpoint, mainly for tests.
	BrevoBaseURL string `mapstructure:"BREVO_BASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SECRET_JWT_KEY", "")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("ADMIN_SESSION_TTL", "1h")
	v.SetDefault("RECOVERY_WINDOW", "10m")
	v.SetDefault("BREVO_API_KEY", "")
	v.SetDefault("BREVO_SENDER", "")
	v.SetDefault("BREVO_BASE_URL", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("config: ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: SECRET_JWT_KEY must be set")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// UserSessionTTL parses SessionTTL as a time.Duration. Returns 2h if unset or invalid.
func (c *Config) UserSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

// AdminTTL parses AdminSessionTTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) AdminTTL() time.Duration {
	d, err := time.ParseDuration(c.AdminSessionTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// RecoveryTTL parses RecoveryWindow as a time.Duration. Returns 10m if unset or invalid.
func (c *Config) RecoveryTTL() time.Duration {
	d, err := time.ParseDuration(c.RecoveryWindow)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// CookieSecure reports whether cookies should carry the Secure attribute.
func (c *Config) CookieSecure() bool {
	return c.Env == "production"
}
