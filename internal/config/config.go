// Copyright (c) 2026 Martin Kley
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinJWTSecretLength is the minimum length for the token signing secret.
const MinJWTSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"IDGATE_DB_PATH" envDefault:"./data/idgate.db"`
	JWTSecret  string `env:"IDGATE_JWT_SECRET,required"`
	JWTTTLDays int    `env:"IDGATE_JWT_TTL_DAYS" envDefault:"7"`
	ServerHost string `env:"IDGATE_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"IDGATE_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"IDGATE_ENV" envDefault:"development"`
	LogLevel   string `env:"IDGATE_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"IDGATE_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"IDGATE_CACHE_PREFIX" envDefault:"idgate:"` // Redis key prefix
	CacheTTL     int    `env:"IDGATE_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"IDGATE_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Google sign-in configuration. All three must be set for the
	// callback route to work; otherwise it answers with an error.
	GoogleClientID     string `env:"IDGATE_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"IDGATE_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"IDGATE_GOOGLE_REDIRECT_URL"`

	// Seeding configuration
	DoSeed bool `env:"IDGATE_DO_SEED" envDefault:"false"` // Enable bootstrap account seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// TokenTTL returns the bearer token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLDays) * 24 * time.Hour
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("IDGATE_JWT_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinJWTSecretLength, len(cfg.JWTSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.JWTSecret == weak {
			return nil, fmt.Errorf("IDGATE_JWT_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.JWTTTLDays < 1 {
		return nil, fmt.Errorf("IDGATE_JWT_TTL_DAYS must be at least 1, got %d", cfg.JWTTTLDays)
	}

	if !hasMinimumEntropy(cfg.JWTSecret) {
		slog.Warn("IDGATE_JWT_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
