// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"NAVSRV_DB_PATH" envDefault:"./data/navsrv.db"`
	SessionSecret string `env:"NAVSRV_SESSION_SECRET,required"`
	ServerHost    string `env:"NAVSRV_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"NAVSRV_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"NAVSRV_ENV" envDefault:"development"`
	LogLevel      string `env:"NAVSRV_LOG_LEVEL" envDefault:"info"`

	// Navbar configuration
	BrandName string `env:"NAVSRV_BRAND_NAME" envDefault:"DailyToolbox"`

	// Identity token verification
	TokenSecret string `env:"NAVSRV_TOKEN_SECRET"` // HMAC secret of the identity provider
	TokenIssuer string `env:"NAVSRV_TOKEN_ISSUER"` // Expected iss claim (empty = not checked)

	// ProtectedPaths lists URL path prefixes that require a valid bearer
	// token, comma separated.
	ProtectedPaths []string `env:"NAVSRV_PROTECTED_PATHS" envSeparator:"," envDefault:"/api/protected/"`

	// Cache configuration
	RedisURL     string `env:"NAVSRV_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"NAVSRV_CACHE_PREFIX" envDefault:"navsrv:"` // Redis key prefix
	CacheTTL     int    `env:"NAVSRV_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"NAVSRV_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Rate limiting (per client IP)
	RateLimitRPS   float64 `env:"NAVSRV_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"NAVSRV_RATE_LIMIT_BURST" envDefault:"20"`

	// Session lifetime in hours
	SessionLifetimeHours int `env:"NAVSRV_SESSION_LIFETIME_HOURS" envDefault:"24"`

	// GeoIP configuration
	GeoIPDBPath string `env:"NAVSRV_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Seeding configuration
	DoSeed bool `env:"NAVSRV_DO_SEED" envDefault:"false"` // Enable database seeding
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

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// TokenAuthEnabled returns true if identity token verification is configured.
func (c Config) TokenAuthEnabled() bool {
	return c.TokenSecret != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("NAVSRV_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("NAVSRV_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("NAVSRV_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	// Trailing commas or stray spaces in the path list would silently
	// protect nothing.
	paths := cfg.ProtectedPaths[:0]
	for _, p := range cfg.ProtectedPaths {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	cfg.ProtectedPaths = paths

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
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`") {
		charTypes++
	}
	return charTypes >= 3
}
