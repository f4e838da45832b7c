// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when non-empty.
	RedisURL string

	// Prefix is the key prefix for the Redis backend.
	Prefix string

	// DefaultTTL is the default TTL for cache entries.
	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for the memory backend
	// (0 = unlimited).
	MaxSize int
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:     "navsrv:",
		DefaultTTL: time.Hour,
		MaxSize:    10000,
	}
}

// New creates a cache from the configuration. With a RedisURL it connects
// to Redis and falls back to the memory backend if the connection fails,
// so a Redis outage degrades performance rather than availability.
func New(cfg Config) Cache {
	if cfg.RedisURL != "" {
		c, err := NewRedisCache(RedisCacheOptions{
			URL:            cfg.RedisURL,
			Prefix:         cfg.Prefix,
			DefaultTTL:     cfg.DefaultTTL,
			ConnectTimeout: 5 * time.Second,
		})
		if err == nil {
			slog.Info("using redis cache", "prefix", cfg.Prefix)
			return c
		}
		slog.Warn("redis unavailable, using memory cache", "error", err)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: time.Minute,
	})
}
