// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"time"
)

// NavbarCache stores rendered navbar payloads keyed by viewer country.
// The payload is the final JSON response body, so a hit serves without
// touching the database or re-marshaling.
type NavbarCache struct {
	cache Cache
	ttl   time.Duration
}

// NewNavbarCache wraps a Cache for navbar payloads.
func NewNavbarCache(c Cache, ttl time.Duration) *NavbarCache {
	return &NavbarCache{cache: c, ttl: ttl}
}

// Key returns the cache key for a viewer country. The empty country (no
// GeoIP data) shares one key.
func (c *NavbarCache) Key(country string) string {
	if country == "" {
		return "navbar:all"
	}
	return "navbar:" + strings.ToUpper(country)
}

// Get returns the cached payload for a country, or ErrCacheMiss.
func (c *NavbarCache) Get(ctx context.Context, country string) ([]byte, error) {
	return c.cache.Get(ctx, c.Key(country))
}

// Set stores the rendered payload for a country.
func (c *NavbarCache) Set(ctx context.Context, country string, payload []byte) error {
	return c.cache.Set(ctx, c.Key(country), payload, c.ttl)
}

// Invalidate drops every cached payload. Menu writes call this so all
// country variants rebuild on next request.
func (c *NavbarCache) Invalidate(ctx context.Context) error {
	return c.cache.Clear(ctx)
}
