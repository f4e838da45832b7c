// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the SQLite-backed session manager.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// DefaultLifetime is how long a session stays valid without renewal.
const DefaultLifetime = 24 * time.Hour

// New creates a session manager backed by the sessions table.
func New(db *sql.DB, lifetime time.Duration, isDev bool) *scs.SessionManager {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(db)
	sm.Lifetime = lifetime
	sm.Cookie.Name = "navsrv_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only

	return sm
}
