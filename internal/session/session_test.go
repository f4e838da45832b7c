// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Create sessions table required by sqlite3store
	_, err = db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`)
	if err != nil {
		t.Fatalf("failed to create sessions table: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, 0, true)
	if sm == nil {
		t.Fatal("expected session manager to be non-nil")
	}
	if sm.Lifetime != DefaultLifetime {
		t.Errorf("Lifetime = %v, want default %v", sm.Lifetime, DefaultLifetime)
	}
	if sm.Cookie.Name != "navsrv_session" {
		t.Errorf("Cookie.Name = %q, want navsrv_session", sm.Cookie.Name)
	}
}

func TestNew_CustomLifetime(t *testing.T) {
	db := setupTestDB(t)

	sm := New(db, time.Hour, true)
	if sm.Lifetime != time.Hour {
		t.Errorf("Lifetime = %v, want 1h", sm.Lifetime)
	}
}

func TestNew_CookieSecurity(t *testing.T) {
	db := setupTestDB(t)

	dev := New(db, 0, true)
	if dev.Cookie.Secure {
		t.Error("expected Cookie.Secure = false in dev mode")
	}
	if !dev.Cookie.HttpOnly {
		t.Error("expected Cookie.HttpOnly = true")
	}

	prod := New(db, 0, false)
	if !prod.Cookie.Secure {
		t.Error("expected Cookie.Secure = true in production")
	}
}
