// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/dailytoolbox/navsrv/internal/auth"
	"github.com/dailytoolbox/navsrv/internal/cache"
	"github.com/dailytoolbox/navsrv/internal/middleware"
	"github.com/dailytoolbox/navsrv/internal/service"
	"github.com/dailytoolbox/navsrv/internal/store"
)

const (
	testAdminEmail    = "admin@test.local"
	testAdminPassword = "test-password"
)

// testDB creates a temporary migrated database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "navsrv-api-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	return db
}

// testServer wires the full API router the way the server entrypoint does.
type testServer struct {
	srv     *httptest.Server
	db      *sql.DB
	queries *store.Queries
	admin   store.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testDB(t)
	queries := store.New(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	now := time.Now()
	admin, err := queries.CreateUser(context.Background(), store.CreateUserParams{
		Email:        testAdminEmail,
		PasswordHash: hash,
		Role:         store.RoleAdmin,
		Name:         "Test Admin",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	navCache := cache.NewNavbarCache(cache.NewMemoryCache(cache.MemoryCacheOptions{}), time.Minute)
	navbar := service.NewNavbarService(queries, navCache, "DailyToolbox", logger)

	sm := scs.New()
	h := NewHandler(db, navbar, sm, logger)

	r := chi.NewRouter()
	r.Get("/api/status", h.Status)
	r.Get("/api/menu-items/", h.Navbar)
	r.Get("/api/health", h.Health)
	r.Get("/api/health/live", h.Liveness)
	r.Get("/api/health/ready", h.Readiness)
	r.Post("/api/auth/login", h.Login)
	r.Post("/api/auth/logout", h.Logout)
	r.Get("/api/auth/me", h.Me)
	r.Get("/api/protected/", h.ProtectedGreeting)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Get("/menu-items", h.ListMenuItems)
		r.Post("/menu-items", h.CreateMenuItem)
		r.Get("/menu-items/{id}", h.GetMenuItem)
		r.Put("/menu-items/{id}", h.UpdateMenuItem)
		r.Delete("/menu-items/{id}", h.DeleteMenuItem)
		r.Get("/events", h.ListEvents)
	})

	handler := sm.LoadAndSave(
		middleware.Authenticate(sm, db, nil, []string{"/api/protected/"})(r),
	)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, db: db, queries: queries, admin: admin}
}

// newClient returns an HTTP client with a cookie jar for session tests.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// loginAsAdmin logs the client in with the seeded admin credentials.
func (ts *testServer) loginAsAdmin(t *testing.T, client *http.Client) {
	t.Helper()
	resp := ts.postJSON(t, client, "/api/auth/login", LoginRequest{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
}

func (ts *testServer) postJSON(t *testing.T, client *http.Client, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling body: %v", err)
	}
	resp, err := client.Post(ts.srv.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (ts *testServer) putJSON(t *testing.T, client *http.Client, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, ts.srv.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT %s: %v", path, err)
	}
	return resp
}

func (ts *testServer) delete(t *testing.T, client *http.Client, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, ts.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("DELETE %s: %v", path, err)
	}
	return resp
}

// decodeData decodes the "data" field of a standard response into out.
func decodeData(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapper); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if err := json.Unmarshal(wrapper.Data, out); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
}

// decodeError decodes a standard error response and returns code and details.
func decodeError(t *testing.T, resp *http.Response) (string, map[string]string) {
	t.Helper()
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return errResp.Error.Code, errResp.Error.Details
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func boolPtr(b bool) *bool { return &b }
