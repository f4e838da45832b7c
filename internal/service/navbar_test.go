// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dailytoolbox/navsrv/internal/cache"
	"github.com/dailytoolbox/navsrv/internal/store"
)

func testService(t *testing.T, withCache bool) (*NavbarService, *store.Queries, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "navsrv-test-*.db")
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

	var navCache *cache.NavbarCache
	if withCache {
		navCache = cache.NewNavbarCache(
			cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute}),
			time.Minute,
		)
	}

	queries := store.New(db)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := NewNavbarService(queries, navCache, "", logger)
	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return svc, queries, cleanup
}

func seedItem(t *testing.T, q *store.Queries, m store.MenuItem) store.MenuItem {
	t.Helper()
	created, err := q.CreateMenuItem(context.Background(), m)
	if err != nil {
		t.Fatalf("CreateMenuItem(%s): %v", m.Title, err)
	}
	return created
}

func baseItem(title, titleKey string, pos int64) store.MenuItem {
	return store.MenuItem{
		Title:        title,
		TitleKey:     titleKey,
		Position:     pos,
		IsActive:     true,
		IsVisible:    true,
		IsPublished:  true,
		DraftVersion: 1,
		AccessLevel:  "public",
		Target:       "_self",
	}
}

func TestBuildNavbar_Envelope(t *testing.T) {
	svc, q, cleanup := testService(t, false)
	defer cleanup()

	seedItem(t, q, baseItem("Home", "home", 1))

	payload, err := svc.BuildNavbar(context.Background(), "")
	if err != nil {
		t.Fatalf("BuildNavbar: %v", err)
	}

	nav := payload.Navbar
	if nav.BrandName != DefaultBrandName {
		t.Errorf("BrandName = %q, want %q", nav.BrandName, DefaultBrandName)
	}
	if !nav.SearchBar || !nav.LoginAvatar || !nav.DarkModeToggle {
		t.Error("feature toggles should all be true")
	}
	if len(nav.MenuItems) != 1 {
		t.Fatalf("MenuItems = %d, want 1", len(nav.MenuItems))
	}
	if nav.MenuItems[0].Title != "Home" {
		t.Errorf("Title = %q, want Home", nav.MenuItems[0].Title)
	}
}

func TestBuildNavbar_EmptyMenuIsArrayNotNull(t *testing.T) {
	svc, _, cleanup := testService(t, false)
	defer cleanup()

	payload, err := svc.NavbarJSON(context.Background(), "")
	if err != nil {
		t.Fatalf("NavbarJSON: %v", err)
	}

	var decoded map[string]map[string]json.RawMessage
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(decoded["navbar"]["menuItems"]) != "[]" {
		t.Errorf("menuItems = %s, want []", decoded["navbar"]["menuItems"])
	}
}

func TestBuildNavbar_DropdownKeysConditional(t *testing.T) {
	svc, q, cleanup := testService(t, false)
	defer cleanup()

	ctx := context.Background()

	// A dropdown with one eligible child and one ineligible child.
	withChild := baseItem("Tools", "tools", 1)
	withChild.IsDropdown = true
	parent := seedItem(t, q, withChild)

	child := baseItem("Converter", "converter", 1)
	child.ParentID = sql.NullInt64{Int64: parent.ID, Valid: true}
	seedItem(t, q, child)

	hiddenChild := baseItem("Secret", "secret", 2)
	hiddenChild.ParentID = sql.NullInt64{Int64: parent.ID, Valid: true}
	hiddenChild.IsHidden = true
	seedItem(t, q, hiddenChild)

	// A dropdown whose only child is ineligible.
	empty := baseItem("Empty", "empty", 2)
	empty.IsDropdown = true
	emptyRow := seedItem(t, q, empty)
	orphan := baseItem("Orphan", "orphan", 1)
	orphan.ParentID = sql.NullInt64{Int64: emptyRow.ID, Valid: true}
	orphan.IsDeleted = true
	seedItem(t, q, orphan)

	// A plain link.
	seedItem(t, q, baseItem("About", "about", 3))

	payload, err := svc.NavbarJSON(ctx, "")
	if err != nil {
		t.Fatalf("NavbarJSON: %v", err)
	}

	var decoded struct {
		Navbar struct {
			MenuItems []map[string]json.RawMessage `json:"menuItems"`
		} `json:"navbar"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Navbar.MenuItems) != 3 {
		t.Fatalf("menuItems = %d, want 3", len(decoded.Navbar.MenuItems))
	}

	tools := decoded.Navbar.MenuItems[0]
	if _, ok := tools["is_dropdown"]; !ok {
		t.Error("dropdown with eligible child should expose is_dropdown")
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(tools["items"], &items); err != nil {
		t.Fatalf("unmarshal items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (hidden child filtered)", len(items))
	}

	// Sub-items carry only the reduced key set.
	for _, key := range []string{"seo_title", "published_at", "items", "is_dropdown"} {
		if _, ok := items[0][key]; ok {
			t.Errorf("dropdown item should not expose %q", key)
		}
	}
	for _, key := range []string{"id", "title", "url", "icon", "is_external", "target", "is_active", "is_visible"} {
		if _, ok := items[0][key]; !ok {
			t.Errorf("dropdown item missing %q", key)
		}
	}

	// Dropdown without eligible children and a plain link omit both keys.
	for _, idx := range []int{1, 2} {
		item := decoded.Navbar.MenuItems[idx]
		if _, ok := item["is_dropdown"]; ok {
			t.Errorf("menuItems[%d] should omit is_dropdown", idx)
		}
		if _, ok := item["items"]; ok {
			t.Errorf("menuItems[%d] should omit items", idx)
		}
	}
}

func TestBuildNavbar_OrderingAndTieBreak(t *testing.T) {
	svc, q, cleanup := testService(t, false)
	defer cleanup()

	seedItem(t, q, baseItem("Zeta", "zeta", 2))
	seedItem(t, q, baseItem("Alpha", "alpha", 2))
	seedItem(t, q, baseItem("Last", "last", 9))
	seedItem(t, q, baseItem("First", "first", 1))

	payload, err := svc.BuildNavbar(context.Background(), "")
	if err != nil {
		t.Fatalf("BuildNavbar: %v", err)
	}

	want := []string{"First", "Alpha", "Zeta", "Last"}
	for i, item := range payload.Navbar.MenuItems {
		if item.Title != want[i] {
			t.Errorf("menuItems[%d] = %q, want %q", i, item.Title, want[i])
		}
	}
}

func TestBuildNavbar_GeoTargeting(t *testing.T) {
	svc, q, cleanup := testService(t, false)
	defer cleanup()

	everywhere := baseItem("Everywhere", "everywhere", 1)
	seedItem(t, q, everywhere)

	deOnly := baseItem("Germany Only", "germany-only", 2)
	deOnly.GeoLocation = sql.NullString{String: "DE, AT", Valid: true}
	seedItem(t, q, deOnly)

	ctx := context.Background()

	// German viewer sees both.
	payload, err := svc.BuildNavbar(ctx, "DE")
	if err != nil {
		t.Fatalf("BuildNavbar: %v", err)
	}
	if len(payload.Navbar.MenuItems) != 2 {
		t.Errorf("DE viewer sees %d items, want 2", len(payload.Navbar.MenuItems))
	}

	// US viewer sees only the unrestricted item.
	payload, err = svc.BuildNavbar(ctx, "US")
	if err != nil {
		t.Fatalf("BuildNavbar: %v", err)
	}
	if len(payload.Navbar.MenuItems) != 1 || payload.Navbar.MenuItems[0].Title != "Everywhere" {
		t.Errorf("US viewer items = %+v, want only Everywhere", payload.Navbar.MenuItems)
	}

	// Unknown country skips geo targeting entirely.
	payload, err = svc.BuildNavbar(ctx, "")
	if err != nil {
		t.Fatalf("BuildNavbar: %v", err)
	}
	if len(payload.Navbar.MenuItems) != 2 {
		t.Errorf("unknown country sees %d items, want 2", len(payload.Navbar.MenuItems))
	}
}

func TestBuildNavbar_ActorNames(t *testing.T) {
	svc, q, cleanup := testService(t, false)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()
	editor, err := q.CreateUser(ctx, store.CreateUserParams{
		Email:     "editor@example.com",
		Role:      store.RoleEditor,
		Name:      "Edith",
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	m := baseItem("Home", "home", 1)
	m.CreatedBy = sql.NullInt64{Int64: editor.ID, Valid: true}
	m.UpdatedBy = sql.NullInt64{Int64: editor.ID, Valid: true}
	seedItem(t, q, m)

	payload, err := svc.BuildNavbar(ctx, "")
	if err != nil {
		t.Fatalf("BuildNavbar: %v", err)
	}
	item := payload.Navbar.MenuItems[0]
	if item.CreatedByName == nil || *item.CreatedByName != "Edith" {
		t.Errorf("CreatedByName = %v, want Edith", item.CreatedByName)
	}
	if item.PublishedByName == nil || *item.PublishedByName != "Edith" {
		t.Errorf("PublishedByName = %v, want Edith", item.PublishedByName)
	}
	if item.DeletedByName != nil {
		t.Errorf("DeletedByName = %v, want nil", item.DeletedByName)
	}
}

func TestNavbarJSON_CacheRoundTrip(t *testing.T) {
	svc, q, cleanup := testService(t, true)
	defer cleanup()

	ctx := context.Background()
	seedItem(t, q, baseItem("Home", "home", 1))

	first, err := svc.NavbarJSON(ctx, "")
	if err != nil {
		t.Fatalf("NavbarJSON: %v", err)
	}

	// A write that bypasses invalidation is invisible until the cache drops.
	seedItem(t, q, baseItem("About", "about", 2))
	second, err := svc.NavbarJSON(ctx, "")
	if err != nil {
		t.Fatalf("NavbarJSON: %v", err)
	}
	if string(first) != string(second) {
		t.Error("cached payload should be served unchanged")
	}

	svc.Invalidate(ctx)
	third, err := svc.NavbarJSON(ctx, "")
	if err != nil {
		t.Fatalf("NavbarJSON: %v", err)
	}
	if string(first) == string(third) {
		t.Error("payload should rebuild after invalidation")
	}
}

func TestGeoAllows(t *testing.T) {
	tests := []struct {
		geo     string
		country string
		want    bool
	}{
		{"", "", true},
		{"", "DE", true},
		{"DE", "", true},
		{"DE", "DE", true},
		{"de", "DE", true},
		{"DE, AT", "AT", true},
		{"DE,AT", "US", false},
	}
	for _, tt := range tests {
		if got := geoAllows(tt.geo, tt.country); got != tt.want {
			t.Errorf("geoAllows(%q, %q) = %v, want %v", tt.geo, tt.country, got, tt.want)
		}
	}
}
