// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dailytoolbox/navsrv/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "navsrv-sched-test-*.db")
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

func TestNew(t *testing.T) {
	logger := slog.Default()

	s := New(nil, nil, logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, nil, slog.Default())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
}

func TestProcessDueMenuItems(t *testing.T) {
	db := testDB(t)
	queries := store.New(db)
	ctx := context.Background()

	now := time.Now()
	user, err := queries.CreateUser(ctx, store.CreateUserParams{
		Email:        "editor@test.local",
		PasswordHash: "x",
		Role:         store.RoleEditor,
		Name:         "Editor",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	actor := sql.NullInt64{Int64: user.ID, Valid: true}
	mkItem := func(title string, scheduledAt time.Time) store.MenuItem {
		item, err := queries.CreateMenuItem(ctx, store.MenuItem{
			Title:        title,
			TitleKey:     title,
			Target:       "_self",
			AccessLevel:  "public",
			DraftVersion: 1,
			IsActive:     true,
			IsVisible:    true,
			IsScheduled:  true,
			ScheduledAt:  sql.NullTime{Time: scheduledAt, Valid: true},
			ScheduledBy:  actor,
			UpdatedBy:    actor,
		})
		if err != nil {
			t.Fatalf("CreateMenuItem: %v", err)
		}
		return item
	}

	due := mkItem("due", now.Add(-time.Minute))
	future := mkItem("future", now.Add(time.Hour))

	s := New(db, nil, slog.Default())
	if err := s.ProcessDueMenuItems(); err != nil {
		t.Fatalf("ProcessDueMenuItems: %v", err)
	}

	got, err := queries.GetMenuItemByID(ctx, due.ID)
	if err != nil {
		t.Fatalf("GetMenuItemByID: %v", err)
	}
	if !got.IsPublished {
		t.Error("due item not published")
	}
	if got.IsScheduled {
		t.Error("due item still scheduled")
	}
	if !got.PublishedBy.Valid || got.PublishedBy.Int64 != user.ID {
		t.Errorf("PublishedBy = %v, want scheduling user %d", got.PublishedBy, user.ID)
	}

	got, err = queries.GetMenuItemByID(ctx, future.ID)
	if err != nil {
		t.Fatalf("GetMenuItemByID: %v", err)
	}
	if got.IsPublished {
		t.Error("future item published early")
	}

	// A publish event lands in the log.
	events, err := queries.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	found := false
	for _, e := range events {
		if e.Category == store.EventCategoryScheduler {
			found = true
		}
	}
	if !found {
		t.Error("no scheduler event recorded")
	}
}
