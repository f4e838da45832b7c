// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"

	"github.com/dailytoolbox/navsrv/internal/store"
)

// testDB creates a temporary test database with migrations applied.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp("", "navsrv-logging-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}

	return db, cleanup
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func lastEvent(t *testing.T, db *sql.DB) store.Event {
	t.Helper()
	events, err := store.New(db).ListRecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no events recorded")
	}
	return events[0]
}

func TestEventLogHandler_ErrorRecorded(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Error("scheduler run failed", "error", "boom")

	event := lastEvent(t, db)
	if event.Level != store.EventLevelError {
		t.Errorf("Level = %q, want %q", event.Level, store.EventLevelError)
	}
	if event.Message != "scheduler run failed" {
		t.Errorf("Message = %q", event.Message)
	}
	if event.Category != store.EventCategoryScheduler {
		t.Errorf("Category = %q, want %q", event.Category, store.EventCategoryScheduler)
	}
}

func TestEventLogHandler_WarnRecorded(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("identity token rejected")

	event := lastEvent(t, db)
	if event.Level != store.EventLevelWarning {
		t.Errorf("Level = %q, want %q", event.Level, store.EventLevelWarning)
	}
	if event.Category != store.EventCategoryAuth {
		t.Errorf("Category = %q, want %q", event.Category, store.EventCategoryAuth)
	}
}

func TestEventLogHandler_InfoNotRecorded(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("menu rebuilt")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("info logs should not reach the event log, got %d events", len(events))
	}
}

func TestEventLogHandler_ExplicitCategoryAndMetadata(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("something odd", "category", store.EventCategoryMenu, "item_id", 42)

	event := lastEvent(t, db)
	if event.Category != store.EventCategoryMenu {
		t.Errorf("Category = %q, want %q", event.Category, store.EventCategoryMenu)
	}
	if event.Metadata != `{"item_id":"42"}` {
		t.Errorf("Metadata = %q", event.Metadata)
	}
}
