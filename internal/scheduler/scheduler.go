// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler publishes menu items whose scheduled time has passed.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dailytoolbox/navsrv/internal/service"
	"github.com/dailytoolbox/navsrv/internal/store"
)

// Scheduler runs the background job that promotes scheduled menu items.
type Scheduler struct {
	db     *sql.DB
	navbar *service.NavbarService
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a new scheduler instance.
func New(db *sql.DB, navbar *service.NavbarService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		navbar: navbar,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start begins the scheduler with a job that checks for due items every minute.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.ProcessDueMenuItems(); err != nil {
			s.logger.Error("failed to process scheduled menu items", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// ProcessDueMenuItems publishes every menu item whose scheduled time has
// passed. Exported so a single pass can be run outside the cron loop.
func (s *Scheduler) ProcessDueMenuItems() error {
	ctx := context.Background()
	queries := store.New(s.db)

	now := time.Now()
	items, err := queries.ListScheduledMenuItemsDue(ctx, now)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		return nil
	}

	s.logger.Info("processing scheduled menu items", "count", len(items))

	published := 0
	for _, item := range items {
		if err := s.publishMenuItem(ctx, queries, item, now); err != nil {
			s.logger.Error("failed to publish scheduled menu item",
				"item_id", item.ID,
				"item_title", item.Title,
				"error", err,
			)
			continue
		}
		published++

		s.logger.Info("published scheduled menu item",
			"item_id", item.ID,
			"item_title", item.Title,
			"scheduled_at", item.ScheduledAt.Time,
		)
	}

	if published > 0 && s.navbar != nil {
		s.navbar.Invalidate(ctx)
	}

	return nil
}

// publishMenuItem publishes a single scheduled item and logs the event.
// The user who scheduled the item is credited as the publisher.
func (s *Scheduler) publishMenuItem(ctx context.Context, queries *store.Queries, item store.MenuItem, now time.Time) error {
	_, err := queries.PublishScheduledMenuItem(ctx, store.PublishScheduledMenuItemParams{
		ID:          item.ID,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		PublishedBy: item.ScheduledBy,
		UpdatedAt:   now,
	})
	if err != nil {
		return err
	}

	metadata := map[string]any{
		"item_id":      item.ID,
		"item_title":   item.Title,
		"scheduled_at": item.ScheduledAt.Time.Format(time.RFC3339),
		"published_at": now.Format(time.RFC3339),
	}
	metadataJSON, _ := json.Marshal(metadata)

	_, err = queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     store.EventLevelInfo,
		Category:  store.EventCategoryScheduler,
		Message:   "Menu item published automatically by scheduler: " + item.Title,
		UserID:    item.ScheduledBy,
		Metadata:  string(metadataJSON),
		CreatedAt: now,
	})
	if err != nil {
		s.logger.Warn("failed to log scheduled publish event", "error", err)
	}

	return nil
}
