// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dailytoolbox/navsrv/internal/auth"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// Seed creates initial data in the database.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	// Check if admin user already exists
	admin, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return seedDemoNavbar(ctx, queries, admin.ID)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)

	return seedDemoNavbar(ctx, queries, user.ID)
}

// seedDemoNavbar populates a small starter menu when the table is empty.
func seedDemoNavbar(ctx context.Context, queries *Queries, adminID int64) error {
	var count int64
	if err := queries.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
		return fmt.Errorf("counting menu items: %w", err)
	}
	if count > 0 {
		return nil
	}

	actor := sql.NullInt64{Int64: adminID, Valid: true}
	base := MenuItem{
		IsActive:     true,
		IsVisible:    true,
		IsPublished:  true,
		IsSearchable: true,
		IsCacheable:  true,
		IsAccessible: true,
		DraftVersion: 1,
		AccessLevel:  "public",
		Target:       "_self",
		CreatedBy:    actor,
		UpdatedBy:    actor,
	}

	item := func(title, titleKey, url, icon string, pos int64) MenuItem {
		m := base
		m.Title = title
		m.TitleKey = titleKey
		m.URL = sql.NullString{String: url, Valid: true}
		m.Icon = sql.NullString{String: icon, Valid: true}
		m.Position = pos
		return m
	}

	home := item("Home", "home", "/", "fa-house", 1)
	if _, err := queries.CreateMenuItem(ctx, home); err != nil {
		return fmt.Errorf("seeding menu: %w", err)
	}

	tools := item("Tools", "tools", "/tools", "fa-screwdriver-wrench", 2)
	tools.IsDropdown = true
	toolsRow, err := queries.CreateMenuItem(ctx, tools)
	if err != nil {
		return fmt.Errorf("seeding menu: %w", err)
	}
	parent := sql.NullInt64{Int64: toolsRow.ID, Valid: true}
	for i, child := range []MenuItem{
		item("Unit Converter", "unit-converter", "/tools/unit-converter", "fa-scale-balanced", 1),
		item("Word Counter", "word-counter", "/tools/word-counter", "fa-font", 2),
	} {
		child.ParentID = parent
		child.Position = int64(i + 1)
		if _, err := queries.CreateMenuItem(ctx, child); err != nil {
			return fmt.Errorf("seeding menu: %w", err)
		}
	}

	about := item("About", "about", "/about", "fa-circle-info", 3)
	if _, err := queries.CreateMenuItem(ctx, about); err != nil {
		return fmt.Errorf("seeding menu: %w", err)
	}

	slog.Info("seeded demo navbar")
	return nil
}
