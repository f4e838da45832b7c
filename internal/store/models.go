// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RolePublic = "public"
)

// Event levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories.
const (
	EventCategoryAuth      = "auth"
	EventCategoryMenu      = "menu"
	EventCategoryUser      = "user"
	EventCategoryCache     = "cache"
	EventCategoryScheduler = "scheduler"
	EventCategorySystem    = "system"
)

// User represents a navsrv user. Local users authenticate with a password;
// external users are created on first sight of a verified identity token
// and carry the token subject in Subject with no usable password.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	Name         string
	Subject      sql.NullString
	IsExternal   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLoginAt  sql.NullTime
}

// MenuItem is a single navigation entry. Items form a tree through ParentID;
// a row with a NULL parent is a root. Soft-delete and workflow flags gate
// visibility only, nothing here is ever hard-deleted by the serving path.
type MenuItem struct {
	ID       int64
	ParentID sql.NullInt64
	Title    string
	TitleKey string
	URL      sql.NullString
	Position int64
	Icon     sql.NullString

	IsActive   bool
	IsVisible  bool
	IsExternal bool
	Target     string
	IsDropdown bool

	ToolDomain sql.NullString
	IsTrending bool
	IsPromoted bool
	IsFeatured bool
	IsHidden   bool

	IsDraft      bool
	DraftVersion int64
	IsPublished  bool
	PublishedAt  sql.NullTime
	PublishedBy  sql.NullInt64
	IsScheduled  bool
	ScheduledAt  sql.NullTime
	ScheduledBy  sql.NullInt64

	IsFeaturedImage  bool
	FeaturedImageURL sql.NullString
	IsVideo          bool
	VideoURL         sql.NullString

	SeoTitle       sql.NullString
	SeoDescription sql.NullString
	IsSearchable   bool
	IsCacheable    bool

	GeoLocation   sql.NullString
	AnalyticsData sql.NullString
	CustomCss     sql.NullString
	CustomJs      sql.NullString

	AccessLevel  string
	IsAccessible bool

	CreatedAt  time.Time
	CreatedBy  sql.NullInt64
	UpdatedAt  time.Time
	UpdatedBy  sql.NullInt64
	IsArchived bool
	ArchivedAt sql.NullTime
	ArchivedBy sql.NullInt64
	IsDeleted  bool
	DeletedAt  sql.NullTime
	DeletedBy  sql.NullInt64
}

// NavbarItemRow is a MenuItem joined with the display names of its audit
// actors, as served by the public navbar endpoint.
type NavbarItemRow struct {
	MenuItem
	PublishedByName sql.NullString
	ScheduledByName sql.NullString
	CreatedByName   sql.NullString
	UpdatedByName   sql.NullString
	ArchivedByName  sql.NullString
	DeletedByName   sql.NullString
}

// Event is a row in the event log.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}
