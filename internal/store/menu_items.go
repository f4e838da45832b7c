// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const menuItemColumns = `id, parent_id, title, title_key, url, position, icon,
	is_active, is_visible, is_external, target, is_dropdown,
	tool_domain, is_trending, is_promoted, is_featured, is_hidden,
	is_draft, draft_version, is_published, published_at, published_by,
	is_scheduled, scheduled_at, scheduled_by,
	is_featured_image, featured_image_url, is_video, video_url,
	seo_title, seo_description, is_searchable, is_cacheable,
	geo_location, analytics_data, custom_css, custom_js,
	access_level, is_accessible,
	created_at, created_by, updated_at, updated_by,
	is_archived, archived_at, archived_by,
	is_deleted, deleted_at, deleted_by`

func menuItemFields(m *MenuItem) []any {
	return []any{
		&m.ID, &m.ParentID, &m.Title, &m.TitleKey, &m.URL, &m.Position, &m.Icon,
		&m.IsActive, &m.IsVisible, &m.IsExternal, &m.Target, &m.IsDropdown,
		&m.ToolDomain, &m.IsTrending, &m.IsPromoted, &m.IsFeatured, &m.IsHidden,
		&m.IsDraft, &m.DraftVersion, &m.IsPublished, &m.PublishedAt, &m.PublishedBy,
		&m.IsScheduled, &m.ScheduledAt, &m.ScheduledBy,
		&m.IsFeaturedImage, &m.FeaturedImageURL, &m.IsVideo, &m.VideoURL,
		&m.SeoTitle, &m.SeoDescription, &m.IsSearchable, &m.IsCacheable,
		&m.GeoLocation, &m.AnalyticsData, &m.CustomCss, &m.CustomJs,
		&m.AccessLevel, &m.IsAccessible,
		&m.CreatedAt, &m.CreatedBy, &m.UpdatedAt, &m.UpdatedBy,
		&m.IsArchived, &m.ArchivedAt, &m.ArchivedBy,
		&m.IsDeleted, &m.DeletedAt, &m.DeletedBy,
	}
}

func scanMenuItem(row interface{ Scan(...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(menuItemFields(&m)...)
	return m, err
}

// CreateMenuItem inserts a new menu item and returns the stored row.
// The ID field of the argument is ignored; lifecycle timestamps are stamped
// through ApplyLifecycle before the insert.
func (q *Queries) CreateMenuItem(ctx context.Context, m MenuItem) (MenuItem, error) {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	ApplyLifecycle(&m, m.UpdatedBy, now)

	row := q.db.QueryRowContext(ctx, `
		INSERT INTO menu_items (
			parent_id, title, title_key, url, position, icon,
			is_active, is_visible, is_external, target, is_dropdown,
			tool_domain, is_trending, is_promoted, is_featured, is_hidden,
			is_draft, draft_version, is_published, published_at, published_by,
			is_scheduled, scheduled_at, scheduled_by,
			is_featured_image, featured_image_url, is_video, video_url,
			seo_title, seo_description, is_searchable, is_cacheable,
			geo_location, analytics_data, custom_css, custom_js,
			access_level, is_accessible,
			created_at, created_by, updated_at, updated_by,
			is_archived, archived_at, archived_by,
			is_deleted, deleted_at, deleted_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+menuItemColumns,
		m.ParentID, m.Title, m.TitleKey, m.URL, m.Position, m.Icon,
		m.IsActive, m.IsVisible, m.IsExternal, m.Target, m.IsDropdown,
		m.ToolDomain, m.IsTrending, m.IsPromoted, m.IsFeatured, m.IsHidden,
		m.IsDraft, m.DraftVersion, m.IsPublished, m.PublishedAt, m.PublishedBy,
		m.IsScheduled, m.ScheduledAt, m.ScheduledBy,
		m.IsFeaturedImage, m.FeaturedImageURL, m.IsVideo, m.VideoURL,
		m.SeoTitle, m.SeoDescription, m.IsSearchable, m.IsCacheable,
		m.GeoLocation, m.AnalyticsData, m.CustomCss, m.CustomJs,
		m.AccessLevel, m.IsAccessible,
		m.CreatedAt, m.CreatedBy, m.UpdatedAt, m.UpdatedBy,
		m.IsArchived, m.ArchivedAt, m.ArchivedBy,
		m.IsDeleted, m.DeletedAt, m.DeletedBy,
	)
	return scanMenuItem(row)
}

// SaveMenuItem persists an updated menu item. Lifecycle timestamp/actor
// stamping runs here so every write path (API, batch, scheduler) gets the
// same transition rules.
func (q *Queries) SaveMenuItem(ctx context.Context, m MenuItem, actor sql.NullInt64) (MenuItem, error) {
	now := time.Now()
	m.UpdatedAt = now
	m.UpdatedBy = actor
	ApplyLifecycle(&m, actor, now)

	row := q.db.QueryRowContext(ctx, `
		UPDATE menu_items SET
			parent_id = ?, title = ?, title_key = ?, url = ?, position = ?, icon = ?,
			is_active = ?, is_visible = ?, is_external = ?, target = ?, is_dropdown = ?,
			tool_domain = ?, is_trending = ?, is_promoted = ?, is_featured = ?, is_hidden = ?,
			is_draft = ?, draft_version = ?, is_published = ?, published_at = ?, published_by = ?,
			is_scheduled = ?, scheduled_at = ?, scheduled_by = ?,
			is_featured_image = ?, featured_image_url = ?, is_video = ?, video_url = ?,
			seo_title = ?, seo_description = ?, is_searchable = ?, is_cacheable = ?,
			geo_location = ?, analytics_data = ?, custom_css = ?, custom_js = ?,
			access_level = ?, is_accessible = ?,
			updated_at = ?, updated_by = ?,
			is_archived = ?, archived_at = ?, archived_by = ?,
			is_deleted = ?, deleted_at = ?, deleted_by = ?
		WHERE id = ?
		RETURNING `+menuItemColumns,
		m.ParentID, m.Title, m.TitleKey, m.URL, m.Position, m.Icon,
		m.IsActive, m.IsVisible, m.IsExternal, m.Target, m.IsDropdown,
		m.ToolDomain, m.IsTrending, m.IsPromoted, m.IsFeatured, m.IsHidden,
		m.IsDraft, m.DraftVersion, m.IsPublished, m.PublishedAt, m.PublishedBy,
		m.IsScheduled, m.ScheduledAt, m.ScheduledBy,
		m.IsFeaturedImage, m.FeaturedImageURL, m.IsVideo, m.VideoURL,
		m.SeoTitle, m.SeoDescription, m.IsSearchable, m.IsCacheable,
		m.GeoLocation, m.AnalyticsData, m.CustomCss, m.CustomJs,
		m.AccessLevel, m.IsAccessible,
		m.UpdatedAt, m.UpdatedBy,
		m.IsArchived, m.ArchivedAt, m.ArchivedBy,
		m.IsDeleted, m.DeletedAt, m.DeletedBy,
		m.ID,
	)
	return scanMenuItem(row)
}

// GetMenuItemByID fetches a menu item by primary key.
func (q *Queries) GetMenuItemByID(ctx context.Context, id int64) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+menuItemColumns+` FROM menu_items WHERE id = ?`, id)
	return scanMenuItem(row)
}

// ListMenuItems returns every menu item ordered by position then title.
// Used by the admin API; no eligibility filter is applied.
func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items ORDER BY position, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMenuItems(rows)
}

func collectMenuItems(rows *sql.Rows) ([]MenuItem, error) {
	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const navbarJoins = `
	LEFT JOIN users pu ON pu.id = m.published_by
	LEFT JOIN users su ON su.id = m.scheduled_by
	LEFT JOIN users cu ON cu.id = m.created_by
	LEFT JOIN users uu ON uu.id = m.updated_by
	LEFT JOIN users au ON au.id = m.archived_by
	LEFT JOIN users du ON du.id = m.deleted_by`

func navbarItemColumns() string {
	cols := "m.id, m.parent_id, m.title, m.title_key, m.url, m.position, m.icon, " +
		"m.is_active, m.is_visible, m.is_external, m.target, m.is_dropdown, " +
		"m.tool_domain, m.is_trending, m.is_promoted, m.is_featured, m.is_hidden, " +
		"m.is_draft, m.draft_version, m.is_published, m.published_at, m.published_by, " +
		"m.is_scheduled, m.scheduled_at, m.scheduled_by, " +
		"m.is_featured_image, m.featured_image_url, m.is_video, m.video_url, " +
		"m.seo_title, m.seo_description, m.is_searchable, m.is_cacheable, " +
		"m.geo_location, m.analytics_data, m.custom_css, m.custom_js, " +
		"m.access_level, m.is_accessible, " +
		"m.created_at, m.created_by, m.updated_at, m.updated_by, " +
		"m.is_archived, m.archived_at, m.archived_by, " +
		"m.is_deleted, m.deleted_at, m.deleted_by"
	return cols + ", pu.name, su.name, cu.name, uu.name, au.name, du.name"
}

func scanNavbarItemRow(rows *sql.Rows) (NavbarItemRow, error) {
	var r NavbarItemRow
	fields := menuItemFields(&r.MenuItem)
	fields = append(fields,
		&r.PublishedByName, &r.ScheduledByName, &r.CreatedByName,
		&r.UpdatedByName, &r.ArchivedByName, &r.DeletedByName,
	)
	err := rows.Scan(fields...)
	return r, err
}

func collectNavbarItemRows(rows *sql.Rows) ([]NavbarItemRow, error) {
	var items []NavbarItemRow
	for rows.Next() {
		r, err := scanNavbarItemRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// ListNavbarRoots returns eligible root items with denormalized actor names,
// ordered by position with lexical title tie-break.
func (q *Queries) ListNavbarRoots(ctx context.Context) ([]NavbarItemRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+navbarItemColumns()+`
		FROM menu_items m`+navbarJoins+`
		WHERE m.parent_id IS NULL AND `+navbarEligibleAliased+`
		ORDER BY m.position, m.title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNavbarItemRows(rows)
}

// ListNavbarChildren returns eligible direct children of a root, ordered by
// position with lexical title tie-break.
func (q *Queries) ListNavbarChildren(ctx context.Context, parentID int64) ([]NavbarItemRow, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+navbarItemColumns()+`
		FROM menu_items m`+navbarJoins+`
		WHERE m.parent_id = ? AND `+navbarEligibleAliased+`
		ORDER BY m.position, m.title`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectNavbarItemRows(rows)
}

// navbarEligibleAliased is the visibility predicate for public navigation.
// It is applied identically at every tree level, not only to roots.
const navbarEligibleAliased = `m.is_active = 1 AND m.is_visible = 1 AND m.is_published = 1
	AND m.is_hidden = 0 AND m.is_archived = 0 AND m.is_deleted = 0`

// CountMenuItemTitle counts items whose normalized title key matches,
// excluding the given ID (pass 0 when creating).
func (q *Queries) CountMenuItemTitle(ctx context.Context, titleKey string, excludeID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM menu_items WHERE title_key = ? AND id != ?`,
		titleKey, excludeID,
	).Scan(&n)
	return n, err
}

// SoftDeleteMenuItemParams holds the fields for SoftDeleteMenuItem.
type SoftDeleteMenuItemParams struct {
	ID        int64
	DeletedAt sql.NullTime
	DeletedBy sql.NullInt64
}

// SoftDeleteMenuItem marks an item deleted without removing the row.
func (q *Queries) SoftDeleteMenuItem(ctx context.Context, arg SoftDeleteMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE menu_items
		SET is_deleted = 1, deleted_at = ?, deleted_by = ?, updated_at = ?, updated_by = ?
		WHERE id = ?
		RETURNING `+menuItemColumns,
		arg.DeletedAt, arg.DeletedBy, arg.DeletedAt.Time, arg.DeletedBy, arg.ID,
	)
	return scanMenuItem(row)
}

// DeleteMenuItem removes the row permanently. Children cascade per schema.
func (q *Queries) DeleteMenuItem(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListScheduledMenuItemsDue returns items scheduled for publication at or
// before the given time that are not yet published and not soft-deleted.
func (q *Queries) ListScheduledMenuItemsDue(ctx context.Context, now time.Time) ([]MenuItem, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+menuItemColumns+`
		FROM menu_items
		WHERE is_scheduled = 1 AND scheduled_at IS NOT NULL AND scheduled_at <= ?
			AND is_published = 0 AND is_deleted = 0 AND is_archived = 0
		ORDER BY scheduled_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMenuItems(rows)
}

// PublishScheduledMenuItemParams holds the fields for PublishScheduledMenuItem.
type PublishScheduledMenuItemParams struct {
	ID          int64
	PublishedAt sql.NullTime
	PublishedBy sql.NullInt64
	UpdatedAt   time.Time
}

// PublishScheduledMenuItem flips a due scheduled item to published and
// clears its scheduled flag. The scheduling actor is credited as publisher.
func (q *Queries) PublishScheduledMenuItem(ctx context.Context, arg PublishScheduledMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE menu_items
		SET is_published = 1, published_at = ?, published_by = ?,
			is_scheduled = 0, updated_at = ?
		WHERE id = ?
		RETURNING `+menuItemColumns,
		arg.PublishedAt, arg.PublishedBy, arg.UpdatedAt, arg.ID,
	)
	return scanMenuItem(row)
}
