// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dailytoolbox/navsrv/internal/store"
	"github.com/dailytoolbox/navsrv/internal/util"
)

// Valid choices for menu item enumerated fields.
var (
	validTargets      = map[string]bool{"_self": true, "_blank": true}
	validAccessLevels = map[string]bool{"public": true, "registered": true, "admin": true, "private": true}
)

// MenuItemResponse represents a menu item in admin API responses.
type MenuItemResponse struct {
	ID               int64           `json:"id"`
	ParentMenu       *int64          `json:"parent_menu"`
	Title            string          `json:"title"`
	TitleKey         string          `json:"title_key"`
	URL              *string         `json:"url"`
	Order            int64           `json:"order"`
	Icon             *string         `json:"icon"`
	IsActive         bool            `json:"is_active"`
	IsVisible        bool            `json:"is_visible"`
	IsExternal       bool            `json:"is_external"`
	Target           string          `json:"target"`
	IsDropdown       bool            `json:"is_dropdown"`
	ToolDomain       *string         `json:"tool_domain"`
	IsTrending       bool            `json:"is_trending"`
	IsPromoted       bool            `json:"is_promoted"`
	IsFeatured       bool            `json:"is_featured"`
	IsHidden         bool            `json:"is_hidden"`
	IsDraft          bool            `json:"is_draft"`
	DraftVersion     int64           `json:"draft_version"`
	IsPublished      bool            `json:"is_published"`
	PublishedAt      *time.Time      `json:"published_at"`
	PublishedBy      *int64          `json:"published_by"`
	IsScheduled      bool            `json:"is_scheduled"`
	ScheduledAt      *time.Time      `json:"scheduled_at"`
	ScheduledBy      *int64          `json:"scheduled_by"`
	IsFeaturedImage  bool            `json:"is_featured_image"`
	FeaturedImageURL *string         `json:"featured_image_url"`
	IsVideo          bool            `json:"is_video"`
	VideoURL         *string         `json:"video_url"`
	SeoTitle         *string         `json:"seo_title"`
	SeoDescription   *string         `json:"seo_description"`
	IsSearchable     bool            `json:"is_searchable"`
	IsCacheable      bool            `json:"is_cacheable"`
	GeoLocation      *string         `json:"geo_location"`
	AnalyticsData    json.RawMessage `json:"analytics_data"`
	CustomCss        *string         `json:"custom_css"`
	CustomJs         *string         `json:"custom_js"`
	AccessLevel      string          `json:"access_level"`
	IsAccessible     bool            `json:"is_accessible"`
	CreatedAt        time.Time       `json:"created_at"`
	CreatedBy        *int64          `json:"created_by"`
	UpdatedAt        time.Time       `json:"updated_at"`
	UpdatedBy        *int64          `json:"updated_by"`
	IsArchived       bool            `json:"is_archived"`
	ArchivedAt       *time.Time      `json:"archived_at"`
	ArchivedBy       *int64          `json:"archived_by"`
	IsDeleted        bool            `json:"is_deleted"`
	DeletedAt        *time.Time      `json:"deleted_at"`
	DeletedBy        *int64          `json:"deleted_by"`
}

// storeMenuItemToResponse converts a store.MenuItem to MenuItemResponse.
func storeMenuItemToResponse(m store.MenuItem) MenuItemResponse {
	resp := MenuItemResponse{
		ID:               m.ID,
		ParentMenu:       util.PtrFromNullInt64(m.ParentID),
		Title:            m.Title,
		TitleKey:         m.TitleKey,
		URL:              util.PtrFromNullString(m.URL),
		Order:            m.Position,
		Icon:             util.PtrFromNullString(m.Icon),
		IsActive:         m.IsActive,
		IsVisible:        m.IsVisible,
		IsExternal:       m.IsExternal,
		Target:           m.Target,
		IsDropdown:       m.IsDropdown,
		ToolDomain:       util.PtrFromNullString(m.ToolDomain),
		IsTrending:       m.IsTrending,
		IsPromoted:       m.IsPromoted,
		IsFeatured:       m.IsFeatured,
		IsHidden:         m.IsHidden,
		IsDraft:          m.IsDraft,
		DraftVersion:     m.DraftVersion,
		IsPublished:      m.IsPublished,
		PublishedAt:      util.PtrFromNullTime(m.PublishedAt),
		PublishedBy:      util.PtrFromNullInt64(m.PublishedBy),
		IsScheduled:      m.IsScheduled,
		ScheduledAt:      util.PtrFromNullTime(m.ScheduledAt),
		ScheduledBy:      util.PtrFromNullInt64(m.ScheduledBy),
		IsFeaturedImage:  m.IsFeaturedImage,
		FeaturedImageURL: util.PtrFromNullString(m.FeaturedImageURL),
		IsVideo:          m.IsVideo,
		VideoURL:         util.PtrFromNullString(m.VideoURL),
		SeoTitle:         util.PtrFromNullString(m.SeoTitle),
		SeoDescription:   util.PtrFromNullString(m.SeoDescription),
		IsSearchable:     m.IsSearchable,
		IsCacheable:      m.IsCacheable,
		GeoLocation:      util.PtrFromNullString(m.GeoLocation),
		CustomCss:        util.PtrFromNullString(m.CustomCss),
		CustomJs:         util.PtrFromNullString(m.CustomJs),
		AccessLevel:      m.AccessLevel,
		IsAccessible:     m.IsAccessible,
		CreatedAt:        m.CreatedAt,
		CreatedBy:        util.PtrFromNullInt64(m.CreatedBy),
		UpdatedAt:        m.UpdatedAt,
		UpdatedBy:        util.PtrFromNullInt64(m.UpdatedBy),
		IsArchived:       m.IsArchived,
		ArchivedAt:       util.PtrFromNullTime(m.ArchivedAt),
		ArchivedBy:       util.PtrFromNullInt64(m.ArchivedBy),
		IsDeleted:        m.IsDeleted,
		DeletedAt:        util.PtrFromNullTime(m.DeletedAt),
		DeletedBy:        util.PtrFromNullInt64(m.DeletedBy),
	}

	if m.AnalyticsData.Valid && json.Valid([]byte(m.AnalyticsData.String)) {
		resp.AnalyticsData = json.RawMessage(m.AnalyticsData.String)
	}

	return resp
}

// MenuItemRequest is the request body for creating and updating menu items.
// All fields are optional; on create, absent fields take their defaults.
type MenuItemRequest struct {
	ParentMenu       *int64           `json:"parent_menu"`
	Title            *string          `json:"title"`
	URL              *string          `json:"url"`
	Order            *int64           `json:"order"`
	Icon             *string          `json:"icon"`
	IsActive         *bool            `json:"is_active"`
	IsVisible        *bool            `json:"is_visible"`
	IsExternal       *bool            `json:"is_external"`
	Target           *string          `json:"target"`
	IsDropdown       *bool            `json:"is_dropdown"`
	ToolDomain       *string          `json:"tool_domain"`
	IsTrending       *bool            `json:"is_trending"`
	IsPromoted       *bool            `json:"is_promoted"`
	IsFeatured       *bool            `json:"is_featured"`
	IsHidden         *bool            `json:"is_hidden"`
	IsDraft          *bool            `json:"is_draft"`
	DraftVersion     *int64           `json:"draft_version"`
	IsPublished      *bool            `json:"is_published"`
	IsScheduled      *bool            `json:"is_scheduled"`
	ScheduledAt      *string          `json:"scheduled_at"`
	IsFeaturedImage  *bool            `json:"is_featured_image"`
	FeaturedImageURL *string          `json:"featured_image_url"`
	IsVideo          *bool            `json:"is_video"`
	VideoURL         *string          `json:"video_url"`
	SeoTitle         *string          `json:"seo_title"`
	SeoDescription   *string          `json:"seo_description"`
	IsSearchable     *bool            `json:"is_searchable"`
	IsCacheable      *bool            `json:"is_cacheable"`
	GeoLocation      *string          `json:"geo_location"`
	AnalyticsData    *json.RawMessage `json:"analytics_data"`
	CustomCss        *string          `json:"custom_css"`
	CustomJs         *string          `json:"custom_js"`
	AccessLevel      *string          `json:"access_level"`
	IsAccessible     *bool            `json:"is_accessible"`
	IsArchived       *bool            `json:"is_archived"`
	IsDeleted        *bool            `json:"is_deleted"`
}

// defaultMenuItem returns a menu item with field defaults for creation.
func defaultMenuItem() store.MenuItem {
	return store.MenuItem{
		IsActive:     true,
		IsVisible:    true,
		IsPublished:  true,
		IsAccessible: true,
		Target:       "_self",
		AccessLevel:  "public",
		DraftVersion: 1,
	}
}

// applyMenuItemRequest overlays the request onto the item, validating as it
// goes. Returns field errors; an empty map means the overlay is clean.
func applyMenuItemRequest(m *store.MenuItem, req *MenuItemRequest) map[string]string {
	fieldErrors := make(map[string]string)

	if req.Title != nil {
		title := util.StripTags(*req.Title)
		if title == "" {
			fieldErrors["title"] = "Title is required"
		} else {
			m.Title = title
			m.TitleKey = util.NormalizeTitle(title)
		}
	}
	if req.ParentMenu != nil {
		// Zero detaches the item from its parent, making it a root.
		if *req.ParentMenu == 0 {
			m.ParentID = sql.NullInt64{}
		} else {
			m.ParentID = util.NullInt64FromValue(*req.ParentMenu)
		}
	}
	if req.URL != nil {
		m.URL = util.NullStringFromValue(*req.URL)
	}
	if req.Order != nil {
		m.Position = *req.Order
	}
	if req.Icon != nil {
		m.Icon = util.NullStringFromValue(*req.Icon)
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	if req.IsVisible != nil {
		m.IsVisible = *req.IsVisible
	}
	if req.IsExternal != nil {
		m.IsExternal = *req.IsExternal
	}
	if req.Target != nil {
		if !validTargets[*req.Target] {
			fieldErrors["target"] = "Target must be '_self' or '_blank'"
		} else {
			m.Target = *req.Target
		}
	}
	if req.IsDropdown != nil {
		m.IsDropdown = *req.IsDropdown
	}
	if req.ToolDomain != nil {
		m.ToolDomain = util.NullStringFromValue(*req.ToolDomain)
	}
	if req.IsTrending != nil {
		m.IsTrending = *req.IsTrending
	}
	if req.IsPromoted != nil {
		m.IsPromoted = *req.IsPromoted
	}
	if req.IsFeatured != nil {
		m.IsFeatured = *req.IsFeatured
	}
	if req.IsHidden != nil {
		m.IsHidden = *req.IsHidden
	}
	if req.IsDraft != nil {
		m.IsDraft = *req.IsDraft
	}
	if req.DraftVersion != nil {
		if *req.DraftVersion < 1 {
			fieldErrors["draft_version"] = "Draft version must be at least 1"
		} else {
			m.DraftVersion = *req.DraftVersion
		}
	}
	if req.IsPublished != nil {
		m.IsPublished = *req.IsPublished
	}
	if req.IsScheduled != nil {
		m.IsScheduled = *req.IsScheduled
	}
	if req.ScheduledAt != nil {
		if *req.ScheduledAt == "" {
			m.ScheduledAt = sql.NullTime{}
		} else {
			t, err := time.Parse(time.RFC3339, *req.ScheduledAt)
			if err != nil {
				fieldErrors["scheduled_at"] = "Invalid date format. Use RFC3339 (e.g., 2024-01-01T00:00:00Z)"
			} else {
				m.ScheduledAt = sql.NullTime{Time: t, Valid: true}
			}
		}
	}
	if req.IsFeaturedImage != nil {
		m.IsFeaturedImage = *req.IsFeaturedImage
	}
	if req.FeaturedImageURL != nil {
		m.FeaturedImageURL = util.NullStringFromValue(*req.FeaturedImageURL)
	}
	if req.IsVideo != nil {
		m.IsVideo = *req.IsVideo
	}
	if req.VideoURL != nil {
		m.VideoURL = util.NullStringFromValue(*req.VideoURL)
	}
	if req.SeoTitle != nil {
		m.SeoTitle = util.NullStringFromValue(*req.SeoTitle)
	}
	if req.SeoDescription != nil {
		m.SeoDescription = util.NullStringFromValue(*req.SeoDescription)
	}
	if req.IsSearchable != nil {
		m.IsSearchable = *req.IsSearchable
	}
	if req.IsCacheable != nil {
		m.IsCacheable = *req.IsCacheable
	}
	if req.GeoLocation != nil {
		geo := normalizeGeoLocation(*req.GeoLocation)
		m.GeoLocation = util.NullStringFromValue(geo)
	}
	if req.AnalyticsData != nil {
		raw := string(*req.AnalyticsData)
		if raw == "" || raw == "null" {
			m.AnalyticsData = sql.NullString{}
		} else if !json.Valid(*req.AnalyticsData) {
			fieldErrors["analytics_data"] = "Analytics data must be valid JSON"
		} else {
			m.AnalyticsData = util.NullStringFromValue(raw)
		}
	}
	if req.CustomCss != nil {
		m.CustomCss = util.NullStringFromValue(*req.CustomCss)
	}
	if req.CustomJs != nil {
		m.CustomJs = util.NullStringFromValue(*req.CustomJs)
	}
	if req.AccessLevel != nil {
		if !validAccessLevels[*req.AccessLevel] {
			fieldErrors["access_level"] = "Access level must be 'public', 'registered', 'admin' or 'private'"
		} else {
			m.AccessLevel = *req.AccessLevel
		}
	}
	if req.IsAccessible != nil {
		m.IsAccessible = *req.IsAccessible
	}
	if req.IsArchived != nil {
		m.IsArchived = *req.IsArchived
	}
	if req.IsDeleted != nil {
		m.IsDeleted = *req.IsDeleted
	}

	// Scheduling without a date is meaningless.
	if m.IsScheduled && !m.ScheduledAt.Valid {
		fieldErrors["scheduled_at"] = "Scheduled date is required when is_scheduled is set"
	}

	return fieldErrors
}

// normalizeGeoLocation uppercases and trims a comma-separated country list.
func normalizeGeoLocation(geo string) string {
	parts := strings.Split(geo, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code != "" {
			codes = append(codes, code)
		}
	}
	return strings.Join(codes, ",")
}

// checkMenuItemTitle verifies that the normalized title is unique.
// Returns false with the response already written on duplicate or error.
func (h *Handler) checkMenuItemTitle(w http.ResponseWriter, r *http.Request, titleKey string, excludeID int64) bool {
	count, err := h.queries.CountMenuItemTitle(r.Context(), titleKey, excludeID)
	if err != nil {
		WriteInternalError(w, "Failed to check title")
		return false
	}
	if count != 0 {
		WriteValidationError(w, map[string]string{"title": "A menu item with this title already exists"})
		return false
	}
	return true
}

// checkMenuItemParent verifies that the parent reference is valid.
// Returns false with the response already written when it is not.
func (h *Handler) checkMenuItemParent(w http.ResponseWriter, r *http.Request, m store.MenuItem) bool {
	if !m.ParentID.Valid {
		return true
	}
	if m.ID != 0 && m.ParentID.Int64 == m.ID {
		WriteValidationError(w, map[string]string{"parent_menu": "A menu item cannot be its own parent"})
		return false
	}
	parent, err := h.queries.GetMenuItemByID(r.Context(), m.ParentID.Int64)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteValidationError(w, map[string]string{"parent_menu": "Parent menu item does not exist"})
		} else {
			WriteInternalError(w, "Failed to check parent")
		}
		return false
	}
	if parent.ParentID.Valid {
		WriteValidationError(w, map[string]string{"parent_menu": "Menus nest one level deep; the parent is already a child item"})
		return false
	}
	return true
}

// ListMenuItems handles GET /api/admin/menu-items.
// Returns every item regardless of workflow state, ordered by position.
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.queries.ListMenuItems(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to list menu items")
		return
	}

	responses := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, storeMenuItemToResponse(item))
	}

	WriteSuccess(w, responses, &Meta{Total: int64(len(responses))})
}

// GetMenuItem handles GET /api/admin/menu-items/{id}.
func (h *Handler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.requireMenuItem(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, storeMenuItemToResponse(item), nil)
}

// CreateMenuItem handles POST /api/admin/menu-items.
func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	item := defaultMenuItem()
	fieldErrors := applyMenuItemRequest(&item, &req)
	if req.Title == nil {
		fieldErrors["title"] = "Title is required"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	if !h.checkMenuItemTitle(w, r, item.TitleKey, 0) {
		return
	}
	if !h.checkMenuItemParent(w, r, item) {
		return
	}

	actor := requestActor(r)
	item.CreatedBy = actor
	item.UpdatedBy = actor

	created, err := h.queries.CreateMenuItem(ctx, item)
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"title": "A menu item with this title already exists"})
			return
		}
		WriteInternalError(w, "Failed to create menu item")
		return
	}

	h.recordMenuEvent(ctx, "menu item created", created, actor)
	h.navbar.Invalidate(ctx)

	WriteCreated(w, storeMenuItemToResponse(created))
}

// UpdateMenuItem handles PUT /api/admin/menu-items/{id}.
// Absent fields keep their current values.
func (h *Handler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, ok := h.requireMenuItem(w, r)
	if !ok {
		return
	}

	var req MenuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	fieldErrors := applyMenuItemRequest(&item, &req)
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	if req.Title != nil && !h.checkMenuItemTitle(w, r, item.TitleKey, item.ID) {
		return
	}
	if req.ParentMenu != nil && !h.checkMenuItemParent(w, r, item) {
		return
	}

	actor := requestActor(r)

	updated, err := h.queries.SaveMenuItem(ctx, item, actor)
	if err != nil {
		if store.IsUniqueViolation(err) {
			WriteValidationError(w, map[string]string{"title": "A menu item with this title already exists"})
			return
		}
		WriteInternalError(w, "Failed to update menu item")
		return
	}

	h.recordMenuEvent(ctx, "menu item updated", updated, actor)
	h.navbar.Invalidate(ctx)

	WriteSuccess(w, storeMenuItemToResponse(updated), nil)
}

// DeleteMenuItem handles DELETE /api/admin/menu-items/{id}.
// Soft-deletes by default; ?hard=1 removes the row and its children.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	item, ok := h.requireMenuItem(w, r)
	if !ok {
		return
	}

	actor := requestActor(r)

	if r.URL.Query().Get("hard") == "1" {
		if err := h.queries.DeleteMenuItem(ctx, item.ID); err != nil {
			WriteInternalError(w, "Failed to delete menu item")
			return
		}
		h.recordMenuEvent(ctx, "menu item deleted", item, actor)
		h.navbar.Invalidate(ctx)
		WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
		return
	}

	deleted, err := h.queries.SoftDeleteMenuItem(ctx, store.SoftDeleteMenuItemParams{
		ID:        item.ID,
		DeletedAt: sql.NullTime{Time: time.Now(), Valid: true},
		DeletedBy: actor,
	})
	if err != nil {
		WriteInternalError(w, "Failed to delete menu item")
		return
	}

	h.recordMenuEvent(ctx, "menu item soft-deleted", deleted, actor)
	h.navbar.Invalidate(ctx)

	WriteSuccess(w, storeMenuItemToResponse(deleted), nil)
}

// recordMenuEvent writes an audit row for a menu change. Failures are
// logged and otherwise ignored; auditing never blocks the change itself.
func (h *Handler) recordMenuEvent(ctx context.Context, message string, item store.MenuItem, actor sql.NullInt64) {
	metadata, _ := json.Marshal(map[string]any{
		"item_id": item.ID,
		"title":   item.Title,
	})
	_, err := h.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     store.EventLevelInfo,
		Category:  store.EventCategoryMenu,
		Message:   message,
		UserID:    actor,
		Metadata:  string(metadata),
		CreatedAt: time.Now(),
	})
	if err != nil {
		h.logger.Error("menu audit event failed", "error", err, "item_id", item.ID)
	}
}
