// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic and service layer functionality.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dailytoolbox/navsrv/internal/cache"
	"github.com/dailytoolbox/navsrv/internal/store"
	"github.com/dailytoolbox/navsrv/internal/util"
)

// DefaultBrandName is used when no brand name is configured.
const DefaultBrandName = "DailyToolbox"

// DropdownItem is the reduced shape of a menu entry nested under a
// dropdown. Sub-items expose only what the frontend renders in the list.
type DropdownItem struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	URL        *string `json:"url"`
	Icon       *string `json:"icon"`
	IsExternal bool    `json:"is_external"`
	Target     string  `json:"target"`
	IsActive   bool    `json:"is_active"`
	IsVisible  bool    `json:"is_visible"`
}

// NavbarMenuItem is the full shape of a top-level menu entry. IsDropdown
// and Items are only present when the item is a dropdown with at least one
// eligible child; otherwise both keys are omitted entirely.
type NavbarMenuItem struct {
	ID         int64   `json:"id"`
	ParentMenu *int64  `json:"parent_menu"`
	Title      string  `json:"title"`
	URL        *string `json:"url"`
	Order      int64   `json:"order"`
	Icon       *string `json:"icon"`
	IsActive   bool    `json:"is_active"`
	IsVisible  bool    `json:"is_visible"`
	IsExternal bool    `json:"is_external"`
	Target     string  `json:"target"`
	IsDropdown *bool   `json:"is_dropdown,omitempty"`

	ToolDomain *string `json:"tool_domain"`
	IsTrending bool    `json:"is_trending"`
	IsPromoted bool    `json:"is_promoted"`
	IsFeatured bool    `json:"is_featured"`
	IsHidden   bool    `json:"is_hidden"`

	IsDraft         bool       `json:"is_draft"`
	DraftVersion    int64      `json:"draft_version"`
	IsPublished     bool       `json:"is_published"`
	PublishedAt     *time.Time `json:"published_at"`
	PublishedByName *string    `json:"published_by_name"`
	IsScheduled     bool       `json:"is_scheduled"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	ScheduledByName *string    `json:"scheduled_by_name"`

	IsFeaturedImage  bool    `json:"is_featured_image"`
	FeaturedImageURL *string `json:"featured_image_url"`
	IsVideo          bool    `json:"is_video"`
	VideoURL         *string `json:"video_url"`

	SeoTitle       *string `json:"seo_title"`
	SeoDescription *string `json:"seo_description"`
	IsSearchable   bool    `json:"is_searchable"`
	IsCacheable    bool    `json:"is_cacheable"`

	GeoLocation   *string         `json:"geo_location"`
	AnalyticsData json.RawMessage `json:"analytics_data"`
	CustomCss     *string         `json:"custom_css"`
	CustomJs      *string         `json:"custom_js"`

	AccessLevel  string `json:"access_level"`
	IsAccessible bool   `json:"is_accessible"`

	CreatedAt     time.Time  `json:"created_at"`
	CreatedByName *string    `json:"created_by_name"`
	UpdatedAt     time.Time  `json:"updated_at"`
	UpdatedByName *string    `json:"updated_by_name"`
	IsArchived    bool       `json:"is_archived"`
	ArchivedAt    *time.Time `json:"archived_at"`
	ArchivedByName *string   `json:"archived_by_name"`
	IsDeleted     bool       `json:"is_deleted"`
	DeletedAt     *time.Time `json:"deleted_at"`
	DeletedByName *string    `json:"deleted_by_name"`

	Items []DropdownItem `json:"items,omitempty"`
}

// Navbar is the envelope the frontend consumes.
type Navbar struct {
	BrandName      string           `json:"brandName"`
	MenuItems      []NavbarMenuItem `json:"menuItems"`
	SearchBar      bool             `json:"searchBar"`
	LoginAvatar    bool             `json:"loginAvatar"`
	DarkModeToggle bool             `json:"darkModeToggle"`
}

// NavbarPayload is the top-level response body.
type NavbarPayload struct {
	Navbar Navbar `json:"navbar"`
}

// NavbarService assembles the public navigation tree.
type NavbarService struct {
	queries *store.Queries
	cache   *cache.NavbarCache
	brand   string
	logger  *slog.Logger
}

// NewNavbarService creates a NavbarService. A nil navCache disables
// payload caching.
func NewNavbarService(queries *store.Queries, navCache *cache.NavbarCache, brand string, logger *slog.Logger) *NavbarService {
	if brand == "" {
		brand = DefaultBrandName
	}
	return &NavbarService{
		queries: queries,
		cache:   navCache,
		brand:   brand,
		logger:  logger,
	}
}

// BuildNavbar assembles the navbar for a viewer country. The country comes
// from GeoIP and may be empty, in which case geo targeting is skipped and
// every eligible item is included.
func (s *NavbarService) BuildNavbar(ctx context.Context, country string) (NavbarPayload, error) {
	roots, err := s.queries.ListNavbarRoots(ctx)
	if err != nil {
		return NavbarPayload{}, fmt.Errorf("listing navbar roots: %w", err)
	}

	menuItems := make([]NavbarMenuItem, 0, len(roots))
	for _, root := range roots {
		if !geoAllows(root.GeoLocation.String, country) {
			continue
		}

		item := shapeMenuItem(root)

		if root.IsDropdown {
			children, err := s.queries.ListNavbarChildren(ctx, root.ID)
			if err != nil {
				return NavbarPayload{}, fmt.Errorf("listing children of %d: %w", root.ID, err)
			}
			var items []DropdownItem
			for _, child := range children {
				if !geoAllows(child.GeoLocation.String, country) {
					continue
				}
				items = append(items, shapeDropdownItem(child.MenuItem))
			}
			if len(items) > 0 {
				isDropdown := true
				item.IsDropdown = &isDropdown
				item.Items = items
			}
		}

		menuItems = append(menuItems, item)
	}

	return NavbarPayload{
		Navbar: Navbar{
			BrandName:      s.brand,
			MenuItems:      menuItems,
			SearchBar:      true,
			LoginAvatar:    true,
			DarkModeToggle: true,
		},
	}, nil
}

// NavbarJSON returns the marshaled navbar for a country, serving from the
// cache when possible.
func (s *NavbarService) NavbarJSON(ctx context.Context, country string) ([]byte, error) {
	if s.cache != nil {
		if payload, err := s.cache.Get(ctx, country); err == nil {
			return payload, nil
		} else if err != cache.ErrCacheMiss {
			s.logger.Warn("navbar cache read failed", "error", err)
		}
	}

	navbar, err := s.BuildNavbar(ctx, country)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(navbar)
	if err != nil {
		return nil, fmt.Errorf("marshaling navbar: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, country, payload); err != nil {
			s.logger.Warn("navbar cache write failed", "error", err)
		}
	}
	return payload, nil
}

// Invalidate drops all cached navbar payloads. Called after menu writes.
func (s *NavbarService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("navbar cache invalidation failed", "error", err)
	}
}

// geoAllows reports whether an item's geo restriction admits a viewer
// country. An empty restriction admits everyone; an unknown viewer country
// admits everything.
func geoAllows(geoLocation, country string) bool {
	if geoLocation == "" || country == "" {
		return true
	}
	for _, code := range strings.Split(geoLocation, ",") {
		if strings.EqualFold(strings.TrimSpace(code), country) {
			return true
		}
	}
	return false
}

func shapeMenuItem(row store.NavbarItemRow) NavbarMenuItem {
	m := row.MenuItem
	return NavbarMenuItem{
		ID:         m.ID,
		ParentMenu: util.PtrFromNullInt64(m.ParentID),
		Title:      m.Title,
		URL:        util.PtrFromNullString(m.URL),
		Order:      m.Position,
		Icon:       util.PtrFromNullString(m.Icon),
		IsActive:   m.IsActive,
		IsVisible:  m.IsVisible,
		IsExternal: m.IsExternal,
		Target:     m.Target,

		ToolDomain: util.PtrFromNullString(m.ToolDomain),
		IsTrending: m.IsTrending,
		IsPromoted: m.IsPromoted,
		IsFeatured: m.IsFeatured,
		IsHidden:   m.IsHidden,

		IsDraft:         m.IsDraft,
		DraftVersion:    m.DraftVersion,
		IsPublished:     m.IsPublished,
		PublishedAt:     util.PtrFromNullTime(m.PublishedAt),
		PublishedByName: util.PtrFromNullString(row.PublishedByName),
		IsScheduled:     m.IsScheduled,
		ScheduledAt:     util.PtrFromNullTime(m.ScheduledAt),
		ScheduledByName: util.PtrFromNullString(row.ScheduledByName),

		IsFeaturedImage:  m.IsFeaturedImage,
		FeaturedImageURL: util.PtrFromNullString(m.FeaturedImageURL),
		IsVideo:          m.IsVideo,
		VideoURL:         util.PtrFromNullString(m.VideoURL),

		SeoTitle:       util.PtrFromNullString(m.SeoTitle),
		SeoDescription: util.PtrFromNullString(m.SeoDescription),
		IsSearchable:   m.IsSearchable,
		IsCacheable:    m.IsCacheable,

		GeoLocation:   util.PtrFromNullString(m.GeoLocation),
		AnalyticsData: analyticsJSON(m.AnalyticsData.String),
		CustomCss:     util.PtrFromNullString(m.CustomCss),
		CustomJs:      util.PtrFromNullString(m.CustomJs),

		AccessLevel:  m.AccessLevel,
		IsAccessible: m.IsAccessible,

		CreatedAt:      m.CreatedAt,
		CreatedByName:  util.PtrFromNullString(row.CreatedByName),
		UpdatedAt:      m.UpdatedAt,
		UpdatedByName:  util.PtrFromNullString(row.UpdatedByName),
		IsArchived:     m.IsArchived,
		ArchivedAt:     util.PtrFromNullTime(m.ArchivedAt),
		ArchivedByName: util.PtrFromNullString(row.ArchivedByName),
		IsDeleted:      m.IsDeleted,
		DeletedAt:      util.PtrFromNullTime(m.DeletedAt),
		DeletedByName:  util.PtrFromNullString(row.DeletedByName),
	}
}

func shapeDropdownItem(m store.MenuItem) DropdownItem {
	return DropdownItem{
		ID:         m.ID,
		Title:      m.Title,
		URL:        util.PtrFromNullString(m.URL),
		Icon:       util.PtrFromNullString(m.Icon),
		IsExternal: m.IsExternal,
		Target:     m.Target,
		IsActive:   m.IsActive,
		IsVisible:  m.IsVisible,
	}
}

// analyticsJSON passes stored analytics JSON through untouched, or emits
// null when the column is empty or holds invalid data.
func analyticsJSON(stored string) json.RawMessage {
	if stored == "" {
		return nil
	}
	if !json.Valid([]byte(stored)) {
		return nil
	}
	return json.RawMessage(stored)
}
