// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// ApplyLifecycle reconciles workflow flags with their timestamp and actor
// columns before a write. Each pair follows the same rule: a raised flag
// with no timestamp gets stamped with now and the acting user, a lowered
// flag with a stale timestamp gets both columns cleared. Scheduling keeps
// the caller-provided scheduled_at and only stamps the actor.
func ApplyLifecycle(m *MenuItem, actor sql.NullInt64, now time.Time) {
	stamp := sql.NullTime{Time: now, Valid: true}

	if m.IsPublished && !m.PublishedAt.Valid {
		m.PublishedAt = stamp
		m.PublishedBy = actor
	} else if !m.IsPublished && m.PublishedAt.Valid {
		m.PublishedAt = sql.NullTime{}
		m.PublishedBy = sql.NullInt64{}
	}

	if m.IsArchived && !m.ArchivedAt.Valid {
		m.ArchivedAt = stamp
		m.ArchivedBy = actor
	} else if !m.IsArchived && m.ArchivedAt.Valid {
		m.ArchivedAt = sql.NullTime{}
		m.ArchivedBy = sql.NullInt64{}
	}

	if m.IsDeleted && !m.DeletedAt.Valid {
		m.DeletedAt = stamp
		m.DeletedBy = actor
	} else if !m.IsDeleted && m.DeletedAt.Valid {
		m.DeletedAt = sql.NullTime{}
		m.DeletedBy = sql.NullInt64{}
	}

	if m.IsScheduled && m.ScheduledAt.Valid && !m.ScheduledBy.Valid {
		m.ScheduledBy = actor
	} else if !m.IsScheduled && (m.ScheduledAt.Valid || m.ScheduledBy.Valid) {
		m.ScheduledAt = sql.NullTime{}
		m.ScheduledBy = sql.NullInt64{}
	}
}
