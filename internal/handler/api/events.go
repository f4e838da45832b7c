// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dailytoolbox/navsrv/internal/store"
	"github.com/dailytoolbox/navsrv/internal/util"
)

// defaultEventLimit caps how many event rows a single request returns.
const defaultEventLimit = 50

// EventResponse represents an event log row in admin API responses.
type EventResponse struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	UserID    *int64          `json:"user_id"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func storeEventToResponse(e store.Event) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		UserID:    util.PtrFromNullInt64(e.UserID),
		CreatedAt: e.CreatedAt,
	}
	if e.Metadata != "" && json.Valid([]byte(e.Metadata)) {
		resp.Metadata = json.RawMessage(e.Metadata)
	}
	return resp
}

// ListEvents handles GET /api/admin/events.
// Returns the newest event log entries, most recent first.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultEventLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 || parsed > 500 {
			WriteBadRequest(w, "Limit must be between 1 and 500", nil)
			return
		}
		limit = parsed
	}

	events, err := h.queries.ListRecentEvents(r.Context(), limit)
	if err != nil {
		WriteInternalError(w, "Failed to list events")
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, e := range events {
		responses = append(responses, storeEventToResponse(e))
	}

	WriteSuccess(w, responses, &Meta{Total: int64(len(responses))})
}
