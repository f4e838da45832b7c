// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/dailytoolbox/navsrv/internal/middleware"
)

// Navbar handles GET /api/menu-items/.
// Serves the cached public navigation payload, shaped for the detected country.
func (h *Handler) Navbar(w http.ResponseWriter, r *http.Request) {
	country := middleware.GetCountry(r)

	payload, err := h.navbar.NavbarJSON(r.Context(), country)
	if err != nil {
		h.logger.Error("navbar build failed", "error", err, "country", country)
		WriteInternalError(w, "Failed to build navigation")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
