// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"

	"github.com/dailytoolbox/navsrv/internal/middleware"
)

// ProtectedGreeting handles GET /api/protected/.
// A minimal endpoint for verifying that a credential resolved to a local user.
func (h *Handler) ProtectedGreeting(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	greeting := struct {
		Message string `json:"message"`
	}{
		Message: fmt.Sprintf("Hello, %s! This is a protected area.", user.Name),
	}

	if user.IsExternal && user.Subject.Valid {
		greeting.Message = fmt.Sprintf("Hello, %s! This is a protected area. Your identity subject is %s.",
			user.Name, user.Subject.String)
	}

	// The message is the whole body, not wrapped in the data envelope.
	WriteJSON(w, http.StatusOK, greeting)
}
