// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dailytoolbox/navsrv/internal/auth"
	"github.com/dailytoolbox/navsrv/internal/middleware"
	"github.com/dailytoolbox/navsrv/internal/store"
)

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents the authenticated user in API responses.
type UserResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	IsExternal bool   `json:"is_external"`
}

func storeUserToResponse(u store.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		IsExternal: u.IsExternal,
	}
}

// Login handles POST /api/auth/login with email and password credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteBadRequest(w, "Email and password are required", nil)
		return
	}

	user, err := h.queries.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.logger.Warn("login failed", "email", req.Email, "reason", "unknown email")
			WriteUnauthorized(w, "Invalid email or password")
			return
		}
		WriteInternalError(w, "Failed to look up user")
		return
	}

	// External users carry no usable password hash.
	if user.IsExternal || user.PasswordHash == "" {
		h.logger.Warn("login failed", "email", req.Email, "reason", "no password credential")
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.logger.Warn("login failed", "email", req.Email, "reason", "password mismatch")
		WriteUnauthorized(w, "Invalid email or password")
		return
	}

	// Renew the session token on privilege change to prevent fixation.
	if err := h.sm.RenewToken(ctx); err != nil {
		WriteInternalError(w, "Failed to establish session")
		return
	}
	h.sm.Put(ctx, middleware.SessionKeyUserID, user.ID)

	_ = h.queries.UpdateUserLastLogin(ctx, store.UpdateUserLastLoginParams{
		ID:          user.ID,
		LastLoginAt: sql.NullTime{Time: time.Now(), Valid: true},
	})

	h.logger.Info("login", "user_id", user.ID, "email", user.Email)
	WriteSuccess(w, storeUserToResponse(user), nil)
}

// Logout handles POST /api/auth/logout and destroys the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(r)
	if err := h.sm.Destroy(ctx); err != nil {
		WriteInternalError(w, "Failed to end session")
		return
	}

	if userID > 0 {
		h.logger.Info("logout", "user_id", userID)
	}
	WriteSuccess(w, map[string]string{"status": "logged_out"}, nil)
}

// Me handles GET /api/auth/me and returns the current user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Authentication required")
		return
	}
	WriteSuccess(w, storeUserToResponse(*user), nil)
}
