// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/dailytoolbox/navsrv/internal/identity"
	"github.com/dailytoolbox/navsrv/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyUser      ContextKey = "user"
	ContextKeyCountry   ContextKey = "country"
	ContextKeyRequestID ContextKey = "request_id"
)

// SessionKeyUserID is the session key holding the authenticated user's ID.
const SessionKeyUserID = "user_id"

// Authenticate resolves the request user. A session user wins; otherwise a
// bearer token is run through the identity bridge and, on success, the
// resolved user is bound to the session so later requests skip token
// verification. Requests to a protected path without a resolved user get a
// 401 JSON response; everything else passes through anonymously.
//
// bridge may be nil when token verification is not configured; protected
// paths then admit session users only.
func Authenticate(sm *scs.SessionManager, db *sql.DB, bridge *identity.Bridge, protectedPaths []string) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID := sm.GetInt64(r.Context(), SessionKeyUserID); userID != 0 {
				user, err := queries.GetUserByID(r.Context(), userID)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
					return
				}
				// Stale session referencing a deleted user.
				_ = sm.Destroy(r.Context())
			}

			token, tokenPresent := bearerToken(r)
			if tokenPresent && bridge != nil {
				user, err := bridge.Authenticate(r.Context(), token)
				if err == nil {
					sm.Put(r.Context(), SessionKeyUserID, user.ID)
					next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
					return
				}
				if !errors.Is(err, identity.ErrInvalidToken) && !errors.Is(err, identity.ErrNoCredential) {
					slog.Error("token authentication failed", "error", err)
					WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Authentication failed", nil)
					return
				}
				// A rejected token reads the same as no token at all.
				if isProtectedPath(r.URL.Path, protectedPaths) {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if isProtectedPath(r.URL.Path, protectedPaths) {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func isProtectedPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func withUser(ctx context.Context, user store.User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, user)
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// roleLevel returns a numeric level for role hierarchy.
// Higher level = more permissions. Public users have level 0.
func roleLevel(role string) int {
	switch role {
	case store.RoleAdmin:
		return 2
	case store.RoleEditor:
		return 1
	default:
		return 0
	}
}

// RequireRole creates middleware that requires a minimum user role.
// Roles are hierarchical: admin > editor. Public users have no admin
// access. Errors are JSON, this guards API routes only.
func RequireRole(minRole string) func(http.Handler) http.Handler {
	minLevel := roleLevel(minRole)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if roleLevel(user.Role) < minLevel {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"required_role", minRole,
					"remote_addr", r.RemoteAddr,
				)
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Insufficient permissions", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin creates middleware that requires admin role.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(store.RoleAdmin)
}

// RequireEditor creates middleware that requires at least editor role.
func RequireEditor() func(http.Handler) http.Handler {
	return RequireRole(store.RoleEditor)
}
