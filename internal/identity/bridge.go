// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dailytoolbox/navsrv/internal/store"
)

// PlaceholderEmailDomain is used when the provider asserts no email for a
// subject. The address is synthetic and never routable.
const PlaceholderEmailDomain = "identity.local"

// Bridge resolves verified identity assertions to local user rows,
// provisioning an account on first sight of a new subject.
type Bridge struct {
	queries  *store.Queries
	verifier Verifier
	logger   *slog.Logger
}

// NewBridge returns a Bridge backed by the given store and verifier.
func NewBridge(queries *store.Queries, verifier Verifier, logger *slog.Logger) *Bridge {
	return &Bridge{queries: queries, verifier: verifier, logger: logger}
}

// Authenticate verifies the raw bearer token and returns the local user it
// maps to. An empty token returns ErrNoCredential; a failed verification
// returns ErrInvalidToken. New subjects are provisioned with the public
// role, and an asserted email overwrites the stored one (last writer wins).
// A call touches the user store at most once for reading and once for
// writing.
func (b *Bridge) Authenticate(ctx context.Context, token string) (store.User, error) {
	if token == "" {
		return store.User{}, ErrNoCredential
	}

	claims, err := b.verifier.Verify(token)
	if err != nil {
		b.logger.Warn("identity token rejected", "error", err)
		return store.User{}, err
	}

	user, err := b.queries.GetUserBySubject(ctx, claims.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		user, err = b.provision(ctx, claims)
	}
	if err != nil {
		return store.User{}, err
	}

	if err := b.syncEmail(ctx, &user, claims.Email); err != nil {
		return store.User{}, err
	}

	return user, nil
}

// provision creates a local account for a first-seen subject. Two requests
// can race here; the loser of the unique-subject insert re-reads the
// winner's row.
func (b *Bridge) provision(ctx context.Context, claims Claims) (store.User, error) {
	email := claims.Email
	if email == "" {
		email = claims.Subject + "@" + PlaceholderEmailDomain
	}

	now := time.Now()
	user, err := b.queries.CreateUser(ctx, store.CreateUserParams{
		Email:      email,
		Role:       store.RolePublic,
		Name:       claims.Subject,
		Subject:    sql.NullString{String: claims.Subject, Valid: true},
		IsExternal: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return b.queries.GetUserBySubject(ctx, claims.Subject)
		}
		return store.User{}, fmt.Errorf("provisioning user: %w", err)
	}

	b.logger.Info("provisioned external user", "id", user.ID, "subject", claims.Subject)
	return user, nil
}

// syncEmail keeps the stored email in step with the provider's assertion.
func (b *Bridge) syncEmail(ctx context.Context, user *store.User, asserted string) error {
	if asserted == "" || asserted == user.Email {
		return nil
	}
	err := b.queries.UpdateUserEmail(ctx, store.UpdateUserEmailParams{
		ID:        user.ID,
		Email:     asserted,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("syncing email: %w", err)
	}
	user.Email = asserted
	return nil
}
