// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package identity maps bearer-token assertions from an external identity
// provider onto local user accounts.
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoCredential means the request carried no bearer token at all.
	ErrNoCredential = errors.New("identity: no credential presented")

	// ErrInvalidToken means a token was presented but failed verification.
	ErrInvalidToken = errors.New("identity: invalid token")
)

// Claims is the subset of a verified assertion the bridge cares about.
// Subject is the provider's stable user identifier; Email may be empty.
type Claims struct {
	Subject string
	Email   string
}

// Verifier checks a raw bearer token and extracts its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed JWTs from the identity provider.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier returns a verifier for HS256 tokens signed with secret.
// If issuer is non-empty, the iss claim must match it.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates the token. Any failure, including a wrong
// signing method, expiry, or a missing subject, maps to ErrInvalidToken.
func (v *JWTVerifier) Verify(token string) (Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return Claims{Subject: claims.Subject, Email: claims.Email}, nil
}
