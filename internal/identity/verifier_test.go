// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestJWTVerifier_Valid(t *testing.T) {
	v := NewJWTVerifier(testSecret, "idp")
	raw := signToken(t, testSecret, jwt.MapClaims{
		"sub":   "user-1",
		"email": "user1@example.com",
		"iss":   "idp",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Email != "user1@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "user1@example.com")
	}
}

func TestJWTVerifier_NoEmailClaim(t *testing.T) {
	v := NewJWTVerifier(testSecret, "")
	raw := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Email != "" {
		t.Errorf("Email = %q, want empty", claims.Email)
	}
}

func TestJWTVerifier_Invalid(t *testing.T) {
	v := NewJWTVerifier(testSecret, "idp")

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", signToken(t, "other-secret", jwt.MapClaims{
			"sub": "user-1", "iss": "idp", "exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"expired", signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-1", "iss": "idp", "exp": time.Now().Add(-time.Hour).Unix(),
		})},
		{"wrong issuer", signToken(t, testSecret, jwt.MapClaims{
			"sub": "user-1", "iss": "other", "exp": time.Now().Add(time.Hour).Unix(),
		})},
		{"missing subject", signToken(t, testSecret, jwt.MapClaims{
			"iss": "idp", "exp": time.Now().Add(time.Hour).Unix(),
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.Verify(tt.raw); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
