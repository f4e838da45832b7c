// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestLogin_Success(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	resp := ts.postJSON(t, client, "/api/auth/login", LoginRequest{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var user UserResponse
	decodeData(t, resp, &user)
	if user.Email != testAdminEmail {
		t.Errorf("Email = %q, want %q", user.Email, testAdminEmail)
	}
	if user.Role != "admin" {
		t.Errorf("Role = %q, want admin", user.Role)
	}

	// The session cookie now authenticates follow-up requests.
	meResp, err := client.Get(ts.srv.URL + "/api/auth/me")
	if err != nil {
		t.Fatalf("GET me: %v", err)
	}
	defer meResp.Body.Close()
	if meResp.StatusCode != http.StatusOK {
		t.Errorf("me status = %d, want 200", meResp.StatusCode)
	}
	var me UserResponse
	decodeData(t, meResp, &me)
	if me.ID != ts.admin.ID {
		t.Errorf("me ID = %d, want %d", me.ID, ts.admin.ID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	tests := []struct {
		name string
		req  LoginRequest
		want int
	}{
		{"wrong password", LoginRequest{Email: testAdminEmail, Password: "nope"}, http.StatusUnauthorized},
		{"unknown email", LoginRequest{Email: "ghost@test.local", Password: "nope"}, http.StatusUnauthorized},
		{"missing fields", LoginRequest{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.postJSON(t, client, "/api/auth/login", tt.req)
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestLogout_EndsSession(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	ts.loginAsAdmin(t, client)

	resp := ts.postJSON(t, client, "/api/auth/logout", struct{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}

	meResp, err := client.Get(ts.srv.URL + "/api/auth/me")
	if err != nil {
		t.Fatalf("GET me: %v", err)
	}
	defer meResp.Body.Close()
	if meResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me status after logout = %d, want 401", meResp.StatusCode)
	}
}

func TestProtectedGreeting(t *testing.T) {
	ts := newTestServer(t)

	// Anonymous requests are rejected before the handler runs.
	resp, err := http.Get(ts.srv.URL + "/api/protected/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", resp.StatusCode)
	}

	client := newClient(t)
	ts.loginAsAdmin(t, client)

	resp, err = client.Get(ts.srv.URL + "/api/protected/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	// The message sits at the top level of the body, with no data envelope.
	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if _, ok := body["data"]; ok {
		t.Error("body should not be wrapped in a data envelope")
	}
	raw, ok := body["message"]
	if !ok {
		t.Fatal("body missing top-level message key")
	}
	var message string
	if err := json.Unmarshal(raw, &message); err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if want := "Hello, Test Admin! This is a protected area."; message != want {
		t.Errorf("message = %q, want %q", message, want)
	}
}
