// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestHealth_PublicMinimal(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if string(body["status"]) != `"healthy"` {
		t.Errorf("status = %s, want healthy", body["status"])
	}
	if _, ok := body["checks"]; ok {
		t.Error("unauthenticated caller must not see check details")
	}
}

func TestHealth_AdminDetails(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)
	ts.loginAsAdmin(t, client)

	resp, err := client.Get(ts.srv.URL + "/api/health?verbose=true")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("status = %q, want healthy", status.Status)
	}
	if status.Checks["database"].Status != "healthy" {
		t.Errorf("database check = %q, want healthy", status.Checks["database"].Status)
	}
	if status.System == nil {
		t.Error("expected system info with verbose=true")
	}
}

func TestHealth_Probes(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/health/live", "/api/health/ready"} {
		resp, err := http.Get(ts.srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var status StatusResponse
	decodeData(t, resp, &status)
	if status.Status != "ok" || status.Version != "v1" {
		t.Errorf("status = %+v, want ok/v1", status)
	}
}
