// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
	"time"
)

func TestNullStringFromValue(t *testing.T) {
	if got := NullStringFromValue(""); got.Valid {
		t.Error("empty string should produce invalid NullString")
	}
	got := NullStringFromValue("x")
	if !got.Valid || got.String != "x" {
		t.Errorf("NullStringFromValue(x) = %+v", got)
	}
}

func TestNullInt64FromPtr(t *testing.T) {
	if got := NullInt64FromPtr(nil); got.Valid {
		t.Error("nil pointer should produce invalid NullInt64")
	}
	v := int64(7)
	got := NullInt64FromPtr(&v)
	if !got.Valid || got.Int64 != 7 {
		t.Errorf("NullInt64FromPtr(&7) = %+v", got)
	}
}

func TestPtrRoundTrips(t *testing.T) {
	if PtrFromNullString(sql.NullString{}) != nil {
		t.Error("invalid NullString should map to nil")
	}
	s := PtrFromNullString(sql.NullString{String: "x", Valid: true})
	if s == nil || *s != "x" {
		t.Errorf("PtrFromNullString = %v", s)
	}

	if PtrFromNullTime(sql.NullTime{}) != nil {
		t.Error("invalid NullTime should map to nil")
	}
	now := time.Now()
	ts := PtrFromNullTime(sql.NullTime{Time: now, Valid: true})
	if ts == nil || !ts.Equal(now) {
		t.Errorf("PtrFromNullTime = %v", ts)
	}

	if PtrFromNullInt64(sql.NullInt64{}) != nil {
		t.Error("invalid NullInt64 should map to nil")
	}
}
