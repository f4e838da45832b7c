// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Home", "home"},
		{"spaces", "Unit Converter", "unit-converter"},
		{"accents", "Café Tools", "cafe-tools"},
		{"case collision", "HOME", "home"},
		{"punctuation", "Tools & Gadgets!", "tools-gadgets"},
		{"multiple spaces", "A   B", "a-b"},
		{"leading trailing", "  Trim Me  ", "trim-me"},
		{"cyrillic", "Привет", "privet"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle_Collisions(t *testing.T) {
	if NormalizeTitle("Café Tools") != NormalizeTitle("cafe tools") {
		t.Error("accented and plain variants should normalize identically")
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain text", "plain text"},
		{"<b>bold</b>", "bold"},
		{"<script>alert(1)</script>Home", "Home"},
		{"a <a href='x'>link</a>", "a link"},
	}

	for _, tt := range tests {
		if got := StripTags(tt.input); got != tt.want {
			t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
