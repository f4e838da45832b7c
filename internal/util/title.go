// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose utility functions.
package util

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mozillazg/go-unidecode"
)

var (
	// titleKeyRegex matches non-alphanumeric characters (except hyphens)
	titleKeyRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)

	strictPolicy = bluemonday.StrictPolicy()
)

// NormalizeTitle converts a menu title to its normalized comparison key.
// Accented and non-Latin characters are transliterated to ASCII, the result
// lowercased, spaces become hyphens, and everything else is stripped, so
// "Café Tools" and "cafe tools" collide as intended.
func NormalizeTitle(title string) string {
	result := unidecode.Unidecode(title)
	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, " ", "-")
	result = titleKeyRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// StripTags removes all HTML from user-supplied text fields.
func StripTags(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
