// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small string helpers shared by the upload and content code.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlug         = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	stripMarks      = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify turns a title into a file-name friendly slug: accents are
// removed, other scripts transliterated to ASCII, and everything that is
// not a letter or digit collapses into single hyphens.
//
//	Slugify("Crème brûlée") == "creme-brulee"
func Slugify(s string) string {
	out, _, _ := transform.String(stripMarks, s)
	out = unidecode.Unidecode(out)
	out = strings.ToLower(out)
	out = strings.Join(strings.Fields(out), "-")
	out = nonSlug.ReplaceAllString(out, "-")
	out = multipleHyphens.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// TruncateSlug shortens a slug to at most n bytes without leaving a
// trailing hyphen.
func TruncateSlug(slug string, n int) string {
	if len(slug) <= n {
		return slug
	}
	return strings.TrimRight(slug[:n], "-")
}

// IsValidSlug reports whether s is a non-empty slug of lowercase ASCII
// letters, digits and single inner hyphens.
func IsValidSlug(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' || strings.Contains(s, "--") {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}
