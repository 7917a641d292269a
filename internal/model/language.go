// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// Lang is a content language code. Every record carries exactly one
// field map per Lang.
type Lang string

// Supported content languages.
const (
	LangEN Lang = "en"
	LangFR Lang = "fr"
)

// Langs lists the content languages in display order.
var Langs = []Lang{LangEN, LangFR}

// DefaultLang is the language drafts open in. Machine translation is
// always sourced from it.
const DefaultLang = LangEN

// Opposite returns the other content language.
func (l Lang) Opposite() Lang {
	if l == LangFR {
		return LangEN
	}
	return LangFR
}

// Valid reports whether l is a supported content language.
func (l Lang) Valid() bool {
	return l == LangEN || l == LangFR
}

// ParseLang converts a language code into a Lang.
func ParseLang(code string) (Lang, error) {
	l := Lang(code)
	if !l.Valid() {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return l, nil
}
