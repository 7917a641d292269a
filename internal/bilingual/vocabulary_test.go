// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import (
	"strings"
	"testing"

	"github.com/olegiv/nutricms/internal/model"
)

func TestDefaultVocabulariesCoverSchemas(t *testing.T) {
	vs := testVocabularies(t)
	if err := vs.CheckSchemas(); err != nil {
		t.Fatalf("CheckSchemas: %v", err)
	}
	want := []string{"benefits", "concerns", "foodCategories", "moods", "reasons", "recipeCategories", "shopCategories"}
	if got := strings.Join(vs.Names(), ","); got != strings.Join(want, ",") {
		t.Errorf("Names() = %s", got)
	}
}

// Selecting the i-th English option must mirror to the i-th French option.
func TestVocabularyIndexAligned(t *testing.T) {
	vs := testVocabularies(t)
	for _, name := range vs.Names() {
		v, _ := vs.Get(name)
		en, fr := v.Labels(model.LangEN), v.Labels(model.LangFR)
		if len(en) != len(fr) {
			t.Fatalf("%s: %d en labels, %d fr labels", name, len(en), len(fr))
		}
		for i := range en {
			got, ok := v.Translate(en[i], model.LangEN, model.LangFR)
			if !ok || got != fr[i] {
				t.Errorf("%s[%d]: Translate(%q) = %q, %v; want %q", name, i, en[i], got, ok, fr[i])
			}
			back, ok := v.Translate(fr[i], model.LangFR, model.LangEN)
			if !ok || back != en[i] {
				t.Errorf("%s[%d]: reverse Translate(%q) = %q; want %q", name, i, fr[i], back, en[i])
			}
		}
	}
}

func TestVocabularyLookupByCode(t *testing.T) {
	v, _ := testVocabularies(t).Get("concerns")
	opt, ok := v.Lookup(model.LangEN, "heart-health")
	if !ok || opt.Label(model.LangFR) != "Santé cardiaque" {
		t.Errorf("Lookup by code = %+v, %v", opt, ok)
	}
	if !v.Contains(model.LangFR, "Sommeil") || v.Contains(model.LangEN, "Sommeil") {
		t.Error("Contains must be per language")
	}
	if _, ok := v.Translate("Nope", model.LangEN, model.LangFR); ok {
		t.Error("unknown value must not translate")
	}
}

func TestParseVocabulariesRejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"duplicate code", "x:\n  - {code: a, en: A, fr: A}\n  - {code: a, en: B, fr: B}\n", "duplicate code"},
		{"missing label", "x:\n  - {code: a, en: A}\n", "no fr label"},
		{"duplicate label", "x:\n  - {code: a, en: A, fr: A}\n  - {code: b, en: A, fr: B}\n", "duplicate en label"},
		{"missing code", "x:\n  - {en: A, fr: A}\n", "has no code"},
		{"bad yaml", "x: [", "parsing vocabularies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVocabularies([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestCheckSchemasUnknownVocabulary(t *testing.T) {
	vs := testVocabularies(t)
	delete(vs, "moods")
	if err := vs.CheckSchemas(); err == nil || !strings.Contains(err.Error(), "moods") {
		t.Errorf("CheckSchemas error = %v", err)
	}
}
