// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/nutricms/internal/model"
)

func TestNewDocumentKeysAligned(t *testing.T) {
	for _, kind := range model.EntityKinds() {
		schema := mustSchema(t, kind)
		doc := NewDocument(schema)
		for _, sec := range schema.Sections {
			p, ok := doc[sec.Name]
			require.True(t, ok, "%s: missing section %s", kind, sec.Name)
			assert.True(t, p.KeysAligned(), "%s.%s keys not aligned", kind, sec.Name)
			assert.Len(t, p.EN, len(sec.Fields))
		}
	}
}

func TestDefaultValue(t *testing.T) {
	assert.Equal(t, false, DefaultValue(model.FieldSpec{Kind: model.FieldBool}))
	assert.Equal(t, []string{}, DefaultValue(model.FieldSpec{Kind: model.FieldMultiSelect}))
	assert.Equal(t, []Record{}, DefaultValue(model.FieldSpec{Kind: model.FieldRecordList}))
	assert.Equal(t, "", DefaultValue(model.FieldSpec{Kind: model.FieldEmail}))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		kind    model.FieldKind
		in      any
		want    any
		wantErr bool
	}{
		{"bool", model.FieldBool, true, true, false},
		{"bool from string", model.FieldBool, "true", true, false},
		{"bool bad string", model.FieldBool, "yes please", nil, true},
		{"numeric float", model.FieldNumeric, 12.5, "12.5", false},
		{"numeric int", model.FieldNumeric, 4, "4", false},
		{"numeric json", model.FieldNumeric, json.Number("250"), "250", false},
		{"numeric text", model.FieldNumeric, "3", "3", false},
		{"numeric bool", model.FieldNumeric, true, nil, true},
		{"multi any", model.FieldMultiSelect, []any{"Sleep", "Energy"}, []string{"Sleep", "Energy"}, false},
		{"multi bad item", model.FieldMultiSelect, []any{"Sleep", 3.0}, nil, true},
		{"multi scalar", model.FieldMultiSelect, "Sleep", nil, true},
		{"text", model.FieldShortText, "Drink Water", "Drink Water", false},
		{"text number", model.FieldShortText, 3.0, nil, true},
		{"nil text", model.FieldShortText, nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(model.FieldSpec{Name: "f", Kind: tt.kind}, tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRecord(t *testing.T) {
	spec, ok := mustSchema(t, model.EntityRecipe).Field("recipeData", "ingredients")
	require.True(t, ok)

	r, err := NormalizeRecord(spec, map[string]any{"name": "Oats", "quantity": 40.0})
	require.NoError(t, err)
	assert.Equal(t, "Oats", r["name"])
	assert.Equal(t, "40", r["quantity"])
	assert.Equal(t, false, r["isOptional"])
	assert.Equal(t, "", r["unit"])

	_, err = NormalizeRecord(spec, map[string]any{"colour": "red"})
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestNormalizeDocumentFillsMissingAndDropsUnknown(t *testing.T) {
	schema := mustSchema(t, model.EntityMood)
	raw := Document{
		"moodData": {
			EN: FieldMap{"title": "Calm morning", "bogus": 1},
			FR: FieldMap{"isActive": true},
		},
		"otherSection": {EN: FieldMap{"x": "y"}, FR: FieldMap{}},
	}
	doc, err := NormalizeDocument(schema, raw)
	require.NoError(t, err)

	assert.NotContains(t, doc, "otherSection")
	p := doc["moodData"]
	assert.True(t, p.KeysAligned())
	assert.Equal(t, "Calm morning", p.EN["title"])
	assert.Equal(t, "", p.FR["title"])
	assert.Equal(t, true, p.FR["isActive"])
	assert.NotContains(t, p.EN, "bogus")
}

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := NewDocument(mustSchema(t, model.EntityRecipe))
	doc["recipeData"].EN["ingredients"] = []Record{{"id": "1", "name": "Oats"}}
	doc["recipeData"].EN["concern"] = []string{"Sleep"}

	cp := doc.Clone()
	cp["recipeData"].EN["ingredients"].([]Record)[0]["name"] = "Rice"
	cp["recipeData"].EN["concern"].([]string)[0] = "Energy"

	assert.Equal(t, "Oats", doc["recipeData"].EN["ingredients"].([]Record)[0]["name"])
	assert.Equal(t, []string{"Sleep"}, doc["recipeData"].EN["concern"])
}
