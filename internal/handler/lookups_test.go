// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/content"
	"github.com/olegiv/nutricms/internal/model"
)

func TestLookupTags(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodGet, "/admin/lookups/tags", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[[]content.Option](t, resp)
	require.NotNil(t, got.Meta)
	assert.Equal(t, int64(len(got.Data)), got.Meta.Total)

	var vegan *content.Option
	for i := range got.Data {
		if got.Data[i].EN == "Vegan" {
			vegan = &got.Data[i]
		}
	}
	require.NotNil(t, vegan)
	assert.Equal(t, "Végétalien", vegan.FR)
	assert.NotZero(t, vegan.ID)
}

func TestLookupShopCategories(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodGet, "/admin/lookups/shop-categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[[]content.Option](t, resp)
	assert.Contains(t, got.Data, content.Option{Code: "grocery", EN: "Grocery", FR: "Épicerie"})
}

func TestLookupFoods(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	_, err := env.content.Create(context.Background(), model.EntityFood, bilingual.Document{
		"foodData": {
			EN: bilingual.FieldMap{"name": "Apple", "category": "Fruits"},
			FR: bilingual.FieldMap{"name": "Pomme", "category": "Fruits"},
		},
	}, 0)
	require.NoError(t, err)

	resp := env.do(http.MethodGet, "/admin/lookups/foods", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[[]content.Option](t, resp)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "Apple", got.Data[0].EN)
	assert.Equal(t, "Pomme", got.Data[0].FR)

	resp = env.do(http.MethodGet, "/admin/lookups/recipes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recipes := decodeEnvelope[[]content.Option](t, resp)
	assert.Empty(t, recipes.Data)
	assert.Equal(t, int64(0), recipes.Meta.Total)
}

func TestLookupLocation(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodGet, "/admin/lookups/locations/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[content.Location](t, resp)
	assert.Equal(t, "Marché Jean-Talon", got.Data.Name)
	assert.Equal(t, "Montréal", got.Data.City)
	require.NotNil(t, got.Data.Latitude)

	resp = env.do(http.MethodGet, "/admin/lookups/locations/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLookupVocabulary(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodGet, "/admin/lookups/vocabularies/moods", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[bilingual.Vocabulary](t, resp)
	assert.Equal(t, "moods", got.Data.Name)
	require.NotEmpty(t, got.Data.Options)
	assert.Equal(t, "happy", got.Data.Options[0].Code)
	assert.Equal(t, "Heureux", got.Data.Options[0].Labels[model.LangFR])

	resp = env.do(http.MethodGet, "/admin/lookups/vocabularies/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
