// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/content"
)

// LookupsHandler serves the pick lists of the entity forms.
type LookupsHandler struct {
	content      *content.Service
	vocabularies bilingual.Vocabularies
}

// NewLookupsHandler creates a new LookupsHandler.
func NewLookupsHandler(svc *content.Service, vocabularies bilingual.Vocabularies) *LookupsHandler {
	return &LookupsHandler{content: svc, vocabularies: vocabularies}
}

// Foods handles GET /admin/lookups/foods.
func (h *LookupsHandler) Foods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.content.AllFoods(r.Context())
	if err != nil {
		writeInternalError(w, r, "failed to list foods", err)
		return
	}
	WriteSuccess(w, foods, &Meta{Total: int64(len(foods))})
}

// Recipes handles GET /admin/lookups/recipes.
func (h *LookupsHandler) Recipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.content.AllRecipes(r.Context())
	if err != nil {
		writeInternalError(w, r, "failed to list recipes", err)
		return
	}
	WriteSuccess(w, recipes, &Meta{Total: int64(len(recipes))})
}

// Tags handles GET /admin/lookups/tags.
func (h *LookupsHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.content.AllTags(r.Context())
	if err != nil {
		writeInternalError(w, r, "failed to list tags", err)
		return
	}
	WriteSuccess(w, tags, &Meta{Total: int64(len(tags))})
}

// ShopCategories handles GET /admin/lookups/shop-categories.
func (h *LookupsHandler) ShopCategories(w http.ResponseWriter, _ *http.Request) {
	categories := h.content.ShopCategories()
	WriteSuccess(w, categories, &Meta{Total: int64(len(categories))})
}

// Location handles GET /admin/lookups/locations/{id}.
func (h *LookupsHandler) Location(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, paramID)
	if !ok {
		return
	}
	loc, err := h.content.LocationDetails(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load location", "id", id)
		return
	}
	WriteSuccess(w, loc, nil)
}

// Vocabulary handles GET /admin/lookups/vocabularies/{name}.
func (h *LookupsHandler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, paramName)
	vocab, ok := h.vocabularies.Get(name)
	if !ok {
		writeNotFound(w, r, "unknown vocabulary "+name)
		return
	}
	WriteSuccess(w, vocab, nil)
}
