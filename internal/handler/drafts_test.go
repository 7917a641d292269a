// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/content"
	"github.com/olegiv/nutricms/internal/model"
)

const moodDrafts = "/admin/drafts/mood"

func change(section, name string, value any) map[string]any {
	return map[string]any{"section": section, "field": name, "value": value}
}

// createMood stores a complete mood record directly.
func createMood(t *testing.T, env *testEnv, titleEN, titleFR string) *content.Entity {
	t.Helper()
	e, err := env.content.Create(context.Background(), model.EntityMood, bilingual.Document{
		"moodData": {
			EN: bilingual.FieldMap{"title": titleEN, "description": "<p>Unwind</p>", "mood": "Calm"},
			FR: bilingual.FieldMap{"title": titleFR, "description": "<p>Détente</p>", "mood": "Calme"},
		},
	}, 0)
	require.NoError(t, err)
	return e
}

func TestOpenDraft(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodPost, moodDrafts, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, model.EntityMood, got.Data.Kind)
	assert.Equal(t, bilingual.ModeCreate, got.Data.Mode)
	assert.Equal(t, model.LangEN, got.Data.ActiveLang)
	assert.False(t, got.Data.AllowMultiLang)
	assert.False(t, got.Data.HasChanges["moodData"])
	assert.Empty(t, got.Data.ChangedSections)
	assert.Empty(t, got.Data.Changes)

	resp = env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "Morning calm"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Opening again resumes the unsaved draft.
	resp = env.do(http.MethodPost, moodDrafts, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, "Morning calm", field(got.Data, "moodData", "en", "title"))
	assert.True(t, got.Data.HasChanges["moodData"])
	assert.Equal(t, []string{"moodData"}, got.Data.ChangedSections)
}

func TestOpenDraftUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodPost, "/admin/drafts/widget", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChangeAndCommit(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, moodDrafts, nil)

	resp := env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "Morning calm"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, "Morning calm", field(got.Data, "moodData", "en", "title"))
	assert.Equal(t, "", field(got.Data, "moodData", "fr", "title"))

	resp = env.do(http.MethodPost, moodDrafts+"/fields/commit", change("moodData", "title", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, "[fr] Morning calm", field(got.Data, "moodData", "fr", "title"))

	// Closed vocabularies are mirrored as soon as they change.
	resp = env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "mood", "Calm"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, "Calme", field(got.Data, "moodData", "fr", "mood"))

	// Language-agnostic fields are copied on commit.
	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "isActive", true))
	resp = env.do(http.MethodPost, moodDrafts+"/fields/commit", change("moodData", "isActive", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, true, field(got.Data, "moodData", "fr", "isActive"))
}

func TestChangeUnknownField(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, moodDrafts, nil)

	resp := env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "nope", "x"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	got := decodeEnvelope[any](t, resp)
	require.NotNil(t, got.Error)
	assert.Equal(t, "unknown_field", got.Error.Code)

	resp = env.do(http.MethodPut, moodDrafts+"/fields", change("nope", "title", "x"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChangeWithoutDraft(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "x"))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	got := decodeEnvelope[any](t, resp)
	require.NotNil(t, got.Error)
	assert.Equal(t, "no_draft", got.Error.Code)
}

func TestToggle(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, "/admin/drafts/food", nil)

	resp := env.do(http.MethodPost, "/admin/drafts/food/fields/toggle", change("foodData", "concern", "Energy"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, []any{"Energy"}, field(got.Data, "foodData", "en", "concern"))
	assert.Equal(t, []any{"Énergie"}, field(got.Data, "foodData", "fr", "concern"))

	resp = env.do(http.MethodPost, "/admin/drafts/food/fields/toggle", change("foodData", "concern", "Energy"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeEnvelope[DraftView](t, resp)
	assert.Empty(t, field(got.Data, "foodData", "en", "concern"))
	assert.Empty(t, field(got.Data, "foodData", "fr", "concern"))

	resp = env.do(http.MethodPost, "/admin/drafts/food/fields/toggle", change("foodData", "category", "Fruits"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodPost, "/admin/drafts/food/fields/toggle", change("foodData", "concern", 3))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordListItems(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	const drafts = "/admin/drafts/recipe"
	env.do(http.MethodPost, drafts, nil)

	item := func(name, quantity string) map[string]any {
		return map[string]any{
			"section": "recipeData",
			"field":   "ingredients",
			"item":    map[string]any{"name": name, "quantity": quantity},
		}
	}

	resp := env.do(http.MethodPost, drafts+"/items", item("Oats", "50"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := decodeEnvelope[ItemResult](t, resp)
	assert.Equal(t, 0, added.Data.Index)

	env.sync.Wait()
	resp = env.do(http.MethodGet, drafts, nil)
	got := decodeEnvelope[DraftView](t, resp)
	en := field(got.Data, "recipeData", "en", "ingredients").([]any)
	fr := field(got.Data, "recipeData", "fr", "ingredients").([]any)
	require.Len(t, en, 1)
	require.Len(t, fr, 1)
	enItem, frItem := en[0].(map[string]any), fr[0].(map[string]any)
	assert.Equal(t, "Oats", enItem["name"])
	assert.Equal(t, "[fr] Oats", frItem["name"])
	assert.Equal(t, "50", frItem["quantity"])
	assert.NotEmpty(t, enItem["id"])
	assert.Equal(t, enItem["id"], frItem["id"])

	resp = env.do(http.MethodPut, drafts+"/items/0", item("Rolled oats", "60"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env.sync.Wait()
	resp = env.do(http.MethodGet, drafts, nil)
	got = decodeEnvelope[DraftView](t, resp)
	frItem = field(got.Data, "recipeData", "fr", "ingredients").([]any)[0].(map[string]any)
	assert.Equal(t, "[fr] Rolled oats", frItem["name"])
	assert.Equal(t, "60", frItem["quantity"])

	resp = env.do(http.MethodPut, drafts+"/items/3", item("Milk", "1"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodPost, drafts+"/items", map[string]any{
		"section": "recipeData", "field": "title", "item": map[string]any{"name": "x"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(http.MethodDelete, drafts+"/items/0?section=recipeData&field=ingredients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	removed := decodeEnvelope[ItemResult](t, resp)
	assert.Empty(t, field(removed.Data.Draft, "recipeData", "en", "ingredients"))
	assert.Empty(t, field(removed.Data.Draft, "recipeData", "fr", "ingredients"))

	resp = env.do(http.MethodDelete, drafts+"/items/x?section=recipeData&field=ingredients", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMultiLang(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, moodDrafts, nil)

	resp := env.do(http.MethodPut, moodDrafts+"/lang", map[string]string{"lang": "fr"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errResp := decodeEnvelope[any](t, resp)
	require.NotNil(t, errResp.Error)
	assert.Equal(t, "multilang_disabled", errResp.Error.Code)

	resp = env.do(http.MethodPut, moodDrafts+"/multilang", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(http.MethodPut, moodDrafts+"/lang", map[string]string{"lang": "fr"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, model.LangFR, got.Data.ActiveLang)

	// Edits now land in French; vocabularies are mirrored back to English.
	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "Bonjour"))
	resp = env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "mood", "Heureux"))
	got = decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, "Bonjour", field(got.Data, "moodData", "fr", "title"))
	assert.Equal(t, "", field(got.Data, "moodData", "en", "title"))
	assert.Equal(t, "Happy", field(got.Data, "moodData", "en", "mood"))

	resp = env.do(http.MethodPut, moodDrafts+"/multilang", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, model.LangEN, got.Data.ActiveLang)
	assert.Equal(t, "Bonjour", field(got.Data, "moodData", "fr", "title"))

	resp = env.do(http.MethodPut, moodDrafts+"/lang", map[string]string{"lang": "de"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelDraft(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, moodDrafts, nil)
	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "Morning calm"))

	resp := env.do(http.MethodDelete, moodDrafts, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[any](t, resp)
	assert.Equal(t, "Changes discarded.", got.Notification)

	resp = env.do(http.MethodGet, moodDrafts, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodPost, moodDrafts, nil)
	view := decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, "", field(view.Data, "moodData", "en", "title"))
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, moodDrafts, nil)

	resp := env.do(http.MethodPost, moodDrafts+"/validate", map[string]string{"section": "moodData"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	got := decodeEnvelope[any](t, resp)
	require.NotNil(t, got.Error)
	assert.Equal(t, "validation_error", got.Error.Code)
	assert.Equal(t, "Please correct the highlighted fields.", got.Notification)
	assert.Contains(t, got.Error.Details, "title")
	assert.Contains(t, got.Error.Details, "description")
	assert.Contains(t, got.Error.Details, "mood")
	assert.Equal(t, "cannot be blank", got.Error.Details["title"])

	resp = env.do(http.MethodPost, moodDrafts+"/validate?ui=fr", map[string]string{"section": "moodData"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	got = decodeEnvelope[any](t, resp)
	assert.Equal(t, "ne peut pas être vide", got.Error.Details["title"])

	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "Morning calm"))
	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "description", "<p>Breathe</p>"))
	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "mood", "Calm"))

	resp = env.do(http.MethodPost, moodDrafts+"/validate", map[string]string{"section": "moodData"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	valid := decodeEnvelope[map[string]bool](t, resp)
	assert.True(t, valid.Data["valid"])

	resp = env.do(http.MethodPost, moodDrafts+"/validate", map[string]string{"section": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSaveCreate(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, moodDrafts, nil)

	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "Morning calm"))
	env.do(http.MethodPost, moodDrafts+"/fields/commit", change("moodData", "title", nil))
	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "description", "<p>Breathe</p>"))
	env.do(http.MethodPost, moodDrafts+"/fields/commit", change("moodData", "description", nil))
	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "mood", "Calm"))

	resp := env.do(http.MethodPost, moodDrafts+"/save", map[string]string{"section": "moodData"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	got := decodeEnvelope[SaveResult](t, resp)
	assert.Equal(t, "Created.", got.Notification)
	require.NotNil(t, got.Data.Record)
	assert.Equal(t, "Morning calm", got.Data.Record.TitleEN)
	assert.Equal(t, "[fr] Morning calm", got.Data.Record.TitleFR)

	// The section starts over once stored.
	assert.False(t, got.Data.Draft.HasChanges["moodData"])
	assert.Equal(t, "", field(got.Data.Draft, "moodData", "en", "title"))

	stored, err := env.content.Get(context.Background(), model.EntityMood, got.Data.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calme", stored.Document["moodData"].FR["mood"])
	assert.Equal(t, "<p>Breathe</p>", stored.Document["moodData"].EN["description"])
}

func TestSaveRejectsInvalidSection(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	env.do(http.MethodPost, moodDrafts, nil)
	env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "Morning calm"))

	resp := env.do(http.MethodPost, moodDrafts+"/save", map[string]string{"section": "moodData"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	got := decodeEnvelope[any](t, resp)
	assert.NotContains(t, got.Error.Details, "title")
	assert.Contains(t, got.Error.Details, "mood")

	page, err := env.content.List(context.Background(), model.EntityMood, content.ListParams{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	// The draft keeps its content.
	resp = env.do(http.MethodGet, moodDrafts, nil)
	view := decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, "Morning calm", field(view.Data, "moodData", "en", "title"))
}

func TestSaveEdit(t *testing.T) {
	env := newTestEnv(t)
	env.login()
	rec := createMood(t, env, "Quiet evening", "Soirée calme")
	path := fmt.Sprintf("%s/edit/%d", moodDrafts, rec.ID)

	resp := env.do(http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeEnvelope[DraftView](t, resp)
	assert.Equal(t, bilingual.ModeEdit, got.Data.Mode)
	assert.Equal(t, rec.ID, got.Data.RecordID)
	assert.Equal(t, "Quiet evening", field(got.Data, "moodData", "en", "title"))
	assert.False(t, got.Data.HasChanges["moodData"])

	resp = env.do(http.MethodPost, moodDrafts+"/save", map[string]string{"section": "moodData"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	noop := decodeEnvelope[SaveResult](t, resp)
	assert.Equal(t, "There are no changes to save.", noop.Notification)
	assert.Nil(t, noop.Data.Record)

	resp = env.do(http.MethodPut, moodDrafts+"/fields", change("moodData", "title", "Quiet night"))
	got = decodeEnvelope[DraftView](t, resp)
	assert.True(t, got.Data.HasChanges["moodData"])
	require.NotNil(t, got.Data.Changes["moodData"])
	assert.Equal(t, bilingual.FieldMap{"title": "Quiet night"}, got.Data.Changes["moodData"].EN)

	resp = env.do(http.MethodPost, moodDrafts+"/save", map[string]string{"section": "moodData"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	saved := decodeEnvelope[SaveResult](t, resp)
	assert.Equal(t, "Saved.", saved.Notification)
	require.NotNil(t, saved.Data.Record)
	assert.Equal(t, "Quiet night", saved.Data.Record.TitleEN)
	assert.Equal(t, "Soirée calme", saved.Data.Record.TitleFR)
	assert.False(t, saved.Data.Draft.HasChanges["moodData"])
	assert.Empty(t, saved.Data.Draft.ChangedSections)
	assert.Equal(t, "Quiet night", field(saved.Data.Draft, "moodData", "en", "title"))
}

func TestOpenEditMissingRecord(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodPost, moodDrafts+"/edit/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodPost, moodDrafts+"/edit/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
