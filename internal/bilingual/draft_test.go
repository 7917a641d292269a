// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/nutricms/internal/model"
)

func TestNewDraftDefaults(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityTip))

	assert.Equal(t, ModeCreate, d.Mode())
	assert.Equal(t, model.LangEN, d.ActiveLang())
	assert.False(t, d.AllowMultiLang())
	assert.Equal(t, int64(0), d.RecordID())
	assert.Empty(t, d.ChangedSections())
}

func TestSetActiveLangRequiresMultiLang(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityTip))

	err := d.SetActiveLang(model.LangFR)
	assert.ErrorIs(t, err, ErrMultiLangDisabled)
	assert.Equal(t, model.LangEN, d.ActiveLang())

	d.SetAllowMultiLang(true)
	require.NoError(t, d.SetActiveLang(model.LangFR))
	assert.Equal(t, model.LangFR, d.ActiveLang())

	assert.ErrorIs(t, d.SetActiveLang("de"), ErrInvalidValue)
}

func TestToggleMultiLangOffResetsLanguage(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityTip))
	d.SetAllowMultiLang(true)
	require.NoError(t, d.SetActiveLang(model.LangFR))

	d.SetAllowMultiLang(false)
	assert.Equal(t, model.LangEN, d.ActiveLang())
}

func TestToggleMultiLangOffKeepsFrenchValues(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityTip))
	d.SetAllowMultiLang(true)
	require.NoError(t, d.SetActiveLang(model.LangFR))
	require.NoError(t, d.SetField("basicLayoutData", model.LangEN, "title", "Drink Water"))
	require.NoError(t, d.SetField("basicLayoutData", model.LangFR, "title", "Buvez"))

	d.SetAllowMultiLang(false)

	assert.Equal(t, model.LangEN, d.ActiveLang())
	assert.Equal(t, "Drink Water", mustField(t, d, "basicLayoutData", model.LangEN, "title"))
	assert.Equal(t, "Buvez", mustField(t, d, "basicLayoutData", model.LangFR, "title"))

	d.Reset()
	assert.Equal(t, "", mustField(t, d, "basicLayoutData", model.LangFR, "title"))
}

func TestSetFieldErrors(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityRecipe))

	assert.ErrorIs(t, d.SetField("nope", model.LangEN, "title", "x"), ErrUnknownSection)
	assert.ErrorIs(t, d.SetField("recipeData", model.LangEN, "nope", "x"), ErrUnknownField)
	assert.ErrorIs(t, d.SetField("recipeData", model.LangEN, "servings", true), ErrInvalidValue)
	assert.ErrorIs(t, d.SetField("recipeData", model.LangEN, "ingredients", []any{}), ErrRecordListField)
	assert.ErrorIs(t, d.SetField("recipeData", "xx", "title", "x"), ErrInvalidValue)
}

func TestFieldReturnsCopy(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityFood))
	require.NoError(t, d.SetField("foodData", model.LangEN, "concern", []string{"Sleep"}))

	v := mustField(t, d, "foodData", model.LangEN, "concern").([]string)
	v[0] = "Energy"
	assert.Equal(t, []string{"Sleep"}, mustField(t, d, "foodData", model.LangEN, "concern"))
}

// Change tracking in an edit flow: no changes when opened, changes after
// one edit, none again after a reset.
func TestEditDraftChangeGating(t *testing.T) {
	schema := mustSchema(t, model.EntityFood)
	d, err := NewEditDraft(schema, 7, Document{
		"foodData": {
			EN: FieldMap{"name": "Apple", "calories": "52"},
			FR: FieldMap{"name": "Pomme", "calories": "52"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ModeEdit, d.Mode())
	assert.True(t, d.AllowMultiLang())
	assert.False(t, d.HasChanges("foodData"))

	require.NoError(t, d.SetField("foodData", model.LangEN, "name", "Green Apple"))
	assert.True(t, d.HasChanges("foodData"))

	ch, err := d.Changes("foodData")
	require.NoError(t, err)
	assert.Equal(t, FieldMap{"name": "Green Apple"}, ch.EN)
	assert.Empty(t, ch.FR)

	payload, err := d.Payload("foodData")
	require.NoError(t, err)
	assert.Equal(t, ch, payload)

	d.Reset()
	assert.False(t, d.HasChanges("foodData"))
	assert.Equal(t, ModeCreate, d.Mode())
}

func TestSettingBackToBaselineClearsChange(t *testing.T) {
	d, err := NewEditDraft(mustSchema(t, model.EntityMood), 1, Document{
		"moodData": {EN: FieldMap{"title": "Calm"}, FR: FieldMap{"title": "Calme"}},
	})
	require.NoError(t, err)

	require.NoError(t, d.SetField("moodData", model.LangEN, "title", "Tense"))
	require.True(t, d.HasChanges("moodData"))
	require.NoError(t, d.SetField("moodData", model.LangEN, "title", "Calm"))
	assert.False(t, d.HasChanges("moodData"))
}

func TestCreatePayloadIsWholeSection(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityMood))
	require.NoError(t, d.SetField("moodData", model.LangEN, "title", "Calm"))

	p, err := d.Payload("moodData")
	require.NoError(t, err)
	assert.Len(t, p.EN, 6)
	assert.Len(t, p.FR, 6)
	assert.Equal(t, "Calm", p.EN["title"])
}

func TestRebaseOnlyAffectsSavedSection(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityTip))
	require.NoError(t, d.SetField("basicLayoutData", model.LangEN, "title", "Tip"))
	require.NoError(t, d.SetField("videoTipData", model.LangEN, "title", "Video"))

	require.NoError(t, d.Rebase("basicLayoutData", 42))

	assert.False(t, d.HasChanges("basicLayoutData"))
	assert.True(t, d.HasChanges("videoTipData"))
	assert.Equal(t, ModeEdit, d.Mode())
	assert.Equal(t, int64(42), d.RecordID())
	assert.Equal(t, "Video", mustField(t, d, "videoTipData", model.LangEN, "title"))
	assert.Equal(t, []string{"videoTipData"}, d.ChangedSections())
}

func TestResetSection(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityTip))
	require.NoError(t, d.SetField("basicLayoutData", model.LangEN, "title", "Tip"))
	require.NoError(t, d.SetField("videoTipData", model.LangEN, "title", "Video"))
	_, videoTok := d.taskContext("videoTipData")
	_, basicTok := d.taskContext("basicLayoutData")

	require.NoError(t, d.ResetSection("videoTipData"))

	assert.Equal(t, "", mustField(t, d, "videoTipData", model.LangEN, "title"))
	assert.Equal(t, "Tip", mustField(t, d, "basicLayoutData", model.LangEN, "title"))

	applied, err := d.applyIfCurrent(videoTok, func() error { return nil })
	require.NoError(t, err)
	assert.False(t, applied)
	applied, err = d.applyIfCurrent(basicTok, func() error { return nil })
	require.NoError(t, err)
	assert.True(t, applied)
	assert.ErrorIs(t, d.ResetSection("nope"), ErrUnknownSection)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	schema := mustSchema(t, model.EntityRecipe)
	d, err := NewEditDraft(schema, 3, Document{
		"recipeData": {
			EN: FieldMap{"title": "Porridge", "ingredients": []any{map[string]any{"id": "a", "name": "Oats"}}},
			FR: FieldMap{"title": "Porridge", "ingredients": []any{map[string]any{"id": "a", "name": "Avoine"}}},
		},
	})
	require.NoError(t, err)
	require.NoError(t, d.SetField("recipeData", model.LangEN, "servings", "2"))

	restored, err := restoreDraft(schema, d.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, ModeEdit, restored.Mode())
	assert.Equal(t, int64(3), restored.RecordID())
	assert.Equal(t, d.Document(), restored.Document())
	assert.True(t, restored.HasChanges("recipeData"))
}

func TestDisposedDraftRejectsMutations(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityMood))
	d.dispose()
	_, tok := d.taskContext("moodData")

	err := d.SetField("moodData", model.LangEN, "title", "x")
	assert.True(t, errors.Is(err, ErrDraftClosed))

	applied, err := d.applyIfCurrent(tok, func() error { return nil })
	assert.False(t, applied)
	assert.NoError(t, err)
}

func TestMutationsPersist(t *testing.T) {
	d := NewDraft(mustSchema(t, model.EntityMood))
	var states []State
	d.setPersist(func(st State) { states = append(states, st) })

	require.NoError(t, d.SetField("moodData", model.LangEN, "title", "Calm"))
	require.Error(t, d.SetField("moodData", model.LangEN, "nope", "x"))
	d.SetAllowMultiLang(true)

	require.Len(t, states, 2)
	assert.Equal(t, "Calm", states[0].Sections["moodData"].EN["title"])
	assert.True(t, states[1].AllowMultiLang)
}
