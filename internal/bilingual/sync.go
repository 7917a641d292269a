// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/nutricms/internal/metrics"
	"github.com/olegiv/nutricms/internal/model"
)

// Translator renders English text in French.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// DefaultTranslateTimeout bounds a single background translation.
const DefaultTranslateTimeout = 30 * time.Second

// Synchronizer applies the mirroring policy: it decides what happens in the
// opposite language whenever a field of the active language changes.
//
//   - language-agnostic fields are copied verbatim on commit
//   - free text is machine translated from English on commit
//   - closed-vocabulary fields are mirrored on change through their vocabulary
//   - record lists stay index-aligned; item names are translated in the background
type Synchronizer struct {
	translator   Translator
	vocabularies Vocabularies
	logger       *slog.Logger
	timeout      time.Duration

	wg sync.WaitGroup
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(translator Translator, vocabularies Vocabularies, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		translator:   translator,
		vocabularies: vocabularies,
		logger:       logger,
		timeout:      DefaultTranslateTimeout,
	}
}

// Vocabularies returns the option tables used for closed-vocabulary fields.
func (s *Synchronizer) Vocabularies() Vocabularies {
	return s.vocabularies
}

// Wait blocks until all background translations have finished.
func (s *Synchronizer) Wait() {
	s.wg.Wait()
}

// Change writes value into the active language. Closed-vocabulary values are
// mirrored into the opposite language right away.
func (s *Synchronizer) Change(ctx context.Context, d *Draft, section string, lang model.Lang, field string, value any) error {
	if err := checkLang(lang); err != nil {
		return err
	}
	spec, err := d.fieldSpec(section, field)
	if err != nil {
		return err
	}
	if spec.Category() == model.CategoryRecordList {
		return fmt.Errorf("%w: %s", ErrRecordListField, field)
	}
	v, err := Normalize(spec, value)
	if err != nil {
		return err
	}

	if spec.Category() != model.CategoryClosedVocabulary {
		return d.SetField(section, lang, field, v)
	}

	mirrored := s.mirrorOptions(ctx, spec, v, lang)
	return d.mutate(func() error {
		p := d.doc[section]
		p.Get(lang)[field] = v
		p.Get(lang.Opposite())[field] = mirrored
		return nil
	})
}

// Toggle adds value to a multi-select of the active language, or removes it
// when already selected, and mirrors the resulting list.
func (s *Synchronizer) Toggle(ctx context.Context, d *Draft, section string, lang model.Lang, field, value string) error {
	spec, err := d.fieldSpec(section, field)
	if err != nil {
		return err
	}
	if spec.Kind != model.FieldMultiSelect {
		return fmt.Errorf("%w: %s", ErrNotMultiSelect, field)
	}
	cur, _ := d.Field(section, lang, field)
	list, _ := cur.([]string)

	if i := slices.Index(list, value); i >= 0 {
		list = slices.Delete(list, i, i+1)
	} else {
		list = append(list, value)
	}
	return s.Change(ctx, d, section, lang, field, list)
}

// mirrorOptions renders a closed-vocabulary value in the opposite language.
// Values outside the vocabulary are copied verbatim.
func (s *Synchronizer) mirrorOptions(ctx context.Context, spec model.FieldSpec, v any, from model.Lang) any {
	vocab, ok := s.vocabularies.Get(spec.Vocabulary)
	to := from.Opposite()
	one := func(val string) string {
		if val == "" || !ok {
			return val
		}
		out, found := vocab.Translate(val, from, to)
		if !found {
			s.logger.DebugContext(ctx, "option outside vocabulary copied verbatim",
				"vocabulary", spec.Vocabulary, "field", spec.Name, "value", val)
			return val
		}
		return out
	}

	switch t := v.(type) {
	case string:
		return one(t)
	case []string:
		out := make([]string, len(t))
		for i, val := range t {
			out[i] = one(val)
		}
		return out
	default:
		return v
	}
}

// Commit is the blur step of a field edited in lang. Language-agnostic values
// are copied into the opposite language; English free text is translated
// into French. Translation failures are logged and leave French unchanged.
func (s *Synchronizer) Commit(ctx context.Context, d *Draft, section string, lang model.Lang, field string) error {
	if err := checkLang(lang); err != nil {
		return err
	}
	spec, err := d.fieldSpec(section, field)
	if err != nil {
		return err
	}

	switch spec.Category() {
	case model.CategoryAgnostic:
		v, _ := d.Field(section, lang, field)
		return d.mutate(func() error {
			d.doc[section].Get(lang.Opposite())[field] = v
			return nil
		})

	case model.CategoryFreeText:
		if lang != model.LangEN {
			return nil
		}
		v, tok := d.snapshotField(section, lang, field)
		text, _ := v.(string)
		if strings.TrimSpace(text) == "" {
			return nil
		}
		translated, ok := s.translate(ctx, d, text, "field", field)
		if !ok {
			return nil
		}
		_, err := d.applyIfCurrent(tok, func() error {
			d.doc[section].FR[field] = translated
			return nil
		})
		return err

	default:
		// Closed vocabularies are mirrored on change; record lists per item.
		return nil
	}
}

// translate calls the translator and records the outcome. ok is false on
// failure; the failure is logged, never returned.
func (s *Synchronizer) translate(ctx context.Context, d *Draft, text string, attrs ...any) (string, bool) {
	if s.translator == nil {
		return "", false
	}
	out, err := s.translator.Translate(ctx, text)
	if err != nil {
		metrics.ObserveTranslation(metrics.ResultFailed)
		args := append([]any{"category", model.EventCategoryTranslation, "kind", d.Kind(), "error", err}, attrs...)
		s.logger.WarnContext(ctx, "translation failed, french left unsynchronized", args...)
		return "", false
	}
	metrics.ObserveTranslation(metrics.ResultOK)
	return out, true
}

func (s *Synchronizer) listSpec(d *Draft, section, field string) (model.FieldSpec, error) {
	spec, err := d.fieldSpec(section, field)
	if err != nil {
		return spec, err
	}
	if spec.Kind != model.FieldRecordList {
		return spec, fmt.Errorf("%w: %s", ErrNotRecordList, field)
	}
	return spec, nil
}

// AppendItem appends item to the list of the active language and a copy to
// the opposite list at the same index, so both lists keep the same length.
// An English item name is translated in the background and replaces the
// name of the French copy when it resolves. It returns the item index.
func (s *Synchronizer) AppendItem(ctx context.Context, d *Draft, section string, lang model.Lang, field string, item map[string]any) (int, error) {
	if err := checkLang(lang); err != nil {
		return 0, err
	}
	spec, err := s.listSpec(d, section, field)
	if err != nil {
		return 0, err
	}
	rec, err := NormalizeRecord(spec, item)
	if err != nil {
		return 0, err
	}
	if id, _ := rec["id"].(string); id == "" {
		if _, hasID := spec.Item("id"); hasID {
			rec["id"] = uuid.NewString()
		}
	}

	var index int
	err = d.mutate(func() error {
		p := d.doc[section]
		active := p.Get(lang)[field].([]Record)
		opposite := p.Get(lang.Opposite())[field].([]Record)
		index = len(active)
		p.Get(lang)[field] = append(active, rec)
		p.Get(lang.Opposite())[field] = append(opposite, rec.Clone())
		return nil
	})
	if err != nil {
		return 0, err
	}

	if lang == model.LangEN {
		name, _ := rec[spec.ItemName].(string)
		s.translateItemName(ctx, d, section, spec, rec, name)
	}
	return index, nil
}

// UpdateItem replaces the item at index in the active language. Fields other
// than the item name are copied to the opposite list at the same index; a
// changed English name is translated in the background.
func (s *Synchronizer) UpdateItem(ctx context.Context, d *Draft, section string, lang model.Lang, field string, index int, item map[string]any) error {
	if err := checkLang(lang); err != nil {
		return err
	}
	spec, err := s.listSpec(d, section, field)
	if err != nil {
		return err
	}
	rec, err := NormalizeRecord(spec, item)
	if err != nil {
		return err
	}

	nameChanged := false
	err = d.mutate(func() error {
		p := d.doc[section]
		active := p.Get(lang)[field].([]Record)
		opposite := p.Get(lang.Opposite())[field].([]Record)
		if index < 0 || index >= len(active) || index >= len(opposite) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		if id, _ := rec["id"].(string); id == "" {
			rec["id"] = active[index]["id"]
		}
		nameChanged = !valuesEqual(active[index][spec.ItemName], rec[spec.ItemName])

		mirror := rec.Clone()
		mirror[spec.ItemName] = opposite[index][spec.ItemName]

		active[index] = rec
		opposite[index] = mirror
		return nil
	})
	if err != nil {
		return err
	}

	if lang == model.LangEN && nameChanged {
		name, _ := rec[spec.ItemName].(string)
		s.translateItemName(ctx, d, section, spec, rec, name)
	}
	return nil
}

// RemoveItem removes the item at index from both languages.
func (s *Synchronizer) RemoveItem(d *Draft, section, field string, index int) error {
	if _, err := s.listSpec(d, section, field); err != nil {
		return err
	}
	return d.mutate(func() error {
		p := d.doc[section]
		en := p.EN[field].([]Record)
		fr := p.FR[field].([]Record)
		if index < 0 || index >= len(en) || index >= len(fr) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}
		p.EN[field] = slices.Delete(en, index, index+1)
		p.FR[field] = slices.Delete(fr, index, index+1)
		return nil
	})
}

// translateItemName translates an item name in the background. The result is
// applied to the French item with the same id, provided neither the draft
// nor its section has been reset, and the draft is still open.
func (s *Synchronizer) translateItemName(ctx context.Context, d *Draft, section string, spec model.FieldSpec, rec Record, name string) {
	if strings.TrimSpace(name) == "" || s.translator == nil {
		return
	}
	id, _ := rec["id"].(string)
	draftCtx, tok := d.taskContext(section)
	logCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		tctx, cancel := context.WithTimeout(draftCtx, s.timeout)
		defer cancel()

		translated, ok := s.translate(tctx, d, name, "field", spec.Name, "item", id)
		if !ok {
			return
		}
		applied, err := d.applyIfCurrent(tok, func() error {
			fr := d.doc[section].FR[spec.Name].([]Record)
			for _, r := range fr {
				if r["id"] == id {
					r[spec.ItemName] = translated
					return nil
				}
			}
			return errItemGone
		})
		if !applied || err != nil {
			s.logger.DebugContext(logCtx, "discarded late item translation",
				"kind", d.Kind(), "field", spec.Name, "item", id)
		}
	}()
}

var errItemGone = errors.New("item no longer in list")
