// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/olegiv/nutricms/internal/model"
)

// Mode tells whether a draft creates a new record or edits an existing one.
type Mode string

// Draft modes
const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// State is the serializable form of a draft.
type State struct {
	Kind           model.EntityKind `json:"kind"`
	Mode           Mode             `json:"mode"`
	RecordID       int64            `json:"record_id,omitempty"`
	ActiveLang     model.Lang       `json:"active_lang"`
	AllowMultiLang bool             `json:"allow_multi_lang"`
	Sections       Document         `json:"sections"`
	Initial        Document         `json:"initial"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Draft is the in-progress bilingual content of one record.
//
// It keeps the live document next to an immutable snapshot of what the
// record looked like when the draft was opened; changes are derived from
// the difference between the two. All methods are safe for concurrent use.
type Draft struct {
	mu sync.Mutex

	schema         *model.EntitySchema
	mode           Mode
	recordID       int64
	doc            Document
	initial        Document
	activeLang     model.Lang
	allowMultiLang bool
	updatedAt      time.Time

	// generation changes on every full reset and ctx is cancelled with it.
	// sectionGen counts resets of single sections. Background work started
	// under an older count of either is discarded.
	generation uint64
	sectionGen map[string]uint64
	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool

	persist func(State)
}

// NewDraft returns an empty create-mode draft for the schema.
func NewDraft(schema *model.EntitySchema) *Draft {
	doc := NewDocument(schema)
	d := &Draft{
		schema:     schema,
		mode:       ModeCreate,
		doc:        doc,
		initial:    doc.Clone(),
		activeLang: model.DefaultLang,
		updatedAt:  time.Now(),
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// NewEditDraft returns a draft for an existing record. doc is normalized
// against the schema and becomes the change-tracking baseline.
func NewEditDraft(schema *model.EntitySchema, recordID int64, doc Document) (*Draft, error) {
	norm, err := NormalizeDocument(schema, doc)
	if err != nil {
		return nil, err
	}
	d := NewDraft(schema)
	d.mode = ModeEdit
	d.recordID = recordID
	d.doc = norm
	d.initial = norm.Clone()
	// Existing records already carry both languages.
	d.allowMultiLang = true
	return d, nil
}

// restoreDraft rebuilds a draft from its persisted state.
func restoreDraft(schema *model.EntitySchema, st State) (*Draft, error) {
	doc, err := NormalizeDocument(schema, st.Sections)
	if err != nil {
		return nil, fmt.Errorf("restoring sections: %w", err)
	}
	initial, err := NormalizeDocument(schema, st.Initial)
	if err != nil {
		return nil, fmt.Errorf("restoring baseline: %w", err)
	}
	d := NewDraft(schema)
	d.mode = st.Mode
	d.recordID = st.RecordID
	d.doc = doc
	d.initial = initial
	d.allowMultiLang = st.AllowMultiLang
	if st.ActiveLang.Valid() && (st.AllowMultiLang || st.ActiveLang == model.LangEN) {
		d.activeLang = st.ActiveLang
	}
	if !st.UpdatedAt.IsZero() {
		d.updatedAt = st.UpdatedAt
	}
	return d, nil
}

// Schema returns the entity schema of the draft.
func (d *Draft) Schema() *model.EntitySchema {
	return d.schema
}

// Kind returns the entity kind of the draft.
func (d *Draft) Kind() model.EntityKind {
	return d.schema.Kind
}

// Mode returns whether the draft creates or edits a record.
func (d *Draft) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// RecordID returns the edited record id, or 0 in create mode.
func (d *Draft) RecordID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recordID
}

// UpdatedAt returns the time of the last mutation.
func (d *Draft) UpdatedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updatedAt
}

// ActiveLang returns the language currently shown and edited.
func (d *Draft) ActiveLang() model.Lang {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeLang
}

// AllowMultiLang reports whether French entry is enabled.
func (d *Draft) AllowMultiLang() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allowMultiLang
}

// SetActiveLang switches the edited language. French is only reachable
// while multi-language entry is enabled.
func (d *Draft) SetActiveLang(lang model.Lang) error {
	if err := checkLang(lang); err != nil {
		return err
	}
	return d.mutate(func() error {
		if lang == model.LangFR && !d.allowMultiLang {
			return ErrMultiLangDisabled
		}
		d.activeLang = lang
		return nil
	})
}

// SetAllowMultiLang enables or disables French entry. Disabling it moves
// the draft back to English; French values are kept until the next reset.
func (d *Draft) SetAllowMultiLang(enabled bool) {
	_ = d.mutate(func() error {
		d.allowMultiLang = enabled
		if !enabled {
			d.activeLang = model.LangEN
		}
		return nil
	})
}

// SetField writes value into the field map of (section, lang). The value is
// coerced into the field's canonical type; no form validation happens here.
func (d *Draft) SetField(section string, lang model.Lang, field string, value any) error {
	if err := checkLang(lang); err != nil {
		return err
	}
	spec, err := d.fieldSpec(section, field)
	if err != nil {
		return err
	}
	if spec.Kind == model.FieldRecordList {
		return fmt.Errorf("%w: %s", ErrRecordListField, field)
	}
	v, err := Normalize(spec, value)
	if err != nil {
		return err
	}
	return d.mutate(func() error {
		d.doc[section].Get(lang)[field] = v
		return nil
	})
}

// Field returns a copy of the value of (section, lang, field).
func (d *Draft) Field(section string, lang model.Lang, field string) (any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fieldLocked(section, lang, field)
}

func (d *Draft) fieldLocked(section string, lang model.Lang, field string) (any, bool) {
	p, ok := d.doc[section]
	if !ok {
		return nil, false
	}
	v, ok := p.Get(lang)[field]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// Section returns a copy of the field map of (section, lang).
func (d *Draft) Section(section string, lang model.Lang) (FieldMap, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.doc[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	return p.Get(lang).Clone(), nil
}

// Document returns a copy of the whole live document.
func (d *Draft) Document() Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Clone()
}

// Reset returns the draft to an empty create-mode draft with default flags.
// Background work started before the reset is discarded.
func (d *Draft) Reset() {
	_ = d.mutate(func() error {
		d.bumpGeneration()
		d.mode = ModeCreate
		d.recordID = 0
		d.doc = NewDocument(d.schema)
		d.initial = d.doc.Clone()
		d.activeLang = model.DefaultLang
		d.allowMultiLang = false
		return nil
	})
}

// ResetSection restores one section to its defaults and leaves the other
// sections untouched. Only background work bound to this section is
// discarded.
func (d *Draft) ResetSection(section string) error {
	sec, ok := d.schema.Section(section)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	return d.mutate(func() error {
		if d.sectionGen == nil {
			d.sectionGen = make(map[string]uint64)
		}
		d.sectionGen[section]++
		d.doc[section] = defaultPair(sec)
		d.initial[section] = defaultPair(sec)
		return nil
	})
}

// Rebase makes the current values of a section its new baseline, so the
// section reports no changes. Used after a section has been saved.
func (d *Draft) Rebase(section string, recordID int64) error {
	if _, ok := d.schema.Section(section); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	return d.mutate(func() error {
		d.initial[section] = d.doc[section].Clone()
		if recordID != 0 {
			d.mode = ModeEdit
			d.recordID = recordID
		}
		return nil
	})
}

// Snapshot returns a deep copy of the draft state.
func (d *Draft) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Draft) stateLocked() State {
	return State{
		Kind:           d.schema.Kind,
		Mode:           d.mode,
		RecordID:       d.recordID,
		ActiveLang:     d.activeLang,
		AllowMultiLang: d.allowMultiLang,
		Sections:       d.doc.Clone(),
		Initial:        d.initial.Clone(),
		UpdatedAt:      d.updatedAt,
	}
}

// taskToken identifies the reset state a piece of background work on one
// section was started under.
type taskToken struct {
	section    string
	generation uint64
	sectionGen uint64
}

func (d *Draft) tokenLocked(section string) taskToken {
	return taskToken{section: section, generation: d.generation, sectionGen: d.sectionGen[section]}
}

// taskContext returns the context and token background work on section must
// be bound to.
func (d *Draft) taskContext(section string) (context.Context, taskToken) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx, d.tokenLocked(section)
}

// snapshotField reads a field and the task token under one lock, so a reset
// cannot land between the two.
func (d *Draft) snapshotField(section string, lang model.Lang, field string) (any, taskToken) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, _ := d.fieldLocked(section, lang, field)
	return v, d.tokenLocked(section)
}

// applyIfCurrent runs fn under the draft lock if neither the draft nor the
// token's section was reset since tok was taken. It reports whether fn ran.
func (d *Draft) applyIfCurrent(tok taskToken, fn func() error) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.tokenLocked(tok.section) != tok {
		return false, nil
	}
	if err := fn(); err != nil {
		return true, err
	}
	d.touchLocked()
	return true, nil
}

// dispose cancels background work and detaches persistence.
func (d *Draft) dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bumpGeneration()
	d.closed = true
	d.persist = nil
}

// setPersist installs the hook called with the new state after each mutation.
func (d *Draft) setPersist(fn func(State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.persist = fn
}

func (d *Draft) bumpGeneration() {
	d.generation++
	d.cancel()
	d.ctx, d.cancel = context.WithCancel(context.Background())
}

// mutate runs fn under the lock and persists the resulting state. fn
// returning an error leaves nothing persisted.
func (d *Draft) mutate(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDraftClosed
	}
	if err := fn(); err != nil {
		return err
	}
	d.touchLocked()
	return nil
}

func (d *Draft) touchLocked() {
	d.updatedAt = time.Now()
	if d.persist != nil {
		d.persist(d.stateLocked())
	}
}

func (d *Draft) fieldSpec(section, field string) (model.FieldSpec, error) {
	sec, ok := d.schema.Section(section)
	if !ok {
		return model.FieldSpec{}, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	f, ok := sec.Field(field)
	if !ok {
		return model.FieldSpec{}, fmt.Errorf("%w: %s.%s", ErrUnknownField, section, field)
	}
	return f, nil
}

// Changes returns the fields of a section whose value differs from the
// baseline, per language. Fields that did not change are absent.
func (d *Draft) Changes(section string) (*Pair, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.doc[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	base := d.initial[section]
	return &Pair{
		EN: diffFieldMap(base.EN, cur.EN),
		FR: diffFieldMap(base.FR, cur.FR),
	}, nil
}

// HasChanges reports whether any field of the section changed in either language.
func (d *Draft) HasChanges(section string) bool {
	p, err := d.Changes(section)
	if err != nil {
		return false
	}
	return !p.Empty()
}

// ChangedSections lists the sections holding changes, in schema order.
func (d *Draft) ChangedSections() []string {
	var out []string
	for _, sec := range d.schema.Sections {
		if d.HasChanges(sec.Name) {
			out = append(out, sec.Name)
		}
	}
	return out
}

// Payload returns what a save of the section must send: the whole pair in
// create mode, only the changed fields in edit mode.
func (d *Draft) Payload(section string) (*Pair, error) {
	if d.Mode() == ModeEdit {
		return d.Changes(section)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.doc[section]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	return p.Clone(), nil
}

func diffFieldMap(base, cur FieldMap) FieldMap {
	out := FieldMap{}
	for k, v := range cur {
		if old, ok := base[k]; !ok || !valuesEqual(old, v) {
			out[k] = cloneValue(v)
		}
	}
	return out
}

func checkLang(lang model.Lang) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: language %q", ErrInvalidValue, lang)
	}
	return nil
}
