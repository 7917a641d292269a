// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/content"
	"github.com/olegiv/nutricms/internal/media"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/session"
	"github.com/olegiv/nutricms/internal/validation"
)

// RecordStore is the entity API the draft endpoints load from and save to.
type RecordStore interface {
	Get(ctx context.Context, kind model.EntityKind, id int64) (*content.Entity, error)
	Create(ctx context.Context, kind model.EntityKind, doc bilingual.Document, createdBy int64) (*content.Entity, error)
	Update(ctx context.Context, kind model.EntityKind, id int64, partial bilingual.Document) (*content.Entity, error)
}

// DraftsHandler exposes the draft workspace of the signed-in admin: one
// draft per entity kind, edited field by field.
type DraftsHandler struct {
	sm        *scs.SessionManager
	drafts    *bilingual.Manager
	sync      *bilingual.Synchronizer
	records   RecordStore
	validator *validation.Validator
	images    media.ImageStore
	logger    *slog.Logger
}

// NewDraftsHandler creates a new DraftsHandler.
func NewDraftsHandler(
	sm *scs.SessionManager,
	drafts *bilingual.Manager,
	sync *bilingual.Synchronizer,
	records RecordStore,
	validator *validation.Validator,
	images media.ImageStore,
	logger *slog.Logger,
) *DraftsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftsHandler{
		sm:        sm,
		drafts:    drafts,
		sync:      sync,
		records:   records,
		validator: validator,
		images:    images,
		logger:    logger,
	}
}

// DraftView is the state of a draft as the admin UI renders it.
type DraftView struct {
	Kind           model.EntityKind   `json:"kind"`
	Mode           bilingual.Mode     `json:"mode"`
	RecordID       int64              `json:"recordId,omitempty"`
	ActiveLang     model.Lang         `json:"activeLang"`
	AllowMultiLang bool               `json:"allowMultiLang"`
	Sections       bilingual.Document `json:"sections"`
	HasChanges     map[string]bool    `json:"hasChanges"`
	// ChangedSections lists the sections with unsaved changes in schema order.
	ChangedSections []string                   `json:"changedSections"`
	Changes         map[string]*bilingual.Pair `json:"changes,omitempty"`
}

func newDraftView(d *bilingual.Draft) DraftView {
	st := d.Snapshot()
	v := DraftView{
		Kind:            st.Kind,
		Mode:            st.Mode,
		RecordID:        st.RecordID,
		ActiveLang:      st.ActiveLang,
		AllowMultiLang:  st.AllowMultiLang,
		Sections:        st.Sections,
		HasChanges:      make(map[string]bool, len(st.Sections)),
		ChangedSections: []string{},
	}
	if changed := d.ChangedSections(); changed != nil {
		v.ChangedSections = changed
	}
	for _, sec := range d.Schema().Sections {
		v.HasChanges[sec.Name] = slices.Contains(v.ChangedSections, sec.Name)
		// Only edits send partial payloads, so only they list changed fields.
		if st.Mode == bilingual.ModeEdit && v.HasChanges[sec.Name] {
			if v.Changes == nil {
				v.Changes = make(map[string]*bilingual.Pair)
			}
			v.Changes[sec.Name], _ = d.Changes(sec.Name)
		}
	}
	return v
}

// token returns the session token scoping the drafts of the request.
func (h *DraftsHandler) token(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := session.Token(r.Context(), h.sm)
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "no session", notify(r, "notify.unauthorized"), nil)
		return "", false
	}
	return token, true
}

// draft loads the open draft named by the request.
func (h *DraftsHandler) draft(w http.ResponseWriter, r *http.Request) (*bilingual.Draft, bool) {
	kind, ok := parseKind(w, r)
	if !ok {
		return nil, false
	}
	token, ok := h.token(w, r)
	if !ok {
		return nil, false
	}
	d, err := h.drafts.Get(r.Context(), token, kind)
	if err != nil {
		writeServiceError(w, r, err, "failed to load draft", "kind", kind)
		return nil, false
	}
	return d, true
}

// Open handles POST /admin/drafts/{kind}. It resumes the unsaved create
// draft of the session or starts an empty one.
func (h *DraftsHandler) Open(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	token, ok := h.token(w, r)
	if !ok {
		return
	}
	d, err := h.drafts.Open(r.Context(), token, kind)
	if err != nil {
		writeServiceError(w, r, err, "failed to open draft", "kind", kind)
		return
	}
	WriteSuccess(w, newDraftView(d), nil)
}

// OpenEdit handles POST /admin/drafts/{kind}/edit/{id}. Any draft of the
// same kind the session had open is replaced.
func (h *DraftsHandler) OpenEdit(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, paramID)
	if !ok {
		return
	}
	token, ok := h.token(w, r)
	if !ok {
		return
	}

	entity, err := h.records.Get(r.Context(), kind, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load record", "kind", kind, "id", id)
		return
	}
	d, err := h.drafts.OpenForEdit(r.Context(), token, kind, id, entity.Document)
	if err != nil {
		writeServiceError(w, r, err, "failed to open edit draft", "kind", kind, "id", id)
		return
	}
	WriteSuccess(w, newDraftView(d), nil)
}

// Get handles GET /admin/drafts/{kind}.
func (h *DraftsHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, newDraftView(d), nil)
}

// Cancel handles DELETE /admin/drafts/{kind}. Late translations of the
// discarded draft are dropped.
func (h *DraftsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	token, ok := h.token(w, r)
	if !ok {
		return
	}
	if err := h.drafts.Close(r.Context(), token, kind); err != nil {
		writeServiceError(w, r, err, "failed to close draft", "kind", kind)
		return
	}
	WriteNotice(w, nil, notify(r, "notify.discarded"))
}

type fieldRequest struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   any    `json:"value"`
}

// Change handles PUT /admin/drafts/{kind}/fields: the admin typed or
// picked a value in the active language.
func (h *DraftsHandler) Change(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.sync.Change(r.Context(), d, req.Section, d.ActiveLang(), req.Field, req.Value); err != nil {
		writeServiceError(w, r, err, "failed to change field", "kind", d.Kind(), "field", req.Field)
		return
	}
	WriteSuccess(w, newDraftView(d), nil)
}

// Commit handles POST /admin/drafts/{kind}/fields/commit: the admin left
// the field, so the opposite language is brought in line. A failed
// translation leaves French as it was and is not reported as an error.
func (h *DraftsHandler) Commit(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.sync.Commit(r.Context(), d, req.Section, d.ActiveLang(), req.Field); err != nil {
		writeServiceError(w, r, err, "failed to commit field", "kind", d.Kind(), "field", req.Field)
		return
	}
	WriteSuccess(w, newDraftView(d), nil)
}

// Toggle handles POST /admin/drafts/{kind}/fields/toggle.
func (h *DraftsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req fieldRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	value, isString := req.Value.(string)
	if !isString || value == "" {
		writeBadRequest(w, r, "value must be a non-empty string")
		return
	}
	if err := h.sync.Toggle(r.Context(), d, req.Section, d.ActiveLang(), req.Field, value); err != nil {
		writeServiceError(w, r, err, "failed to toggle option", "kind", d.Kind(), "field", req.Field)
		return
	}
	WriteSuccess(w, newDraftView(d), nil)
}

type itemRequest struct {
	Section string         `json:"section"`
	Field   string         `json:"field"`
	Item    map[string]any `json:"item"`
}

// ItemResult is the draft after a record list operation.
type ItemResult struct {
	Index int       `json:"index"`
	Draft DraftView `json:"draft"`
}

// AppendItem handles POST /admin/drafts/{kind}/items.
func (h *DraftsHandler) AppendItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	index, err := h.sync.AppendItem(r.Context(), d, req.Section, d.ActiveLang(), req.Field, req.Item)
	if err != nil {
		writeServiceError(w, r, err, "failed to append item", "kind", d.Kind(), "field", req.Field)
		return
	}
	WriteJSON(w, http.StatusCreated, Response{Data: ItemResult{Index: index, Draft: newDraftView(d)}})
}

// UpdateItem handles PUT /admin/drafts/{kind}/items/{index}.
func (h *DraftsHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.sync.UpdateItem(r.Context(), d, req.Section, d.ActiveLang(), req.Field, index, req.Item); err != nil {
		writeServiceError(w, r, err, "failed to update item", "kind", d.Kind(), "field", req.Field)
		return
	}
	WriteSuccess(w, ItemResult{Index: index, Draft: newDraftView(d)}, nil)
}

// RemoveItem handles DELETE /admin/drafts/{kind}/items/{index}?section=&field=.
// The item is removed from both languages.
func (h *DraftsHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	index, ok := parseIndex(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if err := h.sync.RemoveItem(d, q.Get("section"), q.Get("field"), index); err != nil {
		writeServiceError(w, r, err, "failed to remove item", "kind", d.Kind(), "field", q.Get("field"))
		return
	}
	WriteSuccess(w, ItemResult{Index: index, Draft: newDraftView(d)}, nil)
}

func parseIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, paramIndex))
	if err != nil || index < 0 {
		writeBadRequest(w, r, "invalid index")
		return 0, false
	}
	return index, true
}

// SetLang handles PUT /admin/drafts/{kind}/lang.
func (h *DraftsHandler) SetLang(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req languageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lang, err := model.ParseLang(req.Lang)
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}
	if err := d.SetActiveLang(lang); err != nil {
		writeServiceError(w, r, err, "failed to switch language", "kind", d.Kind())
		return
	}
	WriteSuccess(w, newDraftView(d), nil)
}

type multiLangRequest struct {
	Enabled bool `json:"enabled"`
}

// SetMultiLang handles PUT /admin/drafts/{kind}/multilang.
func (h *DraftsHandler) SetMultiLang(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req multiLangRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	d.SetAllowMultiLang(req.Enabled)
	WriteSuccess(w, newDraftView(d), nil)
}
