// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/content"
	"github.com/olegiv/nutricms/internal/i18n"
	"github.com/olegiv/nutricms/internal/media"
	"github.com/olegiv/nutricms/internal/metrics"
	"github.com/olegiv/nutricms/internal/middleware"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/validation"
)

type sectionRequest struct {
	Section string `json:"section"`
}

// validateSection validates the active language of a section. It writes
// the response and returns false when the section is unknown or invalid.
func (h *DraftsHandler) validateSection(w http.ResponseWriter, r *http.Request, d *bilingual.Draft, section string) bool {
	lang := d.ActiveLang()
	fm, err := d.Section(section, lang)
	if err != nil {
		writeServiceError(w, r, err, "failed to read section", "kind", d.Kind(), "section", section)
		return false
	}
	if err := h.validator.ValidateSection(d.Schema(), section, lang, fm); err != nil {
		writeValidationError(w, r, validation.LocalizedFieldErrors(err, validationMessages(middleware.GetLang(r))))
		return false
	}
	return true
}

// validationMessages translates validation error codes, keeping the
// library message for codes without a translation.
func validationMessages(lang string) func(code, message string) string {
	return func(code, message string) string {
		if msg, ok := i18n.Lookup(lang, code); ok {
			return msg
		}
		return message
	}
}

// Validate handles POST /admin/drafts/{kind}/validate.
func (h *DraftsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !h.validateSection(w, r, d, req.Section) {
		return
	}
	WriteSuccess(w, map[string]bool{"valid": true}, nil)
}

// SaveResult is the saved record and the draft after the save.
type SaveResult struct {
	Record *content.Entity `json:"record"`
	Draft  DraftView       `json:"draft"`
}

// Save handles POST /admin/drafts/{kind}/save. Only the named section is
// validated and saved; other sections of the draft are left untouched. A
// create draft stores the section as a new record and starts the section
// over, an edit draft sends the changed fields only.
func (h *DraftsHandler) Save(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	var req sectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	kind := d.Kind()
	if !h.validateSection(w, r, d, req.Section) {
		metrics.ObserveSave(string(kind), metrics.ResultRejected)
		return
	}

	payload, err := d.Payload(req.Section)
	if err != nil {
		writeServiceError(w, r, err, "failed to build payload", "kind", kind, "section", req.Section)
		return
	}
	doc := bilingual.Document{req.Section: payload}

	if d.Mode() == bilingual.ModeCreate {
		entity, err := h.records.Create(r.Context(), kind, doc, middleware.GetUserID(r))
		if err != nil {
			h.writeSaveError(w, r, err, kind)
			return
		}
		if err := d.ResetSection(req.Section); err != nil {
			writeServiceError(w, r, err, "failed to reset section", "kind", kind, "section", req.Section)
			return
		}
		metrics.ObserveSave(string(kind), metrics.ResultOK)
		WriteCreated(w, SaveResult{Record: entity, Draft: newDraftView(d)}, notify(r, "notify.created"))
		return
	}

	if payload.Empty() {
		WriteNotice(w, SaveResult{Draft: newDraftView(d)}, notify(r, "notify.no_changes"))
		return
	}
	entity, err := h.records.Update(r.Context(), kind, d.RecordID(), doc)
	if errors.Is(err, content.ErrEmptyPayload) {
		WriteNotice(w, SaveResult{Draft: newDraftView(d)}, notify(r, "notify.no_changes"))
		return
	}
	if err != nil {
		h.writeSaveError(w, r, err, kind)
		return
	}
	if err := d.Rebase(req.Section, 0); err != nil {
		writeServiceError(w, r, err, "failed to rebase section", "kind", kind, "section", req.Section)
		return
	}
	metrics.ObserveSave(string(kind), metrics.ResultOK)
	WriteNotice(w, SaveResult{Record: entity, Draft: newDraftView(d)}, notify(r, "notify.saved"))
}

// writeSaveError reports a failed create or update. The draft keeps its
// content so the admin can retry.
func (h *DraftsHandler) writeSaveError(w http.ResponseWriter, r *http.Request, err error, kind model.EntityKind) {
	switch {
	case errors.Is(err, content.ErrNotFound):
		metrics.ObserveSave(string(kind), metrics.ResultFailed)
		writeNotFound(w, r, err.Error())
	case errors.Is(err, bilingual.ErrInvalidValue):
		metrics.ObserveSave(string(kind), metrics.ResultRejected)
		WriteError(w, http.StatusBadRequest, "invalid_value", err.Error(), notify(r, "notify.save_failed"), nil)
	default:
		metrics.ObserveSave(string(kind), metrics.ResultFailed)
		h.logger.ErrorContext(r.Context(), "failed to save record",
			"kind", kind, "error", err, "category", model.EventCategoryContent)
		WriteError(w, http.StatusInternalServerError, "save_failed", "save failed", notify(r, "notify.save_failed"), nil)
	}
}

// uploadFormOverhead is the room left for the multipart envelope and the
// text fields around the image.
const uploadFormOverhead = 1 << 20

// Upload handles POST /admin/drafts/{kind}/upload, a multipart form with
// section, field and file. The stored image URL is written into the field
// and copied to the other language. A failed upload leaves the field unset.
func (h *DraftsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+uploadFormOverhead)
	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeUploadError(w, r, media.ErrTooLarge)
			return
		}
		writeBadRequest(w, r, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	section, field := r.FormValue("section"), r.FormValue("field")
	spec, found := d.Schema().Field(section, field)
	if !found {
		writeServiceError(w, r, bilingual.ErrUnknownField, "unknown upload field")
		return
	}
	if spec.Kind != model.FieldImage {
		writeBadRequest(w, r, field+" is not an image field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, r, "missing file")
		return
	}
	defer func() { _ = file.Close() }()

	nameHint := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	url, err := h.images.Upload(r.Context(), file, d.Schema().Folder, nameHint)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}

	lang := d.ActiveLang()
	if err := h.sync.Change(r.Context(), d, section, lang, field, url); err != nil {
		writeServiceError(w, r, err, "failed to set image field", "kind", d.Kind(), "field", field)
		return
	}
	if err := h.sync.Commit(r.Context(), d, section, lang, field); err != nil {
		writeServiceError(w, r, err, "failed to mirror image field", "kind", d.Kind(), "field", field)
		return
	}
	WriteCreated(w, UploadResult{URL: url, Draft: newDraftView(d)}, "")
}

// UploadResult is the stored image and the draft it was written into.
type UploadResult struct {
	URL   string    `json:"url"`
	Draft DraftView `json:"draft"`
}

func (h *DraftsHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", err.Error(),
			notify(r, "notify.image_too_large", media.MaxUploadSize>>20), nil)
	case errors.Is(err, media.ErrNotImage):
		WriteError(w, http.StatusUnsupportedMediaType, "not_image", err.Error(), notify(r, "notify.not_image"), nil)
	default:
		h.logger.ErrorContext(r.Context(), "image upload failed", "error", err, "category", model.EventCategoryMedia)
		WriteError(w, http.StatusInternalServerError, "upload_failed", "upload failed", notify(r, "notify.upload_failed"), nil)
	}
}
