// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strings"

	"github.com/olegiv/nutricms/internal/content"
	"github.com/olegiv/nutricms/internal/model"
)

// ContentHandler lists, shows, deletes and previews saved records.
type ContentHandler struct {
	content   *content.Service
	previewer *content.Previewer
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(svc *content.Service, previewer *content.Previewer) *ContentHandler {
	return &ContentHandler{content: svc, previewer: previewer}
}

// List handles GET /admin/content/{kind}?page=&per_page=&search=.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	perPage := min(queryInt(r, "per_page", content.DefaultPerPage), content.MaxPerPage)
	page, err := h.content.List(r.Context(), kind, content.ListParams{
		Page:    queryInt(r, "page", 1),
		PerPage: perPage,
		Search:  strings.TrimSpace(r.URL.Query().Get("search")),
	})
	if err != nil {
		writeServiceError(w, r, err, "failed to list records", "kind", kind)
		return
	}

	pages := int((page.Total + int64(page.PerPage) - 1) / int64(page.PerPage))
	WriteSuccess(w, page.Items, &Meta{
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		Pages:   max(pages, 1),
	})
}

// Get handles GET /admin/content/{kind}/{id}.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, paramID)
	if !ok {
		return
	}
	entity, err := h.content.Get(r.Context(), kind, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load record", "kind", kind, "id", id)
		return
	}
	WriteSuccess(w, entity, nil)
}

// Delete handles DELETE /admin/content/{kind}/{id}. Images of the record
// are left to the orphan sweep.
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, paramID)
	if !ok {
		return
	}
	if err := h.content.Delete(r.Context(), kind, id); err != nil {
		writeServiceError(w, r, err, "failed to delete record", "kind", kind, "id", id)
		return
	}
	WriteNotice(w, nil, notify(r, "notify.deleted"))
}

// Preview handles GET /admin/content/{kind}/{id}/preview?lang=fr.
func (h *ContentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseKind(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r, paramID)
	if !ok {
		return
	}
	lang := model.DefaultLang
	if q := r.URL.Query().Get("lang"); q != "" {
		l, err := model.ParseLang(q)
		if err != nil {
			writeBadRequest(w, r, err.Error())
			return
		}
		lang = l
	}

	entity, err := h.content.Get(r.Context(), kind, id)
	if err != nil {
		writeServiceError(w, r, err, "failed to load record", "kind", kind, "id", id)
		return
	}
	previews, err := h.previewer.Render(entity, lang)
	if err != nil {
		writeInternalError(w, r, "failed to render preview", err, "kind", kind, "id", id)
		return
	}
	WriteSuccess(w, previews, nil)
}
