// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/olegiv/nutricms/internal/media"
)

// MediaHandler deletes uploaded images.
type MediaHandler struct {
	images media.ImageStore
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(images media.ImageStore) *MediaHandler {
	return &MediaHandler{images: images}
}

// Delete handles DELETE /admin/media?url=/uploads/<folder>/<file>.
// Deleting an image that is already gone succeeds.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		writeBadRequest(w, r, "url is required")
		return
	}

	if err := h.images.Delete(r.Context(), url); err != nil {
		if errors.Is(err, media.ErrForeignURL) {
			writeBadRequest(w, r, err.Error())
			return
		}
		writeInternalError(w, r, "failed to delete image", err, "url", url)
		return
	}
	WriteNotice(w, nil, notify(r, "notify.image_deleted"))
}
