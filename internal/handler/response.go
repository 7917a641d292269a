// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the JSON handlers of the admin backend.
//
// Every response uses the same envelope: {data, meta, notification} on
// success and {error: {code, message, details}, notification} otherwise.
// The notification is a localized, user-facing sentence the admin UI shows
// as a toast.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/content"
	"github.com/olegiv/nutricms/internal/i18n"
	"github.com/olegiv/nutricms/internal/middleware"
	"github.com/olegiv/nutricms/internal/model"
)

// Response is the standard success envelope.
type Response struct {
	Data         any    `json:"data,omitempty"`
	Meta         *Meta  `json:"meta,omitempty"`
	Notification string `json:"notification,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages,omitempty"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error        ErrorDetail `json:"error"`
	Notification string      `json:"notification,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteNotice writes a 200 response carrying a notification.
func WriteNotice(w http.ResponseWriter, data any, notification string) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Notification: notification})
}

// WriteCreated writes a 201 response.
func WriteCreated(w http.ResponseWriter, data any, notification string) {
	WriteJSON(w, http.StatusCreated, Response{Data: data, Notification: notification})
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, statusCode int, code, message, notification string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
		Notification: notification,
	})
}

// notify localizes a notification into the language of the request.
func notify(r *http.Request, key string, args ...any) string {
	return i18n.T(middleware.GetLang(r), key, args...)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, notify(r, "notify.invalid_request"), nil)
}

func writeNotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, notify(r, "notify.not_found"), nil)
}

func writeInternalError(w http.ResponseWriter, r *http.Request, logMsg string, err error, args ...any) {
	slog.ErrorContext(r.Context(), logMsg, append([]any{"error", err, "path", r.URL.Path}, args...)...)
	WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", notify(r, "notify.internal_error"), nil)
}

// writeValidationError writes a 422 with field-scoped messages.
func writeValidationError(w http.ResponseWriter, r *http.Request, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "validation failed",
		notify(r, "notify.validation_failed"), fieldErrors)
}

// writeServiceError maps draft and content errors onto the envelope.
// Anything unrecognized is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string, args ...any) {
	switch {
	case errors.Is(err, bilingual.ErrNoDraft), errors.Is(err, bilingual.ErrDraftClosed):
		WriteError(w, http.StatusNotFound, "no_draft", err.Error(), notify(r, "notify.no_draft"), nil)
	case errors.Is(err, content.ErrNotFound):
		writeNotFound(w, r, err.Error())
	case errors.Is(err, bilingual.ErrUnknownSection), errors.Is(err, bilingual.ErrUnknownField):
		WriteError(w, http.StatusBadRequest, "unknown_field", err.Error(), notify(r, "notify.unknown_field"), nil)
	case errors.Is(err, bilingual.ErrMultiLangDisabled):
		WriteError(w, http.StatusConflict, "multilang_disabled", err.Error(), notify(r, "notify.multilang_disabled"), nil)
	case errors.Is(err, bilingual.ErrInvalidValue),
		errors.Is(err, bilingual.ErrNotMultiSelect),
		errors.Is(err, bilingual.ErrNotRecordList),
		errors.Is(err, bilingual.ErrRecordListField),
		errors.Is(err, bilingual.ErrIndexOutOfRange):
		WriteError(w, http.StatusBadRequest, "invalid_value", err.Error(), notify(r, "notify.invalid_request"), nil)
	default:
		writeInternalError(w, r, logMsg, err, args...)
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeBadRequest(w, r, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

// parseKind parses the {kind} URL parameter.
func parseKind(w http.ResponseWriter, r *http.Request) (model.EntityKind, bool) {
	kind, err := model.ParseEntityKind(chi.URLParam(r, paramKind))
	if err != nil {
		writeNotFound(w, r, err.Error())
		return "", false
	}
	return kind, true
}

// parseIDParam parses a positive int64 URL parameter.
func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, r, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt parses a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}
