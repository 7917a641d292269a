// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/content"
)

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no draft", bilingual.ErrNoDraft, http.StatusNotFound, "no_draft"},
		{"closed draft", bilingual.ErrDraftClosed, http.StatusNotFound, "no_draft"},
		{"missing record", fmt.Errorf("loading: %w", content.ErrNotFound), http.StatusNotFound, "not_found"},
		{"unknown field", bilingual.ErrUnknownField, http.StatusBadRequest, "unknown_field"},
		{"unknown section", bilingual.ErrUnknownSection, http.StatusBadRequest, "unknown_field"},
		{"multilang", bilingual.ErrMultiLangDisabled, http.StatusConflict, "multilang_disabled"},
		{"bad value", bilingual.ErrInvalidValue, http.StatusBadRequest, "invalid_value"},
		{"index", bilingual.ErrIndexOutOfRange, http.StatusBadRequest, "invalid_value"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "test")

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			got := decodeEnvelope[any](t, rec.Result())
			require.NotNil(t, got.Error)
			assert.Equal(t, tt.code, got.Error.Code)
			assert.NotEmpty(t, got.Notification)
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret path /var/db"), "test")
	assert.NotContains(t, rec.Body.String(), "/var/db")
}

func TestDecodeJSON(t *testing.T) {
	var dst fieldRequest

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"section":"moodData","field":"title","value":"x"}`))
	require.True(t, decodeJSON(rec, req, &dst))
	assert.Equal(t, "title", dst.Field)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"section":`))
	assert.False(t, decodeJSON(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	big := `{"value":"` + strings.Repeat("a", maxJSONBody) + `"}`
	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(big))
	assert.False(t, decodeJSON(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	got := decodeEnvelope[any](t, resp)
	require.NotNil(t, got.Error)
	assert.Equal(t, "not_found", got.Error.Code)

	resp = env.do(http.MethodPatch, "/admin/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestAdminResponsesAreNotCached(t *testing.T) {
	env := newTestEnv(t)
	env.login()

	resp := env.do(http.MethodGet, "/admin/session", nil)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
}
