// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/nutricms/internal/i18n"
	"github.com/olegiv/nutricms/internal/session"
)

// Language resolves the language of notifications and error messages.
// Priority order:
// 1. Query parameter ?ui=XX
// 2. The language stored in the session
// 3. Accept-Language header
// 4. The default language
//
// It is independent of the content language being edited in a draft.
func Language(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := resolveLanguage(r, sm)
			ctx := context.WithValue(r.Context(), ContextKeyLang, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveLanguage(r *http.Request, sm *scs.SessionManager) string {
	if q := strings.ToLower(r.URL.Query().Get("ui")); q != "" && i18n.IsSupported(q) {
		return q
	}
	if sm != nil {
		if lang := sm.GetString(r.Context(), session.KeyLang); lang != "" && i18n.IsSupported(lang) {
			return lang
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		return i18n.MatchLanguage(accept)
	}
	return i18n.SupportedLanguages[0]
}

// GetLang returns the notification language of the request.
func GetLang(r *http.Request) string {
	if lang, ok := r.Context().Value(ContextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return i18n.SupportedLanguages[0]
}
