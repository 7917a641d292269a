// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/nutricms/internal/i18n"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/session"
)

// UserLoader loads a user by ID.
type UserLoader interface {
	GetUserByID(ctx context.Context, id int64) (model.User, error)
}

// RequireAuth rejects requests without a signed-in user with 401 and loads
// the user into the request context otherwise. A session pointing to a
// deleted user is destroyed.
func RequireAuth(sm *scs.SessionManager, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := GetLang(r)
			userID := session.UserID(r.Context(), sm)
			if userID == 0 {
				WriteError(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "notify.unauthorized"))
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				slog.Warn("session user not found", "user_id", userID, "error", err, "category", model.EventCategoryAuth)
				_ = sm.Destroy(r.Context())
				WriteError(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "notify.unauthorized"))
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects signed-in users without the admin role with 403.
// It must run after RequireAuth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteError(w, http.StatusUnauthorized, "unauthorized", i18n.T(GetLang(r), "notify.unauthorized"))
				return
			}
			if !user.IsAdmin() {
				slog.Warn("access denied",
					"status", http.StatusForbidden,
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", user.ID,
					"user_role", user.Role,
					"category", model.EventCategoryAuth,
				)
				WriteError(w, http.StatusForbidden, "forbidden", i18n.T(GetLang(r), "notify.forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}
