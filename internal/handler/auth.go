// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/nutricms/internal/auth"
	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/i18n"
	"github.com/olegiv/nutricms/internal/middleware"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/session"
)

// AuthHandler handles sign-in, sign-out and the session endpoint.
type AuthHandler struct {
	sm              *scs.SessionManager
	authenticator   *auth.Authenticator
	loginProtection *middleware.LoginProtection
	drafts          *bilingual.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sm *scs.SessionManager, authenticator *auth.Authenticator, loginProtection *middleware.LoginProtection, drafts *bilingual.Manager) *AuthHandler {
	return &AuthHandler{
		sm:              sm,
		authenticator:   authenticator,
		loginProtection: loginProtection,
		drafts:          drafts,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Lang     string `json:"lang"`
}

// SessionInfo is the signed-in admin and the session's notification language.
type SessionInfo struct {
	User model.User `json:"user"`
	Lang string     `json:"lang"`
}

// Login handles POST /admin/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "email and password are required",
			notify(r, "notify.login_failed"), nil)
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
		h.writeLocked(w, r, remaining)
		return
	}

	user, err := h.authenticator.Authenticate(r.Context(), email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		if locked, d := h.loginProtection.RecordFailedAttempt(email); locked {
			h.writeLocked(w, r, d)
			return
		}
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", err.Error(),
			notify(r, "notify.login_failed"),
			map[string]string{"remaining_attempts": strconv.Itoa(h.loginProtection.RemainingAttempts(email))})
		return
	}
	if err != nil {
		writeInternalError(w, r, "login failed", err)
		return
	}

	h.loginProtection.RecordSuccessfulLogin(email)

	// Prevent session fixation.
	if err := h.sm.RenewToken(r.Context()); err != nil {
		writeInternalError(w, r, "failed to renew session token", err)
		return
	}
	h.sm.Put(r.Context(), session.KeyUserID, user.ID)

	lang := middleware.GetLang(r)
	if l := strings.ToLower(req.Lang); l != "" && i18n.IsSupported(l) {
		lang = l
		h.sm.Put(r.Context(), session.KeyLang, lang)
	}

	WriteNotice(w, SessionInfo{User: user, Lang: lang}, i18n.T(lang, "notify.logged_in"))
}

func (h *AuthHandler) writeLocked(w http.ResponseWriter, r *http.Request, remaining time.Duration) {
	minutes := int(math.Ceil(remaining.Minutes()))
	WriteError(w, http.StatusTooManyRequests, "account_locked", "account temporarily locked",
		notify(r, "notify.account_locked", minutes), nil)
}

// Logout handles POST /admin/logout. Every draft of the session is
// discarded together with the session itself.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token := session.Token(ctx, h.sm); token != "" {
		if err := h.drafts.CloseSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "failed to discard drafts on logout", "error", err, "category", model.EventCategoryDraft)
		}
	}

	if userID := session.UserID(ctx, h.sm); userID != 0 {
		slog.Info("user logged out", "user_id", userID, "category", model.EventCategoryAuth)
	}

	if err := h.sm.Destroy(ctx); err != nil {
		writeInternalError(w, r, "failed to destroy session", err)
		return
	}
	WriteNotice(w, nil, notify(r, "notify.logged_out"))
}

// Session handles GET /admin/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "not signed in", notify(r, "notify.unauthorized"), nil)
		return
	}
	WriteSuccess(w, SessionInfo{User: *user, Lang: middleware.GetLang(r)}, nil)
}

type languageRequest struct {
	Lang string `json:"lang"`
}

// SetLanguage handles PUT /admin/session/lang. It changes the language of
// notifications, not the language of the content being edited.
func (h *AuthHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lang := strings.ToLower(req.Lang)
	if !i18n.IsSupported(lang) {
		writeBadRequest(w, r, "unsupported language "+strconv.Quote(req.Lang))
		return
	}
	h.sm.Put(r.Context(), session.KeyLang, lang)
	WriteSuccess(w, map[string]string{"lang": lang}, nil)
}
