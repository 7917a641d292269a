// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/nutricms/internal/model"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the part of the store the authenticator needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateUserPassword(ctx context.Context, id int64, hash string, at time.Time) error
}

// Authenticator checks admin credentials.
type Authenticator struct {
	users  UserStore
	logger *slog.Logger
	// dummy is verified for unknown emails so both paths cost the same.
	dummy string
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(users UserStore, logger *slog.Logger) *Authenticator {
	dummy, _ := HashPassword("nutricms-timing-equalizer")
	return &Authenticator{users: users, logger: logger, dummy: dummy}
}

// Authenticate returns the user for valid credentials. Hashes made with
// outdated parameters are upgraded on the way.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := a.users.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		_, _ = CheckPassword(password, a.dummy)
		a.logger.Warn("login failed", "email", email, "reason", "unknown user", "category", model.EventCategoryAuth)
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}

	ok, err := CheckPassword(password, user.PasswordHash)
	if err != nil {
		return model.User{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		a.logger.Warn("login failed", "email", email, "reason", "wrong password", "category", model.EventCategoryAuth)
		return model.User{}, ErrInvalidCredentials
	}

	now := time.Now()
	if NeedsRehash(user.PasswordHash) {
		if hash, err := HashPassword(password); err == nil {
			if err := a.users.UpdateUserPassword(ctx, user.ID, hash, now); err != nil {
				a.logger.Warn("password rehash failed", "user_id", user.ID, "error", err, "category", model.EventCategoryAuth)
			}
		}
	}
	if err := a.users.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		a.logger.Warn("recording last login failed", "user_id", user.ID, "error", err, "category", model.EventCategoryAuth)
	}
	a.logger.Info("user logged in", "user_id", user.ID, "category", model.EventCategoryAuth)
	return user, nil
}
