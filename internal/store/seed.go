// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/nutricms/internal/auth"
	"github.com/olegiv/nutricms/internal/model"
)

// SeedAdmin creates the admin user on an empty database. It does nothing
// once the email exists.
func SeedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		slog.Debug("admin user already exists, skipping seed", "email", email)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Name:         "Administrator",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created admin user", "id", user.ID, "email", user.Email, "category", model.EventCategoryAuth)
	return nil
}

// SeedLookups fills the tag and location tables when they are empty, so a
// fresh install has something to pick from.
func SeedLookups(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	tags, err := queries.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("listing tags: %w", err)
	}
	if len(tags) == 0 {
		for _, t := range [][2]string{
			{"Vegan", "Végétalien"},
			{"Gluten free", "Sans gluten"},
			{"Quick", "Rapide"},
			{"High protein", "Riche en protéines"},
		} {
			if _, err := queries.UpsertTag(ctx, t[0], t[1]); err != nil {
				return fmt.Errorf("seeding tag %q: %w", t[0], err)
			}
		}
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`).Scan(&n); err != nil {
		return fmt.Errorf("counting locations: %w", err)
	}
	if n == 0 {
		if _, err := queries.CreateLocation(ctx, Location{
			Name:       "Marché Jean-Talon",
			Address:    "7070 Av. Henri-Julien",
			City:       "Montréal",
			PostalCode: "H2S 3S3",
			Latitude:   sql.NullFloat64{Float64: 45.5363, Valid: true},
			Longitude:  sql.NullFloat64{Float64: -73.6149, Valid: true},
		}); err != nil {
			return fmt.Errorf("seeding location: %w", err)
		}
	}
	return nil
}
