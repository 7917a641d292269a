// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

// Tag is a bilingual tag.
type Tag struct {
	ID     int64
	NameEN string
	NameFR string
}

// ListTags returns every tag ordered by English name.
func (q *Queries) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name_en, name_fr FROM tags ORDER BY name_en COLLATE NOCASE`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.NameEN, &t.NameFR); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertTag inserts a tag or updates the French name of an existing one.
func (q *Queries) UpsertTag(ctx context.Context, nameEN, nameFR string) (Tag, error) {
	var t Tag
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO tags (name_en, name_fr) VALUES (?, ?)
		 ON CONFLICT (name_en) DO UPDATE SET name_fr = excluded.name_fr
		 RETURNING id, name_en, name_fr`, nameEN, nameFR).Scan(&t.ID, &t.NameEN, &t.NameFR)
	return t, err
}

// Location is a physical store location.
type Location struct {
	ID         int64
	Name       string
	Address    string
	City       string
	PostalCode string
	Latitude   sql.NullFloat64
	Longitude  sql.NullFloat64
}

const locationColumns = `id, name, address, city, postal_code, latitude, longitude`

// GetLocation returns sql.ErrNoRows for unknown ids.
func (q *Queries) GetLocation(ctx context.Context, id int64) (Location, error) {
	var l Location
	err := q.db.QueryRowContext(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id).
		Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.PostalCode, &l.Latitude, &l.Longitude)
	return l, err
}

// CreateLocation inserts a location and returns its id.
func (q *Queries) CreateLocation(ctx context.Context, l Location) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO locations (name, address, city, postal_code, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.Name, l.Address, l.City, l.PostalCode, l.Latitude, l.Longitude)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
