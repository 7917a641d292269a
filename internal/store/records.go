// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// Record is a stored content row. Doc is the bilingual document as JSON.
type Record struct {
	ID        int64
	Kind      string
	TitleEN   string
	TitleFR   string
	Doc       string
	CreatedBy sql.NullInt64
	CreatedAt time.Time
	UpdatedAt time.Time
}

const recordColumns = `id, kind, title_en, title_fr, doc, created_by, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.Kind, &r.TitleEN, &r.TitleFR, &r.Doc, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (q *Queries) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateRecordParams holds the columns of a new record.
type CreateRecordParams struct {
	Kind      string
	TitleEN   string
	TitleFR   string
	Doc       string
	CreatedBy sql.NullInt64
	CreatedAt time.Time
}

// CreateRecord inserts a record and returns it.
func (q *Queries) CreateRecord(ctx context.Context, arg CreateRecordParams) (Record, error) {
	return scanRecord(q.db.QueryRowContext(ctx,
		`INSERT INTO records (kind, title_en, title_fr, doc, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+recordColumns,
		arg.Kind, arg.TitleEN, arg.TitleFR, arg.Doc, arg.CreatedBy, arg.CreatedAt, arg.CreatedAt))
}

// GetRecord returns sql.ErrNoRows when no record of kind has the id.
func (q *Queries) GetRecord(ctx context.Context, kind string, id int64) (Record, error) {
	return scanRecord(q.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE kind = ? AND id = ?`, kind, id))
}

// UpdateRecordParams holds the replaced columns of a record.
type UpdateRecordParams struct {
	ID        int64
	Kind      string
	TitleEN   string
	TitleFR   string
	Doc       string
	UpdatedAt time.Time
}

// UpdateRecord replaces the document and titles of a record.
func (q *Queries) UpdateRecord(ctx context.Context, arg UpdateRecordParams) (Record, error) {
	return scanRecord(q.db.QueryRowContext(ctx,
		`UPDATE records SET title_en = ?, title_fr = ?, doc = ?, updated_at = ?
		 WHERE kind = ? AND id = ?
		 RETURNING `+recordColumns,
		arg.TitleEN, arg.TitleFR, arg.Doc, arg.UpdatedAt, arg.Kind, arg.ID))
}

// DeleteRecord removes a record and reports whether it existed.
func (q *Queries) DeleteRecord(ctx context.Context, kind string, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListRecordsParams pages through the records of a kind. Search matches
// either title, case-insensitively.
type ListRecordsParams struct {
	Kind   string
	Search string
	Limit  int
	Offset int
}

// ListRecords returns the most recently updated records first.
func (q *Queries) ListRecords(ctx context.Context, arg ListRecordsParams) ([]Record, error) {
	return q.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM records
		 WHERE kind = ? AND (? = '' OR title_en LIKE ? OR title_fr LIKE ?)
		 ORDER BY updated_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		arg.Kind, arg.Search, likePattern(arg.Search), likePattern(arg.Search), arg.Limit, arg.Offset)
}

// CountRecords counts what ListRecords pages through.
func (q *Queries) CountRecords(ctx context.Context, kind, search string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records
		 WHERE kind = ? AND (? = '' OR title_en LIKE ? OR title_fr LIKE ?)`,
		kind, search, likePattern(search), likePattern(search)).Scan(&n)
	return n, err
}

// ListRecordTitles returns id and titles of every record of a kind,
// ordered by English title.
func (q *Queries) ListRecordTitles(ctx context.Context, kind string) ([]Record, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title_en, title_fr FROM records WHERE kind = ? ORDER BY title_en COLLATE NOCASE, id`, kind)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		r := Record{Kind: kind}
		if err := rows.Scan(&r.ID, &r.TitleEN, &r.TitleFR); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AllRecordDocs streams the documents of every record to fn.
func (q *Queries) AllRecordDocs(ctx context.Context, fn func(kind, doc string) error) error {
	rows, err := q.db.QueryContext(ctx, `SELECT kind, doc FROM records`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var kind, doc string
		if err := rows.Scan(&kind, &doc); err != nil {
			return err
		}
		if err := fn(kind, doc); err != nil {
			return err
		}
	}
	return rows.Err()
}

// likePattern drops LIKE wildcards from s and wraps it for a substring match.
func likePattern(s string) string {
	if s == "" {
		return ""
	}
	r := make([]rune, 0, len(s)+2)
	r = append(r, '%')
	for _, c := range s {
		if c == '%' || c == '_' || c == '\\' {
			continue
		}
		r = append(r, c)
	}
	return string(append(r, '%'))
}
