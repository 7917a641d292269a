// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content stores saved entities and answers the lookup queries the
// admin forms pick values from.
package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/store"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrEmptyPayload is returned by Update when nothing changed.
var ErrEmptyPayload = errors.New("nothing to update")

// Pagination defaults.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Entity is a saved record with its bilingual document.
type Entity struct {
	ID        int64              `json:"id"`
	Kind      model.EntityKind   `json:"kind"`
	TitleEN   string             `json:"titleEn"`
	TitleFR   string             `json:"titleFr"`
	Document  bilingual.Document `json:"document"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Summary is a list row.
type Summary struct {
	ID        int64     `json:"id"`
	TitleEN   string    `json:"titleEn"`
	TitleFR   string    `json:"titleFr"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListParams selects a page of records.
type ListParams struct {
	Page    int
	PerPage int
	Search  string
}

// Page is one page of list results.
type Page struct {
	Items   []Summary `json:"items"`
	Total   int64     `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"perPage"`
}

// Service implements the entity API on top of the store.
type Service struct {
	db           *sql.DB
	queries      *store.Queries
	vocabularies bilingual.Vocabularies
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates a content service.
func NewService(db *sql.DB, vocabularies bilingual.Vocabularies, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:           db,
		queries:      store.New(db),
		vocabularies: vocabularies,
		logger:       logger,
		now:          time.Now,
	}
}

// List returns a page of records of kind, newest first.
func (s *Service) List(ctx context.Context, kind model.EntityKind, p ListParams) (*Page, error) {
	if _, err := model.SchemaFor(kind); err != nil {
		return nil, err
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	p.PerPage = min(p.PerPage, MaxPerPage)
	p.Search = strings.TrimSpace(p.Search)

	total, err := s.queries.CountRecords(ctx, string(kind), p.Search)
	if err != nil {
		return nil, fmt.Errorf("counting %s records: %w", kind, err)
	}
	recs, err := s.queries.ListRecords(ctx, store.ListRecordsParams{
		Kind:   string(kind),
		Search: p.Search,
		Limit:  p.PerPage,
		Offset: (p.Page - 1) * p.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", kind, err)
	}

	page := &Page{Items: make([]Summary, 0, len(recs)), Total: total, Page: p.Page, PerPage: p.PerPage}
	for _, r := range recs {
		page.Items = append(page.Items, Summary{ID: r.ID, TitleEN: r.TitleEN, TitleFR: r.TitleFR, UpdatedAt: r.UpdatedAt})
	}
	return page, nil
}

// Get loads a record.
func (s *Service) Get(ctx context.Context, kind model.EntityKind, id int64) (*Entity, error) {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	rec, err := s.queries.GetRecord(ctx, string(kind), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s %d: %w", kind, id, err)
	}
	return toEntity(schema, rec)
}

// Create stores a new record built from doc. Sections and fields missing
// from doc take their defaults.
func (s *Service) Create(ctx context.Context, kind model.EntityKind, doc bilingual.Document, createdBy int64) (*Entity, error) {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	norm, err := bilingual.NormalizeDocument(schema, doc)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(norm)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	en, fr := titles(schema, doc)
	rec, err := s.queries.CreateRecord(ctx, store.CreateRecordParams{
		Kind:      string(kind),
		TitleEN:   en,
		TitleFR:   fr,
		Doc:       string(data),
		CreatedBy: sql.NullInt64{Int64: createdBy, Valid: createdBy > 0},
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", kind, err)
	}
	s.logger.Info("record created", "kind", kind, "id", rec.ID, "category", model.EventCategoryContent)
	return toEntity(schema, rec)
}

// Update merges partial into the stored record: only the fields present in
// partial are replaced, per section and language.
func (s *Service) Update(ctx context.Context, kind model.EntityKind, id int64, partial bilingual.Document) (*Entity, error) {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	if documentEmpty(partial) {
		return nil, ErrEmptyPayload
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	rec, err := q.GetRecord(ctx, string(kind), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s %d: %w", kind, id, err)
	}
	current, err := decodeDocument(schema, rec.Doc)
	if err != nil {
		return nil, err
	}

	merged, err := merge(schema, current, partial)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	en, fr := titles(schema, merged)
	rec, err = q.UpdateRecord(ctx, store.UpdateRecordParams{
		ID:        id,
		Kind:      string(kind),
		TitleEN:   en,
		TitleFR:   fr,
		Doc:       string(data),
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("updating %s %d: %w", kind, id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update: %w", err)
	}
	s.logger.Info("record updated", "kind", kind, "id", id, "category", model.EventCategoryContent)
	return toEntity(schema, rec)
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, kind model.EntityKind, id int64) error {
	if _, err := model.SchemaFor(kind); err != nil {
		return err
	}
	ok, err := s.queries.DeleteRecord(ctx, string(kind), id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", kind, id, err)
	}
	if !ok {
		return ErrNotFound
	}
	s.logger.Info("record deleted", "kind", kind, "id", id, "category", model.EventCategoryContent)
	return nil
}

func toEntity(schema *model.EntitySchema, rec store.Record) (*Entity, error) {
	doc, err := decodeDocument(schema, rec.Doc)
	if err != nil {
		return nil, err
	}
	return &Entity{
		ID:        rec.ID,
		Kind:      schema.Kind,
		TitleEN:   rec.TitleEN,
		TitleFR:   rec.TitleFR,
		Document:  doc,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func decodeDocument(schema *model.EntitySchema, data string) (bilingual.Document, error) {
	var raw bilingual.Document
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("decoding stored %s document: %w", schema.Kind, err)
	}
	return bilingual.NormalizeDocument(schema, raw)
}

// merge overlays partial onto current and renormalizes the result.
func merge(schema *model.EntitySchema, current, partial bilingual.Document) (bilingual.Document, error) {
	out := current.Clone()
	for section, p := range partial {
		if p == nil {
			continue
		}
		sec, ok := schema.Section(section)
		if !ok {
			return nil, fmt.Errorf("%w: %s", bilingual.ErrUnknownSection, section)
		}
		for _, lang := range model.Langs {
			dst := out[section].Get(lang)
			for name, v := range p.Get(lang) {
				if _, ok := sec.Field(name); !ok {
					return nil, fmt.Errorf("%w: %s.%s", bilingual.ErrUnknownField, section, name)
				}
				dst[name] = v
			}
		}
	}
	return bilingual.NormalizeDocument(schema, out)
}

// titles picks the record label from the first section with a non-empty
// title field.
func titles(schema *model.EntitySchema, doc bilingual.Document) (en, fr string) {
	for _, sec := range schema.Sections {
		p, ok := doc[sec.Name]
		if !ok || p == nil {
			continue
		}
		e, _ := p.EN[schema.TitleField].(string)
		f, _ := p.FR[schema.TitleField].(string)
		if strings.TrimSpace(e) != "" || strings.TrimSpace(f) != "" {
			return strings.TrimSpace(e), strings.TrimSpace(f)
		}
	}
	return "", ""
}

func documentEmpty(d bilingual.Document) bool {
	for _, p := range d {
		if p != nil && !p.Empty() {
			return false
		}
	}
	return true
}
