// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/olegiv/nutricms/internal/model"
)

// Option is a bilingual pick-list entry.
type Option struct {
	ID   int64  `json:"id,omitempty"`
	Code string `json:"code,omitempty"`
	EN   string `json:"en"`
	FR   string `json:"fr"`
}

// Location is the detail view of a store location.
type Location struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	City       string   `json:"city"`
	PostalCode string   `json:"postalCode"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// AllFoods lists every food by id and name.
func (s *Service) AllFoods(ctx context.Context) ([]Option, error) {
	return s.recordOptions(ctx, model.EntityFood)
}

// AllRecipes lists every recipe by id and title.
func (s *Service) AllRecipes(ctx context.Context) ([]Option, error) {
	return s.recordOptions(ctx, model.EntityRecipe)
}

func (s *Service) recordOptions(ctx context.Context, kind model.EntityKind) ([]Option, error) {
	recs, err := s.queries.ListRecordTitles(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing %s titles: %w", kind, err)
	}
	out := make([]Option, 0, len(recs))
	for _, r := range recs {
		out = append(out, Option{ID: r.ID, EN: r.TitleEN, FR: r.TitleFR})
	}
	return out, nil
}

// AllTags lists the tag table.
func (s *Service) AllTags(ctx context.Context) ([]Option, error) {
	tags, err := s.queries.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	out := make([]Option, 0, len(tags))
	for _, t := range tags {
		out = append(out, Option{ID: t.ID, EN: t.NameEN, FR: t.NameFR})
	}
	return out, nil
}

// ShopCategories lists the store category vocabulary.
func (s *Service) ShopCategories() []Option {
	v, ok := s.vocabularies.Get("shopCategories")
	if !ok {
		return []Option{}
	}
	out := make([]Option, 0, len(v.Options))
	for _, o := range v.Options {
		out = append(out, Option{Code: o.Code, EN: o.Label(model.LangEN), FR: o.Label(model.LangFR)})
	}
	return out
}

// LocationDetails returns one location.
func (s *Service) LocationDetails(ctx context.Context, id int64) (*Location, error) {
	l, err := s.queries.GetLocation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading location %d: %w", id, err)
	}
	loc := &Location{ID: l.ID, Name: l.Name, Address: l.Address, City: l.City, PostalCode: l.PostalCode}
	if l.Latitude.Valid {
		loc.Latitude = &l.Latitude.Float64
	}
	if l.Longitude.Valid {
		loc.Longitude = &l.Longitude.Float64
	}
	return loc, nil
}

var uploadURL = regexp.MustCompile(`/uploads/[A-Za-z0-9._-]+/[A-Za-z0-9._-]+`)

// ReferencedImages returns every uploaded image URL mentioned by a stored
// record, whether in an image field or embedded in rich text.
func (s *Service) ReferencedImages(ctx context.Context) (map[string]bool, error) {
	refs := make(map[string]bool)
	err := s.queries.AllRecordDocs(ctx, func(_, doc string) error {
		for _, u := range uploadURL.FindAllString(doc, -1) {
			refs[u] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting image references: %w", err)
	}
	return refs, nil
}
