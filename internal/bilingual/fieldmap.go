// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bilingual holds the per-entity bilingual draft model: two parallel
// field maps (English and French) per form section, the rules that keep them
// synchronized, and the change tracking used to gate saves.
package bilingual

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/olegiv/nutricms/internal/model"
)

// FieldMap maps field names to values of one language.
//
// Values are kept in canonical form: string for text, code, image, numeric
// and contact fields, bool for flags, []string for multi-selects and
// []Record for record lists.
type FieldMap map[string]any

// Record is one row of a record list field (an ingredient, a promoted food).
type Record map[string]any

// Pair is the Language-Pair Field Map of one section.
type Pair struct {
	EN FieldMap `json:"en"`
	FR FieldMap `json:"fr"`
}

// Get returns the field map of a language.
func (p *Pair) Get(lang model.Lang) FieldMap {
	if lang == model.LangFR {
		return p.FR
	}
	return p.EN
}

// Empty reports whether neither language holds a field.
func (p *Pair) Empty() bool {
	return len(p.EN) == 0 && len(p.FR) == 0
}

// Clone returns a deep copy of the pair.
func (p *Pair) Clone() *Pair {
	return &Pair{EN: p.EN.Clone(), FR: p.FR.Clone()}
}

// KeysAligned reports whether both languages hold the same field names.
func (p *Pair) KeysAligned() bool {
	if len(p.EN) != len(p.FR) {
		return false
	}
	for k := range p.EN {
		if _, ok := p.FR[k]; !ok {
			return false
		}
	}
	return true
}

// Document maps section names to their language pairs.
type Document map[string]*Pair

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for name, p := range d {
		out[name] = p.Clone()
	}
	return out
}

// NewDocument returns a document with every field of the schema set to its
// default value in both languages.
func NewDocument(schema *model.EntitySchema) Document {
	doc := make(Document, len(schema.Sections))
	for _, sec := range schema.Sections {
		doc[sec.Name] = defaultPair(sec)
	}
	return doc
}

func defaultPair(sec model.SectionSpec) *Pair {
	p := &Pair{EN: make(FieldMap, len(sec.Fields)), FR: make(FieldMap, len(sec.Fields))}
	for _, f := range sec.Fields {
		p.EN[f.Name] = DefaultValue(f)
		p.FR[f.Name] = DefaultValue(f)
	}
	return p
}

// DefaultValue returns the empty value of a field.
func DefaultValue(f model.FieldSpec) any {
	switch f.Kind {
	case model.FieldBool:
		return false
	case model.FieldMultiSelect:
		return []string{}
	case model.FieldRecordList:
		return []Record{}
	default:
		return ""
	}
}

// Clone returns a deep copy of the field map.
func (fm FieldMap) Clone() FieldMap {
	if fm == nil {
		return nil
	}
	out := make(FieldMap, len(fm))
	for k, v := range fm {
		out[k] = cloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []Record:
		out := make([]Record, len(t))
		for i, r := range t {
			out[i] = r.Clone()
		}
		return out
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Normalize coerces a decoded value into the canonical type of the field.
func Normalize(f model.FieldSpec, raw any) (any, error) {
	if raw == nil {
		return DefaultValue(f), nil
	}
	switch f.Kind {
	case model.FieldBool:
		return toBool(f.Name, raw)
	case model.FieldNumeric:
		return toNumericText(f.Name, raw)
	case model.FieldMultiSelect:
		return toStrings(f.Name, raw)
	case model.FieldRecordList:
		return toRecords(f, raw)
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects text, got %T", ErrInvalidValue, f.Name, raw)
		}
		return s, nil
	}
}

func toBool(name string, raw any) (bool, error) {
	switch t := raw.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("%w: %s expects a boolean, got %q", ErrInvalidValue, name, t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %s expects a boolean, got %T", ErrInvalidValue, name, raw)
	}
}

// toNumericText keeps numbers as text, the way the forms submit them.
func toNumericText(name string, raw any) (string, error) {
	switch t := raw.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("%w: %s expects a number, got %T", ErrInvalidValue, name, raw)
	}
}

func toStrings(name string, raw any) ([]string, error) {
	switch t := raw.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s expects a list of codes, got item %T", ErrInvalidValue, name, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s expects a list, got %T", ErrInvalidValue, name, raw)
	}
}

func toRecords(f model.FieldSpec, raw any) ([]Record, error) {
	var items []map[string]any
	switch t := raw.(type) {
	case []Record:
		for _, r := range t {
			items = append(items, r)
		}
	case []map[string]any:
		items = t
	case []any:
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				if r, isRecord := item.(Record); isRecord {
					m = r
				} else {
					return nil, fmt.Errorf("%w: %s expects a list of records, got item %T", ErrInvalidValue, f.Name, item)
				}
			}
			items = append(items, m)
		}
	default:
		return nil, fmt.Errorf("%w: %s expects a list of records, got %T", ErrInvalidValue, f.Name, raw)
	}

	out := make([]Record, 0, len(items))
	for _, item := range items {
		r, err := NormalizeRecord(f, item)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// NormalizeRecord coerces one record list item. Missing item fields take
// their default value; unknown item fields are rejected.
func NormalizeRecord(f model.FieldSpec, raw map[string]any) (Record, error) {
	for k := range raw {
		if _, ok := f.Item(k); !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, f.Name, k)
		}
	}
	r := make(Record, len(f.Items))
	for _, it := range f.Items {
		v, err := Normalize(it, raw[it.Name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		r[it.Name] = v
	}
	return r, nil
}

// NormalizeDocument coerces a decoded document against the schema. Unknown
// sections and fields are dropped and missing ones take their defaults, so
// both languages always end up with the same key set.
func NormalizeDocument(schema *model.EntitySchema, raw Document) (Document, error) {
	doc := NewDocument(schema)
	for _, sec := range schema.Sections {
		src, ok := raw[sec.Name]
		if !ok || src == nil {
			continue
		}
		for _, lang := range model.Langs {
			in := src.Get(lang)
			out := doc[sec.Name].Get(lang)
			for _, f := range sec.Fields {
				v, present := in[f.Name]
				if !present {
					continue
				}
				nv, err := Normalize(f, v)
				if err != nil {
					return nil, fmt.Errorf("%s.%s.%s: %w", sec.Name, lang, f.Name, err)
				}
				out[f.Name] = nv
			}
		}
	}
	return doc, nil
}
