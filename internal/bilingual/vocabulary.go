// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/olegiv/nutricms/internal/model"
)

//go:embed vocabularies.yaml
var defaultVocabulariesYAML []byte

// Option is one entry of a closed vocabulary. Code identifies the option;
// Labels holds its rendering per language.
type Option struct {
	Code   string                `json:"code"`
	Labels map[model.Lang]string `json:"labels"`
}

// Label returns the option label in lang.
func (o Option) Label(lang model.Lang) string {
	return o.Labels[lang]
}

// Vocabulary is an ordered bilingual option table.
type Vocabulary struct {
	Name    string   `json:"name"`
	Options []Option `json:"options"`

	byCode  map[string]int
	byLabel map[model.Lang]map[string]int
}

type yamlOption struct {
	Code string `yaml:"code"`
	EN   string `yaml:"en"`
	FR   string `yaml:"fr"`
}

// NewVocabulary builds a vocabulary and checks its invariants: unique
// codes, a label in every language, labels unique per language.
func NewVocabulary(name string, options []Option) (*Vocabulary, error) {
	v := &Vocabulary{
		Name:    name,
		Options: options,
		byCode:  make(map[string]int, len(options)),
		byLabel: make(map[model.Lang]map[string]int, len(model.Langs)),
	}
	for _, lang := range model.Langs {
		v.byLabel[lang] = make(map[string]int, len(options))
	}

	for i, opt := range options {
		if opt.Code == "" {
			return nil, fmt.Errorf("vocabulary %s: option %d has no code", name, i)
		}
		if _, dup := v.byCode[opt.Code]; dup {
			return nil, fmt.Errorf("vocabulary %s: duplicate code %q", name, opt.Code)
		}
		v.byCode[opt.Code] = i

		for _, lang := range model.Langs {
			label := opt.Labels[lang]
			if label == "" {
				return nil, fmt.Errorf("vocabulary %s: option %q has no %s label", name, opt.Code, lang)
			}
			if _, dup := v.byLabel[lang][label]; dup {
				return nil, fmt.Errorf("vocabulary %s: duplicate %s label %q", name, lang, label)
			}
			v.byLabel[lang][label] = i
		}
	}
	return v, nil
}

// Labels returns the option labels of a language in table order. The same
// index denotes the same option in every language.
func (v *Vocabulary) Labels(lang model.Lang) []string {
	out := make([]string, len(v.Options))
	for i, opt := range v.Options {
		out[i] = opt.Labels[lang]
	}
	return out
}

// Lookup finds the option whose label in lang, or whose code, equals value.
func (v *Vocabulary) Lookup(lang model.Lang, value string) (Option, bool) {
	if i, ok := v.byLabel[lang][value]; ok {
		return v.Options[i], true
	}
	if i, ok := v.byCode[value]; ok {
		return v.Options[i], true
	}
	return Option{}, false
}

// Contains reports whether value is a label of lang.
func (v *Vocabulary) Contains(lang model.Lang, value string) bool {
	_, ok := v.byLabel[lang][value]
	return ok
}

// Translate renders value, a label in from, as the label of the same option in to.
func (v *Vocabulary) Translate(value string, from, to model.Lang) (string, bool) {
	opt, ok := v.Lookup(from, value)
	if !ok {
		return "", false
	}
	return opt.Labels[to], true
}

// Vocabularies indexes vocabularies by name.
type Vocabularies map[string]*Vocabulary

// Get returns a vocabulary by name.
func (vs Vocabularies) Get(name string) (*Vocabulary, bool) {
	v, ok := vs[name]
	return v, ok
}

// Names returns the vocabulary names in sorted order.
func (vs Vocabularies) Names() []string {
	names := make([]string, 0, len(vs))
	for n := range vs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseVocabularies reads vocabularies from YAML: a mapping of vocabulary
// name to a list of {code, en, fr} entries.
func ParseVocabularies(data []byte) (Vocabularies, error) {
	var raw map[string][]yamlOption
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing vocabularies: %w", err)
	}

	vs := make(Vocabularies, len(raw))
	for name, entries := range raw {
		opts := make([]Option, 0, len(entries))
		for _, e := range entries {
			opts = append(opts, Option{
				Code:   e.Code,
				Labels: map[model.Lang]string{model.LangEN: e.EN, model.LangFR: e.FR},
			})
		}
		v, err := NewVocabulary(name, opts)
		if err != nil {
			return nil, err
		}
		vs[name] = v
	}
	return vs, nil
}

// DefaultVocabularies returns the built-in vocabularies.
func DefaultVocabularies() (Vocabularies, error) {
	return ParseVocabularies(defaultVocabulariesYAML)
}

// CheckSchemas verifies that every closed-vocabulary field of the entity
// schemas references a known vocabulary.
func (vs Vocabularies) CheckSchemas() error {
	for _, kind := range model.EntityKinds() {
		schema, err := model.SchemaFor(kind)
		if err != nil {
			return err
		}
		for _, sec := range schema.Sections {
			for _, f := range sec.Fields {
				if f.Category() != model.CategoryClosedVocabulary {
					continue
				}
				if _, ok := vs[f.Vocabulary]; !ok {
					return fmt.Errorf("%s.%s.%s: unknown vocabulary %q", kind, sec.Name, f.Name, f.Vocabulary)
				}
			}
		}
	}
	return nil
}
