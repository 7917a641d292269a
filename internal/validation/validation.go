// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validation checks a section of a draft before it is saved. Rules
// are derived from the entity schema and run against the field map of one
// language, the one the admin is editing.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/model"
)

// ErrUnknownSection is returned for a section the schema does not define.
var ErrUnknownSection = errors.New("unknown section")

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{6,20}$`)
	imgTag       = regexp.MustCompile(`(?i)<img\s[^>]*src=`)
)

// Error codes attached to custom rule failures.
var (
	errTextOrImage   = validation.NewError("validation_text_or_image", "must contain text or an image")
	errNotOption     = validation.NewError("validation_not_option", "is not one of the available options")
	errNotNumber     = validation.NewError("validation_not_number", "must be a non-negative number")
	errImageLocation = validation.NewError("validation_image_location", "must be an uploaded image or an http(s) URL")
	errItemName      = validation.NewError("validation_item_name", "every item needs a name")
	errBlank         = validation.NewError("validation_required", "cannot be blank")
)

// Validator validates draft sections.
type Validator struct {
	vocabularies bilingual.Vocabularies
	strip        *bluemonday.Policy
}

// New creates a validator that checks closed-vocabulary fields against vs.
func New(vs bilingual.Vocabularies) *Validator {
	return &Validator{vocabularies: vs, strip: bluemonday.StrictPolicy()}
}

// ValidateSection validates the field map fm of one section in lang. A
// failed validation returns validation.Errors keyed by field name.
func (v *Validator) ValidateSection(schema *model.EntitySchema, section string, lang model.Lang, fm bilingual.FieldMap) error {
	sec, ok := schema.Section(section)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}

	keys := make([]*validation.KeyRules, 0, len(sec.Fields))
	for _, f := range sec.Fields {
		keys = append(keys, validation.Key(f.Name, v.fieldRules(f, lang)...).Optional())
	}
	return validation.Validate(map[string]any(fm), validation.Map(keys...).AllowExtraKeys())
}

func (v *Validator) fieldRules(f model.FieldSpec, lang model.Lang) []validation.Rule {
	var rules []validation.Rule
	if f.Required {
		rules = append(rules, validation.Required.ErrorObject(errBlank))
	}

	switch f.Kind {
	case model.FieldShortText, model.FieldLongText:
		if f.Required {
			rules = append(rules, validation.By(notBlank))
		}
		rules = append(rules, validation.RuneLength(f.MinLen, f.MaxLen))
	case model.FieldRichText:
		if f.Required {
			rules = append(rules, validation.By(v.hasTextOrImage))
		}
		rules = append(rules, validation.RuneLength(0, f.MaxLen))
	case model.FieldSingleSelect:
		rules = append(rules, validation.By(v.option(f.Vocabulary, lang)))
	case model.FieldMultiSelect:
		rules = append(rules, validation.Each(validation.By(v.option(f.Vocabulary, lang))))
	case model.FieldNumeric:
		rules = append(rules, validation.By(nonNegativeNumber))
	case model.FieldPhone:
		rules = append(rules, validation.Match(phonePattern).Error("must be a valid phone number"))
	case model.FieldEmail:
		rules = append(rules, is.EmailFormat)
	case model.FieldURL:
		rules = append(rules, is.RequestURL)
	case model.FieldImage:
		rules = append(rules, validation.By(imageLocation))
	case model.FieldRecordList:
		rules = append(rules, validation.Each(validation.By(recordItem(f))))
	}
	return rules
}

func notBlank(value any) error {
	if s, ok := value.(string); ok && s != "" && strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}

// hasTextOrImage accepts rich text that renders some visible text or embeds
// an image; empty editor markup such as "<p><br></p>" is rejected.
func (v *Validator) hasTextOrImage(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if imgTag.MatchString(s) {
		return nil
	}
	text := strings.TrimSpace(strings.ReplaceAll(v.strip.Sanitize(s), "&nbsp;", " "))
	if text == "" {
		return errTextOrImage
	}
	return nil
}

func (v *Validator) option(vocabulary string, lang model.Lang) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		vocab, ok := v.vocabularies.Get(vocabulary)
		if !ok {
			return nil
		}
		if _, ok := vocab.Lookup(lang, s); !ok {
			return errNotOption
		}
		return nil
	}
}

func nonNegativeNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n < 0 {
		return errNotNumber
	}
	return nil
}

func imageLocation(value any) error {
	s, _ := value.(string)
	if s == "" || strings.HasPrefix(s, "/uploads/") {
		return nil
	}
	if err := is.RequestURL.Validate(s); err != nil {
		return errImageLocation
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return errImageLocation
	}
	return nil
}

func recordItem(f model.FieldSpec) validation.RuleFunc {
	return func(value any) error {
		rec, ok := value.(bilingual.Record)
		if !ok {
			return nil
		}
		name, _ := rec[f.ItemName].(string)
		if strings.TrimSpace(name) == "" {
			return errItemName
		}
		for _, it := range f.Items {
			if it.Kind != model.FieldNumeric {
				continue
			}
			if err := nonNegativeNumber(rec[it.Name]); err != nil {
				return validation.Errors{it.Name: err}
			}
		}
		return nil
	}
}

// FieldErrors flattens a validation error into field-path messages, for
// example {"title": "cannot be blank", "ingredients.0": "every item needs a name"}.
// Errors that are not validation errors are reported under "_".
func FieldErrors(err error) map[string]string {
	return LocalizedFieldErrors(err, nil)
}

// LocalizedFieldErrors is FieldErrors with messages passed through
// translate, which receives the ozzo error code and the message template.
func LocalizedFieldErrors(err error, translate func(code, message string) string) map[string]string {
	if err == nil {
		return nil
	}
	out := map[string]string{}
	flatten("", err, out, translate)
	return out
}

func flatten(prefix string, err error, out map[string]string, translate func(code, message string) string) {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		if prefix == "" {
			prefix = "_"
		}
		msg := err.Error()
		var eo validation.Error
		if translate != nil && errors.As(err, &eo) {
			// SetMessage keeps the params, so templated messages still render.
			msg = eo.SetMessage(translate(eo.Code(), eo.Message())).Error()
		}
		out[prefix] = msg
		return
	}
	for key, e := range errs {
		if e == nil {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		flatten(path, e, out, translate)
	}
}

// Fields returns the sorted field paths of a FieldErrors result.
func Fields(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Code returns the ozzo error code of a validation failure, or "" when err
// carries none.
func Code(err error) string {
	var eo validation.Error
	if errors.As(err, &eo) {
		return eo.Code()
	}
	return ""
}
