// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/olegiv/nutricms/internal/model"
)

// Previewer renders the text fields of a record as sanitized HTML.
type Previewer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewPreviewer creates a previewer. Long text is treated as Markdown, rich
// text is already HTML; both pass through the same UGC policy.
func NewPreviewer() *Previewer {
	return &Previewer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Preview is the rendered text of one section in one language.
type Preview struct {
	Section string                   `json:"section"`
	Lang    model.Lang               `json:"lang"`
	Fields  map[string]template.HTML `json:"fields"`
}

// Render renders every free-text field of e in lang.
func (p *Previewer) Render(e *Entity, lang model.Lang) ([]Preview, error) {
	schema, err := model.SchemaFor(e.Kind)
	if err != nil {
		return nil, err
	}
	var out []Preview
	for _, sec := range schema.Sections {
		pair, ok := e.Document[sec.Name]
		if !ok {
			continue
		}
		fm := pair.Get(lang)
		pv := Preview{Section: sec.Name, Lang: lang, Fields: map[string]template.HTML{}}
		for _, f := range sec.Fields {
			v, _ := fm[f.Name].(string)
			if v == "" {
				continue
			}
			switch f.Kind {
			case model.FieldRichText:
				pv.Fields[f.Name] = template.HTML(p.policy.Sanitize(v))
			case model.FieldLongText:
				var buf bytes.Buffer
				if err := p.md.Convert([]byte(v), &buf); err != nil {
					return nil, fmt.Errorf("rendering %s.%s: %w", sec.Name, f.Name, err)
				}
				pv.Fields[f.Name] = template.HTML(p.policy.SanitizeBytes(buf.Bytes()))
			case model.FieldShortText:
				pv.Fields[f.Name] = template.HTML(template.HTMLEscapeString(v))
			}
		}
		if len(pv.Fields) > 0 {
			out = append(out, pv)
		}
	}
	return out, nil
}
