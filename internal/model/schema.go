// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "fmt"

// FieldKind is the semantic type of an editable field.
type FieldKind string

// Field kinds
const (
	FieldShortText    FieldKind = "short_text"
	FieldLongText     FieldKind = "long_text"
	FieldRichText     FieldKind = "rich_text"
	FieldBool         FieldKind = "bool"
	FieldSingleSelect FieldKind = "single_select"
	FieldMultiSelect  FieldKind = "multi_select"
	FieldImage        FieldKind = "image"
	FieldNumeric      FieldKind = "numeric"
	FieldPhone        FieldKind = "phone"
	FieldEmail        FieldKind = "email"
	FieldURL          FieldKind = "url"
	FieldRecordList   FieldKind = "record_list"
)

// FieldCategory decides how a change in one language reaches the other.
type FieldCategory int

// Field categories
const (
	// CategoryAgnostic values are identical in both languages and are
	// copied verbatim on commit.
	CategoryAgnostic FieldCategory = iota
	// CategoryFreeText values are independent renderings; English is
	// machine translated into French on commit.
	CategoryFreeText
	// CategoryClosedVocabulary values come from a bilingual option table
	// and are mirrored on change.
	CategoryClosedVocabulary
	// CategoryRecordList values are lists kept index-aligned across languages.
	CategoryRecordList
)

func (c FieldCategory) String() string {
	switch c {
	case CategoryAgnostic:
		return "agnostic"
	case CategoryFreeText:
		return "free_text"
	case CategoryClosedVocabulary:
		return "closed_vocabulary"
	case CategoryRecordList:
		return "record_list"
	default:
		return "unknown"
	}
}

// Category returns the mirroring category of the kind.
func (k FieldKind) Category() FieldCategory {
	switch k {
	case FieldShortText, FieldLongText, FieldRichText:
		return CategoryFreeText
	case FieldSingleSelect, FieldMultiSelect:
		return CategoryClosedVocabulary
	case FieldRecordList:
		return CategoryRecordList
	default:
		return CategoryAgnostic
	}
}

// FieldSpec describes one field of a section.
type FieldSpec struct {
	Name       string
	Kind       FieldKind
	Vocabulary string      // closed-vocabulary fields only
	Items      []FieldSpec // record lists only
	ItemName   string      // the translatable item field of a record list
	Required   bool
	MinLen     int
	MaxLen     int
}

// Category is a shortcut for f.Kind.Category().
func (f FieldSpec) Category() FieldCategory {
	return f.Kind.Category()
}

// Item returns the spec of a record list item field.
func (f FieldSpec) Item(name string) (FieldSpec, bool) {
	for _, it := range f.Items {
		if it.Name == name {
			return it, true
		}
	}
	return FieldSpec{}, false
}

// SectionSpec is one tab of an entity form.
type SectionSpec struct {
	Name   string
	Fields []FieldSpec
}

// Field returns the named field spec.
func (s SectionSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// EntityKind names a content type managed by the admin.
type EntityKind string

// Entity kinds
const (
	EntityTip    EntityKind = "tip"
	EntityMood   EntityKind = "mood"
	EntityFood   EntityKind = "food"
	EntityRecipe EntityKind = "recipe"
	EntityStore  EntityKind = "store"
)

// EntitySchema is the fixed field layout of an entity kind.
type EntitySchema struct {
	Kind       EntityKind
	StorageKey string // session-scoped draft key
	Folder     string // image upload folder
	TitleField string // field used as the record label in lists
	Sections   []SectionSpec
}

// Section returns the named section.
func (s *EntitySchema) Section(name string) (SectionSpec, bool) {
	for _, sec := range s.Sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return SectionSpec{}, false
}

// Field returns the spec of a field within a section.
func (s *EntitySchema) Field(section, name string) (FieldSpec, bool) {
	sec, ok := s.Section(section)
	if !ok {
		return FieldSpec{}, false
	}
	return sec.Field(name)
}

// PrimarySection is the section that carries the record title.
func (s *EntitySchema) PrimarySection() string {
	return s.Sections[0].Name
}

// ParseEntityKind converts a string into a known entity kind.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if _, ok := schemas[k]; !ok {
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
	return k, nil
}

// SchemaFor returns the schema of an entity kind.
func SchemaFor(kind EntityKind) (*EntitySchema, error) {
	s, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	return s, nil
}

// EntityKinds lists all entity kinds.
func EntityKinds() []EntityKind {
	return []EntityKind{EntityTip, EntityMood, EntityFood, EntityRecipe, EntityStore}
}

func text(name string, required bool, maxLen int) FieldSpec {
	return FieldSpec{Name: name, Kind: FieldShortText, Required: required, MaxLen: maxLen}
}

func longText(name string, required bool, minLen int) FieldSpec {
	return FieldSpec{Name: name, Kind: FieldLongText, Required: required, MinLen: minLen, MaxLen: 5000}
}

func richText(name string, required bool) FieldSpec {
	return FieldSpec{Name: name, Kind: FieldRichText, Required: required, MaxLen: 20000}
}

func single(name, vocabulary string) FieldSpec {
	return FieldSpec{Name: name, Kind: FieldSingleSelect, Vocabulary: vocabulary, Required: true}
}

func multi(name, vocabulary string, required bool) FieldSpec {
	return FieldSpec{Name: name, Kind: FieldMultiSelect, Vocabulary: vocabulary, Required: required}
}

func agnostic(name string, kind FieldKind, required bool) FieldSpec {
	return FieldSpec{Name: name, Kind: kind, Required: required}
}

var schemas = map[EntityKind]*EntitySchema{
	EntityTip: {
		Kind:       EntityTip,
		StorageKey: "daily-tip-storage",
		Folder:     "tips",
		TitleField: "title",
		Sections: []SectionSpec{
			{Name: "basicLayoutData", Fields: []FieldSpec{
				text("title", true, 120),
				text("subTitleOne", false, 160),
				text("subTitleTwo", false, 160),
				longText("subDescriptionOne", false, 0),
				multi("concern", "concerns", true),
				agnostic("image", FieldImage, true),
				agnostic("share", FieldBool, false),
			}},
			{Name: "videoTipData", Fields: []FieldSpec{
				text("title", true, 120),
				longText("description", false, 0),
				agnostic("videoUrl", FieldURL, true),
				multi("concern", "concerns", true),
				agnostic("share", FieldBool, false),
			}},
		},
	},
	EntityMood: {
		Kind:       EntityMood,
		StorageKey: "mood-storage",
		Folder:     "moods",
		TitleField: "title",
		Sections: []SectionSpec{
			{Name: "moodData", Fields: []FieldSpec{
				text("title", true, 120),
				richText("description", true),
				single("mood", "moods"),
				multi("reason", "reasons", false),
				agnostic("image", FieldImage, false),
				agnostic("isActive", FieldBool, false),
			}},
		},
	},
	EntityFood: {
		Kind:       EntityFood,
		StorageKey: "food-storage",
		Folder:     "foods",
		TitleField: "name",
		Sections: []SectionSpec{
			{Name: "foodData", Fields: []FieldSpec{
				text("name", true, 120),
				richText("description", false),
				single("category", "foodCategories"),
				multi("concern", "concerns", false),
				multi("benefits", "benefits", false),
				agnostic("calories", FieldNumeric, false),
				agnostic("image", FieldImage, true),
				agnostic("isSeasonal", FieldBool, false),
			}},
		},
	},
	EntityRecipe: {
		Kind:       EntityRecipe,
		StorageKey: "recipe-storage",
		Folder:     "recipes",
		TitleField: "title",
		Sections: []SectionSpec{
			{Name: "recipeData", Fields: []FieldSpec{
				text("title", true, 120),
				richText("description", true),
				text("author", false, 80),
				longText("authorBio", false, 0),
				single("category", "recipeCategories"),
				multi("concern", "concerns", false),
				agnostic("prepTime", FieldNumeric, false),
				agnostic("cookTime", FieldNumeric, false),
				agnostic("servings", FieldNumeric, true),
				agnostic("image", FieldImage, true),
				{
					Name:     "ingredients",
					Kind:     FieldRecordList,
					ItemName: "name",
					Required: true,
					Items: []FieldSpec{
						{Name: "id", Kind: FieldShortText},
						{Name: "name", Kind: FieldShortText, Required: true},
						{Name: "quantity", Kind: FieldNumeric},
						{Name: "unit", Kind: FieldShortText},
						{Name: "foodId", Kind: FieldNumeric},
						{Name: "isOptional", Kind: FieldBool},
					},
				},
				richText("instructions", true),
			}},
		},
	},
	EntityStore: {
		Kind:       EntityStore,
		StorageKey: "store-storage",
		Folder:     "stores",
		TitleField: "name",
		Sections: []SectionSpec{
			{Name: "storeData", Fields: []FieldSpec{
				text("name", true, 120),
				longText("description", false, 0),
				multi("category", "shopCategories", true),
				agnostic("phone", FieldPhone, false),
				agnostic("email", FieldEmail, false),
				agnostic("website", FieldURL, false),
				agnostic("locationId", FieldNumeric, true),
				agnostic("image", FieldImage, false),
				{
					Name:     "promotedFoods",
					Kind:     FieldRecordList,
					ItemName: "name",
					Items: []FieldSpec{
						{Name: "id", Kind: FieldShortText},
						{Name: "name", Kind: FieldShortText, Required: true},
						{Name: "foodId", Kind: FieldNumeric},
						{Name: "price", Kind: FieldNumeric},
						{Name: "isPromoted", Kind: FieldBool},
					},
				},
			}},
		},
	},
}
