// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import "errors"

var (
	// ErrUnknownSection is returned for a section the entity schema does not define.
	ErrUnknownSection = errors.New("unknown section")

	// ErrUnknownField is returned for a field the section does not define.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidValue is returned when a value cannot be coerced into the field type.
	ErrInvalidValue = errors.New("invalid value")

	// ErrMultiLangDisabled is returned when French editing is requested while
	// multi-language entry is off.
	ErrMultiLangDisabled = errors.New("multi-language entry is disabled")

	// ErrNotMultiSelect is returned by Toggle on a field that is not a multi-select.
	ErrNotMultiSelect = errors.New("field is not a multi-select")

	// ErrNotRecordList is returned by item operations on a field that is not a record list.
	ErrNotRecordList = errors.New("field is not a record list")

	// ErrRecordListField is returned when a record list is written as a whole
	// instead of through item operations.
	ErrRecordListField = errors.New("record lists are edited item by item")

	// ErrIndexOutOfRange is returned for an item index outside the list.
	ErrIndexOutOfRange = errors.New("item index out of range")

	// ErrNoDraft is returned when no draft is open for the session and entity kind.
	ErrNoDraft = errors.New("no draft open")

	// ErrDraftClosed is returned for operations on a disposed draft.
	ErrDraftClosed = errors.New("draft closed")
)
