// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media stores the images attached to draft fields.
package media

import (
	"context"
	"errors"
	"io"
)

// MaxUploadSize is the largest image accepted, before processing.
const MaxUploadSize = 10 << 20

// URLPrefix is the public path every stored image is served under.
const URLPrefix = "/uploads/"

var (
	// ErrInvalidFolder is returned for folder names that are not slugs.
	ErrInvalidFolder = errors.New("invalid upload folder")

	// ErrForeignURL is returned by Delete for URLs this store did not issue.
	ErrForeignURL = errors.New("image URL is outside the upload directory")

	// ErrTooLarge is returned when an upload exceeds MaxUploadSize.
	ErrTooLarge = errors.New("image exceeds the upload size limit")

	// ErrNotImage is returned for uploads that are not a supported image.
	ErrNotImage = errors.New("file is not a supported image")
)

// ImageStore uploads and deletes images. Upload returns the URL to put in
// the draft field.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, folder, nameHint string) (string, error)
	Delete(ctx context.Context, url string) error
}
