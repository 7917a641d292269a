// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/nutricms/internal/imaging"
	"github.com/olegiv/nutricms/internal/metrics"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/util"
)

const maxNameLen = 60

// LocalStore keeps images on the local disk under a single root directory.
type LocalStore struct {
	root      string
	processor *imaging.Processor
	logger    *slog.Logger
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string, processor *imaging.Processor, logger *slog.Logger) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	if processor == nil {
		processor = imaging.NewProcessor(model.MaxImageWidth, imaging.DefaultQuality)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{root: abs, processor: processor, logger: logger}, nil
}

// Root returns the absolute upload directory.
func (s *LocalStore) Root() string {
	return s.root
}

// Upload processes the image read from r and writes it to
// <root>/<folder>/<uuid>-<slug><ext>.
func (s *LocalStore) Upload(ctx context.Context, r io.Reader, folder, nameHint string) (string, error) {
	url, err := s.upload(ctx, r, folder, nameHint)
	switch {
	case err == nil:
		metrics.ObserveUpload(metrics.ResultOK)
	case errors.Is(err, ErrTooLarge), errors.Is(err, ErrNotImage), errors.Is(err, ErrInvalidFolder):
		metrics.ObserveUpload(metrics.ResultRejected)
	default:
		metrics.ObserveUpload(metrics.ResultFailed)
	}
	return url, err
}

func (s *LocalStore) upload(ctx context.Context, r io.Reader, folder, nameHint string) (string, error) {
	if !util.IsValidSlug(folder) {
		return "", ErrInvalidFolder
	}

	res, err := s.processor.ProcessReader(r, MaxUploadSize)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		return "", ErrTooLarge
	case err != nil:
		s.logger.Debug("image rejected", "folder", folder, "error", err)
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating folder: %w", err)
	}

	name := fileName(nameHint, res.Ext)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(res.Data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("storing file: %w", err)
	}

	s.logger.Info("image uploaded", "folder", folder, "file", name,
		"width", res.Width, "height", res.Height, "resized", res.Resized)
	return URLPrefix + folder + "/" + name, nil
}

// Delete removes the file behind url. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	p, err := s.pathFor(url)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting image: %w", err)
	}
	s.logger.Info("image deleted", "url", url)
	return nil
}

// Orphans lists the URLs of stored images that are not in referenced and
// were last modified before cutoff. Files of in-progress drafts are newer
// than any sensible cutoff and survive.
func (s *LocalStore) Orphans(ctx context.Context, referenced map[string]bool, cutoff time.Time) ([]string, error) {
	var orphans []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		url := URLPrefix + filepath.ToSlash(rel)
		if !referenced[url] {
			orphans = append(orphans, url)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning uploads: %w", err)
	}
	return orphans, nil
}

// pathFor maps an issued URL back to its file, refusing anything that would
// resolve outside root.
func (s *LocalStore) pathFor(url string) (string, error) {
	rel, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || rel == "" || strings.Contains(rel, "\\") {
		return "", ErrForeignURL
	}
	clean := path.Clean("/" + rel)[1:]
	if clean != rel || strings.Count(clean, "/") != 1 {
		return "", ErrForeignURL
	}
	p := filepath.Join(s.root, filepath.FromSlash(clean))
	back, err := filepath.Rel(s.root, p)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(filepath.Separator)) {
		return "", ErrForeignURL
	}
	return p, nil
}

func fileName(hint, ext string) string {
	hint = strings.TrimSuffix(hint, filepath.Ext(hint))
	slug := util.TruncateSlug(util.Slugify(hint), maxNameLen)
	if slug == "" {
		slug = "image"
	}
	return uuid.NewString() + "-" + slug + ext
}

var _ ImageStore = (*LocalStore)(nil)
