// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/olegiv/nutricms/internal/model"
)

// ImageReferences lists upload URLs still in use, by saved content or by
// open drafts.
type ImageReferences interface {
	ReferencedImages(ctx context.Context) (map[string]bool, error)
}

// OrphanStore finds and deletes stored images.
type OrphanStore interface {
	Orphans(ctx context.Context, referenced map[string]bool, cutoff time.Time) ([]string, error)
	Delete(ctx context.Context, url string) error
}

// DraftSweeper drops drafts idle for longer than a duration.
type DraftSweeper interface {
	Sweep(idle time.Duration) int
}

// EventPruner deletes event log entries older than a time.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, t time.Time) (int64, error)
}

// OrphanSweep deletes uploads none of refs references. Files younger than
// grace are kept, since an upload may not be attached to a draft yet.
func OrphanSweep(images OrphanStore, grace time.Duration, logger *slog.Logger, refs ...ImageReferences) func(context.Context) error {
	return func(ctx context.Context) error {
		referenced := make(map[string]bool)
		for _, r := range refs {
			urls, err := r.ReferencedImages(ctx)
			if err != nil {
				return fmt.Errorf("collecting referenced images: %w", err)
			}
			maps.Copy(referenced, urls)
		}
		orphans, err := images.Orphans(ctx, referenced, time.Now().Add(-grace))
		if err != nil {
			return fmt.Errorf("listing orphans: %w", err)
		}

		var errs []error
		deleted := 0
		for _, url := range orphans {
			if err := images.Delete(ctx, url); err != nil {
				errs = append(errs, fmt.Errorf("deleting %s: %w", url, err))
				continue
			}
			deleted++
		}
		if deleted > 0 {
			logger.Info("deleted orphaned images", "count", deleted, "category", model.EventCategoryMedia)
		}
		return errors.Join(errs...)
	}
}

// DraftSweep releases drafts nobody touched for idle.
func DraftSweep(drafts DraftSweeper, idle time.Duration, logger *slog.Logger) func(context.Context) error {
	return func(context.Context) error {
		if n := drafts.Sweep(idle); n > 0 {
			logger.Info("dropped idle drafts", "count", n, "category", model.EventCategoryDraft)
		}
		return nil
	}
}

// EventRetention deletes event log entries older than retention.
func EventRetention(events EventPruner, retention time.Duration, logger *slog.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := events.DeleteEventsBefore(ctx, time.Now().Add(-retention))
		if err != nil {
			return fmt.Errorf("pruning events: %w", err)
		}
		if n > 0 {
			logger.Info("pruned event log", "count", n, "category", model.EventCategorySystem)
		}
		return nil
	}
}
