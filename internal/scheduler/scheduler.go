// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: sweeping idle
// drafts, deleting unreferenced uploads and trimming the event log.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/nutricms/internal/model"
)

// jobTimeout bounds a single job run.
const jobTimeout = 5 * time.Minute

// Job is one maintenance task.
type Job struct {
	Name        string
	Description string
	Schedule    string
	Run         func(ctx context.Context) error
}

// Scheduler wraps a cron instance whose jobs skip a run while the previous
// one is still going.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
}

// New creates a scheduler. Schedules accept the standard five fields and
// descriptors such as @daily or @every 5m.
func New(logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{
		cron:     c,
		registry: NewRegistry(c, logger),
		logger:   logger,
	}
}

// Add registers a job. Errors and durations are logged; a failing run does
// not affect later ones.
func (s *Scheduler) Add(job Job) error {
	return s.registry.Register(job.Name, job.Description, job.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", job.Name, "error", err, "category", model.EventCategorySystem)
			return
		}
		s.logger.Debug("scheduled job finished", "job", job.Name, "duration", time.Since(start))
	})
}

// Registry returns the job registry.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
