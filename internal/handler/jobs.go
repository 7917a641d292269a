// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/nutricms/internal/middleware"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/scheduler"
)

// JobRegistry lists and runs the maintenance jobs.
type JobRegistry interface {
	List() []scheduler.JobInfo
	TriggerNow(name string) error
}

// JobsHandler exposes the scheduled maintenance jobs.
type JobsHandler struct {
	jobs JobRegistry
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(jobs JobRegistry) *JobsHandler {
	return &JobsHandler{jobs: jobs}
}

// List handles GET /admin/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	WriteSuccess(w, jobs, &Meta{Total: int64(len(jobs))})
}

// Run handles POST /admin/jobs/{name}/run. The job runs synchronously;
// its own failures are logged by the scheduler, not returned.
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, paramName)
	if err := h.jobs.TriggerNow(name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			writeNotFound(w, r, err.Error())
			return
		}
		writeInternalError(w, r, "failed to run job", err, "job", name)
		return
	}
	slog.InfoContext(r.Context(), "job triggered manually",
		"job", name, "triggered_by", middleware.GetUserID(r), "category", model.EventCategorySystem)
	WriteNotice(w, nil, notify(r, "notify.job_triggered", name))
}
