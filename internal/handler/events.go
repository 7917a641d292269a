// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/nutricms/internal/model"
)

// Event list limits.
const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventLister reads the event log.
type EventLister interface {
	ListEvents(ctx context.Context, category string, limit int) ([]model.Event, error)
}

// EventsHandler exposes the event log.
type EventsHandler struct {
	events EventLister
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events EventLister) *EventsHandler {
	return &EventsHandler{events: events}
}

// EventView is an event log entry as returned by the API.
type EventView struct {
	ID        int64           `json:"id"`
	Level     string          `json:"level"`
	Category  string          `json:"category"`
	Message   string          `json:"message"`
	UserID    *int64          `json:"user_id,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func newEventView(e model.Event) EventView {
	v := EventView{
		ID:        e.ID,
		Level:     e.Level,
		Category:  e.Category,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
	if e.UserID.Valid {
		id := e.UserID.Int64
		v.UserID = &id
	}
	if e.Metadata != "" && json.Valid([]byte(e.Metadata)) {
		v.Metadata = json.RawMessage(e.Metadata)
	}
	return v
}

// List handles GET /admin/events?category=&limit=, newest first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit := min(queryInt(r, "limit", defaultEventLimit), maxEventLimit)

	events, err := h.events.ListEvents(r.Context(), category, limit)
	if err != nil {
		writeInternalError(w, r, "failed to list events", err, "category", category)
		return
	}
	views := make([]EventView, len(events))
	for i, e := range events {
		views[i] = newEventView(e)
	}
	WriteSuccess(w, views, &Meta{Total: int64(len(views))})
}
