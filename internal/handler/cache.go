// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/nutricms/internal/cache"
	"github.com/olegiv/nutricms/internal/middleware"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/translate"
)

// CacheHandler handles cache management routes.
type CacheHandler struct {
	shared cache.Cache
	drafts cache.Cache
}

// NewCacheHandler creates a new CacheHandler. shared holds translations;
// drafts holds persisted drafts and may be the same cache.
func NewCacheHandler(shared, drafts cache.Cache) *CacheHandler {
	return &CacheHandler{shared: shared, drafts: drafts}
}

// CacheStatsView reports the counters of each cache.
type CacheStatsView struct {
	Shared *cache.Stats `json:"shared,omitempty"`
	Drafts *cache.Stats `json:"drafts,omitempty"`
}

func statsOf(c cache.Cache) *cache.Stats {
	sp, ok := c.(cache.StatsProvider)
	if !ok {
		return nil
	}
	s := sp.Stats()
	return &s
}

// Stats handles GET /admin/cache/stats.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	view := CacheStatsView{Shared: statsOf(h.shared)}
	if h.drafts != h.shared {
		view.Drafts = statsOf(h.drafts)
	}
	WriteSuccess(w, view, nil)
}

// ResetStats handles DELETE /admin/cache/stats.
func (h *CacheHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	for _, c := range []cache.Cache{h.shared, h.drafts} {
		if sp, ok := c.(cache.StatsProvider); ok {
			sp.ResetStats()
		}
	}
	WriteNotice(w, nil, notify(r, "notify.stats_reset"))
}

// ClearTranslations handles DELETE /admin/cache/translations. Drafts are
// not touched.
func (h *CacheHandler) ClearTranslations(w http.ResponseWriter, r *http.Request) {
	if err := h.shared.DeleteByPrefix(r.Context(), translate.CachePrefix); err != nil {
		writeInternalError(w, r, "failed to clear translation cache", err)
		return
	}
	slog.InfoContext(r.Context(), "translation cache cleared",
		"cleared_by", middleware.GetUserID(r), "category", model.EventCategoryCache)
	WriteNotice(w, nil, notify(r, "notify.cache_cleared"))
}
