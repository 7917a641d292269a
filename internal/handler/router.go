// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/nutricms/internal/media"
	"github.com/olegiv/nutricms/internal/metrics"
	"github.com/olegiv/nutricms/internal/middleware"
)

// Handlers groups the handlers mounted by NewRouter.
type Handlers struct {
	Auth    *AuthHandler
	Drafts  *DraftsHandler
	Content *ContentHandler
	Lookups *LookupsHandler
	Media   *MediaHandler
	Health  *HealthHandler
	Jobs    *JobsHandler
	Events  *EventsHandler
	Cache   *CacheHandler
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Handlers        Handlers
	SessionManager  *scs.SessionManager
	Users           middleware.UserLoader
	LoginProtection *middleware.LoginProtection
	// CSRF protects state-changing admin routes; nil disables it.
	CSRF           func(http.Handler) http.Handler
	Security       middleware.SecurityHeadersConfig
	UploadsDir     string
	RequestTimeout time.Duration
	// RequestLog enables the chi access log.
	RequestLog bool
}

// uploadsMaxAge is the Cache-Control max-age of uploaded images. Upload
// names are unique, so a stored file never changes.
const uploadsMaxAge = 30 * 24 * 60 * 60

// NewRouter builds the HTTP routes of the admin backend.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handlers
	sm := cfg.SessionManager

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestMetrics)
	r.Use(middleware.Compress(1024))
	r.Use(chimw.GetHead)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(middleware.SecurityHeaders(cfg.Security))
	r.Use(sm.LoadAndSave)
	r.Use(middleware.Language(sm))

	r.Get(RouteHealth, h.Health.Health)
	r.Get(RouteHealthLive, h.Health.Liveness)
	r.Get(RouteHealthReady, h.Health.Readiness)
	r.Handle(RouteMetrics, metrics.Handler())

	uploads := http.StripPrefix(media.URLPrefix, http.FileServer(fileOnlyFS{http.Dir(cfg.UploadsDir)}))
	r.With(middleware.StaticCache(uploadsMaxAge)).Handle(RouteUploads, uploads)

	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(middleware.NoStore)
		if cfg.CSRF != nil {
			r.Use(cfg.CSRF)
		}

		r.With(cfg.LoginProtection.Middleware()).Post(RouteLogin, h.Auth.Login)
		r.Post(RouteLogout, h.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sm, cfg.Users))

			r.Get(RouteSession, h.Auth.Session)
			r.Put(RouteSessionLang, h.Auth.SetLanguage)

			r.Route(RouteDrafts, func(r chi.Router) {
				r.Post(RouteRoot, h.Drafts.Open)
				r.Get(RouteRoot, h.Drafts.Get)
				r.Delete(RouteRoot, h.Drafts.Cancel)
				r.Post(RouteSuffixEdit, h.Drafts.OpenEdit)
				r.Put(RouteSuffixFields, h.Drafts.Change)
				r.Post(RouteSuffixCommit, h.Drafts.Commit)
				r.Post(RouteSuffixToggle, h.Drafts.Toggle)
				r.Post(RouteSuffixItems, h.Drafts.AppendItem)
				r.Put(RouteItemsIndex, h.Drafts.UpdateItem)
				r.Delete(RouteItemsIndex, h.Drafts.RemoveItem)
				r.Put(RouteSuffixLang, h.Drafts.SetLang)
				r.Put(RouteSuffixMultiLang, h.Drafts.SetMultiLang)
				r.Post(RouteSuffixValidate, h.Drafts.Validate)
				r.Post(RouteSuffixSave, h.Drafts.Save)
				r.Post(RouteSuffixUpload, h.Drafts.Upload)
			})

			r.Route(RouteContent, func(r chi.Router) {
				r.Get(RouteRoot, h.Content.List)
				r.Get(RouteParamID, h.Content.Get)
				r.Delete(RouteParamID, h.Content.Delete)
				r.Get(RoutePreviewID, h.Content.Preview)
			})

			r.Route(RouteLookups, func(r chi.Router) {
				r.Get(RouteLookupFoods, h.Lookups.Foods)
				r.Get(RouteLookupRecipes, h.Lookups.Recipes)
				r.Get(RouteLookupTags, h.Lookups.Tags)
				r.Get(RouteLookupShopCategories, h.Lookups.ShopCategories)
				r.Get(RouteLookupLocation, h.Lookups.Location)
				r.Get(RouteLookupVocabulary, h.Lookups.Vocabulary)
			})

			r.Delete(RouteMedia, h.Media.Delete)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Get(RouteJobs, h.Jobs.List)
				r.Post(RouteJobRun, h.Jobs.Run)
				r.Get(RouteEvents, h.Events.List)
				r.Get(RouteCacheStats, h.Cache.Stats)
				r.Delete(RouteCacheStats, h.Cache.ResetStats)
				r.Delete(RouteCacheTranslations, h.Cache.ClearTranslations)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w, r, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed",
			notify(r, "notify.invalid_request"), nil)
	})

	return r
}

// fileOnlyFS hides directory listings of the uploads directory.
type fileOnlyFS struct {
	root http.FileSystem
}

func (f fileOnlyFS) Open(name string) (http.File, error) {
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
