// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteAdmin prefixes every admin route.
	RouteAdmin = "/admin"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamIndex is the list item index parameter pattern.
	RouteParamIndex = "/{index}"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteSession returns the signed-in admin.
	RouteSession = "/session"
	// RouteSessionLang sets the notification language of the session.
	RouteSessionLang = "/session/lang"

	// RouteDrafts is the draft workspace of one entity kind.
	RouteDrafts = "/drafts/{kind}"
	// RouteContent is the saved records of one entity kind.
	RouteContent = "/content/{kind}"
	// RouteLookups prefixes the pick-list routes.
	RouteLookups = "/lookups"
	// RouteMedia is the image deletion route.
	RouteMedia = "/media"

	// RouteSuffixEdit opens an edit draft for a record.
	RouteSuffixEdit = "/edit/{id}"
	// RouteSuffixFields is the field change route.
	RouteSuffixFields = "/fields"
	// RouteSuffixCommit is the field commit (blur) route.
	RouteSuffixCommit = "/fields/commit"
	// RouteSuffixToggle toggles a multi-select option.
	RouteSuffixToggle = "/fields/toggle"
	// RouteSuffixItems is the record list route.
	RouteSuffixItems = "/items"
	// RouteSuffixLang switches the edited language.
	RouteSuffixLang = "/lang"
	// RouteSuffixMultiLang enables or disables French entry.
	RouteSuffixMultiLang = "/multilang"
	// RouteSuffixValidate validates a section.
	RouteSuffixValidate = "/validate"
	// RouteSuffixSave saves a section.
	RouteSuffixSave = "/save"
	// RouteSuffixUpload is the suffix for upload routes.
	RouteSuffixUpload = "/upload"
	// RouteSuffixPreview renders the text fields of a record.
	RouteSuffixPreview = "/preview"

	// RouteLookupFoods lists foods.
	RouteLookupFoods = "/foods"
	// RouteLookupRecipes lists recipes.
	RouteLookupRecipes = "/recipes"
	// RouteLookupTags lists tags.
	RouteLookupTags = "/tags"
	// RouteLookupShopCategories lists shop categories.
	RouteLookupShopCategories = "/shop-categories"
	// RouteLookupLocation returns one store location.
	RouteLookupLocation = "/locations/{id}"
	// RouteLookupVocabulary returns one option table.
	RouteLookupVocabulary = "/vocabularies/{name}"

	// RouteJobs lists the maintenance jobs.
	RouteJobs = "/jobs"
	// RouteJobRun runs one job outside its schedule.
	RouteJobRun = "/jobs/{name}/run"
	// RouteEvents lists the event log.
	RouteEvents = "/events"
	// RouteCacheStats reports or resets cache counters.
	RouteCacheStats = "/cache/stats"
	// RouteCacheTranslations clears cached translations.
	RouteCacheTranslations = "/cache/translations"

	// RouteHealth is the health check route.
	RouteHealth = "/health"
	// RouteHealthLive is the liveness probe.
	RouteHealthLive = "/health/live"
	// RouteHealthReady is the readiness probe.
	RouteHealthReady = "/health/ready"
	// RouteMetrics exposes prometheus metrics.
	RouteMetrics = "/metrics"
	// RouteUploads serves uploaded images.
	RouteUploads = "/uploads/*"

	// RouteItemsIndex is the record list item route pattern.
	RouteItemsIndex = RouteSuffixItems + RouteParamIndex
	// RoutePreviewID is the record preview route pattern.
	RoutePreviewID = RouteParamID + RouteSuffixPreview
)

// URL parameter names.
const (
	paramKind  = "kind"
	paramID    = "id"
	paramIndex = "index"
	paramName  = "name"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20
