// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package metrics exposes Prometheus counters for the draft workflow.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultRejected = "rejected"
)

// Registry holds every nutricms collector, separate from the global default
// registry so tests and embedders get a predictable set.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	translations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutricms",
		Name:      "translations_total",
		Help:      "Machine translations requested, by result.",
	}, []string{"result"})

	translationCacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "nutricms",
		Name:      "translation_cache_hits_total",
		Help:      "Translations served from the translation cache.",
	})

	saves = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutricms",
		Name:      "saves_total",
		Help:      "Draft section saves, by entity kind and result.",
	}, []string{"kind", "result"})

	uploads = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nutricms",
		Name:      "uploads_total",
		Help:      "Image uploads, by result.",
	}, []string{"result"})

	liveDrafts = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "nutricms",
		Name:      "live_drafts",
		Help:      "Drafts currently held in memory.",
	})

	requestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nutricms",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by route pattern and status class.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveTranslation counts one translator call.
func ObserveTranslation(result string) {
	translations.WithLabelValues(result).Inc()
}

// ObserveTranslationCacheHit counts a translation answered from cache.
func ObserveTranslationCacheHit() {
	translationCacheHits.Inc()
}

// ObserveSave counts one section save.
func ObserveSave(kind, result string) {
	saves.WithLabelValues(kind, result).Inc()
}

// ObserveUpload counts one image upload.
func ObserveUpload(result string) {
	uploads.WithLabelValues(result).Inc()
}

// SetLiveDrafts records the number of drafts held in memory.
func SetLiveDrafts(n int) {
	liveDrafts.Set(float64(n))
}

// ObserveRequest records the latency of one HTTP request.
func ObserveRequest(route string, status int, seconds float64) {
	requestDuration.WithLabelValues(route, statusClass(status)).Observe(seconds)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
