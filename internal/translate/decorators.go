// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/nutricms/internal/cache"
	"github.com/olegiv/nutricms/internal/metrics"
)

// CachePrefix is the cache key prefix of stored translations.
const CachePrefix = "translation:"

// DefaultCacheTTL is how long a translation is reused.
const DefaultCacheTTL = 30 * 24 * time.Hour

// Cached memoizes translations in a cache keyed by the source text.
type Cached struct {
	next  Translator
	cache *cache.TypedCache[string]
}

// NewCached wraps next with a translation cache stored in c.
func NewCached(next Translator, c cache.Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{next: next, cache: cache.NewTypedCache[string](c, CachePrefix, ttl)}
}

// Translate implements Translator. Failures are never cached.
func (c *Cached) Translate(ctx context.Context, text string) (string, error) {
	hit := true
	out, err := c.cache.GetOrSet(ctx, cacheKey(text), func(ctx context.Context) (string, error) {
		hit = false
		return c.next.Translate(ctx, text)
	})
	if err != nil {
		return "", err
	}
	if hit {
		metrics.ObserveTranslationCacheHit()
	}
	return out, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// RateLimited spaces out calls to the provider. Callers wait for a slot or
// give up when their context ends.
type RateLimited struct {
	next    Translator
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second with bursts of burst.
func NewRateLimited(next Translator, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Translate implements Translator.
func (r *RateLimited) Translate(ctx context.Context, text string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Translate(ctx, text)
}
