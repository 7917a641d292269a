// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testTranslation struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

func TestTypedCache_SetGet(t *testing.T) {
	mem := newTestMemoryCache(time.Hour, 0)
	defer func() { _ = mem.Close() }()

	tc := NewTypedCache[testTranslation](mem, "tr:", time.Hour)
	ctx := context.Background()

	if err := tc.Set(ctx, "abc", testTranslation{Source: "Apple", Text: "Pomme"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := tc.Get(ctx, "abc")
	if !ok || got.Text != "Pomme" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if keys, _ := mem.Keys(ctx, "tr:"); len(keys) != 1 || keys[0] != "tr:abc" {
		t.Errorf("expected prefixed key in the underlying cache, got %v", keys)
	}

	_ = tc.Delete(ctx, "abc")
	if _, ok := tc.Get(ctx, "abc"); ok {
		t.Error("expected miss after Delete")
	}
}

func TestTypedCache_UndecodableIsMiss(t *testing.T) {
	mem := newTestMemoryCache(time.Hour, 0)
	defer func() { _ = mem.Close() }()
	ctx := context.Background()

	_ = mem.Set(ctx, "tr:bad", []byte("not json"), 0)
	tc := NewTypedCache[testTranslation](mem, "tr:", time.Hour)
	if _, ok := tc.Get(ctx, "bad"); ok {
		t.Error("expected undecodable entry to be a miss")
	}
}

func TestTypedCache_GetOrSet(t *testing.T) {
	mem := newTestMemoryCache(time.Hour, 0)
	defer func() { _ = mem.Close() }()
	tc := NewTypedCache[string](mem, "", time.Hour)
	ctx := context.Background()

	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return "Bonjour", nil
	}
	for range 3 {
		v, err := tc.GetOrSet(ctx, "hello", fn)
		if err != nil || v != "Bonjour" {
			t.Fatalf("GetOrSet = %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	_, err := tc.GetOrSet(ctx, "other", func(context.Context) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected compute error, got %v", err)
	}
	if _, ok := tc.Get(ctx, "other"); ok {
		t.Error("failed computation must not be cached")
	}
}
