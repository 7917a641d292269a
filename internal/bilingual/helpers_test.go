// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/olegiv/nutricms/internal/cache"
	"github.com/olegiv/nutricms/internal/model"
)

// fakeTranslator answers from a fixed table. Texts listed in gates block
// until their channel is closed; texts in fail return an error.
type fakeTranslator struct {
	mu    sync.Mutex
	table map[string]string
	gates map[string]chan struct{}
	fail  map[string]bool
	calls []string
}

func newFakeTranslator(table map[string]string) *fakeTranslator {
	return &fakeTranslator{
		table: table,
		gates: map[string]chan struct{}{},
		fail:  map[string]bool{},
	}
}

// gate makes translations of text block until the returned func is called.
func (f *fakeTranslator) gate(text string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[text] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	gate := f.gates[text]
	failing := f.fail[text]
	out, ok := f.table[text]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if failing {
		return "", errors.New("translator unavailable")
	}
	if !ok {
		return "[fr] " + text, nil
	}
	return out, nil
}

func (f *fakeTranslator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testVocabularies(t *testing.T) Vocabularies {
	t.Helper()
	vs, err := DefaultVocabularies()
	if err != nil {
		t.Fatalf("DefaultVocabularies: %v", err)
	}
	return vs
}

func newTestSync(t *testing.T, tr Translator) *Synchronizer {
	t.Helper()
	s := NewSynchronizer(tr, testVocabularies(t), discardLogger())
	t.Cleanup(s.Wait)
	return s
}

func mustSchema(t *testing.T, kind model.EntityKind) *model.EntitySchema {
	t.Helper()
	s, err := model.SchemaFor(kind)
	if err != nil {
		t.Fatalf("SchemaFor(%s): %v", kind, err)
	}
	return s
}

func mustField(t *testing.T, d *Draft, section string, lang model.Lang, field string) any {
	t.Helper()
	v, ok := d.Field(section, lang, field)
	if !ok {
		t.Fatalf("field %s.%s.%s not found", section, lang, field)
	}
	return v
}

// persisted reports whether c holds an entry under key.
func persisted(t *testing.T, c cache.Cache, key string) bool {
	t.Helper()
	_, err := c.Get(context.Background(), key)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		t.Fatalf("reading %s: %v", key, err)
	}
	return err == nil
}
