// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package bilingual

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"weak"

	"github.com/olegiv/nutricms/internal/cache"
	"github.com/olegiv/nutricms/internal/metrics"
	"github.com/olegiv/nutricms/internal/model"
)

// persistTimeout bounds a single write of a draft to the persister.
const persistTimeout = 3 * time.Second

// ErrNotPersisted is returned by a Persister when nothing is stored under the key.
var ErrNotPersisted = errors.New("draft not persisted")

// Persister stores serialized drafts under session-scoped keys.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// CachePersister keeps drafts in a cache (memory or Redis). The TTL should
// match the session lifetime so drafts do not outlive the session.
type CachePersister struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewCachePersister creates a persister on top of c.
func NewCachePersister(c cache.Cache, ttl time.Duration) *CachePersister {
	return &CachePersister{cache: c, ttl: ttl}
}

// Load implements Persister.
func (p *CachePersister) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := p.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNotPersisted
	}
	return data, err
}

// Save implements Persister.
func (p *CachePersister) Save(ctx context.Context, key string, data []byte) error {
	return p.cache.Set(ctx, key, data, p.ttl)
}

// Delete implements Persister.
func (p *CachePersister) Delete(ctx context.Context, key string) error {
	return p.cache.Delete(ctx, key)
}

// Keys implements Persister.
func (p *CachePersister) Keys(ctx context.Context, prefix string) ([]string, error) {
	return p.cache.Keys(ctx, prefix)
}

type draftKey struct {
	token string
	kind  model.EntityKind
}

type managedDraft struct {
	draft    *Draft
	lastUsed time.Time
}

// Manager owns the drafts of all admin sessions: at most one draft per
// session and entity kind. Acquiring a draft restores it from the persister
// when the process no longer holds it; closing a draft disposes it together
// with its persisted copy.
type Manager struct {
	mu     sync.Mutex
	drafts map[draftKey]*managedDraft
	// detached holds swept drafts a request may still be using. Get
	// reinstalls one that is still reachable instead of restoring a copy.
	detached  map[draftKey]weak.Pointer[Draft]
	persister Persister
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a draft manager.
func NewManager(persister Persister, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		drafts:    make(map[draftKey]*managedDraft),
		detached:  make(map[draftKey]weak.Pointer[Draft]),
		persister: persister,
		logger:    logger,
		now:       time.Now,
	}
}

// StoragePrefix starts the persister key of every draft.
const StoragePrefix = "draft:"

// StorageKey returns the persister key of a session's draft.
func StorageKey(token string, schema *model.EntitySchema) string {
	return StoragePrefix + token + ":" + schema.StorageKey
}

// Open returns the create-mode draft of the session, resuming an unsaved one
// when present. An open edit draft of the same kind is discarded.
func (m *Manager) Open(ctx context.Context, token string, kind model.EntityKind) (*Draft, error) {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	existing, err := m.Get(ctx, token, kind)
	switch {
	case err == nil && existing.Mode() == ModeCreate:
		return existing, nil
	case err == nil:
		if err := m.Close(ctx, token, kind); err != nil {
			return nil, err
		}
	case !errors.Is(err, ErrNoDraft):
		return nil, err
	}

	d := NewDraft(schema)
	m.attach(ctx, token, d)
	return d, nil
}

// OpenForEdit opens a draft for an existing record, replacing whatever
// draft of the same kind the session had open.
func (m *Manager) OpenForEdit(ctx context.Context, token string, kind model.EntityKind, recordID int64, doc Document) (*Draft, error) {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	d, err := NewEditDraft(schema, recordID, doc)
	if err != nil {
		return nil, err
	}
	if err := m.Close(ctx, token, kind); err != nil {
		return nil, err
	}
	m.attach(ctx, token, d)
	return d, nil
}

// Get returns the open draft of the session. It returns ErrNoDraft when
// neither the process nor the persister holds one.
func (m *Manager) Get(ctx context.Context, token string, kind model.EntityKind) (*Draft, error) {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	key := draftKey{token: token, kind: kind}

	m.mu.Lock()
	if md, ok := m.drafts[key]; ok {
		md.lastUsed = m.now()
		m.mu.Unlock()
		return md.draft, nil
	}
	if d := m.reattachLocked(key); d != nil {
		m.mu.Unlock()
		return d, nil
	}
	m.mu.Unlock()

	data, err := m.persister.Load(ctx, StorageKey(token, schema))
	if errors.Is(err, ErrNotPersisted) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		m.logger.WarnContext(ctx, "discarding unreadable persisted draft",
			"category", model.EventCategoryDraft, "kind", kind, "error", err)
		_ = m.persister.Delete(ctx, StorageKey(token, schema))
		return nil, ErrNoDraft
	}
	d, err := restoreDraft(schema, st)
	if err != nil {
		m.logger.WarnContext(ctx, "discarding invalid persisted draft",
			"category", model.EventCategoryDraft, "kind", kind, "error", err)
		_ = m.persister.Delete(ctx, StorageKey(token, schema))
		return nil, ErrNoDraft
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have restored it meanwhile.
	if md, ok := m.drafts[key]; ok {
		return md.draft, nil
	}
	m.install(key, d)
	return d, nil
}

// Close disposes the session's draft: in-flight background work is
// discarded and the persisted copy removed. Closing an absent draft is a no-op.
func (m *Manager) Close(ctx context.Context, token string, kind model.EntityKind) error {
	schema, err := model.SchemaFor(kind)
	if err != nil {
		return err
	}
	key := draftKey{token: token, kind: kind}

	m.mu.Lock()
	if md, ok := m.drafts[key]; ok {
		md.draft.dispose()
		delete(m.drafts, key)
	}
	if wp, ok := m.detached[key]; ok {
		if d := wp.Value(); d != nil {
			d.dispose()
		}
		delete(m.detached, key)
	}
	metrics.SetLiveDrafts(len(m.drafts))
	m.mu.Unlock()

	if err := m.persister.Delete(ctx, StorageKey(token, schema)); err != nil {
		return fmt.Errorf("deleting persisted draft: %w", err)
	}
	return nil
}

// CloseSession closes every draft of a session, e.g. on logout.
func (m *Manager) CloseSession(ctx context.Context, token string) error {
	var errs []error
	for _, kind := range model.EntityKinds() {
		if err := m.Close(ctx, token, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sweep releases in-memory drafts unused for longer than idle. A released
// draft stays usable by whoever still holds it and keeps persisting; once
// nothing references it, a later Get restores the persisted copy. It returns
// the number of drafts released.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, wp := range m.detached {
		if wp.Value() == nil {
			delete(m.detached, key)
		}
	}
	n := 0
	for key, md := range m.drafts {
		if md.lastUsed.Before(cutoff) {
			m.detached[key] = weak.Make(md.draft)
			delete(m.drafts, key)
			n++
		}
	}
	metrics.SetLiveDrafts(len(m.drafts))
	return n
}

// reattachLocked moves a swept draft that is still referenced back into the
// live set.
func (m *Manager) reattachLocked(key draftKey) *Draft {
	wp, ok := m.detached[key]
	if !ok {
		return nil
	}
	delete(m.detached, key)
	d := wp.Value()
	if d == nil {
		return nil
	}
	m.install(key, d)
	return d
}

// ReferencedImages returns the uploaded image URLs held by open drafts, in
// memory or persisted, so unsaved uploads are not collected as orphans.
func (m *Manager) ReferencedImages(ctx context.Context) (map[string]bool, error) {
	refs := make(map[string]bool)

	var live []*Draft
	m.mu.Lock()
	for _, md := range m.drafts {
		live = append(live, md.draft)
	}
	for _, wp := range m.detached {
		if d := wp.Value(); d != nil {
			live = append(live, d)
		}
	}
	m.mu.Unlock()
	for _, d := range live {
		collectImages(d.Schema(), d.Document(), refs)
	}

	keys, err := m.persister.Keys(ctx, StoragePrefix)
	if err != nil {
		return nil, fmt.Errorf("listing persisted drafts: %w", err)
	}
	for _, key := range keys {
		data, err := m.persister.Load(ctx, key)
		if errors.Is(err, ErrNotPersisted) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading draft %s: %w", key, err)
		}
		var st State
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}
		schema, err := model.SchemaFor(st.Kind)
		if err != nil {
			continue
		}
		collectImages(schema, st.Sections, refs)
	}
	return refs, nil
}

// collectImages adds the non-empty image field values of doc to refs.
func collectImages(schema *model.EntitySchema, doc Document, refs map[string]bool) {
	for _, sec := range schema.Sections {
		p, ok := doc[sec.Name]
		if !ok || p == nil {
			continue
		}
		for _, f := range sec.Fields {
			if f.Kind != model.FieldImage {
				continue
			}
			for _, fm := range []FieldMap{p.EN, p.FR} {
				if u, _ := fm[f.Name].(string); strings.TrimSpace(u) != "" {
					refs[u] = true
				}
			}
		}
	}
}

// Len returns the number of drafts held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.drafts)
}

// attach registers a new draft and writes its initial state.
func (m *Manager) attach(ctx context.Context, token string, d *Draft) {
	key := draftKey{token: token, kind: d.Kind()}
	m.mu.Lock()
	m.install(key, d)
	m.mu.Unlock()
	m.save(ctx, key, d.Snapshot())
}

func (m *Manager) install(key draftKey, d *Draft) {
	m.drafts[key] = &managedDraft{draft: d, lastUsed: m.now()}
	d.setPersist(func(st State) {
		m.save(context.Background(), key, st)
	})
	metrics.SetLiveDrafts(len(m.drafts))
}

// save writes a draft state. Failures are logged: the in-memory draft stays
// authoritative and the next mutation retries the write.
func (m *Manager) save(ctx context.Context, key draftKey, st State) {
	schema, err := model.SchemaFor(key.kind)
	if err != nil {
		return
	}
	data, err := json.Marshal(st)
	if err != nil {
		m.logger.Error("encoding draft", "kind", key.kind, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := m.persister.Save(ctx, StorageKey(key.token, schema), data); err != nil {
		m.logger.WarnContext(ctx, "persisting draft failed",
			"category", model.EventCategoryDraft, "kind", key.kind, "error", err)
	}
}
