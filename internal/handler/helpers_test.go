// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/nutricms/internal/auth"
	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/cache"
	"github.com/olegiv/nutricms/internal/content"
	"github.com/olegiv/nutricms/internal/i18n"
	"github.com/olegiv/nutricms/internal/imaging"
	"github.com/olegiv/nutricms/internal/media"
	"github.com/olegiv/nutricms/internal/middleware"
	"github.com/olegiv/nutricms/internal/scheduler"
	"github.com/olegiv/nutricms/internal/session"
	"github.com/olegiv/nutricms/internal/store"
	"github.com/olegiv/nutricms/internal/testutil"
	"github.com/olegiv/nutricms/internal/validation"
	"github.com/olegiv/nutricms/internal/version"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "correct-horse-battery"
)

func TestMain(m *testing.M) {
	if err := i18n.Init(testutil.DiscardLogger()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// prefixTranslator translates by prefixing "[fr] ".
type prefixTranslator struct{}

func (prefixTranslator) Translate(_ context.Context, text string) (string, error) {
	return "[fr] " + text, nil
}

type testEnv struct {
	t       *testing.T
	server  *httptest.Server
	content *content.Service
	drafts  *bilingual.Manager
	sync    *bilingual.Synchronizer
	images  *media.LocalStore
	cache   *cache.MemoryCache
	queries *store.Queries
	cookies []*http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := testutil.DiscardLogger()

	db := testutil.TestDB(t)
	require.NoError(t, store.SeedAdmin(ctx, db, testEmail, testPassword))
	require.NoError(t, store.SeedLookups(ctx, db))

	sm := session.New(db, true)
	vocabularies, err := bilingual.DefaultVocabularies()
	require.NoError(t, err)

	memCache := cache.NewMemoryCache(cache.MemoryOptions{})
	t.Cleanup(func() { _ = memCache.Close() })
	drafts := bilingual.NewManager(bilingual.NewCachePersister(memCache, 0), logger)
	synchronizer := bilingual.NewSynchronizer(prefixTranslator{}, vocabularies, logger)

	uploadsDir := t.TempDir()
	images, err := media.NewLocalStore(uploadsDir, imaging.NewProcessor(1600, 85), logger)
	require.NoError(t, err)

	contentSvc := content.NewService(db, vocabularies, logger)
	queries := store.New(db)
	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	t.Cleanup(lp.Close)

	sched := scheduler.New(logger)
	require.NoError(t, sched.Add(scheduler.Job{
		Name:        "idle_drafts",
		Description: "Release drafts left idle in memory",
		Schedule:    "@hourly",
		Run:         scheduler.DraftSweep(drafts, 0, logger),
	}))

	router := NewRouter(RouterConfig{
		Handlers: Handlers{
			Auth:    NewAuthHandler(sm, auth.NewAuthenticator(queries, logger), lp, drafts),
			Drafts:  NewDraftsHandler(sm, drafts, synchronizer, contentSvc, validation.New(vocabularies), images, logger),
			Content: NewContentHandler(contentSvc, content.NewPreviewer()),
			Lookups: NewLookupsHandler(contentSvc, vocabularies),
			Media:   NewMediaHandler(images),
			Health:  NewHealthHandler(db, sm, memCache, uploadsDir, version.Info{Version: "test"}),
			Jobs:    NewJobsHandler(sched.Registry()),
			Events:  NewEventsHandler(queries),
			Cache:   NewCacheHandler(memCache, memCache),
		},
		SessionManager:  sm,
		Users:           queries,
		LoginProtection: lp,
		Security:        middleware.DefaultSecurityHeadersConfig(true),
		UploadsDir:      uploadsDir,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(synchronizer.Wait)

	return &testEnv{
		t:       t,
		server:  srv,
		content: contentSvc,
		drafts:  drafts,
		sync:    synchronizer,
		images:  images,
		cache:   memCache,
		queries: queries,
	}
}

// do sends a request with the session cookies of the env and keeps any
// cookie the response sets.
func (e *testEnv) do(method, path string, body any) *http.Response {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rdr)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(req)
}

func (e *testEnv) send(req *http.Request) *http.Response {
	e.t.Helper()
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	e.t.Cleanup(func() { _ = resp.Body.Close() })
	if set := resp.Cookies(); len(set) > 0 {
		e.cookies = set
	}
	return resp
}

// login signs the seeded admin in.
func (e *testEnv) login() {
	e.t.Helper()
	resp := e.do(http.MethodPost, "/admin/login", map[string]string{
		"email":    testEmail,
		"password": testPassword,
	})
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(e.t, e.cookies)
}

// loginAs creates a user with role and signs it in.
func (e *testEnv) loginAs(email, role string) {
	e.t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(e.t, err)
	now := time.Now()
	_, err = e.queries.CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         "Editor",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(e.t, err)
	resp := e.do(http.MethodPost, "/admin/login", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
}

// decode reads a JSON response into dst.
func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if dst != nil {
		require.NoError(t, json.Unmarshal(data, dst), string(data))
	}
}

// envelope is the decoded form of Response and ErrorResponse.
type envelope[T any] struct {
	Data         T            `json:"data"`
	Meta         *Meta        `json:"meta"`
	Notification string       `json:"notification"`
	Error        *ErrorDetail `json:"error"`
}

func decodeEnvelope[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()
	var env envelope[T]
	decode(t, resp, &env)
	return env
}

// field returns a field of a draft view section.
func field(v DraftView, section, lang, name string) any {
	p := v.Sections[section]
	if p == nil {
		return nil
	}
	if strings.EqualFold(lang, "fr") {
		return p.FR[name]
	}
	return p.EN[name]
}
