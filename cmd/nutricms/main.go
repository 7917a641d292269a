// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/nutricms/internal/auth"
	"github.com/olegiv/nutricms/internal/bilingual"
	"github.com/olegiv/nutricms/internal/cache"
	"github.com/olegiv/nutricms/internal/config"
	"github.com/olegiv/nutricms/internal/content"
	"github.com/olegiv/nutricms/internal/handler"
	"github.com/olegiv/nutricms/internal/i18n"
	"github.com/olegiv/nutricms/internal/imaging"
	"github.com/olegiv/nutricms/internal/logging"
	"github.com/olegiv/nutricms/internal/media"
	"github.com/olegiv/nutricms/internal/middleware"
	"github.com/olegiv/nutricms/internal/model"
	"github.com/olegiv/nutricms/internal/scheduler"
	"github.com/olegiv/nutricms/internal/session"
	"github.com/olegiv/nutricms/internal/store"
	"github.com/olegiv/nutricms/internal/translate"
	"github.com/olegiv/nutricms/internal/validation"
	"github.com/olegiv/nutricms/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// maxImageWidth is the width uploads are scaled down to.
const maxImageWidth = 1600

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "nutriCMS - bilingual content admin backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NUTRICMS_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NUTRICMS_DB_PATH           SQLite database path (default: ./data/nutricms.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NUTRICMS_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NUTRICMS_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NUTRICMS_UPLOADS_DIR       Image upload directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NUTRICMS_ADMIN_PASSWORD    Seeds the admin account on first start\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NUTRICMS_REDIS_URL         Redis URL for drafts and translations (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NUTRICMS_OPENAI_API_KEY    Enables machine translation into French (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println(buildInfo())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func buildInfo() version.Info {
	return version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := buildInfo()

	logLevel := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.SeedAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	if cfg.SeedLookups {
		if err := store.SeedLookups(ctx, db); err != nil {
			return fmt.Errorf("seeding lookups: %w", err)
		}
	}

	vocabularies, err := bilingual.DefaultVocabularies()
	if err != nil {
		return fmt.Errorf("loading vocabularies: %w", err)
	}
	if err := vocabularies.CheckSchemas(); err != nil {
		return fmt.Errorf("checking schemas: %w", err)
	}

	cacheCfg := cache.Config{
		RedisURL: cfg.RedisURL,
		Prefix:   cfg.CachePrefix,
		MaxItems: cfg.CacheMaxSize,
	}
	sharedCache, err := cache.New(cacheCfg)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = sharedCache.Close() }()

	// Redis has no entry limit; in memory, drafts get their own unbounded
	// cache so translations cannot evict them.
	draftCache := sharedCache
	if !cfg.UseRedisCache() {
		draftCache, err = cache.New(cacheCfg.Unbounded())
		if err != nil {
			return fmt.Errorf("initializing draft cache: %w", err)
		}
		defer func() { _ = draftCache.Close() }()
	}
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cache.SanitizeRedisURL(cfg.RedisURL))
	} else {
		slog.Info("cache initialized", "backend", "memory")
	}

	var translator translate.Translator = translate.Disabled{}
	if cfg.TranslationEnabled() {
		translator = translate.NewOpenAI(translate.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.TranslateTimeout,
		})
		translator = translate.NewCached(translator, sharedCache, cfg.TranslationTTL)
		translator = translate.NewRateLimited(translator, cfg.TranslateRate, cfg.TranslateBurst)
		slog.Info("machine translation enabled", "model", cfg.OpenAIModel)
	} else {
		slog.Warn("machine translation disabled; French fields are filled by hand",
			"category", model.EventCategoryConfig)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	drafts := bilingual.NewManager(bilingual.NewCachePersister(draftCache, cfg.DraftTTL), logger)
	synchronizer := bilingual.NewSynchronizer(translator, vocabularies, logger)

	images, err := media.NewLocalStore(cfg.UploadsDir, imaging.NewProcessor(maxImageWidth, cfg.ImageQuality), logger)
	if err != nil {
		return fmt.Errorf("initializing uploads: %w", err)
	}

	contentService := content.NewService(db, vocabularies, logger)
	queries := store.New(db)

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	sched := scheduler.New(logger)
	jobs := []scheduler.Job{
		{
			Name:        "orphan_images",
			Description: "Delete uploads no saved record or open draft references",
			Schedule:    cfg.OrphanSweepSchedule,
			Run:         scheduler.OrphanSweep(images, cfg.OrphanGrace, logger, contentService, drafts),
		},
		{
			Name:        "idle_drafts",
			Description: "Release drafts left idle in memory",
			Schedule:    cfg.DraftSweepSchedule,
			Run:         scheduler.DraftSweep(drafts, cfg.DraftIdle, logger),
		},
		{
			Name:        "event_retention",
			Description: "Trim the event log",
			Schedule:    cfg.EventSweepSchedule,
			Run:         scheduler.EventRetention(queries, cfg.EventRetention, logger),
		},
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	csrfMiddleware := middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment()))

	router := handler.NewRouter(handler.RouterConfig{
		Handlers: handler.Handlers{
			Auth:    handler.NewAuthHandler(sessionManager, auth.NewAuthenticator(queries, logger), loginProtection, drafts),
			Drafts:  handler.NewDraftsHandler(sessionManager, drafts, synchronizer, contentService, validation.New(vocabularies), images, logger),
			Content: handler.NewContentHandler(contentService, content.NewPreviewer()),
			Lookups: handler.NewLookupsHandler(contentService, vocabularies),
			Media:   handler.NewMediaHandler(images),
			Health:  handler.NewHealthHandler(db, sessionManager, sharedCache, cfg.UploadsDir, versionInfo),
			Jobs:    handler.NewJobsHandler(sched.Registry()),
			Events:  handler.NewEventsHandler(queries),
			Cache:   handler.NewCacheHandler(sharedCache, draftCache),
		},
		SessionManager:  sessionManager,
		Users:           queries,
		LoginProtection: loginProtection,
		CSRF:            csrfMiddleware,
		Security:        middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment()),
		UploadsDir:      cfg.UploadsDir,
		RequestTimeout:  45 * time.Second,
		RequestLog:      cfg.IsDevelopment(),
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for image uploads and translations
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", appVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	// Let background item translations land before the cache closes.
	synchronizer.Wait()

	slog.Info("server stopped")
	return nil
}
