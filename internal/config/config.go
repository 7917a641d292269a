// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the nutricms configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"NUTRICMS_DB_PATH" envDefault:"./data/nutricms.db"`
	SessionSecret string `env:"NUTRICMS_SESSION_SECRET,required"`
	ServerHost    string `env:"NUTRICMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"NUTRICMS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"NUTRICMS_ENV" envDefault:"development"`
	LogLevel      string `env:"NUTRICMS_LOG_LEVEL" envDefault:"info"`
	UploadsDir    string `env:"NUTRICMS_UPLOADS_DIR" envDefault:"./uploads"`
	ImageQuality  int    `env:"NUTRICMS_IMAGE_QUALITY" envDefault:"85"`

	// Seeded on an empty database.
	AdminEmail    string `env:"NUTRICMS_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"NUTRICMS_ADMIN_PASSWORD"`
	SeedLookups   bool   `env:"NUTRICMS_SEED_LOOKUPS" envDefault:"false"`

	// Drafts and translations live in Redis when set, in memory otherwise.
	RedisURL     string        `env:"NUTRICMS_REDIS_URL"`
	CachePrefix  string        `env:"NUTRICMS_CACHE_PREFIX" envDefault:"nutricms:"`
	CacheMaxSize int           `env:"NUTRICMS_CACHE_MAX_SIZE" envDefault:"10000"`
	DraftTTL     time.Duration `env:"NUTRICMS_DRAFT_TTL" envDefault:"24h"`
	DraftIdle    time.Duration `env:"NUTRICMS_DRAFT_IDLE" envDefault:"30m"`

	// Machine translation. Without an API key French fields are only
	// filled by hand.
	OpenAIAPIKey       string        `env:"NUTRICMS_OPENAI_API_KEY"`
	OpenAIBaseURL      string        `env:"NUTRICMS_OPENAI_BASE_URL"`
	OpenAIModel        string        `env:"NUTRICMS_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	TranslateTimeout   time.Duration `env:"NUTRICMS_TRANSLATE_TIMEOUT" envDefault:"20s"`
	TranslateRate      float64       `env:"NUTRICMS_TRANSLATE_RATE" envDefault:"5"`
	TranslateBurst     int           `env:"NUTRICMS_TRANSLATE_BURST" envDefault:"10"`
	TranslationTTL     time.Duration `env:"NUTRICMS_TRANSLATION_TTL" envDefault:"720h"`

	// Scheduled maintenance, as cron expressions.
	OrphanSweepSchedule string        `env:"NUTRICMS_ORPHAN_SWEEP_SCHEDULE" envDefault:"@daily"`
	OrphanGrace         time.Duration `env:"NUTRICMS_ORPHAN_GRACE" envDefault:"48h"`
	DraftSweepSchedule  string        `env:"NUTRICMS_DRAFT_SWEEP_SCHEDULE" envDefault:"@every 5m"`
	EventRetention      time.Duration `env:"NUTRICMS_EVENT_RETENTION" envDefault:"2160h"`
	EventSweepSchedule  string        `env:"NUTRICMS_EVENT_SWEEP_SCHEDULE" envDefault:"@daily"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// TranslationEnabled returns true if an OpenAI-compatible API is configured.
func (c Config) TranslationEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// SlogLevel maps LogLevel to a slog level; unknown names mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("NUTRICMS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("NUTRICMS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("NUTRICMS_SESSION_SECRET has low character diversity; "+
			"consider generating a random secret with: openssl rand -base64 32", "category", "config")
	}

	if cfg.ImageQuality < 1 || cfg.ImageQuality > 100 {
		return nil, fmt.Errorf("NUTRICMS_IMAGE_QUALITY must be between 1 and 100, got %d", cfg.ImageQuality)
	}
	if cfg.TranslateRate <= 0 {
		return nil, fmt.Errorf("NUTRICMS_TRANSLATE_RATE must be positive, got %v", cfg.TranslateRate)
	}
	if cfg.DraftIdle <= 0 || cfg.DraftTTL < cfg.DraftIdle {
		return nil, fmt.Errorf("NUTRICMS_DRAFT_TTL (%s) must be at least NUTRICMS_DRAFT_IDLE (%s)", cfg.DraftTTL, cfg.DraftIdle)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
