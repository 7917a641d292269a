// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

// cleanEnv clears the environment and sets only the session secret.
func cleanEnv(t *testing.T) {
	t.Helper()
	saved := os.Environ()
	os.Clearenv()
	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range saved {
			k, v, _ := strings.Cut(kv, "=")
			_ = os.Setenv(k, v)
		}
	})
	t.Setenv("NUTRICMS_SESSION_SECRET", testSecret)
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/nutricms.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if cfg.UseRedisCache() {
		t.Error("redis should be off by default")
	}
	if cfg.TranslationEnabled() {
		t.Error("translation should be off without an API key")
	}
	if cfg.DraftIdle != 30*time.Minute || cfg.DraftTTL != 24*time.Hour {
		t.Errorf("draft timings = %s / %s", cfg.DraftIdle, cfg.DraftTTL)
	}
	if cfg.ImageQuality != 85 {
		t.Errorf("ImageQuality = %d", cfg.ImageQuality)
	}
	if cfg.OrphanSweepSchedule != "@daily" {
		t.Errorf("OrphanSweepSchedule = %q", cfg.OrphanSweepSchedule)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	cleanEnv(t)
	t.Setenv("NUTRICMS_DB_PATH", "/custom/path.db")
	t.Setenv("NUTRICMS_SERVER_HOST", "0.0.0.0")
	t.Setenv("NUTRICMS_SERVER_PORT", "3000")
	t.Setenv("NUTRICMS_ENV", "production")
	t.Setenv("NUTRICMS_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("NUTRICMS_OPENAI_API_KEY", "sk-test")
	t.Setenv("NUTRICMS_DRAFT_IDLE", "10m")
	t.Setenv("NUTRICMS_TRANSLATE_RATE", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DBPath != "/custom/path.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("production must not be development")
	}
	if !cfg.UseRedisCache() || !cfg.TranslationEnabled() {
		t.Error("redis and translation should be enabled")
	}
	if cfg.DraftIdle != 10*time.Minute {
		t.Errorf("DraftIdle = %s", cfg.DraftIdle)
	}
	if cfg.TranslateRate != 0.5 {
		t.Errorf("TranslateRate = %v", cfg.TranslateRate)
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	cleanEnv(t)
	_ = os.Unsetenv("NUTRICMS_SESSION_SECRET")

	if _, err := Load(); err == nil {
		t.Error("expected error when NUTRICMS_SESSION_SECRET is missing")
	}
}

func TestLoad_SessionSecretValidation(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{"too short", "short", true},
		{"31 bytes", strings.Repeat("a", 31), true},
		{"known default", "change-me-to-32-byte-secret-key!", true},
		{"minimum length", strings.Repeat("aB3", 11), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv("NUTRICMS_SESSION_SECRET", tt.secret)
			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_RangeChecks(t *testing.T) {
	tests := map[string]string{
		"NUTRICMS_IMAGE_QUALITY":  "0",
		"NUTRICMS_TRANSLATE_RATE": "-1",
		"NUTRICMS_DRAFT_TTL":      "1m",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			cleanEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	if hasMinimumEntropy(strings.Repeat("a", 40)) {
		t.Error("single class secret should fail")
	}
	if !hasMinimumEntropy("abcDEF123") {
		t.Error("three classes should pass")
	}
}
