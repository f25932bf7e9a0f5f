package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{"CONDOWEB_BASE_URL", "CACHE_DIR", "EXPORT_DIR", "REQUEST_DELAY", "HTTP_TIMEOUT", "DATABASE_URL", "SHEETS_MAX_ROWS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.BaseURLTemplate != "https://%s.condoweb.app/api/v1" {
		t.Errorf("BaseURLTemplate = %q, want default", cfg.BaseURLTemplate)
	}
	if cfg.CacheDir != "data" {
		t.Errorf("CacheDir = %q, want data", cfg.CacheDir)
	}
	if cfg.ExportDir != "csv" {
		t.Errorf("ExportDir = %q, want csv", cfg.ExportDir)
	}
	if cfg.RequestDelay != 300*time.Millisecond {
		t.Errorf("RequestDelay = %v, want 300ms", cfg.RequestDelay)
	}
	if cfg.HTTPTimeout != 60*time.Second {
		t.Errorf("HTTPTimeout = %v, want 60s", cfg.HTTPTimeout)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.SheetsMaxRows != 100000 {
		t.Errorf("SheetsMaxRows = %d, want 100000", cfg.SheetsMaxRows)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CONDOWEB_BASE_URL", "http://localhost:%s/api")
	t.Setenv("CACHE_DIR", "/tmp/cache")
	t.Setenv("EXPORT_DIR", "/tmp/out")
	t.Setenv("REQUEST_DELAY", "1s")
	t.Setenv("DATABASE_URL", "postgres://localhost/export")

	cfg := Load()

	if cfg.BaseURLTemplate != "http://localhost:%s/api" {
		t.Errorf("BaseURLTemplate = %q, want override", cfg.BaseURLTemplate)
	}
	if cfg.CacheDir != "/tmp/cache" {
		t.Errorf("CacheDir = %q, want override", cfg.CacheDir)
	}
	if cfg.ExportDir != "/tmp/out" {
		t.Errorf("ExportDir = %q, want override", cfg.ExportDir)
	}
	if cfg.RequestDelay != time.Second {
		t.Errorf("RequestDelay = %v, want 1s", cfg.RequestDelay)
	}
	if cfg.DatabaseURL != "postgres://localhost/export" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("REQUEST_DELAY", "soon")
	t.Setenv("SHEETS_MAX_ROWS", "lots")

	cfg := Load()

	if cfg.RequestDelay != 300*time.Millisecond {
		t.Errorf("RequestDelay = %v, want default 300ms on invalid input", cfg.RequestDelay)
	}
	if cfg.SheetsMaxRows != 100000 {
		t.Errorf("SheetsMaxRows = %d, want default on invalid input", cfg.SheetsMaxRows)
	}
}
