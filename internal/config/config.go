package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// Command-line flags use these values as their defaults.
type Config struct {
	BaseURLTemplate       string
	CacheDir              string
	ExportDir             string
	RequestDelay          time.Duration
	HTTPTimeout           time.Duration
	DatabaseURL           string
	SpreadsheetID         string
	GoogleCredentialsJSON string
	SheetsMaxRows         int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		BaseURLTemplate:       envOrDefault("CONDOWEB_BASE_URL", "https://%s.condoweb.app/api/v1"),
		CacheDir:              envOrDefault("CACHE_DIR", "data"),
		ExportDir:             envOrDefault("EXPORT_DIR", "csv"),
		RequestDelay:          envOrDefaultDuration("REQUEST_DELAY", 300*time.Millisecond),
		HTTPTimeout:           envOrDefaultDuration("HTTP_TIMEOUT", 60*time.Second),
		DatabaseURL:           envOrDefault("DATABASE_URL", ""),
		SpreadsheetID:         envOrDefault("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsJSON: envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		SheetsMaxRows:         envOrDefaultInt("SHEETS_MAX_ROWS", 100000),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
