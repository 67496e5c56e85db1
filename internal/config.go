package internal

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config carries the runtime tunables. The numeric thresholds are product
// tuning values, configurable via environment rather than hard-coded.
type Config struct {
	// Storage
	StoragePath string
	QuotaBytes  int64

	// Degradation / context window tuning
	PreserveCount   int
	MaxHistoryTurns int
	HeadContext     int

	// Remote model
	APIKey        string
	BaseURL       string
	ModelOverride string
}

// LoadConfig reads configuration from the environment.
func LoadConfig() *Config {
	return &Config{
		StoragePath:     getEnv("VORTEX_STORAGE_PATH", defaultStoragePath()),
		QuotaBytes:      getInt64Env("VORTEX_QUOTA_BYTES", DefaultQuotaBytes),
		PreserveCount:   getIntEnv("VORTEX_PRESERVE_COUNT", DefaultPreserveCount),
		MaxHistoryTurns: getIntEnv("VORTEX_MAX_HISTORY_TURNS", DefaultMaxHistoryTurns),
		HeadContext:     getIntEnv("VORTEX_HEAD_CONTEXT", DefaultHeadContext),
		APIKey:          getEnv("GEMINI_API_KEY", ""),
		BaseURL:         getEnv("VORTEX_API_BASE_URL", ""),
		ModelOverride:   getEnv("VORTEX_MODEL", ""),
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "vortex.db"
	}
	return filepath.Join(home, ".vortex-chat", "vortex.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
