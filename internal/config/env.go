package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment.
// A .env file (path overridable via ENV_FILE) is loaded first if present;
// missing files are fine, the environment alone still applies.
func parseEnv(cfg *Config) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg.DatabasePath = getEnv("FLOWDAY_DATABASE_PATH", cfg.DatabasePath)
	cfg.LogLevel = getEnv("FLOWDAY_LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("FLOWDAY_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BusyTimeout = d
		}
	}
}

// getEnv returns the value of key or the fallback when unset/empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
