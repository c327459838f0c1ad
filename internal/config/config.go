// Package config loads runtime settings for the flowday auth core.
package config

import "time"

// Config holds runtime settings.
//
// Fields:
//   - DatabasePath: filesystem path of the local SQLite store.
//   - LogLevel: debug | info | warn | error.
//   - BusyTimeout: how long SQLite waits on a locked database before
//     failing; serializes writers from concurrent pages of the app.
type Config struct {
	DatabasePath string
	LogLevel     string
	BusyTimeout  time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "flowday.db"
	c.LogLevel = "info"
	c.BusyTimeout = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment (optionally via a .env file), a JSON file (if
// present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
