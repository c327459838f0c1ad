package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/flowday-app/flowday/internal/flagx"
	"github.com/flowday-app/flowday/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies
// on timex.Duration so the file can specify the busy timeout either as a
// string like "5s" or as integer nanoseconds.
type JsonConfig struct {
	DatabasePath string         `json:"database_path"`
	LogLevel     string         `json:"log_level"`
	BusyTimeout  timex.Duration `json:"busy_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file whose
// path comes from the -c/-config flags. If no flag is given, nothing is
// loaded. Read or unmarshal errors panic; the config stage runs before
// any state exists worth protecting.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.BusyTimeout.Duration != 0 {
		cfg.BusyTimeout = time.Duration(jc.BusyTimeout.Duration)
	}
}
