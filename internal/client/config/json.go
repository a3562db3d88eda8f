package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/careerkit/internal/flagx"
	"github.com/dmitrijs2005/careerkit/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they can be written as "5m" or as nanoseconds. Zero
// values leave the corresponding Config field untouched.
type JsonConfig struct {
	ServerURL   string `json:"server_url"`
	StoragePath string `json:"storage_path"`
	SecretPath  string `json:"secret_path"`
	ExportDir   string `json:"export_dir"`

	SessionCheckInterval timex.Duration `json:"session_check_interval"`
	StoragePollInterval  timex.Duration `json:"storage_poll_interval"`
	SignOutDelay         timex.Duration `json:"sign_out_delay"`
	RequestTimeout       timex.Duration `json:"request_timeout"`

	GenerateCost *float64 `json:"generate_cost"`
	RefineCost   *float64 `json:"refine_cost"`

	LogFormat string `json:"log_format"`
	LogLevel  string `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.StoragePath, jc.StoragePath)
	setString(&cfg.SecretPath, jc.SecretPath)
	setString(&cfg.ExportDir, jc.ExportDir)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.SessionCheckInterval.Duration > 0 {
		cfg.SessionCheckInterval = jc.SessionCheckInterval.Duration
	}
	if jc.StoragePollInterval.Duration > 0 {
		cfg.StoragePollInterval = jc.StoragePollInterval.Duration
	}
	if jc.SignOutDelay.Duration > 0 {
		cfg.SignOutDelay = jc.SignOutDelay.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.GenerateCost != nil {
		cfg.GenerateCost = *jc.GenerateCost
	}
	if jc.RefineCost != nil {
		cfg.RefineCost = *jc.RefineCost
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
