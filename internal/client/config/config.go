package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the careerkit CLI.
//
// StoragePath is the SQLite file shared by every client process of the same
// user; processes pointing at the same file see each other's sign-outs.
type Config struct {
	ServerURL   string
	StoragePath string
	// SecretPath holds the key material used to seal stored values. Empty
	// means "secret.key" next to StoragePath.
	SecretPath string
	ExportDir  string

	SessionCheckInterval time.Duration
	StoragePollInterval  time.Duration
	SignOutDelay         time.Duration
	RequestTimeout       time.Duration

	GenerateCost float64
	RefineCost   float64

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.StoragePath = filepath.Join(defaultDataDir(), "careerkit.db")
	c.SecretPath = ""
	c.ExportDir = "exports"
	c.SessionCheckInterval = 5 * time.Minute
	c.StoragePollInterval = 500 * time.Millisecond
	c.SignOutDelay = 1500 * time.Millisecond
	c.RequestTimeout = 2 * time.Minute
	c.GenerateCost = 1
	c.RefineCost = 0.5
	c.LogFormat = "text"
	c.LogLevel = "warn"
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "careerkit")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones. args excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if cfg.SecretPath == "" {
		cfg.SecretPath = filepath.Join(filepath.Dir(cfg.StoragePath), "secret.key")
	}
	return cfg, nil
}
