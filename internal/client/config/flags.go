package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/careerkit/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   backend base URL
//	-d string   path of the shared storage file
//	-i int      session re-validation interval in seconds
//	-l string   log level (debug, info, warn, error)
//	-f string   log format (text, json, console)
//
// Other arguments are filtered out with flagx.FilterArgs so the JSON loader's
// -c flag does not trip this FlagSet.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-i", "-l", "-f"})

	fs := flag.NewFlagSet("careerkit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend base URL")
	fs.StringVar(&cfg.StoragePath, "d", cfg.StoragePath, "path of the shared storage file")
	checkInterval := fs.Int("i", int(cfg.SessionCheckInterval.Seconds()), "session check interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *checkInterval <= 0 {
		return fmt.Errorf("parse flags: session check interval must be positive, got %d", *checkInterval)
	}

	cfg.SessionCheckInterval = time.Duration(*checkInterval) * time.Second
	return nil
}
