// Package logging defines the structured logger used by the careerkit client
// and the two backends it ships with: log/slog and zerolog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "profile loaded", "email", email, "credits", credits)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported output formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds a Logger writing to w. "text" uses slog's text handler; "json"
// and "console" use zerolog (the latter with its human-friendly writer).
func New(format, level string, w io.Writer) (Logger, error) {
	format = strings.ToLower(format)
	switch format {
	case "", FormatText:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(orDefault(level, "info"))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
		return NewSlogLogger(slog.New(h)), nil
	case FormatJSON, FormatConsole:
		lvl, err := zerolog.ParseLevel(strings.ToLower(orDefault(level, "info")))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		if format == FormatConsole {
			w = zerolog.ConsoleWriter{Out: w, NoColor: true}
		}
		return NewZerologLogger(zerolog.New(w).Level(lvl).With().Timestamp().Logger()), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Nop returns a Logger that discards everything. Handy in tests.
func Nop() Logger {
	return NewZerologLogger(zerolog.Nop())
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
