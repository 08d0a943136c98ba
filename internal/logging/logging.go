package logging

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// New builds a diagnostics logger writing to w.
//
// console selects the human-readable zerolog.ConsoleWriter; otherwise
// records are written as JSON lines. An unknown level falls back to info.
func New(w io.Writer, level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// WithRun attaches a fresh run_id to the logger found in ctx and returns the
// derived context together with the id.
func WithRun(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("run_id", id).Logger()
	return logger.WithContext(ctx), id
}

// From returns the logger attached to ctx. A disabled logger is returned
// when none is attached.
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
