package glyphscan

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/glyphscan/model"
)

// Logger wraps slog.Logger with glyphscan-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// WithSource adds a source (file label) field to the logger.
func (l *Logger) WithSource(label string) *Logger {
	return &Logger{
		Logger: l.Logger.With("source", label),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogRunStarted logs the start of a run.
func (l *Logger) LogRunStarted(ctx context.Context, cfg Config) {
	l.InfoContext(ctx, "scan started",
		"precision", cfg.Precision,
		"threshold", cfg.Threshold,
		"projections", cfg.NumProjections,
		"seed", cfg.Seed,
		"projection_kind", cfg.ProjectionKind.String(),
		"include_exact", cfg.IncludeExact,
	)
}

// LogDimensionFixed logs the dimension taken from the first accepted record.
func (l *Logger) LogDimensionFixed(ctx context.Context, dim int, spill string) {
	if spill != "" {
		l.DebugContext(ctx, "dimension fixed", "dimension", dim, "spill_file", spill)
		return
	}
	l.DebugContext(ctx, "dimension fixed", "dimension", dim)
}

// LogSkip logs a rejected record.
func (l *Logger) LogSkip(ctx context.Context, err error) {
	l.DebugContext(ctx, "record skipped", "error", err)
}

// LogRunFinished logs the outcome of a run.
func (l *Logger) LogRunFinished(ctx context.Context, s model.Summary, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "scan failed",
			"records", s.RecordsSeen,
			"glyphs", s.GlyphsScanned,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	if s.Skipped() > 0 {
		l.WarnContext(ctx, "scan completed with skipped records",
			"records", s.RecordsSeen,
			"skipped_invalid", s.SkippedInvalid,
			"skipped_dimension", s.SkippedDimension,
		)
	}
	l.InfoContext(ctx, "scan completed",
		"glyphs", s.GlyphsScanned,
		"files", s.Files,
		"dimension", s.Dimension,
		"buckets", s.Buckets,
		"largest_bucket", s.LargestBucket,
		"candidate_pairs", s.CandidatePairs,
		"compared_pairs", s.ComparedPairs,
		"elapsed", elapsed,
	)
}
