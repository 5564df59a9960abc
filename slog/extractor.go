// Package slog provides logging decorators for profdir interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/profdir"
)

// Ensure LoggingExtractor implements profdir.Extractor.
var _ profdir.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with debug logging for extraction
// calls: operation, input/output sizes, and duration.
type LoggingExtractor struct {
	next   profdir.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next profdir.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// DiscoverLinks logs the call and delegates to the wrapped extractor.
func (e *LoggingExtractor) DiscoverLinks(ctx context.Context, html string) (string, error) {
	return e.log(ctx, "discover_links", html, e.next.DiscoverLinks)
}

// ExtractProfile logs the call and delegates to the wrapped extractor.
func (e *LoggingExtractor) ExtractProfile(ctx context.Context, html string) (string, error) {
	return e.log(ctx, "extract_profile", html, e.next.ExtractProfile)
}

func (e *LoggingExtractor) log(ctx context.Context, op, html string, fn func(context.Context, string) (string, error)) (raw string, err error) {
	defer func(begin time.Time) {
		e.logger.Info("extraction",
			"op", op,
			"input_bytes", len(html),
			"output_bytes", len(raw),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return fn(ctx, html)
}
