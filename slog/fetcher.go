// Package slog provides logging decorators for docdex services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docdex"
)

// Ensure LoggingFetcher implements docdex.Fetcher at compile time.
var _ docdex.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with request logging.
type LoggingFetcher struct {
	next   docdex.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next docdex.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, req docdex.FetchRequest) (*docdex.FetchResponse, error) {
	begin := time.Now()
	resp, err := f.next.Fetch(ctx, req)
	if err != nil {
		f.logger.Error("fetch",
			"url", req.URL,
			"duration", time.Since(begin),
			"err", err,
		)
		return nil, err
	}

	f.logger.Info("fetch",
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
		"notModified", resp.NotModified,
		"duration", time.Since(begin),
	)
	return resp, nil
}
