package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docdex"
)

// Ensure LoggingIndex implements docdex.IndexService at compile time.
var _ docdex.IndexService = (*LoggingIndex)(nil)

// LoggingIndex wraps an IndexService with operation logging.
type LoggingIndex struct {
	next   docdex.IndexService
	logger *slog.Logger
}

// NewLoggingIndex creates a new LoggingIndex.
func NewLoggingIndex(next docdex.IndexService, logger *slog.Logger) *LoggingIndex {
	return &LoggingIndex{next: next, logger: logger}
}

// Upsert delegates to the wrapped service and logs the outcome.
func (s *LoggingIndex) Upsert(ctx context.Context, documentID, text string) error {
	begin := time.Now()
	err := s.next.Upsert(ctx, documentID, text)
	if err != nil {
		s.logger.Error("index upsert", "documentID", documentID, "err", err)
		return err
	}
	s.logger.Info("index upsert",
		"documentID", documentID,
		"bytes", len(text),
		"duration", time.Since(begin),
	)
	return nil
}

// Remove delegates to the wrapped service and logs the outcome.
func (s *LoggingIndex) Remove(ctx context.Context, documentID string) error {
	err := s.next.Remove(ctx, documentID)
	if err != nil {
		s.logger.Error("index remove", "documentID", documentID, "err", err)
		return err
	}
	s.logger.Info("index remove", "documentID", documentID)
	return nil
}

// Search delegates to the wrapped service and logs the outcome.
func (s *LoggingIndex) Search(ctx context.Context, query string, limit, offset int) ([]*docdex.IndexRecord, error) {
	begin := time.Now()
	records, err := s.next.Search(ctx, query, limit, offset)
	if err != nil {
		s.logger.Error("index search", "query", query, "err", err)
		return nil, err
	}
	s.logger.Info("index search",
		"query", query,
		"results", len(records),
		"duration", time.Since(begin),
	)
	return records, nil
}
