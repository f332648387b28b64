package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.IndexService = (*IndexService)(nil)

// IndexService is a mock implementation of docdex.IndexService.
type IndexService struct {
	UpsertFn func(ctx context.Context, documentID, text string) error
	RemoveFn func(ctx context.Context, documentID string) error
	SearchFn func(ctx context.Context, query string, limit, offset int) ([]*docdex.IndexRecord, error)
}

func (s *IndexService) Upsert(ctx context.Context, documentID, text string) error {
	return s.UpsertFn(ctx, documentID, text)
}

func (s *IndexService) Remove(ctx context.Context, documentID string) error {
	return s.RemoveFn(ctx, documentID)
}

func (s *IndexService) Search(ctx context.Context, query string, limit, offset int) ([]*docdex.IndexRecord, error) {
	return s.SearchFn(ctx, query, limit, offset)
}
