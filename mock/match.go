package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.Matcher = (*Matcher)(nil)

// Matcher is a mock implementation of docdex.Matcher.
type Matcher struct {
	MatchFn func(ctx context.Context, query string, mode docdex.MatchMode, limit, offset int) ([]*docdex.MatchResult, error)
}

func (m *Matcher) Match(ctx context.Context, query string, mode docdex.MatchMode, limit, offset int) ([]*docdex.MatchResult, error) {
	return m.MatchFn(ctx, query, mode, limit, offset)
}

var _ docdex.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of docdex.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
	ModelFn func() string
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedFn(ctx, texts)
}

func (e *Embedder) Model() string {
	if e.ModelFn == nil {
		return "mock-embedding"
	}
	return e.ModelFn()
}

var _ docdex.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService is a mock implementation of docdex.EmbeddingService.
type EmbeddingService struct {
	SaveEmbeddingsFn             func(ctx context.Context, embs []*docdex.Embedding) error
	FindEmbeddingsByDocumentFn   func(ctx context.Context, documentID, model string) ([]*docdex.Embedding, error)
	DeleteEmbeddingsByDocumentFn func(ctx context.Context, documentID string) error
}

func (s *EmbeddingService) SaveEmbeddings(ctx context.Context, embs []*docdex.Embedding) error {
	return s.SaveEmbeddingsFn(ctx, embs)
}

func (s *EmbeddingService) FindEmbeddingsByDocument(ctx context.Context, documentID, model string) ([]*docdex.Embedding, error) {
	return s.FindEmbeddingsByDocumentFn(ctx, documentID, model)
}

func (s *EmbeddingService) DeleteEmbeddingsByDocument(ctx context.Context, documentID string) error {
	return s.DeleteEmbeddingsByDocumentFn(ctx, documentID)
}
