package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of docdex.Extractor.
type Extractor struct {
	ExtractFn func(ctx context.Context, data []byte) (*docdex.ExtractedText, error)
}

func (e *Extractor) Extract(ctx context.Context, data []byte) (*docdex.ExtractedText, error) {
	return e.ExtractFn(ctx, data)
}

var _ docdex.ExtractorRegistry = (*ExtractorRegistry)(nil)

// ExtractorRegistry is a mock implementation of docdex.ExtractorRegistry.
type ExtractorRegistry struct {
	GetFn      func(format docdex.Format) (docdex.Extractor, error)
	RegisterFn func(format docdex.Format, e docdex.Extractor)
	FormatsFn  func() []docdex.Format
}

func (r *ExtractorRegistry) Get(format docdex.Format) (docdex.Extractor, error) {
	return r.GetFn(format)
}

func (r *ExtractorRegistry) Register(format docdex.Format, e docdex.Extractor) {
	r.RegisterFn(format, e)
}

func (r *ExtractorRegistry) Formats() []docdex.Format {
	return r.FormatsFn()
}

var _ docdex.TextService = (*TextService)(nil)

// TextService is a mock implementation of docdex.TextService.
type TextService struct {
	SaveTextFn             func(ctx context.Context, text *docdex.ExtractedText) error
	FindTextByDocumentFn   func(ctx context.Context, documentID string) (*docdex.ExtractedText, error)
	DeleteTextByDocumentFn func(ctx context.Context, documentID string) error
}

func (s *TextService) SaveText(ctx context.Context, text *docdex.ExtractedText) error {
	return s.SaveTextFn(ctx, text)
}

func (s *TextService) FindTextByDocument(ctx context.Context, documentID string) (*docdex.ExtractedText, error) {
	return s.FindTextByDocumentFn(ctx, documentID)
}

func (s *TextService) DeleteTextByDocument(ctx context.Context, documentID string) error {
	return s.DeleteTextByDocumentFn(ctx, documentID)
}
