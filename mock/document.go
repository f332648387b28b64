package mock

import (
	"context"

	"github.com/fwojciec/docdex"
)

var _ docdex.DocumentService = (*DocumentService)(nil)

// DocumentService is a mock implementation of docdex.DocumentService.
type DocumentService struct {
	CreateDocumentFn    func(ctx context.Context, doc *docdex.Document) error
	FindDocumentByIDFn  func(ctx context.Context, id string) (*docdex.Document, error)
	FindDocumentByURLFn func(ctx context.Context, url string) (*docdex.Document, error)
	FindDocumentsFn     func(ctx context.Context, filter docdex.DocumentFilter) ([]*docdex.Document, error)
	UpdateDocumentFn    func(ctx context.Context, id string, upd docdex.DocumentUpdate) (*docdex.Document, error)
	DeleteDocumentFn    func(ctx context.Context, id string) error
	AddAliasFn          func(ctx context.Context, id, url string) error
	FindAliasesFn       func(ctx context.Context, id string) ([]string, error)
}

func (s *DocumentService) CreateDocument(ctx context.Context, doc *docdex.Document) error {
	return s.CreateDocumentFn(ctx, doc)
}

func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*docdex.Document, error) {
	return s.FindDocumentByIDFn(ctx, id)
}

func (s *DocumentService) FindDocumentByURL(ctx context.Context, url string) (*docdex.Document, error) {
	return s.FindDocumentByURLFn(ctx, url)
}

func (s *DocumentService) FindDocuments(ctx context.Context, filter docdex.DocumentFilter) ([]*docdex.Document, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *DocumentService) UpdateDocument(ctx context.Context, id string, upd docdex.DocumentUpdate) (*docdex.Document, error) {
	return s.UpdateDocumentFn(ctx, id, upd)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.DeleteDocumentFn(ctx, id)
}

func (s *DocumentService) AddAlias(ctx context.Context, id, url string) error {
	return s.AddAliasFn(ctx, id, url)
}

func (s *DocumentService) FindAliases(ctx context.Context, id string) ([]string, error) {
	return s.FindAliasesFn(ctx, id)
}

var _ docdex.BlobStore = (*BlobStore)(nil)

// BlobStore is a mock implementation of docdex.BlobStore.
type BlobStore struct {
	PutFn func(id, ext string, data []byte) (string, bool, error)
	HasFn func(id, ext string) bool
}

func (s *BlobStore) Put(id, ext string, data []byte) (string, bool, error) {
	return s.PutFn(id, ext, data)
}

func (s *BlobStore) Has(id, ext string) bool {
	return s.HasFn(id, ext)
}
