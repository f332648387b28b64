package docdex

import (
	"context"
	"time"
)

// Fetch and parse statuses recorded on a Document.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// Document represents one downloaded disclosure document. Its ID is the
// sha256 of the stored bytes, so two URLs resolving to identical content
// collapse to a single Document (the extra URL becomes an alias).
type Document struct {
	ID           string    `json:"id"` // content hash
	SourceURL    string    `json:"sourceUrl"`
	Title        string    `json:"title"`
	LocalPath    string    `json:"localPath"`
	ByteSize     int64     `json:"byteSize"`
	ContentType  string    `json:"contentType"`
	Format       Format    `json:"format"`
	FetchStatus  string    `json:"fetchStatus"`
	ParseStatus  string    `json:"parseStatus"`
	ParseError   string    `json:"parseError"`
	Indexed      bool      `json:"indexed"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	DiscoveredAt time.Time `json:"discoveredAt"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.ID == "" {
		return Errorf(EINVALID, "document ID (content hash) required")
	}
	if d.SourceURL == "" {
		return Errorf(EINVALID, "document source URL required")
	}
	return nil
}

// DocumentUpdate represents fields that can be updated on a document.
type DocumentUpdate struct {
	Title        *string `json:"title"`
	Format       *Format `json:"format"`
	ParseStatus  *string `json:"parseStatus"`
	ParseError   *string `json:"parseError"`
	Indexed      *bool   `json:"indexed"`
	ETag         *string `json:"etag"`
	LastModified *string `json:"lastModified"`
}

// DocumentFilter represents a filter for FindDocuments.
type DocumentFilter struct {
	ID          *string `json:"id"`
	SourceURL   *string `json:"sourceUrl"`
	ParseStatus *string `json:"parseStatus"`
	Indexed     *bool   `json:"indexed"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DocumentService represents a service for managing documents and their
// source-URL aliases.
type DocumentService interface {
	// CreateDocument creates a new document.
	// Returns ECONFLICT if a document with the same content hash exists.
	CreateDocument(ctx context.Context, doc *Document) error

	// FindDocumentByID retrieves a document by content hash.
	// Returns ENOTFOUND if document does not exist.
	FindDocumentByID(ctx context.Context, id string) (*Document, error)

	// FindDocumentByURL retrieves the document a source URL (or alias)
	// resolved to. Returns ENOTFOUND if no such document exists.
	FindDocumentByURL(ctx context.Context, url string) (*Document, error)

	// FindDocuments retrieves documents matching the filter, newest first.
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)

	// UpdateDocument updates an existing document.
	// Returns ENOTFOUND if document does not exist.
	UpdateDocument(ctx context.Context, id string, upd DocumentUpdate) (*Document, error)

	// DeleteDocument permanently removes a document, its extracted text and
	// its index record. Returns ENOTFOUND if document does not exist.
	DeleteDocument(ctx context.Context, id string) error

	// AddAlias records that url resolved to the document with the given
	// content hash. Idempotent.
	AddAlias(ctx context.Context, id, url string) error

	// FindAliases returns all source URLs known for a document.
	FindAliases(ctx context.Context, id string) ([]string, error)
}

// BlobStore persists raw document bytes keyed by content hash.
// Writes are all-or-nothing: a partial write never becomes visible.
type BlobStore interface {
	// Put stores data under the given content hash, returning the path of
	// the stored blob. If a blob with that hash already exists the existing
	// path is returned and existed is true; nothing is rewritten.
	Put(id, ext string, data []byte) (path string, existed bool, err error)

	// Has reports whether a blob with the given content hash exists.
	Has(id, ext string) bool
}
