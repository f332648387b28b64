package docdex

import "context"

// IndexRecord is one full-text index hit. Records exist only for documents
// whose parse succeeded; deleting a document removes its record.
type IndexRecord struct {
	DocumentID string  `json:"documentId"`
	Score      float64 `json:"score"` // relevance, higher is better
	Snippet    string  `json:"snippet"`
}

// IndexService maintains the full-text search index. Upserts and removals
// are incremental: each is bounded-cost regardless of corpus size.
type IndexService interface {
	// Upsert indexes text for a document, atomically replacing any prior
	// record for the same document ID. Idempotent.
	Upsert(ctx context.Context, documentID, text string) error

	// Remove deletes the index record for a document. Removing an unknown
	// document is a no-op.
	Remove(ctx context.Context, documentID string) error

	// Search returns records matching the query ordered by descending
	// relevance, ties broken by document ID. Each call restarts from the
	// given offset. Returns EINVALID for unparseable queries.
	Search(ctx context.Context, query string, limit, offset int) ([]*IndexRecord, error)
}
