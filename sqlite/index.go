package sqlite

import (
	"context"

	"github.com/fwojciec/docdex"
)

// Compile-time interface verification.
var _ docdex.IndexService = (*IndexService)(nil)

// IndexService implements docdex.IndexService on an FTS5 virtual table.
// Upserts are delete-then-insert in one transaction, so a document's index
// record is replaced atomically and re-indexing is idempotent.
type IndexService struct {
	db *DB
}

// NewIndexService creates a new IndexService.
func NewIndexService(db *DB) *IndexService {
	return &IndexService{db: db}
}

// Upsert indexes text for a document, replacing any prior record.
func (s *IndexService) Upsert(ctx context.Context, documentID, text string) error {
	if documentID == "" {
		return docdex.Errorf(docdex.EINVALID, "document ID required")
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_fts WHERE document_id = ?", documentID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_fts (document_id, body) VALUES (?, ?)
	`, documentID, text); err != nil {
		return err
	}

	return tx.Commit()
}

// Remove deletes the index record for a document. No-op for unknown IDs.
func (s *IndexService) Remove(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM index_fts WHERE document_id = ?", documentID)
	return err
}

// Search returns records matching an FTS5 query, best first. bm25 ranks
// lower-is-better, so the score is negated to satisfy the higher-is-better
// contract.
func (s *IndexService) Search(ctx context.Context, query string, limit, offset int) ([]*docdex.IndexRecord, error) {
	if query == "" {
		return nil, docdex.Errorf(docdex.EINVALID, "search query required")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, bm25(index_fts), snippet(index_fts, 1, '[', ']', '…', 12)
		FROM index_fts
		WHERE index_fts MATCH ?
		ORDER BY bm25(index_fts) ASC, document_id ASC
		LIMIT ? OFFSET ?
	`, query, limit, offset)
	if err != nil {
		// FTS5 reports malformed MATCH expressions as query errors.
		return nil, docdex.Errorf(docdex.EINVALID, "invalid search query: %s", err)
	}
	defer rows.Close()

	var records []*docdex.IndexRecord
	for rows.Next() {
		var rec docdex.IndexRecord
		var rank float64
		if err := rows.Scan(&rec.DocumentID, &rank, &rec.Snippet); err != nil {
			return nil, err
		}
		rec.Score = -rank
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		// MATCH parse errors can also surface on the first step.
		return nil, docdex.Errorf(docdex.EINVALID, "invalid search query: %s", err)
	}

	return records, nil
}
