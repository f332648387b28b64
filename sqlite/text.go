package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fwojciec/docdex"
)

// Compile-time interface verification.
var _ docdex.TextService = (*TextService)(nil)

// TextService implements docdex.TextService using SQLite. Page offsets are
// stored as a JSON array alongside the text.
type TextService struct {
	db *DB
}

// NewTextService creates a new TextService.
func NewTextService(db *DB) *TextService {
	return &TextService{db: db}
}

// SaveText stores extracted text, replacing any prior text for the document.
func (s *TextService) SaveText(ctx context.Context, text *docdex.ExtractedText) error {
	if err := text.Validate(); err != nil {
		return err
	}

	offsets, err := json.Marshal(text.PageOffsets)
	if err != nil {
		return fmt.Errorf("failed to encode page offsets: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO extracted_texts (document_id, title, full_text, page_offsets, ocr_used)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (document_id) DO UPDATE SET
			title = excluded.title,
			full_text = excluded.full_text,
			page_offsets = excluded.page_offsets,
			ocr_used = excluded.ocr_used
	`, text.DocumentID, text.Title, text.FullText, string(offsets), text.OCRUsed)

	return err
}

// FindTextByDocument retrieves extracted text by document ID.
func (s *TextService) FindTextByDocument(ctx context.Context, documentID string) (*docdex.ExtractedText, error) {
	var text docdex.ExtractedText
	var offsets string

	err := s.db.QueryRowContext(ctx, `
		SELECT document_id, title, full_text, page_offsets, ocr_used
		FROM extracted_texts
		WHERE document_id = ?
	`, documentID).Scan(&text.DocumentID, &text.Title, &text.FullText, &offsets, &text.OCRUsed)

	if err == sql.ErrNoRows {
		return nil, docdex.Errorf(docdex.ENOTFOUND, "no extracted text for document")
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(offsets), &text.PageOffsets); err != nil {
		return nil, fmt.Errorf("failed to decode page offsets: %w", err)
	}

	return &text, nil
}

// DeleteTextByDocument removes extracted text for a document.
func (s *TextService) DeleteTextByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM extracted_texts WHERE document_id = ?", documentID)
	return err
}
