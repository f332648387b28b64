package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/docdex"
)

// Compile-time interface verification.
var _ docdex.DocumentService = (*DocumentService)(nil)

// DocumentService implements docdex.DocumentService using SQLite.
type DocumentService struct {
	db *DB
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(db *DB) *DocumentService {
	return &DocumentService{db: db}
}

const documentColumns = `id, source_url, title, local_path, byte_size, content_type, format,
	fetch_status, parse_status, parse_error, indexed, etag, last_modified, discovered_at, fetched_at`

// CreateDocument creates a new document and records its source URL as an
// alias, so FindDocumentByURL resolves the original URL and later aliases
// through the same table.
func (s *DocumentService) CreateDocument(ctx context.Context, doc *docdex.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	if doc.DiscoveredAt.IsZero() {
		doc.DiscoveredAt = time.Now().UTC()
	}
	if doc.FetchedAt.IsZero() {
		doc.FetchedAt = time.Now().UTC()
	}
	if doc.Format == "" {
		doc.Format = docdex.FormatUnknown
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.SourceURL, doc.Title, doc.LocalPath, doc.ByteSize, doc.ContentType,
		string(doc.Format), doc.FetchStatus, doc.ParseStatus, doc.ParseError, doc.Indexed,
		doc.ETag, doc.LastModified, doc.DiscoveredAt.Format(time.RFC3339),
		doc.FetchedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return docdex.Errorf(docdex.ECONFLICT, "document with content hash %q already exists", doc.ID)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_aliases (url, document_id) VALUES (?, ?)
		ON CONFLICT (url) DO UPDATE SET document_id = excluded.document_id
	`, doc.SourceURL, doc.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// FindDocumentByID retrieves a document by content hash.
func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*docdex.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, docdex.Errorf(docdex.ENOTFOUND, "document not found")
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// FindDocumentByURL retrieves the document a source URL or alias resolved to.
func (s *DocumentService) FindDocumentByURL(ctx context.Context, url string) (*docdex.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumnsPrefixed("d")+`
		FROM documents d
		JOIN document_aliases a ON a.document_id = d.id
		WHERE a.url = ?
	`, url)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, docdex.Errorf(docdex.ENOTFOUND, "no document for URL %q", url)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// FindDocuments retrieves documents matching the filter, newest first.
func (s *DocumentService) FindDocuments(ctx context.Context, filter docdex.DocumentFilter) ([]*docdex.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + documentColumns + " FROM documents WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}
	if filter.ParseStatus != nil {
		query.WriteString(" AND parse_status = ?")
		args = append(args, *filter.ParseStatus)
	}
	if filter.Indexed != nil {
		query.WriteString(" AND indexed = ?")
		args = append(args, *filter.Indexed)
	}

	query.WriteString(" ORDER BY fetched_at DESC, id ASC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*docdex.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// UpdateDocument updates an existing document.
func (s *DocumentService) UpdateDocument(ctx context.Context, id string, upd docdex.DocumentUpdate) (*docdex.Document, error) {
	// First check if document exists
	doc, err := s.FindDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Apply updates
	if upd.Title != nil {
		doc.Title = *upd.Title
	}
	if upd.Format != nil {
		doc.Format = *upd.Format
	}
	if upd.ParseStatus != nil {
		doc.ParseStatus = *upd.ParseStatus
	}
	if upd.ParseError != nil {
		doc.ParseError = *upd.ParseError
	}
	if upd.Indexed != nil {
		doc.Indexed = *upd.Indexed
	}
	if upd.ETag != nil {
		doc.ETag = *upd.ETag
	}
	if upd.LastModified != nil {
		doc.LastModified = *upd.LastModified
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE documents
		SET title = ?, format = ?, parse_status = ?, parse_error = ?, indexed = ?,
			etag = ?, last_modified = ?
		WHERE id = ?
	`, doc.Title, string(doc.Format), doc.ParseStatus, doc.ParseError, doc.Indexed,
		doc.ETag, doc.LastModified, id)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// DeleteDocument permanently removes a document. Aliases, extracted text and
// embeddings cascade; the FTS record is removed in the same transaction.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return docdex.Errorf(docdex.ENOTFOUND, "document not found")
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_fts WHERE document_id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}

// AddAlias records that url resolved to the document with the given hash.
func (s *DocumentService) AddAlias(ctx context.Context, id, url string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_aliases (url, document_id) VALUES (?, ?)
		ON CONFLICT (url) DO UPDATE SET document_id = excluded.document_id
	`, url, id)
	return err
}

// FindAliases returns all source URLs known for a document.
func (s *DocumentService) FindAliases(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM document_aliases WHERE document_id = ? ORDER BY url
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// documentColumnsPrefixed qualifies the document column list with a table
// alias for use in joins.
func documentColumnsPrefixed(alias string) string {
	cols := strings.Split(documentColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*docdex.Document, error) {
	var doc docdex.Document
	var format, discoveredAt, fetchedAt string

	err := row.Scan(&doc.ID, &doc.SourceURL, &doc.Title, &doc.LocalPath, &doc.ByteSize,
		&doc.ContentType, &format, &doc.FetchStatus, &doc.ParseStatus, &doc.ParseError,
		&doc.Indexed, &doc.ETag, &doc.LastModified, &discoveredAt, &fetchedAt)
	if err != nil {
		return nil, err
	}

	doc.Format = docdex.Format(format)

	doc.DiscoveredAt, err = time.Parse(time.RFC3339, discoveredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse discovered_at: %w", err)
	}
	doc.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fetched_at: %w", err)
	}

	return &doc, nil
}

// isUniqueViolation reports whether err is a primary key or unique constraint
// failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
