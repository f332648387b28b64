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
var _ docdex.FrontierService = (*FrontierService)(nil)

// FrontierService implements docdex.FrontierService using SQLite.
type FrontierService struct {
	db *DB
}

// NewFrontierService creates a new FrontierService.
func NewFrontierService(db *DB) *FrontierService {
	return &FrontierService{db: db}
}

const frontierColumns = `url, kind, status, title, attempts, error, discovered_at, last_attempt_at`

// UpsertEntries inserts new entries and re-queues existing ones. With
// preserveDone, entries already done or skipped keep their status so finished
// documents are not re-downloaded; without it every existing entry goes back
// to pending.
func (s *FrontierService) UpsertEntries(ctx context.Context, entries []*docdex.FrontierEntry, preserveDone bool) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	requeue := `
		INSERT INTO frontier (url, kind, status, discovered_at)
		VALUES (?, ?, 'pending', ?)
		ON CONFLICT (url) DO UPDATE SET status = 'pending', error = ''
	`
	if preserveDone {
		requeue += ` WHERE frontier.status NOT IN ('done', 'skipped')`
	}

	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return err
		}
		discoveredAt := entry.DiscoveredAt
		if discoveredAt.IsZero() {
			discoveredAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, requeue,
			entry.URL, string(entry.Kind), discoveredAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// NextPending returns entries eligible for (re)processing: pending and
// previously failed, pages before documents, oldest first.
func (s *FrontierService) NextPending(ctx context.Context, limit int) ([]*docdex.FrontierEntry, error) {
	query := `
		SELECT ` + frontierColumns + `
		FROM frontier
		WHERE status IN ('pending', 'failed')
		ORDER BY CASE kind WHEN 'page' THEN 0 ELSE 1 END, discovered_at ASC, url ASC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*docdex.FrontierEntry
	for rows.Next() {
		entry, err := scanFrontierEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// FindEntry retrieves an entry by normalized URL.
func (s *FrontierService) FindEntry(ctx context.Context, url string) (*docdex.FrontierEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+frontierColumns+`
		FROM frontier
		WHERE url = ?
	`, url)

	entry, err := scanFrontierEntry(row)
	if err == sql.ErrNoRows {
		return nil, docdex.Errorf(docdex.ENOTFOUND, "frontier entry not found")
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateEntry updates an existing entry.
func (s *FrontierService) UpdateEntry(ctx context.Context, url string, upd docdex.FrontierUpdate) error {
	var sets []string
	var args []any

	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Error != nil {
		sets = append(sets, "error = ?")
		args = append(args, *upd.Error)
	}
	if upd.IncrAttempts {
		sets = append(sets, "attempts = attempts + 1")
	}
	if upd.LastAttemptAt != nil {
		sets = append(sets, "last_attempt_at = ?")
		args = append(args, upd.LastAttemptAt.Format(time.RFC3339))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, url)
	result, err := s.db.ExecContext(ctx,
		"UPDATE frontier SET "+strings.Join(sets, ", ")+" WHERE url = ?", args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return docdex.Errorf(docdex.ENOTFOUND, "frontier entry not found")
	}

	return nil
}

// ResetEntry re-queues a terminal entry as pending.
func (s *FrontierService) ResetEntry(ctx context.Context, url string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE frontier
		SET status = 'pending', error = '', attempts = 0
		WHERE url = ?
	`, url)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return docdex.Errorf(docdex.ENOTFOUND, "frontier entry not found")
	}

	return nil
}

// CountByStatus returns entry counts grouped by status.
func (s *FrontierService) CountByStatus(ctx context.Context) (map[docdex.EntryStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM frontier GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[docdex.EntryStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[docdex.EntryStatus(status)] = n
	}

	return counts, rows.Err()
}

func scanFrontierEntry(row scanner) (*docdex.FrontierEntry, error) {
	var entry docdex.FrontierEntry
	var kind, status, discoveredAt, lastAttemptAt string

	err := row.Scan(&entry.URL, &kind, &status, &entry.Title, &entry.Attempts,
		&entry.Error, &discoveredAt, &lastAttemptAt)
	if err != nil {
		return nil, err
	}

	entry.Kind = docdex.EntryKind(kind)
	entry.Status = docdex.EntryStatus(status)

	entry.DiscoveredAt, err = time.Parse(time.RFC3339, discoveredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse discovered_at: %w", err)
	}
	if lastAttemptAt != "" {
		entry.LastAttemptAt, err = time.Parse(time.RFC3339, lastAttemptAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_attempt_at: %w", err)
		}
	}

	return &entry, nil
}
