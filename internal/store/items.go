package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const itemColumns = `id, journal_code, manuscript_id, category, locator, status,
	attempts, partial, last_error, created_at, updated_at, completed_at`

// Enqueue records a discovered manuscript as pending. Re-discovering an id
// already on the ledger is a no-op that returns the existing row, so a rerun
// never duplicates work.
func (s *Store) Enqueue(ctx context.Context, journalCode, manuscriptID, category, locator string) (*Item, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO ledger_items (journal_code, manuscript_id, category, locator, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (journal_code, manuscript_id) DO NOTHING`,
		journalCode, manuscriptID, category, locator, StatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue manuscript: %w", err)
	}
	return s.Find(ctx, journalCode, manuscriptID)
}

// Find fetches a ledger item by journal and manuscript id. Missing items
// return nil without error.
func (s *Store) Find(ctx context.Context, journalCode, manuscriptID string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM ledger_items WHERE journal_code = ? AND manuscript_id = ?`,
		journalCode, manuscriptID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	return item, nil
}

// NextForStatuses returns the oldest item in any of the given statuses, or
// nil when none remain.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM ledger_items WHERE status IN (`+placeholders+`) ORDER BY id LIMIT 1`,
		args...,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing ledger item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	var completedAt any
	if item.CompletedAt != nil {
		completedAt = item.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.execWithRetry(ctx,
		`UPDATE ledger_items SET category = ?, locator = ?, status = ?, attempts = ?,
		 partial = ?, last_error = ?, updated_at = ?, completed_at = ? WHERE id = ?`,
		item.Category, item.Locator, item.Status, item.Attempts,
		boolToInt(item.Partial), nullableString(item.LastError),
		item.UpdatedAt.Format(time.RFC3339Nano), completedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// MarkFailed moves an item to failed and records why.
func (s *Store) MarkFailed(ctx context.Context, item *Item, reason string) error {
	item.Status = StatusFailed
	item.LastError = reason
	return s.Update(ctx, item)
}

// MarkCompleted finalizes an item, noting whether the record was partial.
func (s *Store) MarkCompleted(ctx context.Context, item *Item, partial bool) error {
	now := time.Now().UTC()
	item.Status = StatusCompleted
	item.Partial = partial
	item.CompletedAt = &now
	return s.Update(ctx, item)
}

// ItemsByStatus lists all items in a status, oldest first.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM ledger_items WHERE status = ? ORDER BY id`, status)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// List returns every ledger item for a journal, oldest first.
func (s *Store) List(ctx context.Context, journalCode string) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM ledger_items WHERE journal_code = ? ORDER BY id`, journalCode)
	if err != nil {
		return nil, fmt.Errorf("list journal items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// Stats counts items per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM ledger_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ResetStuck returns items abandoned mid-stage by a previous run to pending.
// Called once at startup, before the workflow begins polling.
func (s *Store) ResetStuck(ctx context.Context) (int64, error) {
	placeholders := strings.TrimRight(strings.Repeat("?,", len(processingStatuses)), ",")
	args := make([]any, 0, len(processingStatuses)+1)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	args = append(args, now)
	for _, status := range processingStatuses {
		args = append(args, status)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE ledger_items SET status = 'pending', updated_at = ? WHERE status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every ledger item for a journal. The download cache is left
// alone so redone runs still skip physical downloads.
func (s *Store) Clear(ctx context.Context, journalCode string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM ledger_items WHERE journal_code = ?`, journalCode)
	if err != nil {
		return 0, fmt.Errorf("clear ledger: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item        Item
		partial     int
		lastError   sql.NullString
		createdAt   string
		updatedAt   string
		completedAt sql.NullString
	)
	err := row.Scan(&item.ID, &item.JournalCode, &item.ManuscriptID, &item.Category,
		&item.Locator, &item.Status, &item.Attempts, &partial, &lastError,
		&createdAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	item.Partial = partial != 0
	item.LastError = lastError.String
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		item.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		item.UpdatedAt = t
	}
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
			item.CompletedAt = &t
		}
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
