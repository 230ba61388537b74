package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CachedDownload is one entry in the persistent download index.
type CachedDownload struct {
	ManuscriptID string
	DocType      string
	SourceURL    string
	LocalPath    string
	CreatedAt    time.Time
}

// LookupDownload returns the cached path for (manuscript, document type), or
// ok=false when nothing was downloaded yet. This is what makes the
// at-most-one-download guarantee survive restarts.
func (s *Store) LookupDownload(ctx context.Context, manuscriptID, docType string) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT local_path FROM download_cache WHERE manuscript_id = ? AND doc_type = ?`,
		manuscriptID, docType,
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup download: %w", err)
	}
	return path, true, nil
}

// RecordDownload indexes a completed download. A second record for the same
// key overwrites the first, pointing the cache at the newest file.
func (s *Store) RecordDownload(ctx context.Context, manuscriptID, docType, sourceURL, localPath string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(ctx,
		`INSERT INTO download_cache (manuscript_id, doc_type, source_url, local_path, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (manuscript_id, doc_type) DO UPDATE SET
		   source_url = excluded.source_url,
		   local_path = excluded.local_path,
		   created_at = excluded.created_at`,
		manuscriptID, docType, sourceURL, localPath, now,
	)
	if err != nil {
		return fmt.Errorf("record download: %w", err)
	}
	return nil
}

// ForgetDownload drops one cache entry, forcing a refetch next run.
func (s *Store) ForgetDownload(ctx context.Context, manuscriptID, docType string) error {
	_, err := s.execWithRetry(ctx,
		`DELETE FROM download_cache WHERE manuscript_id = ? AND doc_type = ?`,
		manuscriptID, docType,
	)
	if err != nil {
		return fmt.Errorf("forget download: %w", err)
	}
	return nil
}

// ClearDownloads empties the download index. Callers removing the files on
// disk should do so before dropping the index.
func (s *Store) ClearDownloads(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM download_cache`)
	if err != nil {
		return 0, fmt.Errorf("clear downloads: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear downloads: %w", err)
	}
	return affected, nil
}

// DownloadCount reports how many documents the cache indexes.
func (s *Store) DownloadCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM download_cache`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count downloads: %w", err)
	}
	return count, nil
}
