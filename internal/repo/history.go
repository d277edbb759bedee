package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/models"

	"github.com/Masterminds/squirrel"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// HistoryStore persists completed downloads.
type HistoryStore struct {
	DB *sql.DB
}

// GetHistoryStore returns a history store instance with injected database.
func GetHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{
		DB: db,
	}
}

// Add inserts or replaces a history record.
func (hs *HistoryStore) Add(ctx context.Context, h *models.HistoryItem) error {
	if h == nil || h.ID == "" {
		return errors.New("history item has no id")
	}
	completed := h.CompletedAt
	if completed.IsZero() {
		completed = time.Now()
	}

	query := squirrel.
		Insert(consts.DBHistory).
		Columns(
			consts.QHistID,
			consts.QHistURL,
			consts.QHistTitle,
			consts.QHistAuthor,
			consts.QHistThumbnail,
			consts.QHistDuration,
			consts.QHistFilePath,
			consts.QHistFileSize,
			consts.QHistBackend,
			consts.QHistCompletedAt,
		).
		Values(
			h.ID,
			h.URL,
			h.Title,
			h.Author,
			h.Thumbnail,
			h.Duration,
			h.FilePath,
			h.FileSize,
			h.Backend,
			completed.UTC(),
		).
		Options("OR REPLACE").
		RunWith(hs.DB)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to insert history item for URL %q: %w", h.URL, err)
	}
	return nil
}

// List returns history records newest first. A limit of zero or less returns everything.
func (hs *HistoryStore) List(ctx context.Context, limit, offset int) ([]*models.HistoryItem, error) {
	query := squirrel.
		Select(
			consts.QHistID,
			consts.QHistURL,
			consts.QHistTitle,
			consts.QHistAuthor,
			consts.QHistThumbnail,
			consts.QHistDuration,
			consts.QHistFilePath,
			consts.QHistFileSize,
			consts.QHistBackend,
			consts.QHistCompletedAt,
		).
		From(consts.DBHistory).
		OrderBy(consts.QHistCompletedAt + " DESC").
		RunWith(hs.DB)

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	if offset > 0 {
		if limit <= 0 {
			query = query.Limit(uint64(1<<63 - 1))
		}
		query = query.Offset(uint64(offset))
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []*models.HistoryItem
	for rows.Next() {
		var h models.HistoryItem
		if err := rows.Scan(
			&h.ID,
			&h.URL,
			&h.Title,
			&h.Author,
			&h.Thumbnail,
			&h.Duration,
			&h.FilePath,
			&h.FileSize,
			&h.Backend,
			&h.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}
	return out, nil
}

// Delete removes one history record.
func (hs *HistoryStore) Delete(ctx context.Context, id string) error {
	res, err := squirrel.
		Delete(consts.DBHistory).
		Where(squirrel.Eq{consts.QHistID: id}).
		RunWith(hs.DB).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete history item %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("history item %q: %w", id, ErrNotFound)
	}
	return nil
}

// Clear removes every history record and returns how many were deleted.
func (hs *HistoryStore) Clear(ctx context.Context) (int64, error) {
	res, err := squirrel.
		Delete(consts.DBHistory).
		RunWith(hs.DB).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
