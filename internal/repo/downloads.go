package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fetcharr/internal/domain/consts"
	"fetcharr/internal/models"
	"fetcharr/internal/utils/logging"

	"github.com/Masterminds/squirrel"
)

// DownloadStore holds a pointer to the sql.DB.
type DownloadStore struct {
	DB *sql.DB
}

// GetDownloadStore returns a download store instance with injected database.
func GetDownloadStore(db *sql.DB) *DownloadStore {
	return &DownloadStore{
		DB: db,
	}
}

// UpsertStatuses writes the latest status of each item in a single transaction.
func (ds *DownloadStore) UpsertStatuses(ctx context.Context, updates []models.StatusUpdate) (err error) {
	if len(updates) == 0 {
		return nil
	}

	tx, err := ds.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Panic rollback failed for %d status updates: %v", len(updates), rbErr)
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.E("Failed to rollback status updates (original error: %v): %v", err, rbErr)
			}
		}
	}()

	now := time.Now().UTC()
	for _, u := range updates {
		normalizeStatus(&u)

		query := squirrel.
			Insert(consts.DBDownloads).
			Columns(
				consts.QDLID,
				consts.QDLURL,
				consts.QDLStatus,
				consts.QDLPct,
				consts.QDLError,
				consts.QDLFilePath,
				consts.QDLBackend,
				consts.QDLUpdatedAt,
			).
			Values(u.ItemID, u.URL, string(u.Status), u.Percent, u.Error, u.FilePath, u.Backend, now).
			Suffix("ON CONFLICT(" + consts.QDLID + ") DO UPDATE SET " +
				consts.QDLStatus + " = excluded." + consts.QDLStatus + ", " +
				consts.QDLPct + " = excluded." + consts.QDLPct + ", " +
				consts.QDLError + " = excluded." + consts.QDLError + ", " +
				consts.QDLFilePath + " = excluded." + consts.QDLFilePath + ", " +
				consts.QDLUpdatedAt + " = excluded." + consts.QDLUpdatedAt).
			RunWith(tx)

		if _, err = query.ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to upsert download status for %q: %w", u.URL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status updates: %w", err)
	}
	return nil
}

// GetStatus returns the stored status of one item.
func (ds *DownloadStore) GetStatus(ctx context.Context, id string) (models.StatusUpdate, error) {
	var u models.StatusUpdate
	err := squirrel.
		Select(consts.QDLID, consts.QDLURL, consts.QDLStatus, consts.QDLPct, consts.QDLError, consts.QDLFilePath, consts.QDLBackend).
		From(consts.DBDownloads).
		Where(squirrel.Eq{consts.QDLID: id}).
		RunWith(ds.DB).
		QueryRowContext(ctx).
		Scan(&u.ItemID, &u.URL, &u.Status, &u.Percent, &u.Error, &u.FilePath, &u.Backend)
	if err == sql.ErrNoRows {
		return u, fmt.Errorf("download %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return u, fmt.Errorf("failed to query download status for %q: %w", id, err)
	}
	return u, nil
}

// MarkInterrupted fails rows left non-terminal by a previous run.
func (ds *DownloadStore) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := squirrel.
		Update(consts.DBDownloads).
		Set(consts.QDLStatus, string(consts.StateFailed)).
		Set(consts.QDLError, "interrupted").
		Set(consts.QDLUpdatedAt, time.Now().UTC()).
		Where(squirrel.Eq{consts.QDLStatus: []string{
			string(consts.StateIdle),
			string(consts.StateDownloading),
			string(consts.StateProcessing),
		}}).
		RunWith(ds.DB).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to mark interrupted downloads: %w", err)
	}
	return res.RowsAffected()
}

// normalizeStatus clamps the percentage to what the status allows.
func normalizeStatus(u *models.StatusUpdate) {
	switch {
	case u.Status == consts.StateCompleted:
		u.Percent = 100
	case u.Percent < 0:
		u.Percent = 0
	case u.Percent > 100:
		u.Percent = 100
	}
	if u.Status == "" {
		u.Status = consts.StateIdle
	}
}
