package database

import (
	"database/sql"
	"fmt"
	"strings"

	"fetcharr/internal/domain/consts"
)

// initHistoryTable creates the completed download history table.
func initHistoryTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS ` + consts.DBHistory + ` (
        ` + consts.QHistID + ` TEXT PRIMARY KEY,
        ` + consts.QHistURL + ` TEXT NOT NULL,
        ` + consts.QHistTitle + ` TEXT NOT NULL DEFAULT '',
        ` + consts.QHistAuthor + ` TEXT NOT NULL DEFAULT '',
        ` + consts.QHistThumbnail + ` TEXT NOT NULL DEFAULT '',
        ` + consts.QHistDuration + ` REAL NOT NULL DEFAULT 0,
        ` + consts.QHistFilePath + ` TEXT NOT NULL DEFAULT '',
        ` + consts.QHistFileSize + ` INTEGER NOT NULL DEFAULT 0,
        ` + consts.QHistBackend + ` TEXT NOT NULL DEFAULT '',
        ` + consts.QHistCompletedAt + ` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_history_completed ON ` + consts.DBHistory + `(` + consts.QHistCompletedAt + `);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}
	return nil
}

// initDownloadsTable creates the per-item download status table fed by the tracker.
func initDownloadsTable(tx *sql.Tx) error {
	states := make([]string, 0, len(consts.AllStates))
	for _, s := range consts.AllStates {
		states = append(states, "'"+string(s)+"'")
	}

	query := `
    CREATE TABLE IF NOT EXISTS ` + consts.DBDownloads + ` (
        ` + consts.QDLID + ` TEXT PRIMARY KEY,
        ` + consts.QDLURL + ` TEXT NOT NULL,
        ` + consts.QDLStatus + ` TEXT NOT NULL CHECK(` + consts.QDLStatus + ` IN (` + strings.Join(states, ", ") + `)),
        ` + consts.QDLPct + ` REAL NOT NULL DEFAULT 0,
        ` + consts.QDLError + ` TEXT NOT NULL DEFAULT '',
        ` + consts.QDLFilePath + ` TEXT NOT NULL DEFAULT '',
        ` + consts.QDLBackend + ` TEXT NOT NULL DEFAULT '',
        ` + consts.QDLCreatedAt + ` TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        ` + consts.QDLUpdatedAt + ` TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_downloads_status ON ` + consts.DBDownloads + `(` + consts.QDLStatus + `);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create downloads table: %w", err)
	}
	return nil
}
