// Package repo holds the SQL-backed stores.
package repo

import (
	"database/sql"
)

// Store bundles the program's stores over one database.
type Store struct {
	db            *sql.DB
	historyStore  *HistoryStore
	downloadStore *DownloadStore
}

// InitStores returns the stores backed by db.
func InitStores(db *sql.DB) *Store {
	return &Store{
		db:            db,
		historyStore:  GetHistoryStore(db),
		downloadStore: GetDownloadStore(db),
	}
}

// History returns the history store.
func (s *Store) History() *HistoryStore {
	return s.historyStore
}

// Downloads returns the download status store.
func (s *Store) Downloads() *DownloadStore {
	return s.downloadStore
}
