package seenstore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const createSeenTable = `CREATE TABLE IF NOT EXISTS seen_feed_ids (
	id TEXT PRIMARY KEY,
	first_seen_at TEXT NOT NULL
)`

// sqliteStore implements Store on a local SQLite database.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the SQLite seen-set database
// at path and ensures the seen_feed_ids table exists.
func OpenSQLite(path string) (Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec(createSeenTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create seen_feed_ids table: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Exists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM seen_feed_ids WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen id: %w", err)
	}
	return true, nil
}

func (s *sqliteStore) InsertIfAbsent(id, firstSeenAt string) error {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO seen_feed_ids (id, first_seen_at) VALUES (?, ?)",
		id, firstSeenAt,
	)
	if err != nil {
		return fmt.Errorf("insert seen id: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }
