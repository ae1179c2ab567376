// Package store opens the sqlite database holding the series cache and the
// watch history.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS series_cache (
	id         INTEGER PRIMARY KEY,
	data       BLOB    NOT NULL,
	fetched_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	series_id  INTEGER NOT NULL,
	season     INTEGER NOT NULL,
	episode    TEXT    NOT NULL,
	title      TEXT    NOT NULL,
	position   REAL    NOT NULL DEFAULT 0,
	duration   REAL    NOT NULL DEFAULT 0,
	watched_at INTEGER NOT NULL,
	PRIMARY KEY (series_id, season, episode)
);
`

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; one connection keeps concurrent
	// workers from hitting SQLITE_BUSY and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return db, nil
}
