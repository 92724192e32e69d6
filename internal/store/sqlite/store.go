// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

// Package sqlite implements the catalog store on a single SQLite database.
package sqlite

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/curio-dev/curio/internal/store"
	curioerr "github.com/curio-dev/curio/pkg/errors"
)

// Compile-time interface check.
var _ store.CatalogStore = (*CatalogStore)(nil)

// CatalogStore implements store.CatalogStore backed by a single SQLite
// database. Datasets, objects, and embeddings share one file so a restart
// recovers the full ingest and index state from disk.
type CatalogStore struct {
	db *sql.DB
}

// NewCatalogStore opens (or creates) a SQLite database at dbPath and
// initialises the datasets and objects tables.
func NewCatalogStore(dbPath string) (*CatalogStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "opening catalog db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "pinging catalog db: %w", err)
	}

	if err := migrateCatalog(db); err != nil {
		_ = db.Close()
		return nil, curioerr.Errorf(curioerr.CodeStoreDatabaseFailure, "migrating catalog db: %w", err)
	}

	return &CatalogStore{db: db}, nil
}

func migrateCatalog(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS datasets (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	source_type  TEXT NOT NULL DEFAULT '',
	filename     TEXT NOT NULL DEFAULT '',
	fields       TEXT NOT NULL DEFAULT '[]',
	object_count INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS objects (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	uid         TEXT NOT NULL UNIQUE,
	dataset_id  TEXT NOT NULL,
	original_id TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	creator     TEXT NOT NULL DEFAULT '',
	has_image   INTEGER NOT NULL DEFAULT 0,
	image_url   TEXT NOT NULL DEFAULT '',
	object_url  TEXT NOT NULL DEFAULT '',
	metadata    TEXT NOT NULL DEFAULT '{}',
	embedding   BLOB,
	embedded_at TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	FOREIGN KEY (dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_objects_dataset ON objects(dataset_id);
CREATE INDEX IF NOT EXISTS idx_objects_pending ON objects(seq) WHERE embedding IS NULL;
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *CatalogStore) Close() error { return s.db.Close() }

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
