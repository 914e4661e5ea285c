// Package store persists every entity the collectors, task queue, and
// console bridge produce. It follows §3's two idioms directly: append
// for time-series tables, delete-then-insert ("current-state replace")
// for IP addresses and routes, using raw SQL in the style of
// pineappledr-vigil's internal/zfs/ingest.go rather than an ORM — no
// corpus repo in the pack layers an ORM over modernc.org/sqlite.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a *sql.DB with the schema applied.
type Store struct {
	DB *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// applies the embedded schema idempotently via CREATE TABLE IF NOT
// EXISTS — no migration framework is wired (see DESIGN.md).
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	// A single writer process talking to an embedded file database:
	// serialize writes, matching §5's "the database is the sole
	// coordination medium."
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Printf("[store] opened %s", path)
	return &Store{DB: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}
