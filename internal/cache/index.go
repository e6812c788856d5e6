// Package cache provides the identity-keyed artifact cache: a SQLite index
// mapping source keys to artifact references, validated against the store
// on every lookup.
package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	source_key TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	name       TEXT NOT NULL,
	path       TEXT NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_path ON entries(path);
`

// Entry is one cache index row: a weak reference from a source key to an
// artifact the store owns.
type Entry struct {
	SourceKey string
	Category  string
	Name      string
	Path      string
	Checksum  string
	CreatedAt time.Time
}

// Index wraps the SQLite cache database.
type Index struct {
	conn *sql.DB
}

// Open opens (or creates) the cache database and applies the schema.
func Open(dsn string) (*Index, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}
	return &Index{conn: conn}, nil
}

// Close closes the underlying database connection.
func (ix *Index) Close() error {
	return ix.conn.Close()
}

// Put inserts or replaces the entry for its source key. Concurrent puts of
// the same key are last-write-wins.
func (ix *Index) Put(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := ix.conn.Exec(`
		INSERT INTO entries (source_key, category, name, path, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_key) DO UPDATE SET
			category   = excluded.category,
			name       = excluded.name,
			path       = excluded.path,
			checksum   = excluded.checksum,
			created_at = excluded.created_at
	`, e.SourceKey, e.Category, e.Name, e.Path, e.Checksum, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("cache: put %s: %w", e.SourceKey, err)
	}
	return nil
}

// Get returns the entry for key, or nil when the key is not indexed.
func (ix *Index) Get(key string) (*Entry, error) {
	var e Entry
	err := ix.conn.QueryRow(`
		SELECT source_key, category, name, path, checksum, created_at
		FROM entries WHERE source_key = ?
	`, key).Scan(&e.SourceKey, &e.Category, &e.Name, &e.Path, &e.Checksum, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return &e, nil
}

// Delete removes the entry for key, if any.
func (ix *Index) Delete(key string) error {
	_, err := ix.conn.Exec(`DELETE FROM entries WHERE source_key = ?`, key)
	if err != nil {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

// DeleteByPath removes every entry referencing path. Used by the pruner
// when an artifact disappears from disk.
func (ix *Index) DeleteByPath(path string) error {
	_, err := ix.conn.Exec(`DELETE FROM entries WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("cache: delete by path %s: %w", path, err)
	}
	return nil
}

// Clear removes every entry and returns the number removed.
func (ix *Index) Clear() (int, error) {
	res, err := ix.conn.Exec(`DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("cache: clear: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Count returns the number of indexed entries.
func (ix *Index) Count() (int, error) {
	var n int
	if err := ix.conn.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}

// AllPaths returns every referenced artifact path.
func (ix *Index) AllPaths() (map[string]struct{}, error) {
	rows, err := ix.conn.Query(`SELECT path FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("cache: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}
