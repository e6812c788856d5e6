// Package testutil provides shared test helpers for setting up artifact
// stores and cache databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"augments/internal/cache"
	"augments/internal/store"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStore creates an artifact store rooted in a temporary directory.
func TestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestIndex creates a temporary SQLite cache index that is automatically
// cleaned up.
func TestIndex(t *testing.T) *cache.Index {
	t.Helper()
	dbFile, err := os.CreateTemp("", "augments-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	ix, err := cache.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

// TestCache creates a cache backed by a fresh store and index.
func TestCache(t *testing.T) (*cache.Cache, *store.Store) {
	t.Helper()
	s := TestStore(t)
	return cache.New(TestIndex(t), s), s
}
