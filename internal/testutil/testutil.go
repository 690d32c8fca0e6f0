// Package testutil provides shared test helpers for setting up todo stores.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/todod/internal/storage"
)

// TestSQLite creates a store on a temporary SQLite file that is cleaned up after the test.
func TestSQLite(t *testing.T) storage.Provider {
	t.Helper()
	dbFile, err := os.CreateTemp("", "todod-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := storage.OpenSQLite(context.Background(), storage.Options{URL: dbFile.Name()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestMemory creates an in-memory store.
func TestMemory(t *testing.T) storage.Provider {
	t.Helper()
	store := storage.NewMemory()
	t.Cleanup(func() { store.Close() })
	return store
}
