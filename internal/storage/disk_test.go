package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/vitrine/internal/models"
)

func TestDatabaseSize(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "records.db")
	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := DatabaseSize(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("db only: got %d bytes, want 5", got)
	}

	if err := os.WriteFile(db+"-wal", []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-shm", []byte("de"), 0644); err != nil {
		t.Fatal(err)
	}
	// Unrelated files in the same directory are not counted.
	if err := os.WriteFile(filepath.Join(dir, "other.db"), []byte("zzzz"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DatabaseSize(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 10 {
		t.Errorf("db+wal+shm: got %d bytes, want 10", got)
	}
}

func TestDatabaseSize_Missing(t *testing.T) {
	_, err := DatabaseSize(filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDatabaseSize_LiveWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.ReplaceRecords(context.Background(), []models.Record{{"id": "1", "marca": "Fiat"}}); err != nil {
		t.Fatal(err)
	}

	dbInfo, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	wal, err := os.Stat(path + "-wal")
	if err != nil {
		t.Fatalf("WAL file should exist while the database is open: %v", err)
	}
	got, err := DatabaseSize(path)
	if err != nil {
		t.Fatal(err)
	}
	if got < dbInfo.Size()+wal.Size() {
		t.Errorf("DatabaseSize = %d, want at least db %d + wal %d", got, dbInfo.Size(), wal.Size())
	}
}
