// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/vitrine/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		position INTEGER PRIMARY KEY,
		id TEXT,
		data TEXT NOT NULL,
		stored_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_id ON records(id);

	CREATE TABLE IF NOT EXISTS update_status (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP NOT NULL,
		success INTEGER NOT NULL,
		message TEXT,
		record_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_update_status_timestamp ON update_status(timestamp);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceRecords swaps the whole stored collection in one transaction.
// Input order is preserved as the record position.
func (s *SQLiteStorage) ReplaceRecords(ctx context.Context, records []models.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (position, id, data, stored_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, i, rec.ID(), string(data), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListRecords returns every stored record in ingestion order.
func (s *SQLiteStorage) ListRecords(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM records ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func decodeRecord(data string) (models.Record, error) {
	var rec models.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

// CountRecords returns the number of stored records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

// SaveStatus appends an ingestion run to the history. A zero timestamp is set to now.
func (s *SQLiteStorage) SaveStatus(ctx context.Context, status *models.UpdateStatus) error {
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO update_status (timestamp, success, message, record_count)
		 VALUES (?, ?, ?, ?)`,
		status.Timestamp, status.Success, status.Message, status.RecordCount,
	)
	return err
}

// LatestStatus returns the most recent ingestion run.
func (s *SQLiteStorage) LatestStatus(ctx context.Context) (*models.UpdateStatus, error) {
	list, err := s.ListStatus(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("update status: %w", ErrNotFound)
	}
	return list[0], nil
}

// ListStatus returns up to limit ingestion runs, newest first.
func (s *SQLiteStorage) ListStatus(ctx context.Context, limit int) ([]*models.UpdateStatus, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, success, message, record_count
		 FROM update_status ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.UpdateStatus
	for rows.Next() {
		var st models.UpdateStatus
		var message sql.NullString
		if err := rows.Scan(&st.Timestamp, &st.Success, &message, &st.RecordCount); err != nil {
			return nil, err
		}
		st.Message = message.String
		out = append(out, &st)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
