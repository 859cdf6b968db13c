// Package storage defines the persistence interface for the record collection
// and the ingestion history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/vitrine/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Storage persists the latest ingested records and the update history.
type Storage interface {
	// Record operations
	ReplaceRecords(ctx context.Context, records []models.Record) error
	ListRecords(ctx context.Context) ([]models.Record, error)
	CountRecords(ctx context.Context) (int64, error)

	// Update status
	SaveStatus(ctx context.Context, status *models.UpdateStatus) error
	LatestStatus(ctx context.Context) (*models.UpdateStatus, error)
	ListStatus(ctx context.Context, limit int) ([]*models.UpdateStatus, error)

	Close() error
}
