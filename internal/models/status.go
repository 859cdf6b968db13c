package models

import "time"

// UpdateStatus describes one ingestion run.
type UpdateStatus struct {
	Timestamp   time.Time `json:"timestamp"`
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	RecordCount int       `json:"record_count"`
}
