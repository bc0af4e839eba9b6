// Package backend selects and opens the persistence and export backends.
package backend

import (
	"context"

	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the store and its cleanup function.
type BackendResult struct {
	Store   storage.Store
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the store described by config.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateExporter opens the spreadsheet exporter described by config.
	CreateExporter(ctx context.Context, config Config) (sheets.TransactionExporter, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string

	// Empty spreadsheet id selects the in-memory exporter.
	GoogleSpreadsheetID string
	GoogleSheetName     string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
