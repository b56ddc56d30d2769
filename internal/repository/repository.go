package repository

import (
	"context"
	"errors"

	"nmapgraph/internal/domain"
)

// ErrNotFound is returned when an entity does not exist in the store
var ErrNotFound = errors.New("entity not found")

// Raw data conventions for scan provenance
const (
	RawDataName        = "default"
	RawDataContentType = "application/json"
)

// EntityStore is the destination of converted host entities
type EntityStore interface {
	// UpsertEntity creates or updates the entity with e.Key and returns the
	// store's id for it
	UpsertEntity(ctx context.Context, e *domain.HostEntity) (string, error)

	// UpsertRawData attaches a named payload to an existing entity
	UpsertRawData(ctx context.Context, entityID, name, contentType string, data []byte) error

	// Close releases resources
	Close() error
}
