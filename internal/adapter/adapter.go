package adapter

import (
	"context"

	"nmapgraph/internal/scandoc"
)

// Source produces one scan document per call
type Source interface {
	// Name returns the unique identifier for this source
	Name() string

	// Scan returns the document to convert
	Scan(ctx context.Context) (*scandoc.Document, error)
}

var (
	_ Source = (*NmapAdapter)(nil)
	_ Source = (*FileSource)(nil)
)
