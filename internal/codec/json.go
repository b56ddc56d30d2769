package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/scandoc"
)

// JSONCodec reads scan documents in their object form and writes entities
// as JSON
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a scan document from JSON. Comment lines are dropped first.
func (c *JSONCodec) Parse(r io.Reader) (*scandoc.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	doc, err := scandoc.Unmarshal(scandoc.StripComments(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc, nil
}

// Export writes entities as an indented JSON array
func (c *JSONCodec) Export(entities []domain.HostEntity, w io.Writer) error {
	if entities == nil {
		entities = []domain.HostEntity{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(entities); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
