package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"nmapgraph/internal/domain"
)

// YAMLCodec writes entities as YAML
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlBatch represents the YAML structure for an entity batch
type yamlBatch struct {
	Entities []yamlEntity `yaml:"entities"`
}

type yamlEntity struct {
	Key        string         `yaml:"entityKey"`
	Type       string         `yaml:"entityType"`
	Class      []string       `yaml:"entityClass,flow"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// Export writes entities to YAML. Raw scan data is left out.
func (c *YAMLCodec) Export(entities []domain.HostEntity, w io.Writer) error {
	yb := yamlBatch{
		Entities: make([]yamlEntity, 0, len(entities)),
	}

	for _, e := range entities {
		yb.Entities = append(yb.Entities, yamlEntity{
			Key:        e.Key,
			Type:       e.Type,
			Class:      e.Class,
			Properties: e.Properties,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yb); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
