package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"nmapgraph/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals interface to nullable JSON string.
// Returns empty NullString for nil or empty maps
func marshalToNull(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}

	switch m := v.(type) {
	case map[string]any:
		if len(m) == 0 {
			return sql.NullString{}, nil
		}
	case domain.Properties:
		if len(m) == 0 {
			return sql.NullString{}, nil
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Entity Row Scanner
// ============================================================================
//
// CRITICAL: Column order must match between entityColumns and scanArgs().

// entityColumns returns the SELECT column list for entity queries
const entityColumns = `id, entity_key, entity_type, classes, properties, created_at, updated_at`

// entityRow holds all columns from an entity query for scanning
type entityRow struct {
	ID             string
	Key            string
	Type           string
	ClassesJSON    sql.NullString
	PropertiesJSON sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
func (r *entityRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,             // 1
		&r.Key,            // 2
		&r.Type,           // 3
		&r.ClassesJSON,    // 4
		&r.PropertiesJSON, // 5
		&r.CreatedAt,      // 6
		&r.UpdatedAt,      // 7
	}
}

// toDomain converts the scanned row to a StoredEntity
func (r *entityRow) toDomain() (*StoredEntity, error) {
	stored := &StoredEntity{
		ID: r.ID,
		Entity: domain.HostEntity{
			Key:        r.Key,
			Type:       r.Type,
			Properties: domain.Properties{},
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	if err := unmarshalJSONField(r.ClassesJSON, &stored.Entity.Class); err != nil {
		return nil, fmt.Errorf("unmarshal classes: %w", err)
	}
	if err := unmarshalJSONField(r.PropertiesJSON, &stored.Entity.Properties); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}

	return stored, nil
}
