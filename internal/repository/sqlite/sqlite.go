package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"nmapgraph/internal/domain"
	"nmapgraph/internal/repository"
)

var _ repository.EntityStore = (*Repository)(nil)

// Repository implements repository.EntityStore using SQLite
type Repository struct {
	db *sql.DB
	mu sync.Mutex
}

// StoredEntity is an entity as persisted, with its store id
type StoredEntity struct {
	ID        string
	Entity    domain.HostEntity
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New opens (creating if needed) the database at dbPath and migrates it
func New(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		entity_key TEXT NOT NULL UNIQUE,
		entity_type TEXT NOT NULL,
		classes JSON,
		properties JSON,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS entity_raw_data (
		entity_id TEXT NOT NULL,
		name TEXT NOT NULL,
		content_type TEXT,
		data BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (entity_id, name),
		FOREIGN KEY (entity_id) REFERENCES entities(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);
	`

	_, err := r.db.Exec(schema)
	return err
}

// UpsertEntity inserts the entity or updates the row with the same key.
// The id of an existing row is kept.
func (r *Repository) UpsertEntity(ctx context.Context, e *domain.HostEntity) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	classes, err := marshalToNull(e.Class)
	if err != nil {
		return "", fmt.Errorf("marshal classes: %w", err)
	}
	props, err := marshalToNull(e.Properties)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO entities (id, entity_key, entity_type, classes, properties)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entity_key) DO UPDATE SET
			entity_type = excluded.entity_type,
			classes = excluded.classes,
			properties = excluded.properties,
			updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), e.Key, e.Type, classes, props)
	if err != nil {
		return "", fmt.Errorf("failed to upsert entity: %w", err)
	}

	var id string
	err = r.db.QueryRowContext(ctx, `SELECT id FROM entities WHERE entity_key = ?`, e.Key).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to read entity id: %w", err)
	}
	return id, nil
}

// UpsertRawData stores a named payload for an entity
func (r *Repository) UpsertRawData(ctx context.Context, entityID, name, contentType string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM entities WHERE id = ?`, entityID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, entityID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up entity: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO entity_raw_data (entity_id, name, content_type, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_id, name) DO UPDATE SET
			content_type = excluded.content_type,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP
	`, entityID, name, stringToNull(contentType), data)
	if err != nil {
		return fmt.Errorf("failed to upsert raw data: %w", err)
	}
	return nil
}

// GetEntity loads an entity by store id
func (r *Repository) GetEntity(ctx context.Context, id string) (*StoredEntity, error) {
	return r.getOne(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)
}

// GetEntityByKey loads an entity by its entity key
func (r *Repository) GetEntityByKey(ctx context.Context, key string) (*StoredEntity, error) {
	return r.getOne(ctx, `SELECT `+entityColumns+` FROM entities WHERE entity_key = ?`, key)
}

func (r *Repository) getOne(ctx context.Context, query string, arg string) (*StoredEntity, error) {
	var row entityRow
	err := r.db.QueryRowContext(ctx, query, arg).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entity: %w", err)
	}
	return row.toDomain()
}

// ListEntities returns every entity ordered by key
func (r *Repository) ListEntities(ctx context.Context) ([]*StoredEntity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entityColumns+` FROM entities ORDER BY entity_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []*StoredEntity
	for rows.Next() {
		var row entityRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		stored, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		entities = append(entities, stored)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}
	return entities, nil
}

// GetRawData returns the content type and payload stored under name
func (r *Repository) GetRawData(ctx context.Context, entityID, name string) (string, []byte, error) {
	var (
		contentType sql.NullString
		data        []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT content_type, data FROM entity_raw_data WHERE entity_id = ? AND name = ?
	`, entityID, name).Scan(&contentType, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, fmt.Errorf("%w: raw data %s for %s", repository.ErrNotFound, name, entityID)
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to query raw data: %w", err)
	}
	return nullToString(contentType), data, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
