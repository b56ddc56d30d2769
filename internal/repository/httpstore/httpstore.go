// Package httpstore delivers entities to a remote graph inventory API
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nmapgraph/internal/domain"
	"nmapgraph/internal/repository"
)

// AccountHeader carries the inventory account on every request
const AccountHeader = "X-Inventory-Account"

const defaultTimeout = 30 * time.Second

var _ repository.EntityStore = (*Store)(nil)

// Config holds connection settings for the inventory API
type Config struct {
	Endpoint    string
	AccessToken string
	Account     string
	Timeout     time.Duration
}

// Store implements repository.EntityStore over HTTP
type Store struct {
	baseURL     string
	accessToken string
	account     string
	httpClient  *http.Client
}

// New creates a store for the API rooted at cfg.Endpoint
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("inventory endpoint is required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Store{
		baseURL:     strings.TrimRight(cfg.Endpoint, "/"),
		accessToken: cfg.AccessToken,
		account:     cfg.Account,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type createEntityRequest struct {
	EntityKey   string            `json:"entityKey"`
	EntityType  string            `json:"entityType"`
	EntityClass []string          `json:"entityClass"`
	Properties  domain.Properties `json:"properties"`
}

type createEntityResponse struct {
	Vertex struct {
		Entity struct {
			ID string `json:"_id"`
		} `json:"entity"`
	} `json:"vertex"`
}

// UpsertEntity posts the entity and returns the id the API assigned
func (s *Store) UpsertEntity(ctx context.Context, e *domain.HostEntity) (string, error) {
	body, err := json.Marshal(createEntityRequest{
		EntityKey:   e.Key,
		EntityType:  e.Type,
		EntityClass: e.Class,
		Properties:  e.Properties,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPost, s.baseURL+"/entities", "application/json", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result createEntityResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Vertex.Entity.ID == "" {
		return "", fmt.Errorf("response for %s carries no entity id", e.Key)
	}
	return result.Vertex.Entity.ID, nil
}

// UpsertRawData stores a named payload on an existing entity
func (s *Store) UpsertRawData(ctx context.Context, entityID, name, contentType string, data []byte) error {
	endpoint := fmt.Sprintf("%s/entities/%s/raw-data/%s",
		s.baseURL, url.PathEscape(entityID), url.PathEscape(name))

	resp, err := s.do(ctx, http.MethodPut, endpoint, contentType, data)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Close drops idle connections
func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// do sends an authenticated request and checks the status. The caller
// closes the body of a successful response.
func (s *Store) do(ctx context.Context, method, endpoint, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set(AccountHeader, s.account)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, repository.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status: %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
