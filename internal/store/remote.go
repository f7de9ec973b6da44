package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StoreError reports a failed write to the remote store.
type StoreError struct {
	Table  string
	Status int
	Body   string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("remote store: upsert into %s failed with status %d: %s", e.Table, e.Status, e.Body)
}

// RemoteStore pushes records to a PostgREST-compatible endpoint. Writes are
// upserts keyed on a conflict column, so re-pushing a record merges instead
// of duplicating.
type RemoteStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteStore creates a client for the given PostgREST base URL.
func NewRemoteStore(baseURL, apiKey string, timeout time.Duration) *RemoteStore {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Upsert writes one record into table, merging on conflictKey.
func (r *RemoteStore) Upsert(ctx context.Context, table, conflictKey string, record any) error {
	// PostgREST bulk-insert endpoint takes an array of rows.
	payload, err := json.Marshal([]any{record})
	if err != nil {
		return fmt.Errorf("encoding record for %s: %w", table, err)
	}

	url := fmt.Sprintf("%s/rest/v1/%s?on_conflict=%s", r.baseURL, table, conflictKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building upsert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StoreError{Table: table, Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}
