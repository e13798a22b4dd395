package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseOptions configures a SupabaseStore.
type SupabaseOptions struct {
	BaseURL string // project URL, e.g. https://xyz.supabase.co
	APIKey  string // service-role or anon key; sent as apikey and bearer token
	Timeout time.Duration
}

// SupabaseStore performs bulk merge-duplicates upserts through PostgREST.
//
// Each UpsertChunk call issues one POST /rest/v1/{table}?on_conflict={key}
// with Prefer: resolution=merge-duplicates, so a record matching the conflict
// key has all its fields replaced by the incoming record (last write wins).
type SupabaseStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSupabaseStore(opts SupabaseOptions) (*SupabaseStore, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("APIKey is required")
	}
	to := opts.Timeout
	if to <= 0 {
		to = 120 * time.Second
	}
	return &SupabaseStore{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  strings.TrimSpace(opts.APIKey),
		client:  &http.Client{Timeout: to},
	}, nil
}

func (s *SupabaseStore) UpsertChunk(ctx context.Context, table, conflictKey string, records []any) error {
	if len(records) == 0 {
		return nil
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%s: encode payload: %w", table, err)
	}

	u := s.baseURL + "/rest/v1/" + url.PathEscape(table) + "?on_conflict=" + url.QueryEscape(conflictKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Prefer", "resolution=merge-duplicates")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: upsert: %w", table, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: upsert http status %d: %s", table, resp.StatusCode, snippet(body))
	}
	return nil
}
