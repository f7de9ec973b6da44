package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SentimentClient calls a hosted inference API for sentiment classification.
type SentimentClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewSentimentClient creates a sentiment engine. A missing API key returns
// ErrModelUnavailable so the caller can degrade instead of failing.
func NewSentimentClient(baseURL, model, apiKey string, timeout time.Duration) (*SentimentClient, error) {
	if apiKey == "" {
		return nil, ErrModelUnavailable
	}
	return &SentimentClient{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Classify returns the top sentiment label and its score.
func (c *SentimentClient) Classify(ctx context.Context, text string) (string, float64, error) {
	body, err := c.infer(ctx, map[string]any{"inputs": text})
	if err != nil {
		return "", 0, err
	}

	// Response shape: [[{"label":"positive","score":0.98}, ...]] with the
	// highest-scoring label first.
	var result [][]struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", 0, fmt.Errorf("decoding sentiment response: %w", err)
	}
	if len(result) == 0 || len(result[0]) == 0 {
		return "", 0, fmt.Errorf("empty sentiment response")
	}
	top := result[0][0]
	for _, candidate := range result[0][1:] {
		if candidate.Score > top.Score {
			top = candidate
		}
	}
	return top.Label, top.Score, nil
}

func (c *SentimentClient) infer(ctx context.Context, payload map[string]any) ([]byte, error) {
	return infer(ctx, c.client, c.baseURL, c.model, c.apiKey, payload)
}

// NERClient calls a hosted inference API for named-entity recognition.
type NERClient struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewNERClient creates an entity engine. A missing API key returns
// ErrModelUnavailable so the caller can degrade instead of failing.
func NewNERClient(baseURL, model, apiKey string, timeout time.Duration) (*NERClient, error) {
	if apiKey == "" {
		return nil, ErrModelUnavailable
	}
	return &NERClient{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Extract returns aggregated entity spans with confidence scores.
func (c *NERClient) Extract(ctx context.Context, text string) ([]Entity, error) {
	body, err := infer(ctx, c.client, c.baseURL, c.model, c.apiKey, map[string]any{
		"inputs":     text,
		"parameters": map[string]string{"aggregation_strategy": "simple"},
	})
	if err != nil {
		return nil, err
	}

	var result []struct {
		EntityGroup string  `json:"entity_group"`
		Word        string  `json:"word"`
		Score       float64 `json:"score"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding NER response: %w", err)
	}

	entities := make([]Entity, 0, len(result))
	for _, e := range result {
		entities = append(entities, Entity{Group: e.EntityGroup, Word: e.Word, Score: e.Score})
	}
	return entities, nil
}

func infer(ctx context.Context, client *http.Client, baseURL, model, apiKey string, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/models/"+model, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("inference API returned %d: %s", resp.StatusCode, string(respBody))
	}

	return io.ReadAll(resp.Body)
}
