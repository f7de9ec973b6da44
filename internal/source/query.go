package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSearchURL = "https://api.twitter.com/2/tweets/search/recent"

// Post is a single social post returned by a keyword search.
type Post struct {
	ID        string
	Text      string
	CreatedAt time.Time
	Lang      string
}

// QueryClient searches a rate-limited social search API for keyword matches
// scoped to Kenyan locations.
type QueryClient struct {
	bearerToken string
	maxResults  int
	searchURL   string
	client      *http.Client
}

// NewQueryClient creates a search client. A missing bearer token is an
// AuthError: the social source is disabled for this run.
func NewQueryClient(bearerToken string, maxResults int, timeout time.Duration) (*QueryClient, error) {
	if bearerToken == "" {
		return nil, &AuthError{Client: "social search"}
	}
	if maxResults < 10 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}
	return &QueryClient{
		bearerToken: bearerToken,
		maxResults:  maxResults,
		searchURL:   defaultSearchURL,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

// Search returns recent posts matching keyword near any of the given
// locations (at most the first five are used in the query).
func (c *QueryClient) Search(ctx context.Context, keyword string, locations []string) ([]Post, error) {
	if len(locations) > 5 {
		locations = locations[:5]
	}
	query := fmt.Sprintf("%q", keyword)
	if len(locations) > 0 {
		query += " (" + strings.Join(locations, " OR ") + ")"
	}
	query += " -is:retweet lang:en OR lang:sw"

	params := url.Values{
		"query":        {query},
		"max_results":  {fmt.Sprintf("%d", c.maxResults)},
		"tweet.fields": {"id,text,created_at,lang"},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &TransientError{Op: "building search request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransientError{Op: "social search", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Client: "social search"}
	case resp.StatusCode != http.StatusOK:
		return nil, &TransientError{Op: "social search", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	var result struct {
		Data []struct {
			ID        string `json:"id"`
			Text      string `json:"text"`
			CreatedAt string `json:"created_at"`
			Lang      string `json:"lang"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &TransientError{Op: "decoding search response", Err: err}
	}

	posts := make([]Post, 0, len(result.Data))
	for _, d := range result.Data {
		if d.ID == "" || d.Text == "" {
			continue
		}
		p := Post{ID: d.ID, Text: d.Text, Lang: d.Lang}
		if d.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
				p.CreatedAt = t
			}
		}
		posts = append(posts, p)
	}
	return posts, nil
}
