package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewQueryClientMissingToken(t *testing.T) {
	_, err := NewQueryClient("", 10, time.Second)

	var auth *AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestSearchParsesPosts(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		fmt.Fprint(w, `{"data":[
			{"id":"101","text":"threats reported in nairobi","created_at":"2026-03-01T10:00:00Z","lang":"en"},
			{"id":"102","text":"habari ya leo","lang":"sw"},
			{"id":"","text":"missing id dropped"}
		]}`)
	}))
	defer srv.Close()

	client, err := NewQueryClient("token", 10, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client.searchURL = srv.URL

	posts, err := client.Search(context.Background(), "kill you", []string{"nairobi", "mombasa"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != "101" || posts[0].CreatedAt.IsZero() {
		t.Errorf("unexpected first post: %+v", posts[0])
	}

	if !strings.Contains(gotQuery, `"kill you"`) {
		t.Errorf("expected quoted keyword in query, got %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "nairobi OR mombasa") {
		t.Errorf("expected location group in query, got %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "-is:retweet") {
		t.Errorf("expected retweet filter in query, got %q", gotQuery)
	}
}

func TestSearchQuotaFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, _ := NewQueryClient("token", 10, time.Second)
	client.searchURL = srv.URL

	_, err := client.Search(context.Background(), "gbv", nil)
	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
}

func TestSearchInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, _ := NewQueryClient("stale-token", 10, time.Second)
	client.searchURL = srv.URL

	_, err := client.Search(context.Background(), "gbv", nil)
	var auth *AuthError
	if !errors.As(err, &auth) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}
