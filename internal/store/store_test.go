package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/safeguard-ke/safeguard/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("1234567890")
	if len(fp) != 16 {
		t.Errorf("expected 16-char fingerprint, got %d chars: %s", len(fp), fp)
	}
	if fp != Fingerprint("1234567890") {
		t.Error("fingerprint not stable for same input")
	}
	if fp == Fingerprint("1234567891") {
		t.Error("fingerprint collision for different inputs")
	}
}

func TestSaveArticleLocalOnly(t *testing.T) {
	s := New(openTestDB(t), nil, 10)

	a := &database.ArticleRecord{
		ArticleURL:    "https://www.tuko.co.ke/news/case",
		Title:         "Case report",
		TopicCategory: "GBV",
	}
	if err := s.SaveArticle(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Ring().Len() != 1 {
		t.Errorf("expected 1 ring entry, got %d", s.Ring().Len())
	}
	if s.RemoteEnabled() {
		t.Error("expected local-only mode without remote store")
	}
}

func TestSaveThreatPushesRemote(t *testing.T) {
	var gotPath, gotPrefer string
	var gotBody []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotPrefer = r.Header.Get("Prefer")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	remote := NewRemoteStore(srv.URL, "test-key", 5*time.Second)
	s := New(openTestDB(t), remote, 10)

	threat := &database.ThreatRecord{
		TweetHash:      Fingerprint("42"),
		KeywordTrigger: "nitakupiga",
		Content:        "threatening post",
		ThreatScore:    75,
		ThreatCategory: "high_threat",
	}
	if err := s.SaveThreat(context.Background(), threat); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/rest/v1/threats?on_conflict=tweet_hash" {
		t.Errorf("unexpected upsert path: %s", gotPath)
	}
	if gotPrefer != "resolution=merge-duplicates" {
		t.Errorf("unexpected Prefer header: %s", gotPrefer)
	}
	if len(gotBody) != 1 || gotBody[0]["tweet_hash"] != threat.TweetHash {
		t.Errorf("unexpected upsert body: %+v", gotBody)
	}
}

func TestSaveSurvivesRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	db := openTestDB(t)
	s := New(db, NewRemoteStore(srv.URL, "test-key", 5*time.Second), 10)

	a := &database.ArticleRecord{ArticleURL: "https://a.ke/news/1", Title: "A"}
	if err := s.SaveArticle(context.Background(), a); err != nil {
		t.Fatalf("remote outage must not fail the save: %v", err)
	}

	got, _ := db.GetArticleByURL(a.ArticleURL)
	if got == nil {
		t.Error("expected article archived locally despite remote failure")
	}
	if s.Ring().Len() != 1 {
		t.Errorf("expected record held in backup ring, got %d entries", s.Ring().Len())
	}
}

func TestSaveKeepsRingEntryOnArchiveFailure(t *testing.T) {
	db := openTestDB(t)
	s := New(db, nil, 10)
	db.Close()

	a := &database.ArticleRecord{ArticleURL: "https://a.ke/news/1", Title: "A"}
	if err := s.SaveArticle(context.Background(), a); err == nil {
		t.Fatal("expected error from closed archive")
	}
	if s.Ring().Len() != 1 {
		t.Errorf("expected record held in ring after archive failure, got %d entries", s.Ring().Len())
	}

	threat := &database.ThreatRecord{TweetHash: Fingerprint("1"), ThreatScore: 60}
	if err := s.SaveThreat(context.Background(), threat); err == nil {
		t.Fatal("expected error from closed archive")
	}
	if s.Ring().Len() != 2 {
		t.Errorf("expected both records held in ring, got %d entries", s.Ring().Len())
	}
}

func TestRemoteUpsertError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	remote := NewRemoteStore(srv.URL, "bad-key", 5*time.Second)
	err := remote.Upsert(context.Background(), "articles", "article_url", map[string]string{"article_url": "x"})
	storeErr, ok := err.(*StoreError)
	if !ok {
		t.Fatalf("expected *StoreError, got %v", err)
	}
	if storeErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", storeErr.Status)
	}
}

func TestBackupRingEviction(t *testing.T) {
	ring := NewBackupRing(3)
	for i := 0; i < 5; i++ {
		ring.Append(BackupEntry{Kind: "threat", Record: i})
	}
	entries := ring.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", len(entries))
	}
	if entries[0].Record != 2 || entries[2].Record != 4 {
		t.Errorf("expected oldest entries evicted, got %+v", entries)
	}
}

func TestExportBackup(t *testing.T) {
	s := New(openTestDB(t), nil, 10)
	s.SaveThreat(context.Background(), &database.ThreatRecord{
		TweetHash: Fingerprint("1"), ThreatScore: 60, ThreatCategory: "medium_threat",
	})

	path := filepath.Join(t.TempDir(), "backup.json")
	if err := s.ExportBackup(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	var entries []BackupEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("backup is not valid JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != "threat" {
		t.Errorf("unexpected backup contents: %+v", entries)
	}
}

func TestExportCSV(t *testing.T) {
	db := openTestDB(t)
	s := New(db, nil, 10)
	for i := 0; i < 3; i++ {
		s.SaveArticle(context.Background(), &database.ArticleRecord{
			ArticleURL:    "https://a.ke/news/" + strconv.Itoa(i),
			Title:         "Article " + strconv.Itoa(i),
			TopicCategory: "GBV",
		})
	}

	path := filepath.Join(t.TempDir(), "articles.csv")
	n, err := s.ExportCSV(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 exported rows, got %d", n)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	if rows[0][1] != "article_url" {
		t.Errorf("unexpected header: %v", rows[0])
	}
}
