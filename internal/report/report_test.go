package report

import (
	"os"
	"path/filepath"
	"strings"
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

func seededComposer(t *testing.T) *Composer {
	t.Helper()
	db := openTestDB(t)

	date := "2026-02-20"
	db.UpsertArticle(&database.ArticleRecord{
		ArticleURL:    "https://www.tuko.co.ke/news/case",
		Title:         "Court hears femicide case",
		PublishDate:   &date,
		TopicCategory: "GBV",
	})
	db.UpsertThreat(&database.ThreatRecord{
		TweetHash:       "ab12cd34ef56ab78",
		KeywordTrigger:  "nitakuua",
		Content:         "threatening   post\nwith whitespace",
		ThreatScore:     95,
		ThreatCategory:  "critical_threat",
		LocationBoosted: true,
	})

	c := NewComposer(db)
	c.now = func() time.Time { return time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC) }
	return c
}

func TestComposeMarkdown(t *testing.T) {
	c := seededComposer(t)

	markdown, err := c.ComposeMarkdown()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"# SafeGuard Scan Report",
		"_Generated 2026-02-21 09:00 UTC_",
		"Articles archived: 1",
		"Threats archived: 1 (1 critical, 0 high)",
		"- GBV: 1",
		"**95** critical_threat, triggered by `nitakuua` (location boosted)",
		"[Court hears femicide case](https://www.tuko.co.ke/news/case)",
	} {
		if !strings.Contains(markdown, want) {
			t.Errorf("report missing %q", want)
		}
	}

	if strings.Contains(markdown, "whitespace\n") {
		t.Error("post content not flattened to one line")
	}
}

func TestComposeMarkdownEmptyArchive(t *testing.T) {
	c := NewComposer(openTestDB(t))

	markdown, err := c.ComposeMarkdown()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(markdown, "No articles archived yet.") {
		t.Error("expected empty-archive placeholder for articles")
	}
	if !strings.Contains(markdown, "No threats archived yet.") {
		t.Error("expected empty-archive placeholder for threats")
	}
}

func TestWriteHTML(t *testing.T) {
	c := seededComposer(t)

	path := filepath.Join(t.TempDir(), "report.html")
	if err := c.WriteHTML(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	page := string(data)
	if !strings.Contains(page, "<!DOCTYPE html>") {
		t.Error("expected standalone HTML page")
	}
	if !strings.Contains(page, "<h1") {
		t.Error("expected rendered markdown heading")
	}
	if !strings.Contains(page, "Court hears femicide case") {
		t.Error("expected article title in rendered page")
	}
}
