// Package report composes a markdown summary of the local archive and
// renders it to a standalone HTML file for sharing outside the terminal.
package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/safeguard-ke/safeguard/internal/database"
)

const topThreatCount = 10
const recentArticleCount = 15

var md = goldmark.New()

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 56rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
h1, h2 { border-bottom: 1px solid #ddd; padding-bottom: .3rem; }
code { background: #f4f4f4; padding: .1rem .3rem; border-radius: 3px; }
blockquote { color: #555; border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; }
</style>
</head>
<body>
%s
</body>
</html>
`

// Composer builds scan reports from the local archive.
type Composer struct {
	db  *database.DB
	now func() time.Time
}

// NewComposer creates a report composer.
func NewComposer(db *database.DB) *Composer {
	return &Composer{db: db, now: time.Now}
}

// ComposeMarkdown assembles the full report as markdown.
func (c *Composer) ComposeMarkdown() (string, error) {
	stats, err := c.db.GetStats()
	if err != nil {
		return "", fmt.Errorf("loading stats: %w", err)
	}
	topics, err := c.db.TopicCounts()
	if err != nil {
		return "", fmt.Errorf("loading topic counts: %w", err)
	}
	threats, err := c.db.GetTopThreats(topThreatCount)
	if err != nil {
		return "", fmt.Errorf("loading threats: %w", err)
	}
	articles, err := c.db.GetRecentArticles(recentArticleCount)
	if err != nil {
		return "", fmt.Errorf("loading articles: %w", err)
	}

	var sections []string
	sections = append(sections, fmt.Sprintf("# SafeGuard Scan Report\n\n_Generated %s_",
		c.now().UTC().Format("2006-01-02 15:04 UTC")))
	sections = append(sections, summarySection(stats))
	sections = append(sections, topicSection(topics))
	sections = append(sections, threatSection(threats))
	sections = append(sections, articleSection(articles))

	return strings.Join(sections, "\n\n"), nil
}

// WriteHTML composes the report and overwrites path with a standalone
// HTML page.
func (c *Composer) WriteHTML(path string) error {
	markdown, err := c.ComposeMarkdown()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	page := fmt.Sprintf(htmlShell, "SafeGuard Scan Report", buf.String())
	return os.WriteFile(path, []byte(page), 0644)
}

func summarySection(stats *database.Stats) string {
	return fmt.Sprintf(`## Summary

- Articles archived: %d
- Threats archived: %d (%d critical, %d high)
- Location-boosted threats: %d`,
		stats.TotalArticles, stats.TotalThreats,
		stats.CriticalThreats, stats.HighThreats, stats.BoostedThreats)
}

func topicSection(topics []database.TopicCount) string {
	if len(topics) == 0 {
		return "## Articles by Topic\n\nNo articles archived yet."
	}
	var lines []string
	for _, tc := range topics {
		lines = append(lines, fmt.Sprintf("- %s: %d", tc.Topic, tc.Count))
	}
	return "## Articles by Topic\n\n" + strings.Join(lines, "\n")
}

func threatSection(threats []database.ThreatRecord) string {
	if len(threats) == 0 {
		return "## Top Threats\n\nNo threats archived yet."
	}
	var lines []string
	for _, t := range threats {
		line := fmt.Sprintf("- **%d** %s, triggered by `%s`", t.ThreatScore, t.ThreatCategory, t.KeywordTrigger)
		if t.LocationBoosted {
			line += " (location boosted)"
		}
		line += "\n  > " + contentSnippet(t.Content)
		lines = append(lines, line)
	}
	return "## Top Threats\n\n" + strings.Join(lines, "\n")
}

func articleSection(articles []database.ArticleRecord) string {
	if len(articles) == 0 {
		return "## Recent Articles\n\nNo articles archived yet."
	}
	var lines []string
	for _, a := range articles {
		line := fmt.Sprintf("- [%s](%s)", a.Title, a.ArticleURL)
		if a.TopicCategory != "" {
			line += " — " + a.TopicCategory
		}
		if a.PublishDate != nil {
			line += ", " + *a.PublishDate
		}
		lines = append(lines, line)
	}
	return "## Recent Articles\n\n" + strings.Join(lines, "\n")
}

// contentSnippet flattens and bounds raw post text for inline display.
func contentSnippet(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	runes := []rune(flat)
	if len(runes) > 160 {
		flat = string(runes[:160]) + "..."
	}
	return html.EscapeString(flat)
}
