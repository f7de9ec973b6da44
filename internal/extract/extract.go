// Package extract turns a discovered article URL into clean text plus
// metadata, applying politeness, recency and minimum-length rules.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
)

// Filter outcomes. These are not failures: the item is simply not wanted.
var (
	ErrTooOld   = errors.New("article older than max age")
	ErrTooShort = errors.New("article text below minimum length")
)

// ParseError indicates malformed or unusable content for a single URL.
// It is caught at the item boundary and never aborts a batch.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %s", e.URL, e.Reason)
}

// Article is the extracted content of one page.
type Article struct {
	URL         string
	Title       string
	Text        string
	PublishedAt *time.Time
}

// Extractor fetches and parses article pages.
type Extractor struct {
	client     *http.Client
	politeness time.Duration
	maxAge     time.Duration
	minLength  int

	now   func() time.Time
	sleep func(time.Duration)
}

// New creates an extractor. politeness is the delay before every fetch,
// maxAgeDays the recency cutoff and minLength the shortest acceptable text.
func New(timeout, politeness time.Duration, maxAgeDays, minLength int) *Extractor {
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	if minLength <= 0 {
		minLength = 150
	}
	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		politeness: politeness,
		maxAge:     time.Duration(maxAgeDays) * 24 * time.Hour,
		minLength:  minLength,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Extract fetches articleURL and returns its title, text and publish date.
// It returns ErrTooOld or ErrTooShort when a filter rejects the item, or a
// ParseError when the page cannot be used.
func (e *Extractor) Extract(ctx context.Context, articleURL string) (*Article, error) {
	if e.politeness > 0 {
		e.sleep(e.politeness)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return nil, &ParseError{URL: articleURL, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", "SafeGuardScanner/1.0 (+https://github.com/safeguard-ke/safeguard)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &ParseError{URL: articleURL, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &ParseError{URL: articleURL, Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ParseError{URL: articleURL, Reason: err.Error()}
	}

	parsedURL, _ := url.Parse(articleURL)
	page, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, &ParseError{URL: articleURL, Reason: err.Error()}
	}

	text := strings.TrimSpace(page.TextContent)
	if len(text) < e.minLength {
		return nil, ErrTooShort
	}

	published := page.PublishedTime
	if published == nil {
		published = publishedFromMeta(body)
	}
	// A missing publish date never rejects; only a known-old one does.
	if published != nil && e.now().Sub(*published) > e.maxAge {
		return nil, ErrTooOld
	}

	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = "No title"
	}

	return &Article{
		URL:         articleURL,
		Title:       title,
		Text:        text,
		PublishedAt: published,
	}, nil
}

// publishedFromMeta scrapes common publish-date markup when readability
// finds none.
func publishedFromMeta(body []byte) *time.Time {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	candidates := []string{
		"meta[property='article:published_time']",
		"meta[itemprop='datePublished']",
		"meta[name='date']",
	}
	for _, sel := range candidates {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && content != "" {
			if t, err := dateparse.ParseAny(content); err == nil {
				return &t
			}
		}
	}
	if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && datetime != "" {
		if t, err := dateparse.ParseAny(datetime); err == nil {
			return &t
		}
	}
	return nil
}
