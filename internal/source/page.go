package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Path segments that mark a link as likely article content.
var defaultPathIndicators = []string{
	"/news/", "/article/", "/story/", "/kenya/", "/swahili/", "/kikuyu/",
}

// PageClient loads a site front page within a bounded timeout and extracts
// candidate article links.
type PageClient struct {
	client         *http.Client
	maxLinks       int
	pathIndicators []string
}

// NewPageClient creates a page client. timeout bounds the whole page load;
// maxLinks caps the number of links returned per page.
func NewPageClient(timeout time.Duration, maxLinks int) *PageClient {
	if maxLinks <= 0 {
		maxLinks = 10
	}
	return &PageClient{
		client:         &http.Client{Timeout: timeout},
		maxLinks:       maxLinks,
		pathIndicators: defaultPathIndicators,
	}
}

// DiscoverLinks fetches siteURL and returns same-domain links whose path
// matches the article allowlist, deduplicated by normalized URL and capped
// at maxLinks.
func (p *PageClient) DiscoverLinks(ctx context.Context, siteURL string) ([]string, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return nil, &TransientError{Op: "parsing site URL", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", siteURL, nil)
	if err != nil {
		return nil, &TransientError{Op: "building page request", Err: err}
	}
	req.Header.Set("User-Agent", "SafeGuardScanner/1.0 (+https://github.com/safeguard-ke/safeguard)")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &TransientError{Op: "loading " + siteURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &TransientError{Op: "loading " + siteURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &TransientError{Op: "parsing " + siteURL, Err: err}
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		full := base.ResolveReference(ref)
		if full.Host != base.Host {
			return true
		}
		if !p.matchesIndicator(full.String()) {
			return true
		}

		normalized := normalizeURL(full)
		if _, dup := seen[normalized]; dup {
			return true
		}
		seen[normalized] = struct{}{}
		links = append(links, normalized)
		return len(links) < p.maxLinks
	})

	return links, nil
}

func (p *PageClient) matchesIndicator(fullURL string) bool {
	lower := strings.ToLower(fullURL)
	for _, indicator := range p.pathIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func normalizeURL(u *url.URL) string {
	n := *u
	n.Fragment = ""
	return strings.TrimSuffix(n.String(), "/")
}
