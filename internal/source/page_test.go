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

const testPage = `<html><body>
<a href="/news/gbv-case-reported">GBV case</a>
<a href="/news/gbv-case-reported#comments">GBV case comments anchor</a>
<a href="/article/femicide-march">March</a>
<a href="/about-us">About</a>
<a href="https://other-domain.example/news/external">External</a>
<a href="/story/court-ruling">Ruling</a>
<a href="/kenya/county-news">County</a>
</body></html>`

func TestDiscoverLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testPage)
	}))
	defer srv.Close()

	client := NewPageClient(5*time.Second, 10)
	links, err := client.DiscoverLinks(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 4 allowlisted same-domain links; the fragment variant deduplicates.
	if len(links) != 4 {
		t.Fatalf("expected 4 links, got %d: %v", len(links), links)
	}
	for _, l := range links {
		if !strings.HasPrefix(l, srv.URL) {
			t.Errorf("link %q escaped the site domain", l)
		}
		if strings.Contains(l, "#") {
			t.Errorf("link %q not normalized", l)
		}
	}
}

func TestDiscoverLinksCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, `<a href="/news/item-%d">item</a>`, i)
	}
	b.WriteString("</body></html>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, b.String())
	}))
	defer srv.Close()

	client := NewPageClient(5*time.Second, 10)
	links, err := client.DiscoverLinks(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 10 {
		t.Errorf("expected cap of 10 links, got %d", len(links))
	}
}

func TestDiscoverLinksServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewPageClient(5*time.Second, 10)
	_, err := client.DiscoverLinks(context.Background(), srv.URL)

	var transient *TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %v", err)
	}
}
