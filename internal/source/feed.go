package source

import (
	"log"
	"strings"

	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 20

// FeedItem is a candidate article URL discovered from an RSS/Atom feed.
// The extractor fetches the full text itself, so only identity travels here.
type FeedItem struct {
	URL    string
	Title  string
	Source string
}

// FeedConfig identifies one feed to poll.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedSource discovers candidate article URLs from configured feeds.
type FeedSource struct {
	feeds  []FeedConfig
	parser *gofeed.Parser
}

// NewFeedSource creates a feed source over the given feeds.
func NewFeedSource(feeds []FeedConfig) *FeedSource {
	return &FeedSource{feeds: feeds, parser: gofeed.NewParser()}
}

// Discover polls every feed and returns candidate items. A failing feed is
// logged and skipped; it never aborts the others.
func (f *FeedSource) Discover() []FeedItem {
	var all []FeedItem
	for _, fc := range f.feeds {
		feed, err := f.parser.ParseURL(fc.URL)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}

		count := 0
		for _, item := range feed.Items {
			if count >= maxPerFeed {
				break
			}
			link := item.Link
			if link == "" {
				link = item.GUID
			}
			if link == "" || strings.TrimSpace(item.Title) == "" {
				continue
			}
			all = append(all, FeedItem{
				URL:    link,
				Title:  strings.TrimSpace(item.Title),
				Source: fc.Name,
			})
			count++
		}
		log.Printf("Discovered %d entries from feed %s", count, fc.Name)
	}
	return all
}
