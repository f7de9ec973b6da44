// Package pipeline orchestrates a scan pass: discover article links from
// sites and feeds, extract and score them, search social keywords, enrich
// what crosses the triage threshold and archive everything that matters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"
	"unicode/utf8"

	"github.com/safeguard-ke/safeguard/internal/config"
	"github.com/safeguard-ke/safeguard/internal/database"
	"github.com/safeguard-ke/safeguard/internal/enrich"
	"github.com/safeguard-ke/safeguard/internal/extract"
	"github.com/safeguard-ke/safeguard/internal/ratelimit"
	"github.com/safeguard-ke/safeguard/internal/source"
	"github.com/safeguard-ke/safeguard/internal/store"
	"github.com/safeguard-ke/safeguard/internal/taxonomy"
)

const (
	snippetLength = 200
	// contentLength bounds archived post text to what the threats content
	// column expects.
	contentLength = 500
)

// StepResult holds the outcome of a single scan step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the outcome of a full scan pass.
type Result struct {
	Started time.Time
	Steps   []StepResult
}

// articleCounters tallies one article-discovery step.
type articleCounters struct {
	found    int
	saved    int
	tooOld   int
	tooShort int
	failed   int
}

func (c articleCounters) summary() string {
	return fmt.Sprintf("Archived %d of %d articles (%d too old, %d too short, %d failed)",
		c.saved, c.found, c.tooOld, c.tooShort, c.failed)
}

// Scanner runs scan passes over the configured sources.
type Scanner struct {
	cfg       *config.Config
	tax       *taxonomy.Taxonomy
	store     *store.Store
	pages     *source.PageClient
	feeds     *source.FeedSource
	social    *source.QueryClient
	extractor *extract.Extractor
	enricher  *enrich.Pipeline
	limiter   *ratelimit.Limiter

	rng   *rand.Rand
	sleep func(time.Duration)
}

// New creates a scanner. social may be nil when the social source is
// disabled or unauthenticated; enricher may be empty when no inference
// engine is configured.
func New(cfg *config.Config, tax *taxonomy.Taxonomy, st *store.Store, social *source.QueryClient, enricher *enrich.Pipeline) *Scanner {
	feeds := make([]source.FeedConfig, 0, len(cfg.Sources.Feeds))
	for _, f := range cfg.Sources.Feeds {
		feeds = append(feeds, source.FeedConfig{URL: f.URL, Name: f.Name})
	}

	return &Scanner{
		cfg:    cfg,
		tax:    tax,
		store:  st,
		pages:  source.NewPageClient(time.Duration(cfg.Scan.PageTimeoutSeconds)*time.Second, cfg.Scan.MaxArticlesPerSite),
		feeds:  source.NewFeedSource(feeds),
		social: social,
		extractor: extract.New(
			time.Duration(cfg.Scan.FetchTimeoutSeconds)*time.Second,
			time.Duration(cfg.Scan.PolitenessSeconds)*time.Second,
			cfg.Scan.MaxAgeDays,
			cfg.Scan.MinArticleLength,
		),
		enricher: enricher,
		limiter: ratelimit.New(
			cfg.RateLimit.Quota,
			cfg.RateLimit.SafetyMargin,
			time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute,
			time.Duration(cfg.RateLimit.GraceSeconds)*time.Second,
		),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: time.Sleep,
	}
}

// Run executes one full scan pass. Per-item failures are counted, never
// fatal; only context cancellation aborts a pass early.
func (s *Scanner) Run(ctx context.Context) *Result {
	r := &Result{Started: time.Now()}

	r.Steps = append(r.Steps, s.scanSites(ctx))
	if ctx.Err() != nil {
		return r
	}

	r.Steps = append(r.Steps, s.scanFeeds(ctx))
	if ctx.Err() != nil {
		return r
	}

	r.Steps = append(r.Steps, s.scanSocial(ctx))
	return r
}

// Watch runs a pass immediately, then repeats every interval until the
// context is cancelled.
func (s *Scanner) Watch(ctx context.Context, interval time.Duration, onPass func(*Result)) {
	pass := func() {
		result := s.Run(ctx)
		if onPass != nil {
			onPass(result)
		}
	}
	pass()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pass()
		}
	}
}

func (s *Scanner) scanSites(ctx context.Context) StepResult {
	log.Println("Step 1/3: Scanning news sites...")
	var c articleCounters

	for _, site := range s.cfg.Sources.Sites {
		if ctx.Err() != nil {
			break
		}
		links, err := s.pages.DiscoverLinks(ctx, site.URL)
		if err != nil {
			log.Printf("Skipping site %s: %v", site.Name, err)
			c.failed++
			continue
		}
		log.Printf("Found %d candidate links on %s", len(links), site.Name)

		for _, link := range links {
			if ctx.Err() != nil {
				break
			}
			c.found++
			s.processArticle(ctx, site.URL, link, &c)
		}
	}

	return StepResult{Name: "Sites", Summary: c.summary()}
}

func (s *Scanner) scanFeeds(ctx context.Context) StepResult {
	log.Println("Step 2/3: Polling feeds...")
	var c articleCounters

	for _, item := range s.feeds.Discover() {
		if ctx.Err() != nil {
			break
		}
		c.found++
		s.processArticle(ctx, item.Source, item.URL, &c)
	}

	return StepResult{Name: "Feeds", Summary: c.summary()}
}

// processArticle extracts, scores and archives one article URL.
func (s *Scanner) processArticle(ctx context.Context, sourceURL, articleURL string, c *articleCounters) {
	article, err := s.extractor.Extract(ctx, articleURL)
	switch {
	case errors.Is(err, extract.ErrTooOld):
		c.tooOld++
		return
	case errors.Is(err, extract.ErrTooShort):
		c.tooShort++
		return
	case err != nil:
		log.Printf("Skipping %s: %v", articleURL, err)
		c.failed++
		return
	}

	score := s.tax.ScoreThreat(article.Text)
	record := &database.ArticleRecord{
		SourceURL:      sourceURL,
		ArticleURL:     article.URL,
		Title:          article.Title,
		TopicCategory:  s.tax.Topic(article.Text),
		SummarySnippet: snippet(article.Text),
		FullText:       article.Text,
		Sentiment:      "N/A",
	}
	if article.PublishedAt != nil {
		d := article.PublishedAt.Format("2006-01-02")
		record.PublishDate = &d
	}

	// Enrichment is reserved for items above the triage threshold; the
	// article itself is archived either way.
	if s.enricher != nil && s.enricher.Available() && score.Score > s.cfg.Scan.TriageThreshold {
		enriched := s.enricher.Analyze(ctx, article.Text)
		record.Sentiment = enriched.Sentiment
		record.SentimentScore = enriched.SentimentScore
		record.Entities = enriched.Entities
	}

	if err := s.store.SaveArticle(ctx, record); err != nil {
		log.Printf("Failed to archive %s: %v", article.URL, err)
		c.failed++
		return
	}
	c.saved++
}

func (s *Scanner) scanSocial(ctx context.Context) StepResult {
	log.Println("Step 3/3: Searching social keywords...")
	if s.social == nil {
		return StepResult{Name: "Social", Summary: "Social source disabled"}
	}

	var scanned, saved, dropped, failed int
	for i, keyword := range s.tax.SearchKeywords {
		if ctx.Err() != nil {
			break
		}

		if wait := s.limiter.ShouldWait(); wait > 0 {
			log.Printf("Rate limit headroom exhausted, waiting %s", wait.Round(time.Second))
			s.sleep(wait)
		}

		posts, err := s.social.Search(ctx, keyword, s.tax.Locations)
		s.limiter.Record()
		if err != nil {
			var authErr *source.AuthError
			if errors.As(err, &authErr) {
				log.Printf("Social search rejected credentials, disabling for this pass: %v", err)
				return StepResult{Name: "Social", Err: err}
			}
			log.Printf("Search for %q failed: %v", keyword, err)
			failed++
			continue
		}

		for _, post := range posts {
			scanned++
			if s.saveThreat(ctx, keyword, post) {
				saved++
			} else {
				dropped++
			}
		}

		// Spread keyword searches out so the traffic looks nothing like a burst.
		if i < len(s.tax.SearchKeywords)-1 {
			s.sleep(s.keywordDelay())
		}
	}

	return StepResult{
		Name:    "Social",
		Summary: fmt.Sprintf("Archived %d of %d posts (%d below threshold, %d searches failed)", saved, scanned, dropped, failed),
	}
}

// saveThreat scores one post and archives it when it crosses the triage
// threshold. Reports whether the post was kept.
func (s *Scanner) saveThreat(ctx context.Context, keyword string, post source.Post) bool {
	score := s.tax.ScoreThreat(post.Text)
	if score.Score <= s.cfg.Scan.TriageThreshold {
		return false
	}

	record := &database.ThreatRecord{
		TweetHash:       store.Fingerprint(post.ID),
		KeywordTrigger:  keyword,
		Content:         clip(post.Text, contentLength),
		ThreatScore:     score.Score,
		ThreatCategory:  score.Category,
		SentimentLabel:  "N/A",
		LocationBoosted: score.LocationBoosted,
	}
	if !post.CreatedAt.IsZero() {
		created := post.CreatedAt.UTC().Format(time.RFC3339)
		record.CreatedAt = &created
	}

	if s.enricher != nil && s.enricher.Available() {
		enriched := s.enricher.Analyze(ctx, post.Text)
		record.SentimentLabel = enriched.Sentiment
		record.SentimentScore = enriched.SentimentScore
		record.Entities = enriched.Entities
	}

	if err := s.store.SaveThreat(ctx, record); err != nil {
		log.Printf("Failed to archive threat %s: %v", record.TweetHash, err)
		return false
	}
	return true
}

func (s *Scanner) keywordDelay() time.Duration {
	lo, hi := s.cfg.Scan.DelayMinSeconds, s.cfg.Scan.DelayMaxSeconds
	if hi <= lo {
		return time.Duration(lo) * time.Second
	}
	return time.Duration(lo+s.rng.Intn(hi-lo+1)) * time.Second
}

func snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	return clip(text, snippetLength) + "..."
}

func clip(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
