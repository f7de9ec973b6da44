// Package enrich runs external NLP models (sentiment and named-entity
// recognition) over bounded text windows and normalizes their outputs.
// Both engines are optional: when one is unavailable the pipeline degrades
// to sentinel values instead of failing the run.
package enrich

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Text windows sent to the models.
const (
	nerWindow       = 1400
	sentimentWindow = 512
)

const entitySeparator = " | "

// minEntityConfidence filters low-confidence entity spans.
const minEntityConfidence = 0.8

// ErrModelUnavailable reports a missing engine at startup. The run
// continues with sentinel outputs.
var ErrModelUnavailable = errors.New("inference model unavailable")

// Result holds normalized enrichment outputs.
type Result struct {
	Sentiment      string
	SentimentScore float64
	Entities       string
}

// Entity is one recognized span with its confidence.
type Entity struct {
	Group string
	Word  string
	Score float64
}

// SentimentEngine classifies the sentiment of a short text.
type SentimentEngine interface {
	Classify(ctx context.Context, text string) (label string, score float64, err error)
}

// EntityEngine extracts named entities from a text window.
type EntityEngine interface {
	Extract(ctx context.Context, text string) ([]Entity, error)
}

// Pipeline wraps the two independent engines. Either may be nil.
type Pipeline struct {
	sentiment SentimentEngine
	entities  EntityEngine
}

// NewPipeline creates an enrichment pipeline over the given engines.
// Nil engines yield sentinel outputs ("N/A", 0.0, empty entities).
func NewPipeline(sentiment SentimentEngine, entities EntityEngine) *Pipeline {
	return &Pipeline{sentiment: sentiment, entities: entities}
}

// Available reports whether at least one engine is wired.
func (p *Pipeline) Available() bool {
	return p.sentiment != nil || p.entities != nil
}

// Analyze runs both engines over text. A failure in one call yields an
// "Error" sentinel for that call only; the other result is unaffected.
func (p *Pipeline) Analyze(ctx context.Context, text string) Result {
	r := Result{Sentiment: "N/A"}

	if p.sentiment != nil {
		label, score, err := p.sentiment.Classify(ctx, truncate(text, sentimentWindow))
		if err != nil {
			log.Printf("Sentiment inference failed: %v", err)
			r.Sentiment = "Error"
		} else {
			r.Sentiment = displayCase(label)
			r.SentimentScore = round3(score)
		}
	}

	if p.entities != nil {
		entities, err := p.entities.Extract(ctx, truncate(text, nerWindow))
		if err != nil {
			log.Printf("Entity inference failed: %v", err)
			r.Entities = "Error"
		} else {
			r.Entities = formatEntities(entities)
		}
	}

	return r
}

// formatEntities filters by confidence, deduplicates and renders
// "TYPE: surface-form" strings joined by the fixed separator.
func formatEntities(entities []Entity) string {
	set := make(map[string]struct{})
	for _, e := range entities {
		if e.Score <= minEntityConfidence {
			continue
		}
		set[e.Group+": "+e.Word] = struct{}{}
	}
	if len(set) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(set))
	for s := range set {
		rendered = append(rendered, s)
	}
	sort.Strings(rendered)
	return strings.Join(rendered, entitySeparator)
}

func displayCase(label string) string {
	if label == "" {
		return "N/A"
	}
	lower := strings.ToLower(label)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func round3(score float64) float64 {
	return math.Round(score*1000) / 1000
}

// truncate cuts text to at most n bytes without splitting a rune.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
