package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

var csvHeader = []string{
	"source_url", "article_url", "title", "publish_date", "topic_category",
	"summary_snippet", "full_text", "entities", "sentiment", "sentiment_score",
	"collected_at",
}

// ExportCSV overwrites path with every archived article as CSV.
func (s *Store) ExportCSV(path string) (int, error) {
	articles, err := s.db.GetAllArticles()
	if err != nil {
		return 0, fmt.Errorf("loading articles for export: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, a := range articles {
		row := []string{
			a.SourceURL,
			a.ArticleURL,
			a.Title,
			deref(a.PublishDate),
			a.TopicCategory,
			a.SummarySnippet,
			a.FullText,
			a.Entities,
			a.Sentiment,
			strconv.FormatFloat(a.SentimentScore, 'f', 3, 64),
			deref(a.CollectedAt),
		}
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	return len(articles), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
