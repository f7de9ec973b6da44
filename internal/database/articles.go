package database

import (
	"database/sql"
)

// UpsertArticle inserts an article or overwrites the existing row with the
// same article_url. Re-processing the same URL never duplicates.
func (db *DB) UpsertArticle(a *ArticleRecord) error {
	_, err := db.conn.Exec(
		`INSERT INTO articles (source_url, article_url, title, publish_date, topic_category,
			summary_snippet, full_text, entities, sentiment, sentiment_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(article_url) DO UPDATE SET
			source_url = excluded.source_url,
			title = excluded.title,
			publish_date = excluded.publish_date,
			topic_category = excluded.topic_category,
			summary_snippet = excluded.summary_snippet,
			full_text = excluded.full_text,
			entities = excluded.entities,
			sentiment = excluded.sentiment,
			sentiment_score = excluded.sentiment_score`,
		a.SourceURL, a.ArticleURL, a.Title, a.PublishDate, a.TopicCategory,
		a.SummarySnippet, a.FullText, a.Entities, a.Sentiment, a.SentimentScore,
	)
	return err
}

// GetArticleByURL returns the archived article with the given URL, or nil.
func (db *DB) GetArticleByURL(articleURL string) (*ArticleRecord, error) {
	row := db.conn.QueryRow(
		articleColumns+" FROM articles WHERE article_url = ?", articleURL,
	)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetRecentArticles returns the most recently collected articles.
func (db *DB) GetRecentArticles(limit int) ([]ArticleRecord, error) {
	rows, err := db.conn.Query(
		articleColumns+" FROM articles ORDER BY collected_at DESC, id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetAllArticles returns every archived article, newest first.
func (db *DB) GetAllArticles() ([]ArticleRecord, error) {
	rows, err := db.conn.Query(
		articleColumns + " FROM articles ORDER BY collected_at DESC, id DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// TopicCounts returns article counts per topic category, largest first.
func (db *DB) TopicCounts() ([]TopicCount, error) {
	rows, err := db.conn.Query(
		`SELECT topic_category, COUNT(*) FROM articles
		GROUP BY topic_category ORDER BY COUNT(*) DESC, topic_category`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

const articleColumns = `SELECT id, source_url, article_url, title, publish_date, topic_category,
	summary_snippet, full_text, entities, sentiment, sentiment_score, collected_at`

func scanArticles(rows *sql.Rows) ([]ArticleRecord, error) {
	var articles []ArticleRecord
	for rows.Next() {
		var a ArticleRecord
		if err := rows.Scan(&a.ID, &a.SourceURL, &a.ArticleURL, &a.Title, &a.PublishDate,
			&a.TopicCategory, &a.SummarySnippet, &a.FullText, &a.Entities,
			&a.Sentiment, &a.SentimentScore, &a.CollectedAt); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(row *sql.Row) (*ArticleRecord, error) {
	var a ArticleRecord
	if err := row.Scan(&a.ID, &a.SourceURL, &a.ArticleURL, &a.Title, &a.PublishDate,
		&a.TopicCategory, &a.SummarySnippet, &a.FullText, &a.Entities,
		&a.Sentiment, &a.SentimentScore, &a.CollectedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
