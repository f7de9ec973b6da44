package database

import "database/sql"

// legacySentinelTable marks an archive created before schema versioning:
// the table exists but PRAGMA user_version was never stamped.
const legacySentinelTable = "articles"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_url TEXT,
    article_url TEXT UNIQUE NOT NULL,
    title TEXT NOT NULL,
    publish_date TEXT,
    topic_category TEXT,
    summary_snippet TEXT,
    full_text TEXT,
    entities TEXT,
    sentiment TEXT,
    sentiment_score REAL DEFAULT 0,
    collected_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS threats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tweet_hash TEXT UNIQUE NOT NULL,
    keyword_trigger TEXT,
    content TEXT,
    created_at TEXT,
    threat_score INTEGER DEFAULT 0,
    threat_category TEXT,
    sentiment_label TEXT,
    sentiment_score REAL DEFAULT 0,
    entities TEXT,
    location_boosted INTEGER DEFAULT 0,
    collected_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_articles_url ON articles(article_url);
CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles(topic_category);
CREATE INDEX IF NOT EXISTS idx_threats_hash ON threats(tweet_hash);
CREATE INDEX IF NOT EXISTS idx_threats_score ON threats(threat_score);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
