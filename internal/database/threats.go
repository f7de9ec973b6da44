package database

import (
	"database/sql"
)

// UpsertThreat inserts a threat or overwrites the existing row with the
// same tweet_hash fingerprint.
func (db *DB) UpsertThreat(t *ThreatRecord) error {
	boosted := 0
	if t.LocationBoosted {
		boosted = 1
	}
	_, err := db.conn.Exec(
		`INSERT INTO threats (tweet_hash, keyword_trigger, content, created_at, threat_score,
			threat_category, sentiment_label, sentiment_score, entities, location_boosted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tweet_hash) DO UPDATE SET
			keyword_trigger = excluded.keyword_trigger,
			content = excluded.content,
			created_at = excluded.created_at,
			threat_score = excluded.threat_score,
			threat_category = excluded.threat_category,
			sentiment_label = excluded.sentiment_label,
			sentiment_score = excluded.sentiment_score,
			entities = excluded.entities,
			location_boosted = excluded.location_boosted`,
		t.TweetHash, t.KeywordTrigger, t.Content, t.CreatedAt, t.ThreatScore,
		t.ThreatCategory, t.SentimentLabel, t.SentimentScore, t.Entities, boosted,
	)
	return err
}

// GetThreatByHash returns the archived threat with the given fingerprint, or nil.
func (db *DB) GetThreatByHash(tweetHash string) (*ThreatRecord, error) {
	row := db.conn.QueryRow(
		threatColumns+" FROM threats WHERE tweet_hash = ?", tweetHash,
	)
	t, err := scanThreat(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTopThreats returns the highest-scoring threats, newest first on ties.
func (db *DB) GetTopThreats(limit int) ([]ThreatRecord, error) {
	rows, err := db.conn.Query(
		threatColumns+" FROM threats ORDER BY threat_score DESC, collected_at DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanThreats(rows)
}

// GetStats returns aggregate archive statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM articles").Scan(&s.TotalArticles); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM threats").Scan(&s.TotalThreats); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM threats WHERE threat_category = 'critical_threat'",
	).Scan(&s.CriticalThreats); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM threats WHERE threat_category = 'high_threat'",
	).Scan(&s.HighThreats); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM threats WHERE location_boosted = 1",
	).Scan(&s.BoostedThreats); err != nil {
		return nil, err
	}
	return s, nil
}

const threatColumns = `SELECT id, tweet_hash, keyword_trigger, content, created_at, threat_score,
	threat_category, sentiment_label, sentiment_score, entities, location_boosted, collected_at`

func scanThreats(rows *sql.Rows) ([]ThreatRecord, error) {
	var threats []ThreatRecord
	for rows.Next() {
		var t ThreatRecord
		var boosted int
		if err := rows.Scan(&t.ID, &t.TweetHash, &t.KeywordTrigger, &t.Content, &t.CreatedAt,
			&t.ThreatScore, &t.ThreatCategory, &t.SentimentLabel, &t.SentimentScore,
			&t.Entities, &boosted, &t.CollectedAt); err != nil {
			return nil, err
		}
		t.LocationBoosted = boosted != 0
		threats = append(threats, t)
	}
	return threats, rows.Err()
}

func scanThreat(row *sql.Row) (*ThreatRecord, error) {
	var t ThreatRecord
	var boosted int
	if err := row.Scan(&t.ID, &t.TweetHash, &t.KeywordTrigger, &t.Content, &t.CreatedAt,
		&t.ThreatScore, &t.ThreatCategory, &t.SentimentLabel, &t.SentimentScore,
		&t.Entities, &boosted, &t.CollectedAt); err != nil {
		return nil, err
	}
	t.LocationBoosted = boosted != 0
	return &t, nil
}
