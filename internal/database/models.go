package database

// ArticleRecord mirrors one row of the articles table. The JSON field names
// match the column names so a record can be pushed to the remote store as-is.
type ArticleRecord struct {
	ID             int64   `json:"-"`
	SourceURL      string  `json:"source_url"`
	ArticleURL     string  `json:"article_url"`
	Title          string  `json:"title"`
	PublishDate    *string `json:"publish_date"`
	TopicCategory  string  `json:"topic_category"`
	SummarySnippet string  `json:"summary_snippet"`
	FullText       string  `json:"full_text"`
	Entities       string  `json:"entities"`
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentiment_score"`
	CollectedAt    *string `json:"-"`
}

// ThreatRecord mirrors one row of the threats table.
type ThreatRecord struct {
	ID              int64   `json:"-"`
	TweetHash       string  `json:"tweet_hash"`
	KeywordTrigger  string  `json:"keyword_trigger"`
	Content         string  `json:"content"`
	CreatedAt       *string `json:"created_at"`
	ThreatScore     int     `json:"threat_score"`
	ThreatCategory  string  `json:"threat_category"`
	SentimentLabel  string  `json:"sentiment_label"`
	SentimentScore  float64 `json:"sentiment_score"`
	Entities        string  `json:"entities"`
	LocationBoosted bool    `json:"location_boosted"`
	CollectedAt     *string `json:"-"`
}

// TopicCount is the number of archived articles in one topic bucket.
type TopicCount struct {
	Topic string
	Count int
}

// Stats contains aggregate archive statistics.
type Stats struct {
	TotalArticles   int
	TotalThreats    int
	CriticalThreats int
	HighThreats     int
	BoostedThreats  int
}
