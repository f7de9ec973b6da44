package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources      Sources    `yaml:"sources"`
	Scan         Scan       `yaml:"scan"`
	RateLimit    RateLimit  `yaml:"rate_limit"`
	Enrichment   Enrichment `yaml:"enrichment"`
	Storage      Storage    `yaml:"storage"`
	TaxonomyFile string     `yaml:"taxonomy_file"`
}

type Sources struct {
	Sites  []Site `yaml:"sites"`
	Feeds  []Feed `yaml:"feeds"`
	Social Social `yaml:"social"`
}

type Site struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Social struct {
	Enabled        bool   `yaml:"enabled"`
	BearerTokenEnv string `yaml:"bearer_token_env"`
	MaxResults     int    `yaml:"max_results"`
}

type Scan struct {
	IntervalMinutes     int `yaml:"interval_minutes"`
	TriageThreshold     int `yaml:"triage_threshold"`
	MaxArticlesPerSite  int `yaml:"max_articles_per_site"`
	MaxAgeDays          int `yaml:"max_age_days"`
	MinArticleLength    int `yaml:"min_article_length"`
	PolitenessSeconds   int `yaml:"politeness_seconds"`
	DelayMinSeconds     int `yaml:"delay_min_seconds"`
	DelayMaxSeconds     int `yaml:"delay_max_seconds"`
	PageTimeoutSeconds  int `yaml:"page_timeout_seconds"`
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
}

type RateLimit struct {
	Quota         int `yaml:"quota"`
	WindowMinutes int `yaml:"window_minutes"`
	SafetyMargin  int `yaml:"safety_margin"`
	GraceSeconds  int `yaml:"grace_seconds"`
}

type Enrichment struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	SentimentModel string `yaml:"sentiment_model"`
	NERModel       string `yaml:"ner_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Storage struct {
	StoreURLEnv string `yaml:"store_url_env"`
	StoreKeyEnv string `yaml:"store_key_env"`
	DataDir     string `yaml:"data_dir"`
	BackupFile  string `yaml:"backup_file"`
	BackupSize  int    `yaml:"backup_size"`
	CSVFile     string `yaml:"csv_file"`
}

// ConfigDir returns the XDG config directory for safeguard.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "safeguard")
}

// DataDir returns the XDG data directory for safeguard.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "safeguard")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/safeguard/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'safeguard init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			Social: Social{
				Enabled:        true,
				BearerTokenEnv: "TWITTER_BEARER_TOKEN",
				MaxResults:     10,
			},
		},
		Scan: Scan{
			IntervalMinutes:     15,
			TriageThreshold:     50,
			MaxArticlesPerSite:  10,
			MaxAgeDays:          30,
			MinArticleLength:    150,
			PolitenessSeconds:   2,
			DelayMinSeconds:     8,
			DelayMaxSeconds:     15,
			PageTimeoutSeconds:  60,
			FetchTimeoutSeconds: 15,
		},
		RateLimit: RateLimit{
			Quota:         150,
			WindowMinutes: 15,
			SafetyMargin:  5,
			GraceSeconds:  10,
		},
		Enrichment: Enrichment{
			Enabled:        true,
			BaseURL:        "https://api-inference.huggingface.co",
			APIKeyEnv:      "HF_API_TOKEN",
			SentimentModel: "cardiffnlp/twitter-xlm-roberta-base-sentiment",
			NERModel:       "Davlan/bert-base-multilingual-cased-ner-hrl",
			TimeoutSeconds: 30,
		},
		Storage: Storage{
			StoreURLEnv: "SUPABASE_URL",
			StoreKeyEnv: "SUPABASE_KEY",
			BackupFile:  "safeguard_backup.json",
			BackupSize:  1000,
			CSVFile:     "scraped_articles.csv",
		},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir
	}
	return DataDir()
}

// ScanInterval returns the continuous-mode scan interval.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scan.IntervalMinutes) * time.Minute
}

// SocialBearerToken reads the social API credential from the environment.
func (c *Config) SocialBearerToken() string {
	return os.Getenv(c.Sources.Social.BearerTokenEnv)
}

// StoreCredentials reads the durable store URL and key from the environment.
func (c *Config) StoreCredentials() (url, key string) {
	return os.Getenv(c.Storage.StoreURLEnv), os.Getenv(c.Storage.StoreKeyEnv)
}

// EnrichmentAPIKey reads the inference API credential from the environment.
func (c *Config) EnrichmentAPIKey() string {
	return os.Getenv(c.Enrichment.APIKeyEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
