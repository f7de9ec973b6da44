package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/safeguard-ke/safeguard/internal/config"
	"github.com/safeguard-ke/safeguard/internal/database"
	"github.com/safeguard-ke/safeguard/internal/enrich"
	"github.com/safeguard-ke/safeguard/internal/pipeline"
	"github.com/safeguard-ke/safeguard/internal/report"
	"github.com/safeguard-ke/safeguard/internal/source"
	"github.com/safeguard-ke/safeguard/internal/store"
	"github.com/safeguard-ke/safeguard/internal/taxonomy"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "safeguard",
	Short:   "Online threat scanner for Kenyan GBV monitoring",
	Long:    "SafeGuard scans Kenyan news sites, feeds and social keyword searches for gender-based violence and online threats, scores what it finds and archives it for review.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Credentials come from the environment only; .env is a convenience.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("Skipping .env: %v", err)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("safeguard", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/safeguard/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure sites, feeds and credential environment variables.")
		return nil
	},
}

// --- scan command ---

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan pass over all configured sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		scanner, st, err := buildScanner(db)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result := scanner.Run(ctx)
		printResult(result)

		if err := flushBackup(st); err != nil {
			log.Printf("Failed to write backup snapshot: %v", err)
		}
		csvPath := filepath.Join(cfg.GetDataDir(), cfg.Storage.CSVFile)
		if n, err := st.ExportCSV(csvPath); err != nil {
			log.Printf("Failed to write CSV export: %v", err)
		} else {
			fmt.Printf("Exported %d articles to %s\n", n, csvPath)
		}
		return nil
	},
}

// --- watch command ---

var watchInterval int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan continuously at the configured interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		scanner, st, err := buildScanner(db)
		if err != nil {
			return err
		}

		interval := cfg.ScanInterval()
		if watchInterval > 0 {
			interval = time.Duration(watchInterval) * time.Minute
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching sources every %s. Press Ctrl+C to stop.\n", interval)
		scanner.Watch(ctx, interval, func(result *pipeline.Result) {
			printResult(result)
		})

		// Shutdown: the in-memory ring is all that holds unpushed records.
		if err := flushBackup(st); err != nil {
			return fmt.Errorf("writing backup snapshot: %w", err)
		}
		fmt.Println("Stopped.")
		return nil
	},
}

func init() {
	watchCmd.Flags().IntVarP(&watchInterval, "interval", "i", 0, "Override scan interval (minutes)")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archive statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Articles:")
		fmt.Printf("  Total archived: %d\n", stats.TotalArticles)

		topics, err := db.TopicCounts()
		if err != nil {
			return fmt.Errorf("getting topic counts: %w", err)
		}
		for _, tc := range topics {
			fmt.Printf("  %s: %d\n", tc.Topic, tc.Count)
		}

		fmt.Println("\nThreats:")
		fmt.Printf("  Total archived: %d\n", stats.TotalThreats)
		fmt.Printf("  Critical: %d\n", stats.CriticalThreats)
		fmt.Printf("  High: %d\n", stats.HighThreats)
		fmt.Printf("  Location boosted: %d\n", stats.BoostedThreats)
		return nil
	},
}

// --- export command ---

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived articles to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		target := exportPath
		if target == "" {
			target = filepath.Join(cfg.GetDataDir(), cfg.Storage.CSVFile)
		}

		st := store.New(db, nil, cfg.Storage.BackupSize)
		n, err := st.ExportCSV(target)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d articles to %s\n", n, target)

		// Rebuild a snapshot from the archive so export works without a
		// preceding scan in this process.
		threats, err := db.GetTopThreats(cfg.Storage.BackupSize)
		if err != nil {
			return fmt.Errorf("loading threats for snapshot: %w", err)
		}
		for i := range threats {
			st.Ring().Append(store.BackupEntry{Kind: "threat", SavedAt: time.Now().UTC(), Record: &threats[i]})
		}
		backupPath := filepath.Join(cfg.GetDataDir(), cfg.Storage.BackupFile)
		if err := st.ExportBackup(backupPath); err != nil {
			return err
		}
		fmt.Printf("Wrote backup snapshot of %d threats to %s\n", len(threats), backupPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "out", "o", "", "Output CSV path")
}

// --- report command ---

var reportPath string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write an HTML scan report from the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		target := reportPath
		if target == "" {
			target = filepath.Join(cfg.GetDataDir(), "report.html")
		}

		composer := report.NewComposer(db)
		if err := composer.WriteHTML(target); err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", target)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportPath, "out", "o", "", "Output HTML path")
}

// --- wiring helpers ---

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "safeguard.db")
	return database.Open(dbPath)
}

// buildScanner assembles a scanner from config. Missing credentials disable
// the affected source or engine with a warning; only having no usable source
// at all is fatal.
func buildScanner(db *database.DB) (*pipeline.Scanner, *store.Store, error) {
	tax := taxonomy.Default()
	if cfg.TaxonomyFile != "" {
		loaded, err := taxonomy.LoadFile(cfg.TaxonomyFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading taxonomy override: %w", err)
		}
		tax = loaded
	}

	var remote *store.RemoteStore
	if url, key := cfg.StoreCredentials(); url != "" && key != "" {
		remote = store.NewRemoteStore(url, key, 30*time.Second)
	} else {
		log.Printf("Remote store credentials not set, archiving locally only")
	}
	st := store.New(db, remote, cfg.Storage.BackupSize)

	var social *source.QueryClient
	if cfg.Sources.Social.Enabled {
		client, err := source.NewQueryClient(
			cfg.SocialBearerToken(),
			cfg.Sources.Social.MaxResults,
			time.Duration(cfg.Scan.FetchTimeoutSeconds)*time.Second,
		)
		if err != nil {
			log.Printf("Social source disabled: %v", err)
		} else {
			social = client
		}
	}

	var sentiment enrich.SentimentEngine
	var entities enrich.EntityEngine
	if cfg.Enrichment.Enabled {
		timeout := time.Duration(cfg.Enrichment.TimeoutSeconds) * time.Second
		apiKey := cfg.EnrichmentAPIKey()

		if client, err := enrich.NewSentimentClient(cfg.Enrichment.BaseURL, cfg.Enrichment.SentimentModel, apiKey, timeout); err != nil {
			log.Printf("Sentiment engine disabled: %v", err)
		} else {
			sentiment = client
		}
		if client, err := enrich.NewNERClient(cfg.Enrichment.BaseURL, cfg.Enrichment.NERModel, apiKey, timeout); err != nil {
			log.Printf("Entity engine disabled: %v", err)
		} else {
			entities = client
		}
	}
	enricher := enrich.NewPipeline(sentiment, entities)

	if len(cfg.Sources.Sites) == 0 && len(cfg.Sources.Feeds) == 0 && social == nil {
		return nil, nil, fmt.Errorf("no usable sources: configure sites or feeds, or set %s for social search", cfg.Sources.Social.BearerTokenEnv)
	}

	return pipeline.New(cfg, tax, st, social, enricher), st, nil
}

func flushBackup(st *store.Store) error {
	if st.Ring().Len() == 0 {
		return nil
	}
	path := filepath.Join(cfg.GetDataDir(), cfg.Storage.BackupFile)
	return st.ExportBackup(path)
}

func printResult(result *pipeline.Result) {
	for i, step := range result.Steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
	fmt.Println()
}
