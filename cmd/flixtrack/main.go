package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flixtrack/flixtrack/internal/config"
	"github.com/flixtrack/flixtrack/internal/fetcher"
	"github.com/flixtrack/flixtrack/internal/observability"
	"github.com/flixtrack/flixtrack/internal/pipeline"
	"github.com/flixtrack/flixtrack/internal/storage"
	"github.com/flixtrack/flixtrack/internal/types"
)

var (
	cfgFile string
	verbose bool
	week    string
	dryRun  bool
	outPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flixtrack",
		Short: "FlixTrack - weekly Top 10 rankings collector",
		Long: `FlixTrack collects the weekly Top 10 film and TV rankings for a fixed
set of countries from the provider's public data and stores them in
MongoDB with a per-run audit trail.

Acquisition is a fallback chain: the bulk TSV export is tried first,
the per-country listing pages second, and a run that exhausts both
still completes with a recorded failure instead of crashing.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect one week of rankings",
		Long: `Collect the latest (or an explicitly requested) reporting week of Top 10
rankings for all tracked countries and store them.`,
		Args: cobra.NoArgs,
		RunE: runCollect,
	}

	cmd.Flags().StringVarP(&week, "week", "w", "", "reporting week to collect (YYYY-MM-DD, default latest)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and validate only; export JSONL instead of storing")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "also write validated rankings as JSONL to this path")

	return cmd
}

// runCollect executes the run command.
func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if week != "" {
		if _, err := time.Parse("2006-01-02", week); err != nil {
			return fmt.Errorf("invalid week %q: expected YYYY-MM-DD", week)
		}
	}
	if !dryRun {
		if err := config.ValidateMongoURI(cfg.Mongo.URI); err != nil {
			return fmt.Errorf("invalid Mongo URI: %w", err)
		}
	}

	logger := setupLogger(&cfg.Logging)

	logger.Info("starting collection",
		"version", config.Version,
		"week", week,
		"dry_run", dryRun,
		"countries", len(cfg.Provider.Countries),
	)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(logger)

	client := fetcher.NewClient(&cfg.Provider)
	metrics.InstrumentClient(client)

	tsv := fetcher.NewTSVSource(client, &cfg.Provider, logger)
	pages := fetcher.NewPageSource(client, &cfg.Provider, logger)
	chain := fetcher.NewOrchestrator(tsv, pages, logger)

	var store pipeline.Store
	if !dryRun {
		store = storage.NewStore(&cfg.Mongo, logger)
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := storage.Release(releaseCtx); err != nil {
				logger.Warn("failed to close storage client", "error", err)
			}
		}()
	}

	opts := pipeline.Options{Week: week}
	if outPath != "" {
		opts.ExportPath = outPath
	} else if dryRun {
		opts.ExportPath = cfg.Export.Path
	}

	run := pipeline.New(chain, store, metrics, logger).Run(ctx, opts)
	printSummary(run, metrics.Snapshot(), opts.ExportPath)

	if run.Status == types.RunFailure {
		return fmt.Errorf("run %s finished with status %s", run.RunID, run.Status)
	}
	return nil
}

// printSummary writes the end-of-run report to stdout.
func printSummary(run types.ScrapeRun, stats map[string]int64, exportPath string) {
	elapsed := run.Duration().Round(time.Millisecond)
	switch run.Status {
	case types.RunSuccess:
		fmt.Printf("\n✅ Run complete in %s\n", elapsed)
	case types.RunPartialFailure:
		fmt.Printf("\n⚠️  Run completed with errors in %s\n", elapsed)
	default:
		fmt.Printf("\n❌ Run failed in %s\n", elapsed)
	}
	fmt.Printf("   Run ID:    %s\n", run.RunID)
	fmt.Printf("   Source:    %s\n", run.SourceUsed)
	fmt.Printf("   Requests:  %v sent, %v failed\n", stats["requests_total"], stats["requests_failed"])
	fmt.Printf("   Rankings:  %v fetched, %v rejected\n", stats["rankings_fetched"], stats["records_rejected"])
	fmt.Printf("   Saved:     %d documents\n", run.DocumentsSaved)
	if exportPath != "" {
		fmt.Printf("   Export:    %s\n", exportPath)
	}
	for _, msg := range run.Errors {
		fmt.Printf("   Error:     %s\n", msg)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("FlixTrack %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Provider:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Provider.BaseURL)
			fmt.Printf("  TSV URL:           %s\n", cfg.Provider.TSVURL)
			fmt.Printf("  User-Agent:        %s\n", cfg.Provider.UserAgent)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Provider.RequestTimeout)
			fmt.Printf("  Retries:           %d (wait %s, max %s)\n",
				cfg.Provider.RetryCount, cfg.Provider.RetryWait, cfg.Provider.RetryMaxWait)
			fmt.Printf("  Page Delay:        %s\n", cfg.Provider.PageDelay)
			fmt.Printf("  Tracked Countries: %d\n", len(cfg.Provider.Countries))
			fmt.Printf("\nMongo:\n")
			fmt.Printf("  URI Set:           %v\n", cfg.Mongo.URI != "")
			fmt.Printf("  Database:          %s\n", cfg.Mongo.Database)
			fmt.Printf("  Rankings:          %s\n", cfg.Mongo.RankingsCollection)
			fmt.Printf("  Runs:              %s\n", cfg.Mongo.RunsCollection)
			fmt.Printf("\nExport:\n")
			fmt.Printf("  Path:              %s\n", cfg.Export.Path)
			fmt.Printf("\nLogging:\n")
			fmt.Printf("  Level:             %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:            %s\n", cfg.Logging.Format)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if cfg.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
