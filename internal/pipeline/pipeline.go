// Package pipeline executes one collection run end to end: fetch
// through the source chain, validate, store, and record an audit
// trail. Every run produces exactly one audit record, including runs
// that fail before reaching storage.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flixtrack/flixtrack/internal/observability"
	"github.com/flixtrack/flixtrack/internal/storage"
	"github.com/flixtrack/flixtrack/internal/types"
	"github.com/flixtrack/flixtrack/internal/validate"
)

// Fetcher produces rankings through the fallback chain. It never
// returns an error; failures ride along on the result.
type Fetcher interface {
	Fetch(ctx context.Context, week string) types.ScrapeResult
}

// Store persists rankings and audit records.
type Store interface {
	EnsureIndexes(ctx context.Context) error
	SaveRankings(ctx context.Context, rankings []types.CountryRanking) (int64, error)
	SaveRun(ctx context.Context, run types.ScrapeRun) error
}

// Options control a single run.
type Options struct {
	// Week selects a reporting period (YYYY-MM-DD). Empty means the
	// provider's latest.
	Week string
	// ExportPath, when set, additionally writes the validated rankings
	// as JSONL.
	ExportPath string
}

// Pipeline ties the fetch chain to validation and storage. A nil store
// turns runs into dry runs: validated data is exported, nothing is
// persisted and no audit record is written.
type Pipeline struct {
	fetcher   Fetcher
	store     Store
	validator *validate.Validator
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New assembles a run pipeline.
func New(fetcher Fetcher, store Store, metrics *observability.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		store:     store,
		validator: validate.New(logger),
		metrics:   metrics,
		logger:    logger.With("component", "pipeline"),
	}
}

// Run executes one collection run and always returns a completed
// ScrapeRun, even on total failure. Invalid records are reported and
// excluded from storage; individually valid records still get saved.
func (p *Pipeline) Run(ctx context.Context, opts Options) types.ScrapeRun {
	run := types.ScrapeRun{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		Status:     types.RunFailure,
		SourceUsed: types.SourceNone,
	}
	logger := p.logger.With("run_id", run.RunID)
	logger.Info("starting scrape run", "week", opts.Week, "dry_run", p.store == nil)

	var errs []string

	result := p.fetcher.Fetch(ctx, opts.Week)
	run.SourceUsed = result.SourceUsed
	p.metrics.RankingsFetched.Add(int64(len(result.Rankings)))

	if len(result.Rankings) == 0 {
		run.Errors = append(errs, result.Errors...)
		return p.finish(ctx, logger, run)
	}
	if len(result.Errors) > 0 {
		// The fallback recovered; the primary's failure is worth a log
		// line but does not taint the run.
		logger.Warn("fetch chain recovered after errors", "errors", result.Errors)
	}

	valid, validationErrs := p.screen(logger, result.Rankings)
	errs = append(errs, validationErrs...)
	if len(valid) == 0 {
		run.Errors = errs
		return p.finish(ctx, logger, run)
	}

	if p.store != nil {
		if err := p.store.EnsureIndexes(ctx); err != nil {
			logger.Error("storage failed", "error", err)
			run.Errors = append(errs, fmt.Sprintf("Storage failed: %v", err))
			return p.finish(ctx, logger, run)
		}

		saved, err := p.store.SaveRankings(ctx, valid)
		if err != nil {
			logger.Error("storage failed", "error", err)
			run.Errors = append(errs, fmt.Sprintf("Storage failed: %v", err))
			return p.finish(ctx, logger, run)
		}
		run.DocumentsSaved = int(saved)
		p.metrics.DocumentsSaved.Add(saved)
	}

	if opts.ExportPath != "" {
		if err := storage.ExportJSONL(opts.ExportPath, valid, logger); err != nil {
			logger.Error("export failed", "error", err)
			errs = append(errs, fmt.Sprintf("Export failed: %v", err))
		}
	}

	run.Errors = errs
	if len(errs) > 0 {
		run.Status = types.RunPartialFailure
	} else {
		run.Status = types.RunSuccess
	}
	return p.finish(ctx, logger, run)
}

// screen validates the fetched rankings and drops records with hard
// errors. The dropped records' errors are returned for the audit
// trail; warnings are only logged.
func (p *Pipeline) screen(logger *slog.Logger, rankings []types.CountryRanking) ([]types.CountryRanking, []string) {
	results := p.validator.All(rankings)

	var errs []string
	valid := make([]types.CountryRanking, 0, len(rankings))
	for i, result := range results {
		if result.Valid {
			valid = append(valid, rankings[i])
			continue
		}
		errs = append(errs, result.Errors...)
	}

	if rejected := len(rankings) - len(valid); rejected > 0 {
		p.metrics.RecordsRejected.Add(int64(rejected))
		logger.Warn("rejected invalid rankings", "rejected", rejected, "kept", len(valid))
	}
	return valid, errs
}

// finish stamps the run, writes the audit record, and logs the
// outcome. An audit write failure is logged, never fatal.
func (p *Pipeline) finish(ctx context.Context, logger *slog.Logger, run types.ScrapeRun) types.ScrapeRun {
	run.CompletedAt = time.Now().UTC()

	if p.store != nil {
		if err := p.store.SaveRun(ctx, run); err != nil {
			logger.Error("failed to save scrape run", "error", err)
		}
	}

	logger.Info("run completed",
		"status", run.Status,
		"source", run.SourceUsed,
		"saved", run.DocumentsSaved,
		"errors", len(run.Errors),
		"duration", run.Duration().Round(time.Millisecond),
	)
	return run
}
