package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flixtrack/flixtrack/internal/types"
)

// ExportSource is the primary path: one bulk download covering every
// country and category.
type ExportSource interface {
	Fetch(ctx context.Context, week string) ([]types.CountryRanking, error)
}

// ListingSource is the fallback path: per-country page scraping.
type ListingSource interface {
	FetchAll(ctx context.Context, week string) ([]types.CountryRanking, error)
}

// Orchestrator chains the two sources. The bulk export goes first
// because it is a single request instead of a 37-page sweep; the page
// scrape only runs when the export fails or comes back empty.
//
// Fetch never returns an error. Failures accumulate as messages on the
// ScrapeResult so the caller can store and report them.
type Orchestrator struct {
	export  ExportSource
	listing ListingSource
	logger  *slog.Logger
}

// NewOrchestrator wires the fallback chain.
func NewOrchestrator(export ExportSource, listing ListingSource, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		export:  export,
		listing: listing,
		logger:  logger.With("component", "orchestrator"),
	}
}

// Fetch returns rankings for the requested week, or for the provider's
// latest week when week is empty. The result always records which
// source produced the data and every failure message collected along
// the chain.
func (o *Orchestrator) Fetch(ctx context.Context, week string) types.ScrapeResult {
	var errs []string

	o.logger.Info("attempting primary source", "week", week)
	rankings, err := o.export.Fetch(ctx, week)
	switch {
	case err != nil:
		o.logger.Error("primary source failed", "error", err)
		errs = append(errs, fmt.Sprintf("TSV fetch failed: %v", err))
	case len(rankings) == 0:
		o.logger.Warn("primary source returned no rankings")
		errs = append(errs, "TSV fetch returned zero results")
	default:
		o.logger.Info("primary source succeeded", "rankings", len(rankings))
		return types.ScrapeResult{
			Rankings:   rankings,
			SourceUsed: types.SourceTSV,
			Errors:     errs,
		}
	}

	o.logger.Info("falling back to page scraping")
	rankings, err = o.listing.FetchAll(ctx, week)
	switch {
	case err != nil:
		o.logger.Error("fallback source failed", "error", err)
		errs = append(errs, fmt.Sprintf("HTML fallback failed: %v", err))
	case len(rankings) == 0:
		o.logger.Warn("fallback source returned no rankings")
		errs = append(errs, "HTML fallback returned zero results")
	default:
		o.logger.Info("fallback source succeeded", "rankings", len(rankings))
		return types.ScrapeResult{
			Rankings:   rankings,
			SourceUsed: types.SourceHTMLFallback,
			Errors:     errs,
		}
	}

	o.logger.Error("all ranking sources exhausted", "errors", len(errs))
	return types.ScrapeResult{
		SourceUsed: types.SourceNone,
		Errors:     errs,
	}
}
