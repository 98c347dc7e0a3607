// Package validate checks fetched rankings before they reach storage.
//
// Errors mark a record as unfit for storage: ranks outside the Top 10
// range, empty titles, duplicate ranks. Warnings flag data that is
// unusual but still usable, such as a listing with fewer than 10
// entries after a partial page load.
package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/flixtrack/flixtrack/internal/types"
)

const (
	MinRank = 1
	MaxRank = 10
)

// Result holds the outcome of validating one CountryRanking.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validator checks rankings for integrity defects that indicate a
// broken parser or source rather than unusual data.
type Validator struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Validator {
	return &Validator{logger: logger.With("component", "validator")}
}

// Ranking validates a single country-category ranking.
func (v *Validator) Ranking(ranking types.CountryRanking) Result {
	var errs, warnings []string
	context := fmt.Sprintf("%s/%s/week=%s", ranking.Country, ranking.Category, ranking.Week)

	if len(ranking.Rankings) == 0 {
		errs = append(errs, context+": no ranking entries")
		return Result{Valid: false, Errors: errs, Warnings: warnings}
	}

	if ranking.Category != types.CategoryFilms && ranking.Category != types.CategoryTV {
		warnings = append(warnings, fmt.Sprintf("%s: unexpected category '%s'", context, ranking.Category))
	}
	if ranking.Week == types.WeekUnknown {
		warnings = append(warnings, context+": week is unknown")
	}

	seenRanks := make(map[int]bool, len(ranking.Rankings))
	for _, entry := range ranking.Rankings {
		entryCtx := fmt.Sprintf("%s/rank=%d", context, entry.Rank)

		if entry.Rank < MinRank || entry.Rank > MaxRank {
			errs = append(errs, fmt.Sprintf("%s: rank out of range [%d-%d]", entryCtx, MinRank, MaxRank))
		}
		if strings.TrimSpace(entry.Title) == "" {
			errs = append(errs, entryCtx+": empty title")
		}
		if seenRanks[entry.Rank] {
			errs = append(errs, entryCtx+": duplicate rank")
		}
		seenRanks[entry.Rank] = true

		if entry.WeeksInTop10 < 0 {
			warnings = append(warnings, entryCtx+": negative weeks_in_top_10")
		}
	}

	if len(ranking.Rankings) != MaxRank {
		warnings = append(warnings, fmt.Sprintf("%s: expected %d entries, got %d",
			context, MaxRank, len(ranking.Rankings)))
	}

	return Result{Valid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

// All validates every ranking, preserving input order, and logs the
// totals.
func (v *Validator) All(rankings []types.CountryRanking) []Result {
	results := make([]Result, 0, len(rankings))
	totalErrors, totalWarnings := 0, 0

	for _, ranking := range rankings {
		result := v.Ranking(ranking)
		results = append(results, result)
		totalErrors += len(result.Errors)
		totalWarnings += len(result.Warnings)
	}

	if totalErrors > 0 {
		v.logger.Warn("validation found errors", "errors", totalErrors)
	}
	if totalWarnings > 0 {
		v.logger.Info("validation found warnings", "warnings", totalWarnings)
	}
	return results
}
