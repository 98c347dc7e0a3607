package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flixtrack/flixtrack/internal/observability"
	"github.com/flixtrack/flixtrack/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

type fakeFetcher struct {
	result   types.ScrapeResult
	lastWeek string
}

func (f *fakeFetcher) Fetch(_ context.Context, week string) types.ScrapeResult {
	f.lastWeek = week
	return f.result
}

type fakeStore struct {
	ensureErr error
	saveErr   error
	runErr    error

	saved     []types.CountryRanking
	savedRuns []types.ScrapeRun
	saveCalls int
}

func (f *fakeStore) EnsureIndexes(context.Context) error { return f.ensureErr }

func (f *fakeStore) SaveRankings(_ context.Context, rankings []types.CountryRanking) (int64, error) {
	f.saveCalls++
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = append(f.saved, rankings...)
	return int64(len(rankings)), nil
}

func (f *fakeStore) SaveRun(_ context.Context, run types.ScrapeRun) error {
	f.savedRuns = append(f.savedRuns, run)
	return f.runErr
}

func validRanking(country, countryName string) types.CountryRanking {
	entries := make([]types.RankingEntry, 10)
	for i := range entries {
		entries[i] = types.RankingEntry{Rank: i + 1, Title: fmt.Sprintf("Title %d", i+1), WeeksInTop10: 1}
	}
	return types.NewCountryRanking("2026-02-01", country, countryName, types.CategoryFilms, types.SourceTSV, entries)
}

func invalidRanking() types.CountryRanking {
	return types.NewCountryRanking("2026-02-01", "japan", "Japan", types.CategoryFilms, types.SourceTSV,
		[]types.RankingEntry{{Rank: 1, Title: "", WeeksInTop10: 1}})
}

func newTestPipeline(fetcher Fetcher, store Store) (*Pipeline, *observability.Metrics) {
	metrics := observability.NewMetrics(testLogger)
	return New(fetcher, store, metrics, testLogger), metrics
}

func TestRunSuccess(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{
		Rankings: []types.CountryRanking{
			validRanking("united-states", "United States"),
			validRanking("south-korea", "South Korea"),
		},
		SourceUsed: types.SourceTSV,
	}}
	store := &fakeStore{}
	p, metrics := newTestPipeline(fetcher, store)

	run := p.Run(context.Background(), Options{})

	if run.Status != types.RunSuccess {
		t.Errorf("expected success, got %q with errors %v", run.Status, run.Errors)
	}
	if run.SourceUsed != types.SourceTSV {
		t.Errorf("expected source tsv, got %q", run.SourceUsed)
	}
	if run.DocumentsSaved != 2 {
		t.Errorf("expected 2 saved, got %d", run.DocumentsSaved)
	}
	if run.RunID == "" {
		t.Error("expected a run id")
	}
	if run.CompletedAt.Before(run.StartedAt) {
		t.Error("completed_at precedes started_at")
	}
	if len(store.saved) != 2 {
		t.Errorf("store received %d rankings", len(store.saved))
	}
	if len(store.savedRuns) != 1 || store.savedRuns[0].Status != types.RunSuccess {
		t.Errorf("expected one success audit record, got %+v", store.savedRuns)
	}

	snap := metrics.Snapshot()
	if snap["rankings_fetched"] != 2 || snap["documents_saved"] != 2 {
		t.Errorf("unexpected metrics %v", snap)
	}
}

func TestRunWeekPassthrough(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{SourceUsed: types.SourceNone}}
	p, _ := newTestPipeline(fetcher, &fakeStore{})

	p.Run(context.Background(), Options{Week: "2026-01-18"})

	if fetcher.lastWeek != "2026-01-18" {
		t.Errorf("fetcher saw week %q", fetcher.lastWeek)
	}
}

func TestRunEmptyFetch(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{
		SourceUsed: types.SourceNone,
		Errors:     []string{"TSV fetch failed: boom", "HTML fallback returned zero results"},
	}}
	store := &fakeStore{}
	p, _ := newTestPipeline(fetcher, store)

	run := p.Run(context.Background(), Options{})

	if run.Status != types.RunFailure {
		t.Errorf("expected failure, got %q", run.Status)
	}
	if run.SourceUsed != types.SourceNone {
		t.Errorf("expected source none, got %q", run.SourceUsed)
	}
	if len(run.Errors) != 2 {
		t.Errorf("expected the fetch errors on the run, got %v", run.Errors)
	}
	if store.saveCalls != 0 {
		t.Error("rankings must not be saved on an empty fetch")
	}
	if len(store.savedRuns) != 1 {
		t.Errorf("the audit record must still be written, got %d", len(store.savedRuns))
	}
}

func TestRunFiltersInvalidRecords(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{
		Rankings: []types.CountryRanking{
			validRanking("united-states", "United States"),
			invalidRanking(),
		},
		SourceUsed: types.SourceTSV,
	}}
	store := &fakeStore{}
	p, metrics := newTestPipeline(fetcher, store)

	run := p.Run(context.Background(), Options{})

	if run.Status != types.RunPartialFailure {
		t.Errorf("expected partial_failure, got %q", run.Status)
	}
	if len(store.saved) != 1 || store.saved[0].Country != "united-states" {
		t.Errorf("expected only the valid record stored, got %+v", store.saved)
	}
	if run.DocumentsSaved != 1 {
		t.Errorf("expected 1 saved, got %d", run.DocumentsSaved)
	}
	found := false
	for _, e := range run.Errors {
		if strings.Contains(e, "empty title") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the validation error on the run, got %v", run.Errors)
	}
	if metrics.RecordsRejected.Load() != 1 {
		t.Errorf("expected 1 rejected record, got %d", metrics.RecordsRejected.Load())
	}
}

func TestRunAllRecordsInvalid(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{
		Rankings:   []types.CountryRanking{invalidRanking(), invalidRanking()},
		SourceUsed: types.SourceHTMLFallback,
	}}
	store := &fakeStore{}
	p, _ := newTestPipeline(fetcher, store)

	run := p.Run(context.Background(), Options{})

	if run.Status != types.RunFailure {
		t.Errorf("expected failure when nothing is storable, got %q", run.Status)
	}
	if store.saveCalls != 0 {
		t.Error("nothing should reach storage")
	}
	if len(store.savedRuns) != 1 {
		t.Error("the audit record must still be written")
	}
}

func TestRunStorageFailure(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{
		Rankings:   []types.CountryRanking{validRanking("united-states", "United States")},
		SourceUsed: types.SourceTSV,
	}}
	store := &fakeStore{saveErr: errors.New("server selection timeout")}
	p, _ := newTestPipeline(fetcher, store)

	run := p.Run(context.Background(), Options{})

	if run.Status != types.RunFailure {
		t.Errorf("expected failure, got %q", run.Status)
	}
	if run.DocumentsSaved != 0 {
		t.Errorf("expected 0 saved, got %d", run.DocumentsSaved)
	}
	if len(run.Errors) != 1 || !strings.HasPrefix(run.Errors[0], "Storage failed:") {
		t.Errorf("expected a storage error message, got %v", run.Errors)
	}
	if len(store.savedRuns) != 1 || store.savedRuns[0].Status != types.RunFailure {
		t.Errorf("expected a failure audit record, got %+v", store.savedRuns)
	}
}

func TestRunIndexFailure(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{
		Rankings:   []types.CountryRanking{validRanking("united-states", "United States")},
		SourceUsed: types.SourceTSV,
	}}
	store := &fakeStore{ensureErr: errors.New("unauthorized")}
	p, _ := newTestPipeline(fetcher, store)

	run := p.Run(context.Background(), Options{})

	if run.Status != types.RunFailure {
		t.Errorf("expected failure, got %q", run.Status)
	}
	if store.saveCalls != 0 {
		t.Error("rankings must not be saved when index creation fails")
	}
}

func TestRunAuditWriteFailureIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{
		Rankings:   []types.CountryRanking{validRanking("united-states", "United States")},
		SourceUsed: types.SourceTSV,
	}}
	store := &fakeStore{runErr: errors.New("runs collection gone")}
	p, _ := newTestPipeline(fetcher, store)

	run := p.Run(context.Background(), Options{})

	if run.Status != types.RunSuccess {
		t.Errorf("an audit write failure must not change the outcome, got %q", run.Status)
	}
}

func TestRunDry(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{
		Rankings: []types.CountryRanking{
			validRanking("united-states", "United States"),
			invalidRanking(),
		},
		SourceUsed: types.SourceTSV,
	}}
	exportPath := filepath.Join(t.TempDir(), "rankings.jsonl")
	p, _ := newTestPipeline(fetcher, nil)

	run := p.Run(context.Background(), Options{ExportPath: exportPath})

	if run.Status != types.RunPartialFailure {
		t.Errorf("validation errors still surface in a dry run, got %q", run.Status)
	}
	if run.DocumentsSaved != 0 {
		t.Errorf("a dry run saves nothing, got %d", run.DocumentsSaved)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("expected the export artifact: %v", err)
	}
	if !strings.Contains(string(data), "united-states") {
		t.Error("export should contain the valid record")
	}
	if strings.Count(strings.TrimSpace(string(data)), "\n")+1 != 1 {
		t.Errorf("export should contain exactly the valid record, got %q", data)
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	fetcher := &fakeFetcher{result: types.ScrapeResult{SourceUsed: types.SourceNone}}
	p, _ := newTestPipeline(fetcher, &fakeStore{})

	first := p.Run(context.Background(), Options{})
	second := p.Run(context.Background(), Options{})

	if first.RunID == second.RunID {
		t.Error("run ids must be unique per invocation")
	}
}
