package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/flixtrack/flixtrack/internal/config"
	"github.com/flixtrack/flixtrack/internal/parser"
	"github.com/flixtrack/flixtrack/internal/types"
)

// PageSource scrapes the public Top 10 pages country by country. It is
// the fallback when the bulk export cannot be used: slower (one request
// per country and category, paced by a fixed delay) and tied to the
// page markup, but independent of the export endpoint.
type PageSource struct {
	client  *resty.Client
	baseURL string
	tracked map[string]string
	delay   time.Duration
	logger  *slog.Logger
}

// NewPageSource creates the fallback ranking source.
func NewPageSource(client *resty.Client, cfg *config.ProviderConfig, logger *slog.Logger) *PageSource {
	return &PageSource{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tracked: cfg.Countries,
		delay:   cfg.PageDelay,
		logger:  logger.With("component", "page_source"),
	}
}

// pageRequest identifies one listing page. An empty slug addresses the
// global listing.
type pageRequest struct {
	slug        string
	countryName string
	category    string
}

// requests lists every page in the sweep: the global films listing
// first, then both categories for each tracked country in name order.
func (s *PageSource) requests() []pageRequest {
	reqs := make([]pageRequest, 0, 1+2*len(s.tracked))
	reqs = append(reqs, pageRequest{countryName: "Global", category: types.CategoryFilms})

	names := make([]string, 0, len(s.tracked))
	for name := range s.tracked {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		slug := s.tracked[name]
		reqs = append(reqs,
			pageRequest{slug: slug, countryName: name, category: types.CategoryFilms},
			pageRequest{slug: slug, countryName: name, category: types.CategoryTV},
		)
	}
	return reqs
}

func (s *PageSource) pageURL(req pageRequest, week string) string {
	u := s.baseURL
	if req.slug != "" {
		u += "/" + req.slug
	}
	if req.category == types.CategoryTV {
		u += "/tv"
	}
	if week != "" {
		u += "?week=" + url.QueryEscape(week)
	}
	return u
}

// FetchAll sweeps every listing page and returns whatever rankings
// could be extracted. Individual page failures are logged and skipped;
// the sweep only fails outright when no page yields data or the
// context is cancelled.
func (s *PageSource) FetchAll(ctx context.Context, week string) ([]types.CountryRanking, error) {
	reqs := s.requests()
	s.logger.Info("starting page sweep", "pages", len(reqs), "delay", s.delay)

	var (
		results  []types.CountryRanking
		pageErrs []error
	)
	for i, req := range reqs {
		if i > 0 {
			if err := sleepContext(ctx, s.delay); err != nil {
				return nil, err
			}
		}

		ranking, err := s.fetchPage(ctx, req, week)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("page scrape failed",
				"country", req.countryName,
				"category", req.category,
				"error", err,
			)
			pageErrs = append(pageErrs, fmt.Errorf("%s/%s: %w", req.countryName, req.category, err))
			continue
		}
		if ranking == nil {
			continue
		}
		results = append(results, *ranking)
	}

	if len(results) == 0 && len(pageErrs) > 0 {
		return nil, fmt.Errorf("all %d failing pages: %w", len(pageErrs), errors.Join(pageErrs...))
	}

	slices.SortFunc(results, compareRankings)
	s.logger.Info("page sweep complete",
		"rankings", len(results),
		"failed_pages", len(pageErrs),
	)
	return results, nil
}

// fetchPage scrapes a single listing. A page that parses but has no
// ranking rows returns (nil, nil) and is skipped by the sweep.
func (s *PageSource) fetchPage(ctx context.Context, req pageRequest, week string) (*types.CountryRanking, error) {
	pageURL := s.pageURL(req, week)

	resp, err := s.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, &types.FetchError{URL: pageURL, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &types.FetchError{URL: pageURL, StatusCode: resp.StatusCode()}
	}

	pageWeek, entries, err := parser.ParsePage(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	if len(entries) == 0 {
		s.logger.Warn("page has no ranking rows", "url", pageURL)
		return nil, nil
	}

	country := req.slug
	if country == "" {
		country = "global"
	}
	ranking := types.NewCountryRanking(pageWeek, country, req.countryName, req.category, types.SourceHTMLFallback, entries)

	s.logger.Debug("page scraped",
		"country", country,
		"category", req.category,
		"week", pageWeek,
		"entries", len(entries),
	)
	return &ranking, nil
}

// compareRankings orders results the same way the bulk export parser
// does, so both sources produce identically ordered output.
func compareRankings(a, b types.CountryRanking) int {
	if c := strings.Compare(a.Week, b.Week); c != 0 {
		return c
	}
	if c := strings.Compare(a.CountryName, b.CountryName); c != 0 {
		return c
	}
	return strings.Compare(a.Category, b.Category)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
