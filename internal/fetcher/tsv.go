package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/flixtrack/flixtrack/internal/config"
	"github.com/flixtrack/flixtrack/internal/parser"
	"github.com/flixtrack/flixtrack/internal/types"
)

// TSVSource downloads the provider's bulk export, one request covering
// every country and category.
type TSVSource struct {
	client  *resty.Client
	url     string
	tracked map[string]string
	logger  *slog.Logger
}

// NewTSVSource creates the primary ranking source.
func NewTSVSource(client *resty.Client, cfg *config.ProviderConfig, logger *slog.Logger) *TSVSource {
	return &TSVSource{
		client:  client,
		url:     cfg.TSVURL,
		tracked: cfg.Countries,
		logger:  logger.With("component", "tsv_source"),
	}
}

// Fetch downloads and parses the export. An empty week selects the
// latest week present in the file.
func (s *TSVSource) Fetch(ctx context.Context, week string) ([]types.CountryRanking, error) {
	s.logger.Info("downloading bulk export", "url", s.url)

	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, &types.FetchError{URL: s.url, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &types.FetchError{URL: s.url, StatusCode: resp.StatusCode()}
	}

	rankings, err := parser.ParseCountriesTSV(string(resp.Body()), week, s.tracked)
	if err != nil {
		return nil, fmt.Errorf("parse bulk export: %w", err)
	}

	s.logger.Info("bulk export parsed",
		"bytes", len(resp.Body()),
		"rankings", len(rankings),
	)
	return rankings, nil
}
