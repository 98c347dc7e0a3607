package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values. The Mongo URI is
// only checked when set; callers that are about to open a connection use
// ValidateMongoURI, so dry runs work without one.
func Validate(cfg *Config) error {
	if err := validateHTTPURL(cfg.Provider.BaseURL); err != nil {
		return fmt.Errorf("provider.base_url: %w", err)
	}
	if err := validateHTTPURL(cfg.Provider.TSVURL); err != nil {
		return fmt.Errorf("provider.tsv_url: %w", err)
	}
	if cfg.Provider.UserAgent == "" {
		return fmt.Errorf("provider.user_agent must not be empty")
	}
	if cfg.Provider.RequestTimeout <= 0 {
		return fmt.Errorf("provider.request_timeout must be > 0")
	}
	if cfg.Provider.RetryCount < 0 {
		return fmt.Errorf("provider.retry_count must be >= 0, got %d", cfg.Provider.RetryCount)
	}
	if cfg.Provider.RetryWait <= 0 {
		return fmt.Errorf("provider.retry_wait must be > 0")
	}
	if cfg.Provider.RetryMaxWait < cfg.Provider.RetryWait {
		return fmt.Errorf("provider.retry_max_wait must be >= provider.retry_wait")
	}
	if cfg.Provider.PageDelay < 0 {
		return fmt.Errorf("provider.page_delay must be >= 0")
	}

	if len(cfg.Provider.Countries) == 0 {
		return fmt.Errorf("provider.countries must not be empty")
	}
	for name, slug := range cfg.Provider.Countries {
		if name == "" {
			return fmt.Errorf("provider.countries contains an empty display name")
		}
		if slug == "" || strings.ContainsAny(slug, " /?#") {
			return fmt.Errorf("country %q has invalid slug %q", name, slug)
		}
	}

	if cfg.Mongo.URI != "" {
		if err := ValidateMongoURI(cfg.Mongo.URI); err != nil {
			return err
		}
	}
	if cfg.Mongo.Database == "" {
		return fmt.Errorf("mongo.database must not be empty")
	}
	if cfg.Mongo.RankingsCollection == "" || cfg.Mongo.RunsCollection == "" {
		return fmt.Errorf("mongo collection names must not be empty")
	}
	if cfg.Mongo.MaxPoolSize < 1 {
		return fmt.Errorf("mongo.max_pool_size must be >= 1, got %d", cfg.Mongo.MaxPoolSize)
	}
	if cfg.Mongo.SelectionTimeout <= 0 {
		return fmt.Errorf("mongo.selection_timeout must be > 0")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateMongoURI checks that a MongoDB connection string is present and
// uses a supported scheme.
func ValidateMongoURI(uri string) error {
	if uri == "" {
		return fmt.Errorf("mongo.uri is required (set MONGODB_URI)")
	}
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		return fmt.Errorf("mongo.uri scheme must be mongodb:// or mongodb+srv://")
	}
	return nil
}

// validateHTTPURL checks if a URL string is usable as a provider endpoint.
func validateHTTPURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
