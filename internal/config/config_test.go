package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestTrackedCountries(t *testing.T) {
	countries := TrackedCountries()
	if len(countries) != 18 {
		t.Fatalf("expected 18 tracked countries, got %d", len(countries))
	}
	checks := map[string]string{
		"South Korea":    "south-korea",
		"United States":  "united-states",
		"United Kingdom": "united-kingdom",
		"Japan":          "japan",
	}
	for name, slug := range checks {
		if got := countries[name]; got != slug {
			t.Errorf("country %q: expected slug %q, got %q", name, slug, got)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero timeout", func(c *Config) { c.Provider.RequestTimeout = 0 }, "request_timeout"},
		{"negative retries", func(c *Config) { c.Provider.RetryCount = -1 }, "retry_count"},
		{"max wait below wait", func(c *Config) { c.Provider.RetryMaxWait = 0 }, "retry_max_wait"},
		{"empty countries", func(c *Config) { c.Provider.Countries = nil }, "countries"},
		{"bad slug", func(c *Config) { c.Provider.Countries = map[string]string{"Atlantis": "atlantis city"} }, "slug"},
		{"bad base url", func(c *Config) { c.Provider.BaseURL = "ftp://example.com" }, "scheme"},
		{"bad mongo scheme", func(c *Config) { c.Mongo.URI = "postgres://localhost" }, "mongodb"},
		{"zero pool", func(c *Config) { c.Mongo.MaxPoolSize = 0 }, "max_pool_size"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %q, got %q", tc.want, err)
			}
		})
	}
}

func TestValidateMongoURI(t *testing.T) {
	if err := ValidateMongoURI(""); err == nil {
		t.Error("empty URI should be rejected")
	}
	if err := ValidateMongoURI("http://localhost:27017"); err == nil {
		t.Error("non-mongodb scheme should be rejected")
	}
	if err := ValidateMongoURI("mongodb://localhost:27017"); err != nil {
		t.Errorf("mongodb:// should be accepted: %v", err)
	}
	if err := ValidateMongoURI("mongodb+srv://cluster0.example.net"); err != nil {
		t.Errorf("mongodb+srv:// should be accepted: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FLIXTRACK_PROVIDER_RETRY_COUNT", "5")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider.RetryCount != 5 {
		t.Errorf("expected retry count 5 from env, got %d", cfg.Provider.RetryCount)
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" {
		t.Errorf("expected MONGODB_URI to be picked up, got %q", cfg.Mongo.URI)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
