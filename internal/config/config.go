package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for FlixTrack.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Mongo    MongoConfig    `mapstructure:"mongo"    yaml:"mongo"`
	Export   ExportConfig   `mapstructure:"export"   yaml:"export"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// ProviderConfig controls how the Top 10 provider endpoints are fetched.
type ProviderConfig struct {
	BaseURL        string            `mapstructure:"base_url"        yaml:"base_url"`
	TSVURL         string            `mapstructure:"tsv_url"         yaml:"tsv_url"`
	UserAgent      string            `mapstructure:"user_agent"      yaml:"user_agent"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout" yaml:"request_timeout"`
	RetryCount     int               `mapstructure:"retry_count"     yaml:"retry_count"`
	RetryWait      time.Duration     `mapstructure:"retry_wait"      yaml:"retry_wait"`
	RetryMaxWait   time.Duration     `mapstructure:"retry_max_wait"  yaml:"retry_max_wait"`
	PageDelay      time.Duration     `mapstructure:"page_delay"      yaml:"page_delay"`
	Countries      map[string]string `mapstructure:"countries"       yaml:"countries"`
}

// MongoConfig controls the MongoDB connection and collection names.
type MongoConfig struct {
	URI                string        `mapstructure:"uri"                 yaml:"uri"`
	Database           string        `mapstructure:"database"            yaml:"database"`
	RankingsCollection string        `mapstructure:"rankings_collection" yaml:"rankings_collection"`
	RunsCollection     string        `mapstructure:"runs_collection"     yaml:"runs_collection"`
	MaxPoolSize        uint64        `mapstructure:"max_pool_size"       yaml:"max_pool_size"`
	SelectionTimeout   time.Duration `mapstructure:"selection_timeout"   yaml:"selection_timeout"`
}

// ExportConfig controls the JSONL dump written by dry runs.
type ExportConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TrackedCountries returns the default allow-list of collected countries,
// display name to URL slug.
func TrackedCountries() map[string]string {
	return map[string]string{
		"South Korea":    "south-korea",
		"Hong Kong":      "hong-kong",
		"Taiwan":         "taiwan",
		"Japan":          "japan",
		"Thailand":       "thailand",
		"Vietnam":        "vietnam",
		"Philippines":    "philippines",
		"Indonesia":      "indonesia",
		"United States":  "united-states",
		"Canada":         "canada",
		"Brazil":         "brazil",
		"Mexico":         "mexico",
		"United Kingdom": "united-kingdom",
		"Germany":        "germany",
		"France":         "france",
		"Spain":          "spain",
		"Italy":          "italy",
		"Australia":      "australia",
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			BaseURL:        "https://www.netflix.com/tudum/top10",
			TSVURL:         "https://www.netflix.com/tudum/top10/data/all-weeks-countries.tsv",
			UserAgent:      "FlixTrack/" + Version,
			RequestTimeout: 30 * time.Second,
			RetryCount:     3,
			RetryWait:      1 * time.Second,
			RetryMaxWait:   30 * time.Second,
			PageDelay:      1500 * time.Millisecond,
			Countries:      TrackedCountries(),
		},
		Mongo: MongoConfig{
			Database:           "netflix_top10",
			RankingsCollection: "weekly_rankings",
			RunsCollection:     "scrape_runs",
			MaxPoolSize:        1,
			SelectionTimeout:   5 * time.Second,
		},
		Export: ExportConfig{
			Path: "./out/rankings.jsonl",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}
