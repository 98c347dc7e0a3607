package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("FLIXTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The deployment contract passes the connection string as MONGODB_URI;
	// the prefixed form works too.
	_ = v.BindEnv("mongo.uri", "FLIXTRACK_MONGO_URI", "MONGODB_URI")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("flixtrack")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".flixtrack"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults and env cover everything.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("provider.base_url", cfg.Provider.BaseURL)
	v.SetDefault("provider.tsv_url", cfg.Provider.TSVURL)
	v.SetDefault("provider.user_agent", cfg.Provider.UserAgent)
	v.SetDefault("provider.request_timeout", cfg.Provider.RequestTimeout)
	v.SetDefault("provider.retry_count", cfg.Provider.RetryCount)
	v.SetDefault("provider.retry_wait", cfg.Provider.RetryWait)
	v.SetDefault("provider.retry_max_wait", cfg.Provider.RetryMaxWait)
	v.SetDefault("provider.page_delay", cfg.Provider.PageDelay)
	v.SetDefault("provider.countries", cfg.Provider.Countries)

	v.SetDefault("mongo.database", cfg.Mongo.Database)
	v.SetDefault("mongo.rankings_collection", cfg.Mongo.RankingsCollection)
	v.SetDefault("mongo.runs_collection", cfg.Mongo.RunsCollection)
	v.SetDefault("mongo.max_pool_size", cfg.Mongo.MaxPoolSize)
	v.SetDefault("mongo.selection_timeout", cfg.Mongo.SelectionTimeout)

	v.SetDefault("export.path", cfg.Export.Path)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
}
