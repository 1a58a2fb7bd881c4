// Package config loads extractor configuration from files and environment
// variables. Settings resolve in three layers: built-in defaults, an
// optional config file, then MERIT_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete extractor configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Rate    RateConfig    `mapstructure:"rate"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
	Extract ExtractConfig `mapstructure:"extract"`
}

// APIConfig holds Merit API credentials and connection settings.
type APIConfig struct {
	// ID and Key are the Merit Aktiva API credentials (required).
	ID  string `mapstructure:"id"`
	Key string `mapstructure:"key"`

	// BaseURL of the API. Localized Merit instances use a different host.
	BaseURL string `mapstructure:"base_url"`

	// Timeout applies per HTTP call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateConfig bounds outgoing requests per rolling window.
type RateConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// RetryConfig controls backoff for transient failures.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// RedisConfig enables the shared rate budget and response cache. When Addr
// is empty both stay in-process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig controls master data response caching.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ExtractConfig holds extraction run settings.
type ExtractConfig struct {
	// IntervalDays is the date window size for incremental endpoints.
	IntervalDays int `mapstructure:"interval_days"`

	// OutputDir receives one NDJSON file per extracted resource.
	OutputDir string `mapstructure:"output_dir"`
}

// Load reads configuration from the given file (optional, "" skips the file
// layer) and from MERIT_* environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MERIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("aktiva")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/aktiva")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.API.ID == "" {
		return fmt.Errorf("api id is required (MERIT_API_ID)")
	}
	if c.API.Key == "" {
		return fmt.Errorf("api key is required (MERIT_API_KEY)")
	}
	if c.Rate.Limit < 1 {
		return fmt.Errorf("rate limit must be positive (got %d)", c.Rate.Limit)
	}
	if c.Extract.IntervalDays < 1 || c.Extract.IntervalDays > 90 {
		return fmt.Errorf("extract interval must be 1..90 days (got %d)", c.Extract.IntervalDays)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Credentials default to empty so AutomaticEnv can fill them; viper
	// only unmarshals env values for keys it already knows about.
	v.SetDefault("api.id", "")
	v.SetDefault("api.key", "")
	v.SetDefault("api.base_url", "https://aktiva.merit.ee/api/")
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("rate.limit", 60)
	v.SetDefault("rate.window", "60s")

	v.SetDefault("retry.max_attempts", 5)
	v.SetDefault("retry.initial_backoff", "1s")
	v.SetDefault("retry.max_backoff", "30s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", "15m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)

	v.SetDefault("extract.interval_days", 30)
	v.SetDefault("extract.output_dir", ".")
}
