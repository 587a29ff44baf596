// Package config loads rwTZ settings from defaults, an optional YAML file,
// and RWTZ_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/rwTZ/pkg/culture"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. RWTZ_SOURCE_BASE_URL.
const EnvPrefix = "RWTZ"

// Config represents the complete application configuration.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Server   ServerConfig   `mapstructure:"server"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SourceConfig holds victims API settings.
type SourceConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Year          int           `mapstructure:"year"` // 0 means the current year
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts uint          `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// StoreConfig holds the SQLite location. It defaults to DefaultStorePath;
// an empty path disables the store.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds HTTP response cache settings.
type CacheConfig struct {
	Dir      string        `mapstructure:"dir"`
	TTL      time.Duration `mapstructure:"ttl"`
	Disabled bool          `mapstructure:"disabled"`
}

// AnalysisConfig holds inference tuning.
type AnalysisConfig struct {
	Culture      culture.Config `mapstructure:"culture"`
	RegionLimit  int            `mapstructure:"region_limit"`
	Alternatives int            `mapstructure:"alternatives"`
	Workers      int            `mapstructure:"workers"` // 0 means GOMAXPROCS
	Holidays     bool           `mapstructure:"holidays"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	ResultTTL       time.Duration `mapstructure:"result_ttl"`
	RateLimit       int           `mapstructure:"rate_limit"` // requests per minute per client
}

// GeminiConfig holds the optional narrative assessment settings.
type GeminiConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	GCPProject string `mapstructure:"gcp_project"`
}

// Enabled reports whether credentials are present.
func (g GeminiConfig) Enabled() bool {
	return g.APIKey != "" || g.GCPProject != ""
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// SlogLevel converts Level, falling back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Load reads configuration from defaults, the file at path (skipped when
// empty), and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// DefaultStorePath is the database posts accumulate in when no path is
// configured: victims.db under the user cache directory. It is empty when
// the platform has no cache directory.
func DefaultStorePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rwtz", "victims.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://api.ransomware.live")
	v.SetDefault("source.year", 0)
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.retry_attempts", 5)
	v.SetDefault("source.retry_delay", "1s")

	v.SetDefault("store.path", DefaultStorePath())

	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", "6h")
	v.SetDefault("cache.disabled", false)

	cc := culture.DefaultConfig()
	v.SetDefault("analysis.culture.threshold", cc.Threshold)
	v.SetDefault("analysis.culture.rules", cc.Rules)
	v.SetDefault("analysis.region_limit", 3)
	v.SetDefault("analysis.alternatives", 2)
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("analysis.holidays", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.refresh_interval", "1h")
	v.SetDefault("server.result_ttl", "10m")
	v.SetDefault("server.rate_limit", 60)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.gcp_project", "")

	v.SetDefault("logging.level", "info")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return errors.New("source.base_url is required")
	}
	if c.Source.Year != 0 && (c.Source.Year < 2000 || c.Source.Year > 2100) {
		return fmt.Errorf("source.year %d out of range", c.Source.Year)
	}
	if c.Source.RetryAttempts < 1 {
		return errors.New("source.retry_attempts must be at least 1")
	}
	if c.Source.Timeout <= 0 {
		return errors.New("source.timeout must be positive")
	}

	if !c.Cache.Disabled && c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}

	th := c.Analysis.Culture.Threshold
	if th <= 0 || th > 1 {
		return errors.New("analysis.culture.threshold must be in (0, 1]")
	}
	for i, r := range c.Analysis.Culture.Rules {
		if r.Day < 0 || r.Day > 6 {
			return fmt.Errorf("analysis.culture.rules[%d].day must be 0..6", i)
		}
		if r.Label == "" {
			return fmt.Errorf("analysis.culture.rules[%d].label is required", i)
		}
	}
	if c.Analysis.RegionLimit < 1 {
		return errors.New("analysis.region_limit must be at least 1")
	}
	if c.Analysis.Alternatives < 0 {
		return errors.New("analysis.alternatives must not be negative")
	}
	if c.Analysis.Workers < 0 {
		return errors.New("analysis.workers must not be negative")
	}

	if c.Server.RefreshInterval < time.Minute {
		return errors.New("server.refresh_interval must be at least 1 minute")
	}
	if c.Server.RateLimit < 1 {
		return errors.New("server.rate_limit must be at least 1")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !valid[strings.ToLower(c.Logging.Level)] {
		return errors.New("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}
