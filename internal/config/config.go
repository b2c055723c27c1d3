// Package config handles configuration loading for DARTView.
// It supports YAML config files with environment variable overrides and
// reads a local .env file when present, matching how deployments provide
// the DART API key.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the production Open DART API root.
const DefaultBaseURL = "https://opendart.fss.or.kr/api"

// Config represents the complete application configuration.
type Config struct {
	DART     DARTConfig     `mapstructure:"dart"     yaml:"dart"`
	Gemini   GeminiConfig   `mapstructure:"gemini"   yaml:"gemini"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Codes    CodesConfig    `mapstructure:"codes"    yaml:"codes"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// DARTConfig holds Open DART credentials and endpoint settings.
type DARTConfig struct {
	APIKey  string `mapstructure:"api_key"  yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// GeminiConfig holds the optional Gemini AI commentary settings.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model"   yaml:"model"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// CodesConfig holds corp-code archive and index file locations.
type CodesConfig struct {
	ArchivePath string `mapstructure:"archive_path" yaml:"archive_path"` // downloaded ZIP
	IndexPath   string `mapstructure:"index_path"   yaml:"index_path"`   // converted JSON
	SamplePath  string `mapstructure:"sample_path"  yaml:"sample_path"`  // fallback JSON
}

// AnalysisConfig holds analysis layer settings.
type AnalysisConfig struct {
	CacheTTL          int `mapstructure:"cache_ttl"          yaml:"cache_ttl"` // seconds
	ConcurrentFetches int `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.dartview/config.yaml (home directory)
//  3. /etc/dartview/config.yaml (system)
//
// Environment variables override config file values.
// Format: DARTVIEW_<SECTION>_<KEY>, e.g. DARTVIEW_API_PORT. The documented
// plain names DART_API_KEY, DART_BASE_URL and GEMINI_API_KEY also work.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".dartview"))
	v.AddConfigPath("/etc/dartview")

	v.SetEnvPrefix("DARTVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file — defaults plus env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("DARTVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Validate checks that the configuration can support DART API calls.
// A missing API key is fatal: no request can proceed without credentials.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DART.APIKey) == "" {
		return fmt.Errorf("DART API key is not set: export DART_API_KEY or set dart.api_key in the config file")
	}
	if c.DART.BaseURL == "" {
		return fmt.Errorf("DART base URL is empty")
	}
	return nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("dart.base_url", DefaultBaseURL)

	v.SetDefault("gemini.model", "gemini-2.0-flash")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	v.SetDefault("codes.archive_path", "corp_codes.zip")
	v.SetDefault("codes.index_path", "corp_codes.json")
	v.SetDefault("codes.sample_path", "corp_codes_sample.json")

	v.SetDefault("analysis.cache_ttl", 300) // 5 minutes
	v.SetDefault("analysis.concurrent_fetches", 4)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv reads the documented plain environment variable names.
// A .env file in the working directory is honored first, the way the
// original deployment supplied its key.
func overrideFromEnv(cfg *Config) {
	_ = godotenv.Load() // absence of .env is fine

	if key := os.Getenv("DART_API_KEY"); key != "" {
		cfg.DART.APIKey = key
	}
	if u := os.Getenv("DART_BASE_URL"); u != "" {
		cfg.DART.BaseURL = u
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
