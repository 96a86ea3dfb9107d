// Package config loads flexstore configuration from defaults, an optional
// config file, FLEXSTORE_* environment variables and command-line flags.
//
// Configuration is an explicit value passed to constructors; nothing here
// is package-level mutable state.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// EnvPrefix is the prefix of environment variables read by New.
// FLEXSTORE_SEARCH_LANGUAGE sets search.language.
const EnvPrefix = "FLEXSTORE_"

// Keys used in config files, env vars and flag bindings.
const (
	KeyDatabase       = "database"
	KeySearchLanguage = "search.language"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyPageIndex      = "pagination.page"
	KeyPageSize       = "pagination.size"
)

// Page size bounds applied to collection listings.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// Config is the resolved configuration.
type Config struct {
	Database   string           `mapstructure:"database"`
	Search     SearchConfig     `mapstructure:"search"`
	Log        LogConfig        `mapstructure:"log"`
	Pagination PaginationConfig `mapstructure:"pagination"`
}

// SearchConfig configures collection name matching.
type SearchConfig struct {
	// Language is a BCP 47 tag used for case folding and stemming.
	Language string `mapstructure:"language"`
}

// LogConfig configures the slog handler installed by the CLI.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text (tint) | json
}

// PaginationConfig holds defaults for collection pages.
type PaginationConfig struct {
	Page int `mapstructure:"page"`
	Size int `mapstructure:"size"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Database: "flexstore.db",
		Search:   SearchConfig{Language: "en"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Pagination: PaginationConfig{
			Page: 1,
			Size: 10,
		},
	}
}

// New creates a viper instance seeded with defaults, the optional config
// file and FLEXSTORE_* environment variables. Callers may bind flags to it
// before calling Load.
//
// An empty configFile skips file loading. A named file that does not exist
// is an error.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyDatabase, d.Database)
	v.SetDefault(KeySearchLanguage, d.Search.Language)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyPageIndex, d.Pagination.Page)
	v.SetDefault(KeyPageSize, d.Pagination.Size)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	applyEnv(v, os.Environ())
	return v, nil
}

// applyEnv maps PREFIX_A_B=value to key a.b. Keys are set explicitly so
// that Unmarshal sees them without a config file.
func applyEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		prop := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, EnvPrefix), "_", "."))
		prop = strings.TrimPrefix(prop, ".")
		if prop == "" {
			continue
		}
		v.Set(prop, value)
	}
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if c.Database == "" {
		errs = append(errs, errors.New("database: must not be empty"))
	}
	if _, err := language.Parse(c.Search.Language); err != nil {
		errs = append(errs, fmt.Errorf("search.language: %w", err))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: %q must be text or json", c.Log.Format))
	}
	if c.Pagination.Page < 1 {
		errs = append(errs, fmt.Errorf("pagination.page: %d must be at least 1", c.Pagination.Page))
	}
	if c.Pagination.Size < MinPageSize || c.Pagination.Size > MaxPageSize {
		errs = append(errs, fmt.Errorf("pagination.size: %d must be between %d and %d",
			c.Pagination.Size, MinPageSize, MaxPageSize))
	}
	return errors.Join(errs...)
}

// Language returns the parsed search language.
func (c Config) Language() language.Tag {
	tag, err := language.Parse(c.Search.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// SlogLevel parses Level into a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
