// Package config provides configuration loading and structs for the ryori server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/ryori/internal/catalog"
)

// EnvPrefix prefixes every environment variable that overrides a config value.
const EnvPrefix = "RYORI_"

// Catalog source kinds.
const (
	CatalogSourceFile   = "file"
	CatalogSourceSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" env:"DEBUG"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"LOG_"`
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Catalog   CatalogConfig   `yaml:"catalog" envPrefix:"CATALOG_"`
	Embedding EmbeddingConfig `yaml:"embedding" envPrefix:"EMBEDDING_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"STORAGE_"`
	Recommend RecommendConfig `yaml:"recommend" envPrefix:"RECOMMEND_"`
	Watch     WatchConfig     `yaml:"watch" envPrefix:"WATCH_"`
}

// LoggingConfig holds logger settings. An empty level keeps the debug/production default.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host" env:"HOST"`
	Port           int           `yaml:"port" env:"PORT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	CORSOrigins    []string      `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// CatalogConfig selects where recipes come from: a CSV/XLSX file, or the SQLite
// database filled by "ryori import".
type CatalogConfig struct {
	Source  string          `yaml:"source" env:"SOURCE"`
	Path    string          `yaml:"path" env:"PATH"`
	Format  string          `yaml:"format" env:"FORMAT"`
	Sheet   string          `yaml:"sheet" env:"SHEET"`
	Columns catalog.Columns `yaml:"columns"`
}

// EmbeddingConfig holds the word2vec model location.
type EmbeddingConfig struct {
	ModelPath string `yaml:"model_path" env:"MODEL_PATH"`
	Format    string `yaml:"format" env:"FORMAT"`
}

// StorageConfig holds paths for the database and the catalog vector cache.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path" env:"DATABASE_PATH"`
	VectorCacheDir string `yaml:"vector_cache_dir" env:"VECTOR_CACHE_DIR"`
}

// RecommendConfig holds recommendation settings.
type RecommendConfig struct {
	DefaultTopN           int   `yaml:"default_top_n" env:"DEFAULT_TOP_N"`
	MaxTopN               int   `yaml:"max_top_n" env:"MAX_TOP_N"`
	QueryCacheSize        int   `yaml:"query_cache_size" env:"QUERY_CACHE_SIZE"`
	Warm                  *bool `yaml:"warm"`
	Suggestions           *bool `yaml:"suggestions"`
	SuggestMaxDistance    int   `yaml:"suggest_max_distance" env:"SUGGEST_MAX_DISTANCE"`
	SuggestTranspositions bool  `yaml:"suggest_transpositions" env:"SUGGEST_TRANSPOSITIONS"`
}

// WarmOrDefault reports whether snapshots are built at startup; defaults to true when unset.
func (r *RecommendConfig) WarmOrDefault() bool {
	if r.Warm != nil {
		return *r.Warm
	}
	return true
}

// SuggestionsOrDefault reports whether unknown ingredients get suggestions; defaults to true when unset.
func (r *RecommendConfig) SuggestionsOrDefault() bool {
	if r.Suggestions != nil {
		return *r.Suggestions
	}
	return true
}

// WatchConfig holds hot-reload settings for the catalog and model files.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

// Load reads and parses the config file at path, applies RYORI_* environment overrides,
// expands paths, and applies defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(&cfg, filepath.Dir(path))
}

// FromEnv builds a config from defaults and RYORI_* environment variables only.
// Relative paths are resolved against the working directory.
func FromEnv() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return finish(&Config{}, dir)
}

func finish(cfg *Config, configDir string) (*Config, error) {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	ApplyDefaults(cfg)

	cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorCacheDir = expandPath(cfg.Storage.VectorCacheDir, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated values and limits.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case CatalogSourceFile, CatalogSourceSQLite:
	default:
		return fmt.Errorf("invalid catalog.source %q (supported: file, sqlite)", c.Catalog.Source)
	}
	switch catalog.Format(c.Catalog.Format) {
	case catalog.FormatAuto, catalog.FormatCSV, catalog.FormatXLSX:
	default:
		return fmt.Errorf("invalid catalog.format %q (supported: auto, csv, xlsx)", c.Catalog.Format)
	}
	switch c.Embedding.Format {
	case "auto", "text", "binary":
	default:
		return fmt.Errorf("invalid embedding.format %q (supported: auto, text, binary)", c.Embedding.Format)
	}
	if c.Recommend.DefaultTopN > c.Recommend.MaxTopN {
		return fmt.Errorf("recommend.default_top_n (%d) exceeds recommend.max_top_n (%d)",
			c.Recommend.DefaultTopN, c.Recommend.MaxTopN)
	}
	return nil
}

// Save writes the config to path. Used by "ryori import -use" to switch the catalog source.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
