package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 5s
catalog:
  path: "/data/recipes.xlsx"
  format: xlsx
  columns:
    name: Title
recommend:
  default_top_n: 3
  suggestions: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("request_timeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Catalog.Path != "/data/recipes.xlsx" || cfg.Catalog.Format != "xlsx" {
		t.Errorf("unexpected catalog config: %+v", cfg.Catalog)
	}
	if cfg.Catalog.Columns.Name != "Title" {
		t.Errorf("columns.name = %q", cfg.Catalog.Columns.Name)
	}
	if cfg.Recommend.DefaultTopN != 3 || cfg.Recommend.MaxTopN != 100 {
		t.Errorf("unexpected recommend config: %+v", cfg.Recommend)
	}
	if cfg.Recommend.SuggestionsOrDefault() {
		t.Error("suggestions disabled in file")
	}
	if !cfg.Recommend.WarmOrDefault() {
		t.Error("warm should default to true")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\nlogging:\n  level: warn\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
catalog:
  path: "./data/recipes.csv"
embedding:
  model_path: "./models/w2v.bin"
storage:
  database_path: "./data/db/catalog.db"
  vector_cache_dir: "./cache"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	checks := map[string][2]string{
		"catalog.path":             {cfg.Catalog.Path, filepath.Join(dir, "data", "recipes.csv")},
		"embedding.model_path":     {cfg.Embedding.ModelPath, filepath.Join(dir, "models", "w2v.bin")},
		"storage.database_path":    {cfg.Storage.DatabasePath, filepath.Join(dir, "data", "db", "catalog.db")},
		"storage.vector_cache_dir": {cfg.Storage.VectorCacheDir, filepath.Join(dir, "cache")},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\ncatalog:\n  source: file\n")
	t.Setenv("RYORI_SERVER_PORT", "9100")
	t.Setenv("RYORI_CATALOG_SOURCE", "sqlite")
	t.Setenv("RYORI_RECOMMEND_MAX_TOP_N", "20")
	t.Setenv("RYORI_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("RYORI_WATCH_ENABLED", "true")
	t.Setenv("RYORI_DEBUG", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env override 9100", cfg.Server.Port)
	}
	if cfg.Catalog.Source != CatalogSourceSQLite {
		t.Errorf("catalog.source = %q", cfg.Catalog.Source)
	}
	if cfg.Recommend.MaxTopN != 20 {
		t.Errorf("max_top_n = %d", cfg.Recommend.MaxTopN)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors_origins = %v", cfg.Server.CORSOrigins)
	}
	if !cfg.Watch.Enabled || !cfg.Debug {
		t.Error("boolean env overrides not applied")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("RYORI_EMBEDDING_MODEL_PATH", "./w2v.txt")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if cfg.Embedding.ModelPath != filepath.Join(wd, "w2v.txt") {
		t.Errorf("model_path = %s", cfg.Embedding.ModelPath)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"catalog source":   "catalog:\n  source: postgres\n",
		"catalog format":   "catalog:\n  format: json\n",
		"embedding format": "embedding:\n  format: glove\n",
		"top n":            "recommend:\n  default_top_n: 50\n  max_top_n: 10\n",
		"yaml":             "server: [",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("default cors origins: got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Catalog.Source != CatalogSourceFile || cfg.Catalog.Format != "auto" {
		t.Errorf("default catalog: got %+v", cfg.Catalog)
	}
	if cfg.Recommend.DefaultTopN != 5 || cfg.Recommend.MaxTopN != 100 {
		t.Errorf("default top n: got %d/%d", cfg.Recommend.DefaultTopN, cfg.Recommend.MaxTopN)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("default debounce: got %v", cfg.Watch.Debounce)
	}
	if cfg.Storage.VectorCacheDir != "" {
		t.Error("vector cache is opt-in")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestRecommendConfig_OrDefault(t *testing.T) {
	f := false
	r := &RecommendConfig{}
	if !r.WarmOrDefault() || !r.SuggestionsOrDefault() {
		t.Error("unset flags default to true")
	}
	r.Warm, r.Suggestions = &f, &f
	if r.WarmOrDefault() || r.SuggestionsOrDefault() {
		t.Error("explicit false must be kept")
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Catalog: CatalogConfig{Source: CatalogSourceSQLite},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
		Watch:   WatchConfig{Debounce: time.Second},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Catalog.Source != CatalogSourceSQLite {
		t.Errorf("loaded catalog source: got %s", loaded.Catalog.Source)
	}
	if loaded.Watch.Debounce != time.Second {
		t.Errorf("loaded debounce: got %v", loaded.Watch.Debounce)
	}
}
