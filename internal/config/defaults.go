package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = CatalogSourceFile
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "/usr/local/var/ryori/data/recipes.csv"
	}
	if cfg.Catalog.Format == "" {
		cfg.Catalog.Format = "auto"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/ryori/data/models/recipes.w2v"
	}
	if cfg.Embedding.Format == "" {
		cfg.Embedding.Format = "auto"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/ryori/data/db/catalog.db"
	}
	if cfg.Recommend.DefaultTopN == 0 {
		cfg.Recommend.DefaultTopN = 5
	}
	if cfg.Recommend.MaxTopN == 0 {
		cfg.Recommend.MaxTopN = 100
	}
	if cfg.Recommend.QueryCacheSize == 0 {
		cfg.Recommend.QueryCacheSize = 1024
	}
	if cfg.Recommend.SuggestMaxDistance == 0 {
		cfg.Recommend.SuggestMaxDistance = 2
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}
