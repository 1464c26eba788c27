// Package main is the ryori CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/ryori/internal/catalog"
	"github.com/hyperjump/ryori/internal/cli"
	"github.com/hyperjump/ryori/internal/config"
	"github.com/hyperjump/ryori/internal/models"
	"github.com/hyperjump/ryori/internal/recommend"
	"github.com/hyperjump/ryori/internal/server"
	"github.com/hyperjump/ryori/internal/storage"
	"github.com/hyperjump/ryori/internal/watcher"
	"github.com/hyperjump/ryori/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ryori/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present, and a missing default file falls back to defaults plus RYORI_*
// environment variables. Returns the config and the path that was loaded ("" for env only).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.FromEnv()
			if err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "recommend":
		runRecommend()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ryori version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func mustLogger(cfg *config.Config, debug bool) *zap.Logger {
	logger, err := utils.NewLogger(debug, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (snapshot builds, file changes, requests)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger := mustLogger(cfg, debugMode)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()
	engine := components.Engine

	if cfg.Recommend.WarmOrDefault() {
		start := time.Now()
		if err := engine.Warm(ctx); err != nil {
			logger.Warn("snapshot warm-up failed; snapshots will build on first request", zap.Error(err))
		} else {
			logger.Info("snapshots ready", zap.Duration("took", time.Since(start)))
		}
	}

	srv := server.NewServer(engine, components.Storage, cfg, logger)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if cfg.Watch.Enabled {
		w := watcher.NewWatcher(watchedFiles(cfg), func(paths []string) {
			logger.Info("source files changed, reloading", zap.Strings("paths", paths))
			if err := engine.Reload(gctx); err != nil {
				return
			}
			if cfg.Recommend.WarmOrDefault() {
				if err := engine.Warm(gctx); err != nil {
					logger.Warn("snapshot warm-up after reload failed", zap.Error(err))
				}
			}
		}, watcher.WithLogger(logger), watcher.WithDebounce(cfg.Watch.Debounce))
		if err := w.Start(gctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
		logger.Info("watching source files", zap.Strings("files", w.Files()))
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops at the
// first non-flag argument, so "ryori recommend onion -n 3" would otherwise leave -n unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// ingredientsFromArgs accepts ingredients as separate arguments, comma-separated lists, or both:
// `ryori recommend onion "green chilli, garlic"`.
func ingredientsFromArgs(args []string) []string {
	return models.ParseIngredients(strings.Join(args, ","))
}

// configPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// defaultTopNFromConfig returns recommend.default_top_n from the config at path, or
// models.DefaultTopN when it cannot be loaded.
func defaultTopNFromConfig(path string) int {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return models.DefaultTopN
	}
	return cfg.Recommend.DefaultTopN
}

func printRecommendUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: ryori recommend [flags] <ingredients...>\n\n")
	fmt.Fprintf(fs.Output(), "Ingredients may be separate arguments or comma-separated lists.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  ryori recommend onion tomato "green chilli"
  ryori recommend "onion, tomato, green chilli" -n 10
  ryori recommend -mean -scores paneer
  ryori recommend -server http://localhost:8000 -output json rice dal
`)
}

func runRecommend() {
	args := argsReorder(os.Args[2:])
	configPath := configPathFromArgs(args, defaultConfigPath)

	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	_ = fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = load the model and catalog locally)")
	n := fs.Int("n", defaultTopNFromConfig(configPath), "number of recipes")
	mean := fs.Bool("mean", false, "use the plain mean of ingredient vectors instead of idf weighting")
	scores := fs.Bool("scores", false, "show similarity scores")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printRecommendUsage(fs) }
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ingredients := ingredientsFromArgs(fs.Args())
	if len(ingredients) == 0 {
		printRecommendUsage(fs)
		os.Exit(1)
	}
	query := models.RecommendQuery{
		Ingredients: ingredients,
		TopN:        *n,
		UseMean:     *mean,
		WithScores:  *scores,
	}

	var response *models.RecommendResponse
	if *serverURL != "" {
		response, err = recommendViaHTTP(*serverURL, query)
	} else {
		response, err = recommendLocally(configPath, query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func recommendLocally(configPath string, query models.RecommendQuery) (*models.RecommendResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := mustLogger(cfg, cfg.Debug)
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()
	return components.Engine.Recommend(ctx, query)
}

// recommendRequest mirrors the body accepted by POST /api/v1/recommend.
type recommendRequest struct {
	Ingredients []string `json:"ingredients"`
	Limit       int      `json:"limit"`
	Mean        bool     `json:"mean"`
	WithScores  bool     `json:"with_scores"`
}

func recommendViaHTTP(serverURL string, query models.RecommendQuery) (*models.RecommendResponse, error) {
	body, err := json.Marshal(recommendRequest{
		Ingredients: query.Ingredients,
		Limit:       query.TopN,
		Mean:        query.UseMean,
		WithScores:  query.WithScores,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/api/v1/recommend", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	from := fs.String("from", "", "CSV or XLSX file to import (default: catalog.path)")
	format := fs.String("format", "", "file format: csv, xlsx or auto (default: catalog.format)")
	sheet := fs.String("sheet", "", "XLSX sheet name (default: catalog.sheet, else the first sheet)")
	use := fs.Bool("use", false, "switch catalog.source to sqlite in the config file after importing")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := mustLogger(cfg, cfg.Debug)
	defer logger.Sync()

	path := cfg.Catalog.Path
	if *from != "" {
		abs, err := filepath.Abs(*from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid path: %v\n", err)
			os.Exit(1)
		}
		path = abs
	}
	fileFormat := cfg.Catalog.Format
	if *format != "" {
		fileFormat = *format
	}
	sheetName := cfg.Catalog.Sheet
	if *sheet != "" {
		sheetName = *sheet
	}

	summary, err := importCatalog(context.Background(), cfg, path, fileFormat, sheetName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	imp := summary.Import
	logger.Info("catalog imported",
		zap.String("import_id", imp.ID),
		zap.String("source", path),
		zap.Int("recipes", imp.Recipes),
		zap.Int64("replaced", summary.Replaced),
	)
	if prev := summary.Previous; prev != nil {
		fmt.Printf("Replaced %d recipes from %s (import %s)\n", summary.Replaced, prev.Source, prev.ID)
	}
	fmt.Printf("Imported %d recipes from %s into %s (import %s)\n", imp.Recipes, path, cfg.Storage.DatabasePath, imp.ID)

	if *use {
		if resolvedConfigPath == "" {
			fmt.Fprintln(os.Stderr, "No config file loaded; set catalog.source: sqlite (or RYORI_CATALOG_SOURCE=sqlite) yourself")
			os.Exit(1)
		}
		cfg.Catalog.Source = config.CatalogSourceSQLite
		if err := config.Save(resolvedConfigPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("catalog.source set to sqlite in %s\n", resolvedConfigPath)
	}
}

// importSummary reports what an import replaced and what it stored.
type importSummary struct {
	Import   *storage.Import
	Previous *storage.Import // nil when the database was empty
	Replaced int64
}

// importCatalog reads a catalog file and replaces the recipes in the configured database with it.
func importCatalog(ctx context.Context, cfg *config.Config, path, format, sheet string) (*importSummary, error) {
	src, err := catalog.NewFileSource(path, catalog.Format(format), sheet, cfg.Catalog.Columns)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	before, err := storage.Stats(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("read database stats: %w", err)
	}
	imp, err := db.ReplaceAll(ctx, cat.Recipes(), path)
	if err != nil {
		return nil, err
	}
	stored, err := db.CountRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stored recipes: %w", err)
	}
	if stored != int64(imp.Recipes) {
		return nil, fmt.Errorf("database holds %d recipes after importing %d", stored, imp.Recipes)
	}
	return &importSummary{Import: imp, Previous: before.LastImport, Replaced: before.Recipes}, nil
}

// statusResponse is the part of GET /api/v1/status the CLI renders.
type statusResponse struct {
	Engine         *recommend.Status     `json:"engine"`
	Database       *storage.CatalogStats `json:"database,omitempty"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for local mode)")
	serverURL := fs.String("server", "", "server URL (empty = load the model and catalog locally)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		status *recommend.Status
		db     *storage.CatalogStats
	)
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status, db = res.Engine, res.Database
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger := mustLogger(cfg, cfg.Debug)
		defer logger.Sync()
		components, err := initializeComponents(context.Background(), cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		status = components.Engine.Status()
		if components.Storage != nil {
			if db, err = storage.Stats(context.Background(), components.Storage); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to read catalog database: %v\n", err)
				os.Exit(1)
			}
		}
	}
	if status == nil {
		fmt.Fprintln(os.Stderr, "Status failed: empty response")
		os.Exit(1)
	}
	if err := cli.WriteStatus(os.Stdout, status, db, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func printUsage() {
	fmt.Println(`ryori - Recipe recommendations from the ingredients you have

Usage:
  ryori server [flags]                    Start the HTTP server
  ryori recommend [flags] <ingredients>   Recommend recipes for ingredients
  ryori import [flags]                    Import a CSV/XLSX catalog into SQLite
  ryori status [flags]                    Show catalog, vocabulary and snapshot status
  ryori version                           Show version
  ryori help                              Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/ryori/config.yaml)
  --debug            Enable debug logging

Recommend Flags:
  --config string    Config file path (local mode)
  --server string    Server URL; empty loads the model and catalog locally
  --n int            Number of recipes (default from recommend.default_top_n, or 5)
  --mean             Plain mean of ingredient vectors instead of idf weighting
  --scores           Show similarity scores
  --output string    Output format: text or json (default: text)

Import Flags:
  --config string    Config file path
  --from string      CSV or XLSX file (default: catalog.path)
  --format string    csv, xlsx or auto (default: catalog.format)
  --sheet string     XLSX sheet name
  --use              Set catalog.source to sqlite in the config file

Status Flags:
  --config string    Config file path (local mode)
  --server string    Server URL; empty loads locally
  --output string    Output format: text or json (default: text)

Environment:
  RYORI_* variables override config values, e.g. RYORI_SERVER_PORT=9000,
  RYORI_EMBEDDING_MODEL_PATH=./models/recipes.w2v, RYORI_CATALOG_SOURCE=sqlite.

Examples:
  ryori server
  ryori recommend onion tomato "green chilli"
  ryori recommend -mean -scores -n 10 "rice, urad dal"
  ryori import -from ./data/recipes.xlsx -use
  ryori status --output json`)
}
