// Package main is the Vitrine CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vitrine/internal/cache"
	"github.com/hyperjump/vitrine/internal/cli"
	"github.com/hyperjump/vitrine/internal/config"
	"github.com/hyperjump/vitrine/internal/ingest"
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/observability"
	"github.com/hyperjump/vitrine/internal/reference"
	"github.com/hyperjump/vitrine/internal/search"
	"github.com/hyperjump/vitrine/internal/server"
	"github.com/hyperjump/vitrine/internal/snapshot"
	"github.com/hyperjump/vitrine/internal/storage"
	"github.com/hyperjump/vitrine/internal/watcher"
	"github.com/hyperjump/vitrine/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/vitrine/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
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
	case "search":
		runSearch()
	case "ingest":
		runIngest()
	case "refresh":
		runRefresh()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("vitrine version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (feed changes, ingestion, search traces)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Int("feed_urls", len(cfg.Feeds.URLs)),
		zap.Strings("feed_directories", cfg.Feeds.Directories),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if n, err := components.Ingester.LoadStored(ctx); err != nil {
		logger.Warn("stored records not loaded", zap.Error(err))
	} else if n > 0 {
		logger.Info("serving stored records until the first refresh", zap.Int("records", n))
	}

	refresher := ingest.NewRefresher(components.Ingester, cfg.Feeds.RefreshInterval, logger)
	refresher.Start(ctx, true)
	defer refresher.Stop()

	if cfg.Feeds.Watch && len(cfg.Feeds.Directories) > 0 {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Feeds.Directories,
			cfg.Feeds.Extensions,
			cfg.Feeds.RecursiveOrDefault(),
			func(path string) {
				logger.Info("feed changed, scheduling refresh", zap.String("path", path))
				refresher.Trigger()
			},
			watchOpts...,
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		logger.Info("Watching feed directories", zap.Strings("directories", watchSvc.Directories()))
		defer watchSvc.Stop()
	}

	srv := server.NewServer(
		components.Engine,
		components.Storage,
		components.Store,
		cfg,
		logger,
		server.WithMetrics(components.Metrics),
		server.WithRefresher(refresher),
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: vitrine search [flags] [key=value ...]\n\n")
	fmt.Fprintf(fs.Output(), "Each argument is one search parameter, exactly as accepted by GET /api/data.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Parameters:
  marca, modelo, categoria, cambio, combustivel, cor, ...   attribute filters (comma = any of)
  ValorMax, AnoMax, KmMax, CcMax                            range limits
  id=<id or codigo>                                         direct lookup
  excluir=<id,id>                                           ids to leave out
  simples=1                                                 trimmed records

Examples:
  vitrine search marca=toyota ValorMax=130000
  vitrine search modelo=onix,hb20 cambio=automatico --limit 3
  vitrine search id=ONX-1 simples=1
  vitrine search --server "" categoria=suv          # read the stored inventory directly
`)
}

// searchArgsReorder moves any flags (and their values) that appear after the
// parameters to the front of the slice so that flag.Parse() sees them. Go's
// flag package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
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

// parseParams turns key=value arguments into search parameters. Later keys
// override earlier ones.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: want key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}

func parseFormat(s string) (cli.OutputFormat, error) {
	switch s {
	case "text":
		return cli.OutputText, nil
	case "json":
		return cli.OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = search the stored inventory directly)")
	limit := fs.Int("limit", 0, "number of results (0 = server default)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format, err := parseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	params, err := parseParams(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printSearchUsage(fs)
		os.Exit(1)
	}
	if *limit > 0 {
		params[models.ParamLimit] = fmt.Sprint(*limit)
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, params)
	} else {
		response, err = searchDirect(*configPath, params)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// searchDirect answers from the records persisted by the last ingestion, for
// when the server is not running.
func searchDirect(configPath string, params map[string]string) (*models.SearchResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	ctx := context.Background()
	if _, err := components.Ingester.LoadStored(ctx); err != nil {
		return nil, err
	}
	return components.Engine.Search(ctx, models.QueryFromParams(params))
}

// dataResponse mirrors the body of GET /api/data.
type dataResponse struct {
	Results    []models.Record `json:"resultados"`
	TotalFound int             `json:"total_encontrado"`
	Fallback   *struct {
		RemovedFilters []string              `json:"removed_filters"`
		CategoryRemap  *models.CategoryRemap `json:"category_remap"`
	} `json:"fallback"`
	Error       string         `json:"error"`
	Suggestions []string       `json:"sugestoes"`
	State       string         `json:"estado"`
	Policy      *models.Policy `json:"politica"`
}

func (d *dataResponse) searchResponse(elapsed time.Duration) *models.SearchResponse {
	resp := &models.SearchResponse{
		Items:              d.Results,
		TotalFound:         d.TotalFound,
		RelaxationsApplied: []string{},
		State:              d.State,
		Suggestions:        d.Suggestions,
		Policy:             d.Policy,
		QueryTime:          elapsed.Milliseconds(),
	}
	if d.Fallback != nil {
		resp.RelaxationsApplied = d.Fallback.RemovedFilters
		resp.CategoryRemap = d.Fallback.CategoryRemap
	}
	return resp
}

func searchViaHTTP(serverURL string, params map[string]string) (*models.SearchResponse, error) {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	start := time.Now()
	resp, err := http.Get(serverURL + "/api/data?" + values.Encode())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var data dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return data.searchResponse(time.Since(start)), nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	report, err := components.Ingester.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteIngestReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRefresh() {
	fs := flag.NewFlagSet("refresh", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Post(*serverURL+"/api/refresh", "application/json", nil)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Refresh failed (%d): %s\n", resp.StatusCode, strings.TrimSpace(string(b)))
		os.Exit(1)
	}
	fmt.Println("Refresh scheduled")
}

// statusResponse is the shape of GET /api/status.
type statusResponse struct {
	LastUpdate    *models.UpdateStatus `json:"last_update"`
	StoredRecords int64                `json:"stored_records"`
	Snapshot      *snapshotStatus      `json:"snapshot"`
	DataFile      *dataFileStatus      `json:"data_file,omitempty"`
}

type snapshotStatus struct {
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Records  int       `json:"records"`
}

type dataFileStatus struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := parseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status *statusResponse
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		status, err = statusDirect(*configPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if err := writeStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func writeStatus(w io.Writer, status *statusResponse, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	if last := status.LastUpdate; last != nil {
		fmt.Fprintf(w, "last_update:     %s   # success=%t\n", last.Timestamp.Format(time.RFC3339), last.Success)
		fmt.Fprintf(w, "message:         %s\n", last.Message)
	} else {
		fmt.Fprintln(w, "last_update:     never")
	}
	fmt.Fprintf(w, "stored_records:  %d   # records persisted by the last successful run\n", status.StoredRecords)
	if snap := status.Snapshot; snap != nil {
		fmt.Fprintf(w, "snapshot:        %s   # %d records, loaded %s\n", snap.Version, snap.Records, snap.LoadedAt.Format(time.RFC3339))
	}
	if df := status.DataFile; df != nil {
		fmt.Fprintf(w, "data_file:       %s   # %d bytes\n", df.Path, df.SizeBytes)
	}
	return nil
}

func statusDirect(configPath string) (*statusResponse, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	status := &statusResponse{}
	last, err := st.LatestStatus(ctx)
	switch {
	case err == nil:
		status.LastUpdate = last
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	if status.StoredRecords, err = st.CountRecords(ctx); err != nil {
		return nil, err
	}
	if size, err := storage.DatabaseSize(cfg.Storage.DatabasePath); err == nil {
		status.DataFile = &dataFileStatus{Path: cfg.Storage.DatabasePath, SizeBytes: size}
	}
	return status, nil
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/status")
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

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Store    *snapshot.Store
	Table    *reference.Table
	Metrics  *observability.Metrics
	Cache    cache.Client
	Engine   *search.Engine
	Ingester *ingest.Ingester
}

func (c *Components) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// newCache returns the configured response cache, or nil when caching is off.
// An unreachable Redis falls back to the in-memory cache.
func newCache(cfg *config.CacheConfig, logger *zap.Logger) cache.Client {
	if !cfg.Enabled {
		return nil
	}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err == nil {
			logger.Info("response cache: redis", zap.String("addr", cfg.RedisAddr))
			return client
		}
		logger.Warn("redis unavailable, falling back to memory cache",
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err))
	}
	logger.Info("response cache: memory", zap.Int("capacity", cfg.MemoryCapacity))
	return cache.NewMemoryClient(cfg.MemoryCapacity)
}

// initializeComponents wires storage, the reference table, the engine and the
// ingester. The response cache is only attached for long-running processes.
func initializeComponents(cfg *config.Config, logger *zap.Logger, withCache bool) (*Components, error) {
	st, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: st, Store: snapshot.NewStore(), Metrics: observability.NewMetrics()}

	table, err := reference.LoadOrDefault(cfg.Reference.TablePath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load reference table: %w", err)
	}
	c.Table = table
	logger.Info("reference table loaded",
		zap.String("path", cfg.Reference.TablePath),
		zap.Int("models", table.Len()))

	engineOpts := []search.Option{search.WithLogger(logger), search.WithMetrics(c.Metrics)}
	if withCache {
		if c.Cache = newCache(&cfg.Cache, logger); c.Cache != nil {
			engineOpts = append(engineOpts, search.WithCache(c.Cache, cfg.Cache.TTL))
		}
	}
	engine, err := search.NewEngineFromConfig(&cfg.Engine, c.Store, table, engineOpts...)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	c.Engine = engine

	c.Ingester = ingest.NewIngester(&cfg.Feeds, st, c.Store, table,
		ingest.WithLogger(logger),
		ingest.WithMetrics(c.Metrics),
	)
	return c, nil
}

func printUsage() {
	fmt.Println(`vitrine - Inventory search service for vehicle and product feeds

Usage:
  vitrine server [flags]                 Start the HTTP server
  vitrine search [flags] [key=value...]  Search the inventory
  vitrine ingest [flags]                 Fetch every feed once and store the result
  vitrine refresh [flags]                Ask a running server to re-ingest now
  vitrine status [flags]                 Show ingestion and storage status
  vitrine version                        Show version
  vitrine help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/vitrine/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to search the stored inventory directly.
  --limit int        Number of results (default: server page size)
  --output string    Output format: text or json (default: text)

Ingest Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to read storage directly.
  --output string    Output format: text or json (default: text)

Examples:
  vitrine server
  vitrine search marca=toyota ValorMax=130000
  vitrine search --output json modelo=onix simples=1
  vitrine ingest
  vitrine refresh
  vitrine status --output json`)
}
