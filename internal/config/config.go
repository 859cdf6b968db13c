// Package config provides configuration loading and structs for the Vitrine server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Reference ReferenceConfig `yaml:"reference"`
	Engine    EngineConfig    `yaml:"engine"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// FeedsConfig lists the inventory sources and how often they are refreshed.
type FeedsConfig struct {
	URLs []string `yaml:"urls"`
	// Directories are scanned for local feed files with one of Extensions.
	Directories     []string      `yaml:"directories"`
	Extensions      []string      `yaml:"extensions"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	// Watch re-ingests when a file under Directories changes.
	Watch     bool  `yaml:"watch"`
	Recursive *bool `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to scan directories recursively; defaults to true when unset.
func (f *FeedsConfig) RecursiveOrDefault() bool {
	if f.Recursive != nil {
		return *f.Recursive
	}
	return true
}

// ReferenceConfig points at an optional model/category table overriding the built-in one.
type ReferenceConfig struct {
	TablePath string `yaml:"table_path"`
}

// CacheConfig holds response cache settings. An empty RedisAddr selects the in-memory cache.
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPassword  string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	TTL            time.Duration `yaml:"ttl"`
	MemoryCapacity int           `yaml:"memory_capacity"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnabledOrDefault returns whether metrics are exposed; defaults to true when unset.
func (m *MetricsConfig) EnabledOrDefault() bool {
	if m.Enabled != nil {
		return *m.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, merges feed
// URLs from the environment and a .env file next to the config, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	env, err := readEnv(filepath.Join(configDir, ".env"))
	if err != nil {
		return nil, err
	}
	cfg.Feeds.URLs = mergeURLs(cfg.Feeds.URLs, FeedURLsFromEnv(env))

	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Reference.TablePath != "" {
		cfg.Reference.TablePath = expandPath(cfg.Reference.TablePath, configDir)
	}
	for i := range cfg.Feeds.Directories {
		cfg.Feeds.Directories[i] = expandPath(cfg.Feeds.Directories[i], configDir)
	}

	if err := cfg.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to path.
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

// readEnv returns the .env file entries overlaid with the process environment.
// A missing file is not an error.
func readEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		env = map[string]string{}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}

// feedEnvPrefixes are the variable name prefixes that carry feed URLs.
var feedEnvPrefixes = []string{"FEED_URL", "XML_URL", "JSON_URL"}

// FeedURLsFromEnv returns the non-empty values of every FEED_URL*, XML_URL* or
// JSON_URL* variable, ordered by variable name.
func FeedURLsFromEnv(env map[string]string) []string {
	names := make([]string, 0)
	for name, value := range env {
		if strings.TrimSpace(value) == "" {
			continue
		}
		for _, p := range feedEnvPrefixes {
			if strings.HasPrefix(name, p) {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	urls := make([]string, 0, len(names))
	for _, name := range names {
		urls = append(urls, strings.TrimSpace(env[name]))
	}
	return urls
}

func mergeURLs(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, u := range append(append([]string{}, base...), extra...) {
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
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
