package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/vitrine/internal/fallback"
	"github.com/hyperjump/vitrine/internal/filter"
	"github.com/hyperjump/vitrine/internal/keyword"
	"github.com/hyperjump/vitrine/internal/models"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
feeds:
  urls: ["https://example.com/stock.xml"]
  refresh_interval: 30m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Feeds.RefreshInterval != 30*time.Minute {
		t.Errorf("refresh_interval: got %v", cfg.Feeds.RefreshInterval)
	}
	if len(cfg.Feeds.URLs) == 0 || cfg.Feeds.URLs[0] != "https://example.com/stock.xml" {
		t.Errorf("feed urls: got %v", cfg.Feeds.URLs)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
debug: true
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
storage:
  database_path: "./data/db/records.db"
reference:
  table_path: "./reference.yaml"
feeds:
  directories: ["./feeds"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "records.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if cfg.Reference.TablePath != filepath.Join(dir, "reference.yaml") {
		t.Errorf("table_path = %s", cfg.Reference.TablePath)
	}
	if len(cfg.Feeds.Directories) != 1 || cfg.Feeds.Directories[0] != filepath.Join(dir, "feeds") {
		t.Errorf("feed directories: got %v", cfg.Feeds.Directories)
	}
}

func TestLoad_envFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("FEED_URL_B=https://b.example/feed.json\nXML_URL=https://a.example/stock.xml\nOTHER=x\n"), 0600); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, dir, `
storage:
  database_path: "test.db"
feeds:
  urls: ["https://a.example/stock.xml"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"https://a.example/stock.xml", "https://b.example/feed.json"}
	if len(cfg.Feeds.URLs) < len(want) {
		t.Fatalf("feed urls: got %v", cfg.Feeds.URLs)
	}
	for i, u := range want {
		if cfg.Feeds.URLs[i] != u {
			t.Errorf("feed url %d = %s, want %s", i, cfg.Feeds.URLs[i], u)
		}
	}
}

func TestLoad_invalidEngine(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
storage:
  database_path: "test.db"
engine:
  year_policy: "sometimes"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown year_policy")
	}
}

func TestLoad_zeroValuesKept(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
storage:
  database_path: "test.db"
engine:
  price_slack: 0
  year_lookback: 0
  range_tactics:
    ValorMax: {mode: remove}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Engine.Filter(); got.PriceSlack != 0 || got.YearLookback != 0 {
		t.Errorf("explicit zeros should survive defaults: %+v", got)
	}
	if cfg.Engine.Fallback().RangeTactics[models.RangePrice].Mode != fallback.TacticRemove {
		t.Errorf("range tactic: got %+v", cfg.Engine.RangeTactics)
	}
}

func TestFeedURLsFromEnv(t *testing.T) {
	env := map[string]string{
		"JSON_URL_2": "https://j2",
		"JSON_URL_1": "https://j1",
		"FEED_URL":   " https://f ",
		"XML_URL_3":  "",
		"PATH":       "/bin",
	}
	got := FeedURLsFromEnv(env)
	want := []string{"https://f", "https://j1", "https://j2"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Engine.PageSize != 6 {
		t.Errorf("default page size: got %d", cfg.Engine.PageSize)
	}
	if cfg.Engine.YearPolicy != filter.YearWindow || *cfg.Engine.YearLookback != 3 {
		t.Errorf("default year policy: got %s/%d", cfg.Engine.YearPolicy, *cfg.Engine.YearLookback)
	}
	if *cfg.Engine.PriceSlack != 0.2 {
		t.Errorf("default price slack: got %v", *cfg.Engine.PriceSlack)
	}
	if cfg.Engine.DefaultSort != "desc" {
		t.Errorf("default sort: got %s", cfg.Engine.DefaultSort)
	}
	if len(cfg.Feeds.Extensions) != 3 || cfg.Feeds.Extensions[0] != ".json" {
		t.Errorf("feed extensions: got %v", cfg.Feeds.Extensions)
	}
	if !cfg.Metrics.EnabledOrDefault() || cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics defaults: got %+v", cfg.Metrics)
	}
	if err := cfg.Engine.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_RecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Feeds: FeedsConfig{Directories: []string{"/tmp/feeds"}}}
	ApplyDefaults(cfg)
	if cfg.Feeds.Recursive == nil || !*cfg.Feeds.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestFeedsConfig_RecursiveOrDefault(t *testing.T) {
	var f FeedsConfig
	if !f.RecursiveOrDefault() {
		t.Error("unset recursive should default to true")
	}
	no := false
	f.Recursive = &no
	if f.RecursiveOrDefault() {
		t.Error("explicit false should be honored")
	}
}

func TestEngineConfig_RankingFollowsPriceStrategy(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{PriceStrategy: filter.PriceProximity}}
	ApplyDefaults(cfg)
	if !cfg.Engine.Ranking().PriceProximity {
		t.Error("proximity strategy should enable price proximity ranking")
	}
}

func TestEngineConfig_SpellChecker(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{Spelling: SpellingConfig{MaxDistance: 1}}}
	ApplyDefaults(cfg)
	want := SpellingConfig{MaxDistance: 1, MinFrequency: 1, MaxSuggestions: 5, MinTermLength: 3}
	if cfg.Engine.Spelling != want {
		t.Errorf("spelling defaults: got %+v, want %+v", cfg.Engine.Spelling, want)
	}

	vocab := keyword.NewVocabulary([]string{"Corolla"})
	sc := keyword.NewSpellChecker(vocab, cfg.Engine.SpellChecker()...)
	if got := sc.GetTopSuggestions("corola", 1); len(got) != 1 || got[0] != "corolla" {
		t.Errorf("one edit away: got %v", got)
	}
	if got := sc.GetTopSuggestions("corlola", 1); len(got) != 0 {
		t.Errorf("max_distance 1 should reject two edits: got %v", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	ApplyDefaults(cfg)
	path := filepath.Join(dir, "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Engine.PageSize != cfg.Engine.PageSize || loaded.Server.Port != cfg.Server.Port {
		t.Errorf("round trip mismatch: %+v", loaded.Engine)
	}
}
