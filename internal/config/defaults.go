package config

import (
	"time"

	"github.com/hyperjump/vitrine/internal/fallback"
	"github.com/hyperjump/vitrine/internal/filter"
	"github.com/hyperjump/vitrine/internal/matching"
	"github.com/hyperjump/vitrine/internal/ranking"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/vitrine/data/db/records.db"
	}
	if cfg.Feeds.Extensions == nil {
		cfg.Feeds.Extensions = []string{".json", ".xml", ".xlsx"}
	}
	if cfg.Feeds.RefreshInterval == 0 {
		cfg.Feeds.RefreshInterval = 2 * time.Hour
	}
	if cfg.Feeds.HTTPTimeout == 0 {
		cfg.Feeds.HTTPTimeout = 30 * time.Second
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Feeds.Directories) > 0 && cfg.Feeds.Recursive == nil {
		t := true
		cfg.Feeds.Recursive = &t
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 10 * time.Minute
	}
	if cfg.Cache.MemoryCapacity == 0 {
		cfg.Cache.MemoryCapacity = 1000
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	applyEngineDefaults(&cfg.Engine)
}

func applyEngineDefaults(e *EngineConfig) {
	fd := filter.DefaultConfig()
	if e.YearPolicy == "" {
		e.YearPolicy = fd.YearPolicy
	}
	if e.YearLookback == nil {
		n := fd.YearLookback
		e.YearLookback = &n
	}
	if e.PriceStrategy == "" {
		e.PriceStrategy = fd.PriceStrategy
	}
	if e.PriceSlack == nil {
		s := fd.PriceSlack
		e.PriceSlack = &s
	}
	if e.MileagePolicy == "" {
		e.MileagePolicy = fd.MileagePolicy
	}
	if e.MileageMargin == 0 {
		e.MileageMargin = fd.MileageMargin
	}
	if e.ExactFields == nil {
		e.ExactFields = fd.ExactFields
	}
	if e.TextFields == nil {
		e.TextFields = fd.TextFields
	}

	if e.DefaultSort == "" {
		e.DefaultSort = ranking.DefaultRankingConfig().DefaultSort
	}
	if e.PageSize == 0 {
		e.PageSize = 6
	}
	if e.MaxPageSize == 0 {
		e.MaxPageSize = 100
	}

	md := matching.DefaultConfig()
	if e.FuzzyThreshold == 0 {
		e.FuzzyThreshold = md.Threshold
	}
	if e.StrictThreshold == 0 {
		e.StrictThreshold = md.StrictThreshold
	}

	bd := fallback.DefaultConfig()
	if e.FallbackPriority == nil {
		e.FallbackPriority = bd.Priority
	}
	if e.ModelFields == nil {
		e.ModelFields = bd.ModelFields
	}
	if e.CategoryField == "" {
		e.CategoryField = bd.CategoryField
	}
	if e.RangeTactics == nil {
		e.RangeTactics = bd.RangeTactics
	}
	if e.SuggestionLimit == 0 {
		e.SuggestionLimit = 3
	}
	if e.Spelling.MaxDistance == 0 {
		e.Spelling.MaxDistance = 2
	}
	if e.Spelling.MinFrequency == 0 {
		e.Spelling.MinFrequency = 1
	}
	if e.Spelling.MaxSuggestions == 0 {
		e.Spelling.MaxSuggestions = 5
	}
	if e.Spelling.MinTermLength == 0 {
		e.Spelling.MinTermLength = 3
	}
}
