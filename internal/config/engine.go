package config

import (
	"fmt"

	"github.com/hyperjump/vitrine/internal/fallback"
	"github.com/hyperjump/vitrine/internal/filter"
	"github.com/hyperjump/vitrine/internal/keyword"
	"github.com/hyperjump/vitrine/internal/matching"
	"github.com/hyperjump/vitrine/internal/ranking"
)

// EngineConfig holds every search tunable. Zero values are filled by ApplyDefaults.
type EngineConfig struct {
	YearPolicy    string   `yaml:"year_policy"`
	YearLookback  *int     `yaml:"year_lookback"`
	YearLookahead int      `yaml:"year_lookahead"`
	PriceStrategy string   `yaml:"price_strategy"`
	PriceSlack    *float64 `yaml:"price_slack"`
	MileagePolicy string   `yaml:"mileage_policy"`
	MileageMargin float64  `yaml:"mileage_margin"`
	DefaultSort   string   `yaml:"default_sort"`

	PageSize    int `yaml:"page_size"`
	MaxPageSize int `yaml:"max_page_size"`

	FuzzyThreshold      float64            `yaml:"fuzzy_threshold"`
	StrictThreshold     float64            `yaml:"strict_threshold"`
	FieldThresholds     map[string]float64 `yaml:"field_thresholds"`
	TypeThresholds      map[string]float64 `yaml:"type_thresholds"`
	StrictCategories    []string           `yaml:"strict_categories"`
	MaxFuzzyComparisons int                `yaml:"max_fuzzy_comparisons"`
	ExactFields         []string           `yaml:"exact_fields"`
	TextFields          []string           `yaml:"text_fields"`

	FallbackPriority []string                   `yaml:"fallback_priority"`
	ModelFields      []string                   `yaml:"model_fields"`
	CategoryField    string                     `yaml:"category_field"`
	RangeTactics     map[string]fallback.Tactic `yaml:"range_tactics"`

	// SuggestionLimit caps the did-you-mean list; 0 uses the default.
	SuggestionLimit int            `yaml:"suggestion_limit"`
	Spelling        SpellingConfig `yaml:"spelling"`
}

// SpellingConfig tunes the did-you-mean checker. Zero values use the defaults.
type SpellingConfig struct {
	MaxDistance    int `yaml:"max_distance"`
	MinFrequency   int `yaml:"min_frequency"`
	MaxSuggestions int `yaml:"max_suggestions"`
	MinTermLength  int `yaml:"min_term_length"`
}

// SpellChecker returns the spell checker options.
func (e *EngineConfig) SpellChecker() []keyword.SpellCheckerOption {
	s := e.Spelling
	return []keyword.SpellCheckerOption{
		keyword.WithMaxDistance(s.MaxDistance),
		keyword.WithMinFrequency(s.MinFrequency),
		keyword.WithMaxSuggestions(s.MaxSuggestions),
		keyword.WithMinTermLength(s.MinTermLength),
	}
}

// Matching returns the matcher configuration.
func (e *EngineConfig) Matching() matching.Config {
	return matching.Config{
		Threshold:           e.FuzzyThreshold,
		StrictThreshold:     e.StrictThreshold,
		FieldThresholds:     e.FieldThresholds,
		TypeThresholds:      e.TypeThresholds,
		StrictCategories:    e.StrictCategories,
		MaxFuzzyComparisons: e.MaxFuzzyComparisons,
	}
}

// Filter returns the filter engine configuration.
func (e *EngineConfig) Filter() filter.Config {
	cfg := filter.Config{
		YearPolicy:    e.YearPolicy,
		YearLookahead: e.YearLookahead,
		PriceStrategy: e.PriceStrategy,
		MileagePolicy: e.MileagePolicy,
		MileageMargin: e.MileageMargin,
		ExactFields:   e.ExactFields,
		TextFields:    e.TextFields,
	}
	if e.YearLookback != nil {
		cfg.YearLookback = *e.YearLookback
	}
	if e.PriceSlack != nil {
		cfg.PriceSlack = *e.PriceSlack
	}
	return cfg
}

// Ranking returns the ranking configuration. Price proximity follows the price strategy.
func (e *EngineConfig) Ranking() *ranking.RankingConfig {
	return &ranking.RankingConfig{
		DefaultSort:    e.DefaultSort,
		PriceProximity: e.PriceStrategy == filter.PriceProximity,
	}
}

// Fallback returns the relaxation configuration.
func (e *EngineConfig) Fallback() fallback.Config {
	return fallback.Config{
		Priority:      e.FallbackPriority,
		ModelFields:   e.ModelFields,
		CategoryField: e.CategoryField,
		RangeTactics:  e.RangeTactics,
	}
}

// Validate checks every derived component configuration.
func (e *EngineConfig) Validate() error {
	if err := e.Filter().Validate(); err != nil {
		return err
	}
	if err := e.Ranking().Validate(); err != nil {
		return err
	}
	if err := e.Fallback().Validate(); err != nil {
		return err
	}
	if e.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", e.PageSize)
	}
	if e.MaxPageSize > 0 && e.MaxPageSize < e.PageSize {
		return fmt.Errorf("max_page_size %d is below page_size %d", e.MaxPageSize, e.PageSize)
	}
	return nil
}
