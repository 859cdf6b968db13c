package matching

import (
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/pkg/utils"
)

// Config holds the matcher thresholds. Thresholds are on the 0-100 similarity scale.
type Config struct {
	Threshold       float64 `yaml:"fuzzy_threshold"`  // default: 85
	StrictThreshold float64 `yaml:"strict_threshold"` // default: 95
	// FieldThresholds overrides Threshold per record attribute.
	FieldThresholds map[string]float64 `yaml:"field_thresholds"`
	// TypeThresholds overrides Threshold per record "tipo" (carro, moto, ...).
	TypeThresholds map[string]float64 `yaml:"type_thresholds"`
	// StrictCategories lists categories whose naming is unreliable; records in
	// them require every query word to match.
	StrictCategories    []string `yaml:"strict_categories"`
	MaxFuzzyComparisons int      `yaml:"max_fuzzy_comparisons"` // default: 0 (unlimited)
}

// DefaultConfig returns the default matcher configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:       85,
		StrictThreshold: 95,
	}
}

// Matcher applies the cascade to record fields with per-field and per-type
// thresholds. A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	cfg    Config
	fields map[string]float64
	types  map[string]float64
	strict map[string]struct{}
}

// New creates a Matcher. Zero thresholds fall back to the defaults.
func New(cfg Config) *Matcher {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.StrictThreshold <= 0 {
		cfg.StrictThreshold = def.StrictThreshold
	}
	m := &Matcher{
		cfg:    cfg,
		fields: make(map[string]float64, len(cfg.FieldThresholds)),
		types:  make(map[string]float64, len(cfg.TypeThresholds)),
		strict: make(map[string]struct{}, len(cfg.StrictCategories)),
	}
	for k, v := range cfg.FieldThresholds {
		m.fields[utils.Normalize(k)] = v
	}
	for k, v := range cfg.TypeThresholds {
		m.types[utils.Normalize(k)] = v
	}
	for _, c := range cfg.StrictCategories {
		if n := utils.Normalize(c); n != "" {
			m.strict[n] = struct{}{}
		}
	}
	return m
}

// Config returns the effective configuration.
func (m *Matcher) Config() Config {
	return m.cfg
}

// ThresholdFor returns the fuzzy threshold for field on a record of the given
// type. A field override wins over a type override.
func (m *Matcher) ThresholdFor(field, recordType string) float64 {
	if v, ok := m.fields[utils.Normalize(field)]; ok {
		return v
	}
	if v, ok := m.types[utils.Normalize(recordType)]; ok {
		return v
	}
	return m.cfg.Threshold
}

// ModeFor returns ModeStrict when rec belongs to a strict category.
func (m *Matcher) ModeFor(rec models.Record) Mode {
	if len(m.strict) == 0 {
		return ModeFlexible
	}
	for _, field := range []string{models.FieldCategoria, models.FieldCategorias} {
		for _, c := range utils.SplitMultiValue(rec.String(field)) {
			if _, ok := m.strict[utils.Normalize(c)]; ok {
				return ModeStrict
			}
		}
	}
	return ModeFlexible
}

// MatchField matches words against rec[field].
func (m *Matcher) MatchField(words []string, rec models.Record, field string) Result {
	mode := m.ModeFor(rec)
	threshold := m.ThresholdFor(field, rec.String(models.FieldTipo))
	if mode == ModeStrict {
		threshold = max(threshold, m.cfg.StrictThreshold)
	}
	return Match(words, rec.String(field), Options{
		Mode:                mode,
		Threshold:           threshold,
		MaxFuzzyComparisons: m.cfg.MaxFuzzyComparisons,
	})
}
