package fallback

import (
	"fmt"

	"github.com/hyperjump/vitrine/internal/models"
)

// Range relaxation tactics.
const (
	TacticRemove = "remove"
	TacticWiden  = "widen"
)

// Tactic describes how one range constraint is relaxed.
type Tactic struct {
	Mode string `yaml:"mode"` // remove | widen
	// Step is added to the range (subtracted for EstoqueMin) per widening attempt.
	Step        float64 `yaml:"step"`
	MaxAttempts int     `yaml:"max_attempts"`
}

// Config holds the relaxation order and tactics.
type Config struct {
	// Priority lists filter keys and range tokens, least important first.
	// Constraints not listed are never relaxed.
	Priority []string `yaml:"priority"`
	// ModelFields are the free-text fields exempt from the single-filter guard
	// and eligible for a model-to-category remap, in lookup order.
	ModelFields   []string          `yaml:"model_fields"`
	CategoryField string            `yaml:"category_field"`
	RangeTactics  map[string]Tactic `yaml:"range_tactics"`
}

// DefaultConfig returns the default relaxation order for vehicle catalogs.
func DefaultConfig() Config {
	return Config{
		Priority: []string{
			"observacao", "opcionais", "complemento", "cor", "versao", "titulo", "categorias",
			models.RangeStock, models.RangeDisplacement, models.RangeMileage,
			"portas", "motor", "cambio", "combustivel",
			models.RangeYear,
			"categoria",
			models.RangePrice,
			"tipo", "marca", "nome", "modelo",
		},
		ModelFields:   []string{"modelo", "nome"},
		CategoryField: "categoria",
		RangeTactics: map[string]Tactic{
			models.RangePrice: {Mode: TacticWiden, Step: 10000, MaxAttempts: 3},
		},
	}
}

// Validate checks tactic definitions.
func (c Config) Validate() error {
	for key, t := range c.RangeTactics {
		if !models.IsRangeKey(key) {
			return fmt.Errorf("range_tactics: unknown range %q", key)
		}
		switch t.Mode {
		case TacticRemove:
		case TacticWiden:
			if t.Step <= 0 || t.MaxAttempts <= 0 {
				return fmt.Errorf("range_tactics.%s: widen needs a positive step and max_attempts", key)
			}
			if key == models.RangeDisplacement {
				return fmt.Errorf("range_tactics.%s: displacement cannot be widened", key)
			}
		default:
			return fmt.Errorf("range_tactics.%s: invalid mode %q", key, t.Mode)
		}
	}
	if c.CategoryField == "" && len(c.ModelFields) > 0 {
		return fmt.Errorf("category_field is required when model_fields are set")
	}
	return nil
}
