// Package filter applies categorical, free-text and numeric range constraints
// to a record collection.
package filter

import "fmt"

// Year policies.
const (
	YearWindow  = "window"
	YearCeiling = "ceiling"
)

// Price strategies.
const (
	PriceSlack     = "slack"
	PriceProximity = "proximity"
)

// Mileage policies.
const (
	MileageCeiling = "ceiling"
	MileageWindow  = "window"
)

// Config holds the range semantics. Only one mechanism per range is active.
type Config struct {
	YearPolicy    string  `yaml:"year_policy"`    // default: window
	YearLookback  int     `yaml:"year_lookback"`  // default: 3
	YearLookahead int     `yaml:"year_lookahead"` // default: 0
	PriceStrategy string  `yaml:"price_strategy"` // default: slack
	PriceSlack    float64 `yaml:"price_slack"`    // default: 0.2
	MileagePolicy string  `yaml:"mileage_policy"` // default: ceiling
	MileageMargin float64 `yaml:"mileage_margin"` // default: 30000

	// ExactFields and TextFields classify filter keys. Keys in neither list are
	// compared exactly.
	ExactFields []string `yaml:"exact_fields"`
	TextFields  []string `yaml:"text_fields"`
}

// DefaultConfig returns the default filter configuration.
func DefaultConfig() Config {
	return Config{
		YearPolicy:    YearWindow,
		YearLookback:  3,
		YearLookahead: 0,
		PriceStrategy: PriceSlack,
		PriceSlack:    0.2,
		MileagePolicy: MileageCeiling,
		MileageMargin: 30000,
		ExactFields: []string{
			"tipo", "marca", "categoria", "cambio", "combustivel",
			"motor", "portas", "codigo", "gtin",
		},
		TextFields: []string{
			"modelo", "titulo", "versao", "nome", "cor", "opcionais",
			"observacao", "complemento", "categorias",
		},
	}
}

// Validate checks the policy names and numeric bounds.
func (c Config) Validate() error {
	switch c.YearPolicy {
	case YearWindow, YearCeiling:
	default:
		return fmt.Errorf("invalid year_policy %q (want %q or %q)", c.YearPolicy, YearWindow, YearCeiling)
	}
	switch c.PriceStrategy {
	case PriceSlack, PriceProximity:
	default:
		return fmt.Errorf("invalid price_strategy %q (want %q or %q)", c.PriceStrategy, PriceSlack, PriceProximity)
	}
	switch c.MileagePolicy {
	case MileageCeiling, MileageWindow:
	default:
		return fmt.Errorf("invalid mileage_policy %q (want %q or %q)", c.MileagePolicy, MileageCeiling, MileageWindow)
	}
	if c.PriceSlack < 0 || c.PriceSlack > 1 {
		return fmt.Errorf("price_slack must be between 0 and 1, got %v", c.PriceSlack)
	}
	if c.YearLookback < 0 || c.YearLookahead < 0 {
		return fmt.Errorf("year window must not be negative")
	}
	if c.MileageMargin < 0 {
		return fmt.Errorf("mileage_margin must not be negative, got %v", c.MileageMargin)
	}
	return nil
}
