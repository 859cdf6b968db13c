package ranking

import "fmt"

// Default sort directions.
const (
	SortDesc = "desc"
	SortAsc  = "asc"
)

// RankingConfig holds all configuration for the ranking system.
type RankingConfig struct {
	// DefaultSort is the price direction when no other signal applies.
	DefaultSort string `yaml:"default_sort"` // default: desc
	// PriceProximity ranks by distance from the price ceiling when one is given.
	PriceProximity bool `yaml:"price_proximity"` // default: false
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		DefaultSort: SortDesc,
	}
}

// ApplyDefaults fills zero values with defaults.
func (c *RankingConfig) ApplyDefaults() {
	if c.DefaultSort == "" {
		c.DefaultSort = SortDesc
	}
}

// Validate checks the configured direction.
func (c *RankingConfig) Validate() error {
	switch c.DefaultSort {
	case SortDesc, SortAsc:
		return nil
	default:
		return fmt.Errorf("invalid default_sort %q (want %q or %q)", c.DefaultSort, SortDesc, SortAsc)
	}
}
