// Package ranking orders filtered records with a priority-ordered comparator.
package ranking

import "github.com/hyperjump/vitrine/internal/models"

// SortKey is one level of the comparator chain.
type SortKey int

const (
	// SortDisplacement orders by distance from the displacement target.
	SortDisplacement SortKey = iota
	// SortPriceProximity orders by distance from the price ceiling.
	SortPriceProximity
	// SortMileage orders by raw mileage, smallest first.
	SortMileage
	// SortRelevance orders by matched words, then match quality, then price.
	SortRelevance
	// SortPrice orders by price in the configured default direction.
	SortPrice
)

// String returns a string representation of the sort key.
func (k SortKey) String() string {
	switch k {
	case SortDisplacement:
		return "displacement_proximity"
	case SortPriceProximity:
		return "price_proximity"
	case SortMileage:
		return "mileage"
	case SortRelevance:
		return "relevance"
	case SortPrice:
		return "price"
	default:
		return "unknown"
	}
}

// Context carries the request state that selects the active sort keys.
type Context struct {
	Ranges models.Ranges
	// TextActive is true when a free-text filter contributed relevance.
	TextActive bool
}

// ScoreBreakdown exposes the values a record was sorted by.
type ScoreBreakdown struct {
	Price        float64
	HasPrice     bool
	Mileage      float64
	HasMileage   bool
	Displacement float64
	HasCC        bool
	MatchedWords int
	Relevance    float64
}
