package models

// Search outcome states.
const (
	StateSuccess   = "success"
	StateExhausted = "exhausted"
	StateLookup    = "lookup"
	StateCatalog   = "catalog"
)

// CategoryRemap records a model query that was replaced by the category it belongs to.
type CategoryRemap struct {
	Original string `json:"original"`
	Mapped   string `json:"mapped"`
}

// Policy reports the range semantics that were active for a search.
type Policy struct {
	YearPolicy    string  `json:"year_policy"`
	PriceStrategy string  `json:"price_strategy"`
	PriceSlack    float64 `json:"price_slack"`
	MileagePolicy string  `json:"mileage_policy"`
	DefaultSort   string  `json:"default_sort"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Items []Record `json:"items"`
	// TotalFound is the uncapped number of matches.
	TotalFound int `json:"total_found"`
	// RelaxationsApplied lists, in order, the constraints removed or widened
	// before results were found (or before giving up).
	RelaxationsApplied []string       `json:"relaxations_applied"`
	CategoryRemap      *CategoryRemap `json:"used_category_remap,omitempty"`
	State              string         `json:"state"`
	// Suggestions holds "did you mean" corrections when nothing was found.
	Suggestions []string `json:"suggestions,omitempty"`
	Policy      *Policy  `json:"policy,omitempty"`
	QueryTime   int64    `json:"query_time_ms"`
}
