package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/vitrine/pkg/utils"
)

// Range tokens. These are the caller-facing parameter names and also the tokens
// recorded in a relaxation trace when the constraint is removed.
const (
	RangePrice        = "ValorMax"
	RangeYear         = "AnoMax"
	RangeMileage      = "KmMax"
	RangeDisplacement = "CcMax"
	RangeStock        = "EstoqueMin"
)

// ExpandedSuffix marks a range that was widened rather than removed.
const ExpandedSuffix = "_expandido"

// RangeKeys lists every range token in canonical order.
var RangeKeys = []string{RangePrice, RangeYear, RangeMileage, RangeDisplacement, RangeStock}

// rangeAliases maps accepted parameter spellings to canonical range tokens.
var rangeAliases = map[string]string{
	"valormax":   RangePrice,
	"precomax":   RangePrice,
	"anomax":     RangeYear,
	"kmmax":      RangeMileage,
	"ccmax":      RangeDisplacement,
	"estoquemin": RangeStock,
}

// CanonicalRangeKey returns the range token for a parameter name, or "" if the
// name is not a range parameter.
func CanonicalRangeKey(name string) string {
	return rangeAliases[strings.ToLower(strings.TrimSpace(name))]
}

// Filters maps a record attribute to a filter value. A value may list
// comma-separated alternatives. Empty values are no-ops.
type Filters map[string]string

// Active returns the keys with a non-empty value, sorted.
func (f Filters) Active() []string {
	keys := make([]string, 0, len(f))
	for k, v := range f {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Without returns a copy of f with key removed.
func (f Filters) Without(key string) Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// With returns a copy of f with key set to value.
func (f Filters) With(key, value string) Filters {
	out := f.Without(key)
	out[key] = value
	return out
}

// Ranges holds the numeric constraints of a query. A nil field is inactive.
type Ranges struct {
	PriceCeiling       *float64 `json:"price_ceiling,omitempty"`
	YearCeiling        *float64 `json:"year_ceiling,omitempty"`
	MileageCeiling     *float64 `json:"mileage_ceiling,omitempty"`
	DisplacementTarget *float64 `json:"displacement_target,omitempty"`
	StockMin           *float64 `json:"stock_min,omitempty"`
}

// ParseRanges converts raw range parameters into Ranges. Keys are matched through
// CanonicalRangeKey. A value listing several numbers ("50000,70000") uses the
// largest. Malformed values leave the range inactive. When two spellings name
// the same range, the lexically last parameter name wins. A displacement target
// given in liters ("1.6") is converted to cc.
func ParseRanges(raw map[string]string) Ranges {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	var r Ranges
	for _, name := range names {
		value := raw[name]
		key := CanonicalRangeKey(name)
		if key == "" {
			continue
		}
		v, ok := maxValue(key, value)
		if !ok {
			continue
		}
		if key == RangeDisplacement {
			if v <= 0 {
				continue
			}
			v = NormalizeDisplacement(v)
		}
		r = r.With(key, v)
	}
	return r
}

func maxValue(key, value string) (float64, bool) {
	parse := utils.ParseNumber
	if key == RangePrice || key == RangeMileage {
		parse = utils.ParseAmount
	}
	best, found := 0.0, false
	for _, part := range utils.SplitMultiValue(value) {
		v, ok := parse(part)
		if !ok {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

// Get returns the value of the range named by key.
func (r Ranges) Get(key string) (float64, bool) {
	var p *float64
	switch key {
	case RangePrice:
		p = r.PriceCeiling
	case RangeYear:
		p = r.YearCeiling
	case RangeMileage:
		p = r.MileageCeiling
	case RangeDisplacement:
		p = r.DisplacementTarget
	case RangeStock:
		p = r.StockMin
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// With returns a copy of r with the range named by key set to v.
func (r Ranges) With(key string, v float64) Ranges {
	p := &v
	switch key {
	case RangePrice:
		r.PriceCeiling = p
	case RangeYear:
		r.YearCeiling = p
	case RangeMileage:
		r.MileageCeiling = p
	case RangeDisplacement:
		r.DisplacementTarget = p
	case RangeStock:
		r.StockMin = p
	}
	return r
}

// Without returns a copy of r with the range named by key cleared.
func (r Ranges) Without(key string) Ranges {
	switch key {
	case RangePrice:
		r.PriceCeiling = nil
	case RangeYear:
		r.YearCeiling = nil
	case RangeMileage:
		r.MileageCeiling = nil
	case RangeDisplacement:
		r.DisplacementTarget = nil
	case RangeStock:
		r.StockMin = nil
	}
	return r
}

// Active returns the active range tokens in canonical order.
func (r Ranges) Active() []string {
	var keys []string
	for _, k := range RangeKeys {
		if _, ok := r.Get(k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// IsRangeKey reports whether key is a range token.
func IsRangeKey(key string) bool {
	for _, k := range RangeKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SearchQuery is one search request against the current snapshot.
type SearchQuery struct {
	Filters Filters           `json:"filters,omitempty"`
	Ranges  map[string]string `json:"ranges,omitempty"`
	// Exclude lists record IDs that must never be returned.
	Exclude []string `json:"exclude,omitempty"`
	// ID selects a single record by id (or codigo) and bypasses filtering.
	ID     string `json:"id,omitempty"`
	Simple bool   `json:"simple,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// Validate trims the query and applies the page size bounds.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	if defaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got %d", defaultLimit)
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	q.ID = strings.TrimSpace(q.ID)
	cleaned := make(Filters, len(q.Filters))
	for k, v := range q.Filters {
		if v = strings.TrimSpace(v); v != "" {
			cleaned[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	q.Filters = cleaned
	return nil
}

// ExcludedSet returns Exclude as a set, ignoring blank entries.
func (q *SearchQuery) ExcludedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(q.Exclude))
	for _, id := range q.Exclude {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// ParseExclusions splits a comma-separated exclusion list.
func ParseExclusions(raw string) []string {
	return utils.SplitMultiValue(raw)
}
