package filter

import (
	"github.com/hyperjump/vitrine/internal/matching"
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/pkg/utils"
)

// Candidate is a record that survived filtering, with its position in the
// snapshot and the relevance collected from free-text filters.
type Candidate struct {
	Index  int
	Record models.Record
	// MatchedWords and Relevance sum the best free-text match of every text filter.
	MatchedWords int
	Relevance    float64
}

// Engine applies filters and ranges. It is immutable and safe for concurrent use.
type Engine struct {
	cfg     Config
	matcher *matching.Matcher
	text    map[string]bool
}

// New creates a filter engine.
func New(cfg Config, matcher *matching.Matcher) *Engine {
	e := &Engine{cfg: cfg, matcher: matcher, text: make(map[string]bool)}
	for _, f := range cfg.TextFields {
		e.text[f] = true
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// IsTextField reports whether key is matched with the free-text cascade.
func (e *Engine) IsTextField(key string) bool {
	return e.text[key]
}

// Apply returns the records that pass every filter and range, in snapshot
// order. Excluded IDs are dropped first. Empty filter values are no-ops.
func (e *Engine) Apply(records []models.Record, filters models.Filters, ranges models.Ranges, excluded map[string]struct{}) []Candidate {
	cands := make([]Candidate, 0, len(records))
	for i, r := range records {
		if _, skip := excluded[r.ID()]; skip {
			continue
		}
		cands = append(cands, Candidate{Index: i, Record: r})
	}

	for _, key := range filters.Active() {
		if len(cands) == 0 {
			return cands
		}
		alternatives := utils.SplitMultiValue(filters[key])
		if e.text[key] {
			cands = e.applyText(cands, key, alternatives)
		} else {
			cands = applyExact(cands, key, alternatives)
		}
	}

	if len(cands) == 0 {
		return cands
	}
	return e.applyRanges(cands, ranges)
}

// applyExact keeps records whose normalized field, or one of its
// comma-separated parts, equals a normalized alternative.
func applyExact(cands []Candidate, key string, alternatives []string) []Candidate {
	want := make(map[string]bool, len(alternatives))
	for _, a := range alternatives {
		want[utils.Normalize(a)] = true
	}
	return keep(cands, func(c *Candidate) bool {
		value := c.Record.String(key)
		if want[utils.Normalize(value)] {
			return true
		}
		for _, part := range utils.SplitMultiValue(value) {
			if want[utils.Normalize(part)] {
				return true
			}
		}
		return false
	})
}

// applyText keeps records matching any alternative and accumulates the best
// alternative's relevance on the candidate.
func (e *Engine) applyText(cands []Candidate, key string, alternatives []string) []Candidate {
	words := make([][]string, len(alternatives))
	for i, a := range alternatives {
		words[i] = utils.Tokens(a)
	}
	return keep(cands, func(c *Candidate) bool {
		var best matching.Result
		for _, w := range words {
			res := e.matcher.MatchField(w, c.Record, key)
			if !res.Matched {
				continue
			}
			if !best.Matched || res.MatchedWords > best.MatchedWords ||
				(res.MatchedWords == best.MatchedWords && res.Score > best.Score) {
				best = res
			}
		}
		if !best.Matched {
			return false
		}
		c.MatchedWords += best.MatchedWords
		c.Relevance += best.Score
		return true
	})
}

func (e *Engine) applyRanges(cands []Candidate, r models.Ranges) []Candidate {
	if ceiling, ok := r.Get(models.RangePrice); ok {
		limit := utils.Cents(ceiling * (1 + e.cfg.PriceSlack))
		cands = keep(cands, func(c *Candidate) bool {
			p, ok := c.Record.Price()
			return ok && utils.Cents(p) <= limit
		})
	}

	if target, ok := r.Get(models.RangeYear); ok && len(cands) > 0 {
		hi := int(target)
		lo := hi - e.cfg.YearLookback
		if e.cfg.YearPolicy == YearWindow {
			hi += e.cfg.YearLookahead
		}
		cands = keep(cands, func(c *Candidate) bool {
			y, ok := c.Record.Year()
			if !ok {
				return false
			}
			if e.cfg.YearPolicy == YearCeiling {
				return y <= hi
			}
			return y >= lo && y <= hi
		})
	}

	if target, ok := r.Get(models.RangeMileage); ok && len(cands) > 0 {
		cands = e.applyMileage(cands, target)
	}

	if _, ok := r.Get(models.RangeDisplacement); ok && len(cands) > 0 {
		cands = keep(cands, func(c *Candidate) bool {
			_, ok := c.Record.Displacement()
			return ok
		})
	}

	if minStock, ok := r.Get(models.RangeStock); ok && len(cands) > 0 {
		cands = keep(cands, func(c *Candidate) bool {
			s, ok := c.Record.Stock()
			return ok && s >= minStock
		})
	}
	return cands
}

// applyMileage keeps km <= target+margin. Under the window policy the floor is
// target-margin, anchored at zero when no candidate is at or below target.
func (e *Engine) applyMileage(cands []Candidate, target float64) []Candidate {
	ceiling := target + e.cfg.MileageMargin
	floor := 0.0
	if e.cfg.MileagePolicy == MileageWindow {
		floor = target - e.cfg.MileageMargin
		anyBelow := false
		for _, c := range cands {
			if km, ok := c.Record.Mileage(); ok && km <= target {
				anyBelow = true
				break
			}
		}
		if !anyBelow || floor < 0 {
			floor = 0
		}
	}
	return keep(cands, func(c *Candidate) bool {
		km, ok := c.Record.Mileage()
		return ok && km >= floor && km <= ceiling
	})
}

// keep filters cands in place order into a new slice.
func keep(cands []Candidate, pred func(*Candidate) bool) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for i := range cands {
		c := cands[i]
		if pred(&c) {
			out = append(out, c)
		}
	}
	return out
}
