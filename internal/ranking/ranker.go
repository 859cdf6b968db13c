package ranking

import (
	"math"
	"sort"

	"github.com/hyperjump/vitrine/internal/filter"
	"github.com/hyperjump/vitrine/internal/models"
)

// Ranker orders candidates. The first applicable key decides; later keys and
// finally the snapshot position break ties, so the order is total.
type Ranker struct {
	config *RankingConfig
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *RankingConfig) *Ranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()
	return &Ranker{config: config}
}

// Config returns the ranking configuration.
func (r *Ranker) Config() RankingConfig {
	return *r.config
}

// Keys returns the active comparator chain for ctx.
func (r *Ranker) Keys(ctx Context) []SortKey {
	var keys []SortKey
	if _, ok := ctx.Ranges.Get(models.RangeDisplacement); ok {
		keys = append(keys, SortDisplacement)
	}
	if _, ok := ctx.Ranges.Get(models.RangePrice); ok && r.config.PriceProximity {
		keys = append(keys, SortPriceProximity)
	}
	if _, ok := ctx.Ranges.Get(models.RangeMileage); ok {
		keys = append(keys, SortMileage)
	}
	if ctx.TextActive {
		keys = append(keys, SortRelevance)
	}
	return append(keys, SortPrice)
}

type ranked struct {
	cand filter.Candidate
	b    ScoreBreakdown
}

// Breakdown extracts the sort values of a candidate.
func Breakdown(c filter.Candidate) ScoreBreakdown {
	b := ScoreBreakdown{MatchedWords: c.MatchedWords, Relevance: c.Relevance}
	b.Price, b.HasPrice = c.Record.Price()
	b.Mileage, b.HasMileage = c.Record.Mileage()
	b.Displacement, b.HasCC = c.Record.Displacement()
	return b
}

// Sort returns cands ordered for ctx. The input slice is not modified.
func (r *Ranker) Sort(cands []filter.Candidate, ctx Context) []filter.Candidate {
	items := make([]ranked, len(cands))
	for i, c := range cands {
		items[i] = ranked{cand: c, b: Breakdown(c)}
	}

	keys := r.Keys(ctx)
	ccTarget, _ := ctx.Ranges.Get(models.RangeDisplacement)
	priceTarget, _ := ctx.Ranges.Get(models.RangePrice)
	asc := r.config.DefaultSort == SortAsc

	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		for _, k := range keys {
			var c int
			switch k {
			case SortDisplacement:
				c = compareAsc(distance(a.b.Displacement, a.b.HasCC, ccTarget), distance(b.b.Displacement, b.b.HasCC, ccTarget))
			case SortPriceProximity:
				c = compareAsc(distance(a.b.Price, a.b.HasPrice, priceTarget), distance(b.b.Price, b.b.HasPrice, priceTarget))
			case SortMileage:
				c = compareAsc(orInf(a.b.Mileage, a.b.HasMileage), orInf(b.b.Mileage, b.b.HasMileage))
			case SortRelevance:
				c = compareRelevance(a.b, b.b)
			case SortPrice:
				c = comparePrice(a.b, b.b, asc)
			}
			if c != 0 {
				return c < 0
			}
		}
		return a.cand.Index < b.cand.Index
	})

	out := make([]filter.Candidate, len(items))
	for i := range items {
		out[i] = items[i].cand
	}
	return out
}

// distance is |v - target|, or +Inf when v is missing so it sorts last.
func distance(v float64, ok bool, target float64) float64 {
	if !ok {
		return math.Inf(1)
	}
	return math.Abs(v - target)
}

func orInf(v float64, ok bool) float64 {
	if !ok {
		return math.Inf(1)
	}
	return v
}

func compareAsc(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareRelevance ranks more matched words first, then higher quality, then
// higher price.
func compareRelevance(a, b ScoreBreakdown) int {
	if a.MatchedWords != b.MatchedWords {
		if a.MatchedWords > b.MatchedWords {
			return -1
		}
		return 1
	}
	if c := compareAsc(b.Relevance, a.Relevance); c != 0 {
		return c
	}
	return comparePrice(a, b, false)
}

// comparePrice orders by price; a missing price always sorts last.
func comparePrice(a, b ScoreBreakdown, asc bool) int {
	switch {
	case !a.HasPrice && !b.HasPrice:
		return 0
	case !a.HasPrice:
		return 1
	case !b.HasPrice:
		return -1
	case asc:
		return compareAsc(a.Price, b.Price)
	default:
		return compareAsc(b.Price, a.Price)
	}
}
