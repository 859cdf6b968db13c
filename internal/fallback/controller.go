package fallback

import (
	"strconv"

	"github.com/hyperjump/vitrine/internal/filter"
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/ranking"
	"github.com/hyperjump/vitrine/internal/reference"
)

// CategoryResolver maps a model name to a broader category.
type CategoryResolver interface {
	ResolveCategory(model string) (string, reference.MatchKind)
}

// Request is the input of one controller run.
type Request struct {
	Filters  models.Filters
	Ranges   models.Ranges
	Excluded map[string]struct{}
}

// Result is the output of one controller run. Items holds every match, ranked.
type Result struct {
	Items   []filter.Candidate
	State   State
	Outcome Outcome
	Trace   Trace
	// Filters and Ranges are the constraints of the final attempt.
	Filters models.Filters
	Ranges  models.Ranges
}

// Controller runs the strict, remap and relaxation phases. It holds no per-run
// state and is safe for concurrent use.
type Controller struct {
	cfg      Config
	filters  *filter.Engine
	ranker   *ranking.Ranker
	resolver CategoryResolver
	model    map[string]bool
}

// New creates a controller. resolver may be nil to disable category remaps.
func New(cfg Config, filters *filter.Engine, ranker *ranking.Ranker, resolver CategoryResolver) *Controller {
	c := &Controller{
		cfg:      cfg,
		filters:  filters,
		ranker:   ranker,
		resolver: resolver,
		model:    make(map[string]bool, len(cfg.ModelFields)),
	}
	for _, f := range cfg.ModelFields {
		c.model[f] = true
	}
	return c
}

// run is the mutable state of one Run call.
type run struct {
	c       *Controller
	records []models.Record
	req     Request
	filters models.Filters
	ranges  models.Ranges
	state   State
	trace   Trace
}

// Run searches records with the request constraints, relaxing them until
// something is found or the priority list is exhausted. Equal inputs always
// yield equal results and traces.
func (c *Controller) Run(records []models.Record, req Request) Result {
	r := &run{
		c:       c,
		records: records,
		req:     req,
		filters: req.Filters,
		ranges:  req.Ranges,
		state:   StateStrict,
		trace:   Trace{Applied: []string{}, Attempts: []Attempt{}},
	}

	if found := r.try(); len(found) > 0 {
		return r.done(found, OutcomeSuccess)
	}

	if r.active() == 1 && !r.soleModelFilter() {
		return r.done(nil, OutcomeExhausted)
	}

	r.state = StateRelaxing
	if found := r.remap(); len(found) > 0 {
		return r.done(found, OutcomeSuccess)
	}

	for _, key := range c.cfg.Priority {
		var found []filter.Candidate
		if models.IsRangeKey(key) {
			found = r.relaxRange(key)
		} else {
			found = r.relaxFilter(key)
		}
		if len(found) > 0 {
			return r.done(found, OutcomeSuccess)
		}
	}
	return r.done(nil, OutcomeExhausted)
}

func (r *run) try() []filter.Candidate {
	return r.c.filters.Apply(r.records, r.filters, r.ranges, r.req.Excluded)
}

// active counts active filters plus active ranges.
func (r *run) active() int {
	return len(r.filters.Active()) + len(r.ranges.Active())
}

func (r *run) soleModelFilter() bool {
	keys := r.filters.Active()
	return len(keys) == 1 && r.c.model[keys[0]]
}

// remap replaces an unmatched model query with its category, once. When the
// category finds nothing the original filters are restored and the remap is
// left out of the trace, except as an attempt.
func (r *run) remap() []filter.Candidate {
	if r.c.resolver == nil || r.filters[r.c.cfg.CategoryField] != "" {
		return nil
	}
	for _, field := range r.c.cfg.ModelFields {
		value := r.filters[field]
		if value == "" {
			continue
		}
		direct := r.c.filters.Apply(r.records, models.Filters{field: value}, models.Ranges{}, r.req.Excluded)
		if len(direct) > 0 {
			return nil
		}
		category, kind := r.c.resolver.ResolveCategory(value)
		if kind == reference.MatchNone || category == "" {
			return nil
		}

		original := r.filters
		r.filters = r.filters.Without(field).With(r.c.cfg.CategoryField, category)
		found := r.try()
		r.trace.Attempts = append(r.trace.Attempts, Attempt{
			Action: ActionRemap, Key: field, Value: category, Found: len(found),
		})
		if len(found) == 0 {
			r.filters = original
			return nil
		}
		r.trace.Remap = &models.CategoryRemap{Original: value, Mapped: category}
		return found
	}
	return nil
}

func (r *run) relaxFilter(key string) []filter.Candidate {
	if r.filters[key] == "" || r.active() <= 1 {
		return nil
	}
	r.filters = r.filters.Without(key)
	r.trace.Applied = append(r.trace.Applied, key)
	found := r.try()
	r.trace.Attempts = append(r.trace.Attempts, Attempt{Action: ActionRemove, Key: key, Found: len(found)})
	return found
}

// relaxRange widens then removes a range, per its tactic. Widening never
// drops a constraint, so it is allowed on the last one.
func (r *run) relaxRange(key string) []filter.Candidate {
	original, ok := r.ranges.Get(key)
	if !ok {
		return nil
	}

	tactic := r.c.cfg.RangeTactics[key]
	if tactic.Mode == TacticWiden && key != models.RangeDisplacement {
		token := key + models.ExpandedSuffix
		r.trace.Applied = append(r.trace.Applied, token)
		value := original
		for i := 0; i < tactic.MaxAttempts; i++ {
			value = widen(key, value, tactic.Step)
			r.ranges = r.ranges.With(key, value)
			found := r.try()
			r.trace.Attempts = append(r.trace.Attempts, Attempt{
				Action: ActionWiden, Key: key, Value: formatValue(value), Found: len(found),
			})
			if len(found) > 0 {
				return found
			}
		}
		// Widening failed; the range is either removed below or restored.
		r.trace.Applied = r.trace.Applied[:len(r.trace.Applied)-1]
		r.ranges = r.ranges.With(key, original)
	}

	if r.active() <= 1 {
		return nil
	}
	r.ranges = r.ranges.Without(key)
	r.trace.Applied = append(r.trace.Applied, key)
	found := r.try()
	r.trace.Attempts = append(r.trace.Attempts, Attempt{Action: ActionRemove, Key: key, Found: len(found)})
	return found
}

func widen(key string, value, step float64) float64 {
	if key == models.RangeStock {
		return max(0, value-step)
	}
	return value + step
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (r *run) done(found []filter.Candidate, outcome Outcome) Result {
	res := Result{
		State:   r.state,
		Outcome: outcome,
		Trace:   r.trace,
		Filters: r.filters,
		Ranges:  r.ranges,
	}
	if len(found) == 0 {
		res.Items = []filter.Candidate{}
		return res
	}
	ctx := ranking.Context{Ranges: r.ranges}
	for _, key := range r.filters.Active() {
		if r.c.filters.IsTextField(key) {
			ctx.TextActive = true
			break
		}
	}
	res.Items = r.c.ranker.Sort(found, ctx)
	return res
}
