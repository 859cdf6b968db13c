// Package search provides the inventory search engine: identifier lookup,
// full-catalog listing and filtered search with progressive relaxation.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vitrine/internal/cache"
	"github.com/hyperjump/vitrine/internal/config"
	"github.com/hyperjump/vitrine/internal/fallback"
	"github.com/hyperjump/vitrine/internal/filter"
	"github.com/hyperjump/vitrine/internal/keyword"
	"github.com/hyperjump/vitrine/internal/matching"
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/observability"
	"github.com/hyperjump/vitrine/internal/ranking"
	"github.com/hyperjump/vitrine/internal/reference"
	"github.com/hyperjump/vitrine/internal/snapshot"
	"github.com/hyperjump/vitrine/pkg/utils"
)

// Config holds the engine settings that are not owned by a component.
type Config struct {
	PageSize    int
	MaxPageSize int
	// SuggestionFields are the filters spell checked when nothing was found.
	SuggestionFields []string
	SuggestionLimit  int
	// SpellOptions configure the snapshot's did-you-mean checker.
	SpellOptions []keyword.SpellCheckerOption
}

// Engine answers search queries against the current snapshot. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	store      *snapshot.Store
	filters    *filter.Engine
	ranker     *ranking.Ranker
	controller *fallback.Controller
	config     *Config
	policy     models.Policy

	cache    cache.Client
	cacheTTL time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithCache caches responses in client for ttl.
func WithCache(client cache.Client, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = client
		e.cacheTTL = ttl
	}
}

// WithMetrics records search metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	store *snapshot.Store,
	filters *filter.Engine,
	ranker *ranking.Ranker,
	controller *fallback.Controller,
	cfg *Config,
	opts ...Option,
) *Engine {
	fc := filters.Config()
	rc := ranker.Config()
	e := &Engine{
		store:      store,
		filters:    filters,
		ranker:     ranker,
		controller: controller,
		config:     cfg,
		policy: models.Policy{
			YearPolicy:    fc.YearPolicy,
			PriceStrategy: fc.PriceStrategy,
			PriceSlack:    fc.PriceSlack,
			MileagePolicy: fc.MileagePolicy,
			DefaultSort:   rc.DefaultSort,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e
}

// NewEngineFromConfig wires the matcher, filter engine, ranker and fallback
// controller described by cfg.
func NewEngineFromConfig(cfg *config.EngineConfig, store *snapshot.Store, table *reference.Table, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	matcher := matching.New(cfg.Matching())
	filters := filter.New(cfg.Filter(), matcher)
	ranker := ranking.NewRanker(cfg.Ranking())
	var resolver fallback.CategoryResolver
	if table != nil {
		resolver = table
	}
	controller := fallback.New(cfg.Fallback(), filters, ranker, resolver)
	return NewEngine(store, filters, ranker, controller, &Config{
		PageSize:         cfg.PageSize,
		MaxPageSize:      cfg.MaxPageSize,
		SuggestionFields: cfg.ModelFields,
		SuggestionLimit:  cfg.SuggestionLimit,
		SpellOptions:     cfg.SpellChecker(),
	}, opts...), nil
}

func (e *Engine) policyRef() *models.Policy {
	p := e.policy
	return &p
}

// Policy reports the active range semantics.
func (e *Engine) Policy() models.Policy {
	return e.policy
}

// Search runs query against the current snapshot. It returns
// snapshot.ErrNoData when nothing has been loaded yet. An empty result is not
// an error.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}
	snap, err := e.store.Current()
	if err != nil {
		return nil, err
	}

	if query.ID != "" {
		return e.finish(e.lookup(snap, query), startTime), nil
	}

	key := e.cacheKey(snap, query)
	if resp, ok := e.cached(ctx, key); ok {
		return e.finish(resp, startTime), nil
	}

	ranges := models.ParseRanges(query.Ranges)
	excluded := query.ExcludedSet()

	var resp *models.SearchResponse
	if len(query.Filters.Active()) == 0 && len(ranges.Active()) == 0 {
		resp = e.catalog(snap, query, excluded)
	} else {
		resp = e.relaxed(snap, query, ranges, excluded)
	}
	e.saveToCache(ctx, key, resp)
	return e.finish(resp, startTime), nil
}

func (e *Engine) lookup(snap *snapshot.Snapshot, query *models.SearchQuery) *models.SearchResponse {
	resp := &models.SearchResponse{
		Items:              []models.Record{},
		RelaxationsApplied: []string{},
		State:              models.StateLookup,
	}
	rec, ok := snap.Lookup(query.ID)
	if !ok {
		return resp
	}
	if query.Simple {
		rec = rec.Simplified()
	}
	resp.Items = append(resp.Items, rec)
	resp.TotalFound = 1
	return resp
}

// catalog lists the whole snapshot minus exclusions under the default order.
func (e *Engine) catalog(snap *snapshot.Snapshot, query *models.SearchQuery, excluded map[string]struct{}) *models.SearchResponse {
	cands := e.filters.Apply(snap.Records, nil, models.Ranges{}, excluded)
	cands = e.ranker.Sort(cands, ranking.Context{})
	return &models.SearchResponse{
		Items:              page(cands, query.Limit, query.Simple),
		TotalFound:         len(cands),
		RelaxationsApplied: []string{},
		State:              models.StateCatalog,
		Policy:             e.policyRef(),
	}
}

func (e *Engine) relaxed(snap *snapshot.Snapshot, query *models.SearchQuery, ranges models.Ranges, excluded map[string]struct{}) *models.SearchResponse {
	res := e.controller.Run(snap.Records, fallback.Request{
		Filters:  query.Filters,
		Ranges:   ranges,
		Excluded: excluded,
	})
	e.logger.Debug("fallback finished",
		zap.String("phase", res.State.String()),
		zap.String("outcome", res.Outcome.String()),
		zap.Int("attempts", len(res.Trace.Attempts)),
	)
	resp := &models.SearchResponse{
		Items:              page(res.Items, query.Limit, query.Simple),
		TotalFound:         len(res.Items),
		RelaxationsApplied: res.Trace.Applied,
		CategoryRemap:      res.Trace.Remap,
		State:              res.Outcome.String(),
		Policy:             e.policyRef(),
	}
	if res.Outcome == fallback.OutcomeExhausted {
		resp.Suggestions = e.suggest(snap, query.Filters)
	}
	return resp
}

// suggest spell checks the model/name filter values against the snapshot vocabulary.
func (e *Engine) suggest(snap *snapshot.Snapshot, filters models.Filters) []string {
	limit := e.config.SuggestionLimit
	if limit <= 0 {
		return nil
	}
	checker := snap.SpellChecker(e.config.SpellOptions...)
	seen := make(map[string]struct{})
	var out []string
	for _, field := range e.config.SuggestionFields {
		value := filters[field]
		if value == "" {
			continue
		}
		for _, alt := range utils.SplitMultiValue(value) {
			for _, s := range checker.GetTopSuggestions(alt, limit) {
				if _, dup := seen[s]; dup {
					continue
				}
				seen[s] = struct{}{}
				out = append(out, s)
				if len(out) == limit {
					return out
				}
			}
		}
	}
	return out
}

// page returns the first limit records. Simple mode yields trimmed copies.
func page(cands []filter.Candidate, limit int, simple bool) []models.Record {
	n := len(cands)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]models.Record, 0, n)
	for _, c := range cands[:n] {
		if simple {
			out = append(out, c.Record.Simplified())
			continue
		}
		out = append(out, c.Record)
	}
	return out
}

func (e *Engine) finish(resp *models.SearchResponse, startTime time.Time) *models.SearchResponse {
	elapsed := time.Since(startTime)
	resp.QueryTime = elapsed.Milliseconds()
	e.metrics.ObserveSearch(resp.State, resp.RelaxationsApplied, elapsed)
	e.logger.Debug("search",
		zap.String("state", resp.State),
		zap.Strings("relaxations", resp.RelaxationsApplied),
		zap.Int("total_found", resp.TotalFound),
		zap.Duration("elapsed", elapsed),
	)
	return resp
}

// cacheKey identifies a query against one snapshot version. Equal queries
// written in a different order share a key.
func (e *Engine) cacheKey(snap *snapshot.Snapshot, query *models.SearchQuery) string {
	if e.cache == nil {
		return ""
	}
	exclude := append([]string(nil), query.Exclude...)
	sort.Strings(exclude)
	canonical, err := json.Marshal(struct {
		Filters models.Filters `json:"f"`
		Ranges  models.Ranges  `json:"r"`
		Exclude []string       `json:"x"`
		Simple  bool           `json:"s"`
		Limit   int            `json:"l"`
	}{query.Filters, models.ParseRanges(query.Ranges), exclude, query.Simple, query.Limit})
	if err != nil {
		return ""
	}
	return cache.Key("search", snap.Version, string(canonical))
}

func (e *Engine) cached(ctx context.Context, key string) (*models.SearchResponse, bool) {
	if key == "" {
		return nil, false
	}
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn("cache get failed", zap.Error(err))
		}
		e.metrics.ObserveCache(false)
		return nil, false
	}
	var resp models.SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		e.logger.Warn("cache entry unreadable", zap.Error(err))
		e.metrics.ObserveCache(false)
		return nil, false
	}
	e.metrics.ObserveCache(true)
	return &resp, true
}

func (e *Engine) saveToCache(ctx context.Context, key string, resp *models.SearchResponse) {
	if key == "" {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		e.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := e.cache.Set(ctx, key, data, e.cacheTTL); err != nil {
		e.logger.Warn("cache set failed", zap.Error(err))
	}
}
