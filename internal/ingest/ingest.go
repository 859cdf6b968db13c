package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vitrine/internal/config"
	"github.com/hyperjump/vitrine/internal/models"
	"github.com/hyperjump/vitrine/internal/observability"
	"github.com/hyperjump/vitrine/internal/reference"
	"github.com/hyperjump/vitrine/internal/snapshot"
	"github.com/hyperjump/vitrine/internal/storage"
	"github.com/hyperjump/vitrine/pkg/utils"
)

// ErrNoSources is returned when neither feed URLs nor feed files are configured.
var ErrNoSources = errors.New("no feeds configured")

// Ingester fetches every configured feed, converts it to records and publishes
// the combined collection to storage and the snapshot store.
type Ingester struct {
	config   *config.FeedsConfig
	storage  storage.Storage
	store    *snapshot.Store
	table    *reference.Table
	fetcher  *Fetcher
	decoder  *Decoder
	registry *Registry
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu sync.Mutex
}

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithLogger sets the ingester logger.
func WithLogger(l *zap.Logger) IngesterOption {
	return func(in *Ingester) { in.logger = l }
}

// WithMetrics records ingestion runs.
func WithMetrics(m *observability.Metrics) IngesterOption {
	return func(in *Ingester) { in.metrics = m }
}

// WithRegistry replaces the default parser registry.
func WithRegistry(r *Registry) IngesterOption {
	return func(in *Ingester) { in.registry = r }
}

// NewIngester creates an ingester for the feeds in cfg. st may be nil, in which
// case records are only published to store. A nil table selects the built-in
// reference table.
func NewIngester(cfg *config.FeedsConfig, st storage.Storage, store *snapshot.Store, table *reference.Table, opts ...IngesterOption) *Ingester {
	if table == nil {
		table = reference.Default()
	}
	in := &Ingester{
		config:   cfg,
		storage:  st,
		store:    store,
		table:    table,
		fetcher:  NewFetcher(cfg.HTTPTimeout),
		decoder:  NewDecoder(),
		registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = utils.OrNop(in.logger)
	return in
}

// SourceReport describes how one feed was ingested.
type SourceReport struct {
	Source  string `json:"source"`
	Parser  string `json:"parser,omitempty"`
	Format  Format `json:"format,omitempty"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// Report summarizes one ingestion run.
type Report struct {
	Sources []SourceReport `json:"sources"`
	Records int            `json:"records"`
	Stats   Stats          `json:"stats"`
	Elapsed time.Duration  `json:"elapsed"`
}

// Failed returns the number of feeds that contributed nothing because of an error.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Sources {
		if s.Error != "" {
			n++
		}
	}
	return n
}

// Sources lists the feed URLs followed by the feed files found under the
// configured directories, in a stable order.
func (in *Ingester) Sources() []string {
	sources := append([]string(nil), in.config.URLs...)
	var files []string
	for _, dir := range in.config.Directories {
		found, err := feedFiles(dir, in.config.Extensions, in.config.RecursiveOrDefault())
		if err != nil {
			in.logger.Warn("feed directory unreadable", zap.String("dir", dir), zap.Error(err))
			continue
		}
		files = append(files, found...)
	}
	sort.Strings(files)
	return append(sources, files...)
}

func feedFiles(root string, extensions []string, recursive bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if MatchExtension(path, extensions) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

// MatchExtension reports whether path has one of extensions. An empty list
// matches everything.
func MatchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// Run ingests every feed once. A feed that fails is logged and contributes no
// records. When no feed yields records the previous snapshot stays published
// and an error is returned. Concurrent calls are serialized.
func (in *Ingester) Run(ctx context.Context) (*Report, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	start := time.Now()
	sources := in.Sources()
	if len(sources) == 0 {
		return nil, in.fail(ctx, start, ErrNoSources)
	}

	report := &Report{}
	var records []models.Record
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sr, recs := in.ingestSource(ctx, src)
		report.Sources = append(report.Sources, sr)
		records = append(records, recs...)
	}
	report.Records = len(records)
	report.Elapsed = time.Since(start)

	if len(records) == 0 {
		return report, in.fail(ctx, start, fmt.Errorf("no records from %d feeds (%d failed)", len(sources), report.Failed()))
	}

	report.Stats = NewStats(records)
	in.logger.Info("ingest stats", report.Stats.Fields()...)

	if in.storage != nil {
		if err := in.storage.ReplaceRecords(ctx, records); err != nil {
			return report, in.fail(ctx, start, fmt.Errorf("failed to store records: %w", err))
		}
	}
	in.store.Swap(snapshot.New(records, time.Now()))

	msg := fmt.Sprintf("%d records from %d feeds", len(records), len(sources)-report.Failed())
	if failed := report.Failed(); failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", failed)
	}
	in.saveStatus(ctx, &models.UpdateStatus{
		Timestamp:   time.Now().UTC(),
		Success:     true,
		Message:     msg,
		RecordCount: len(records),
	})
	report.Elapsed = time.Since(start)
	in.metrics.ObserveIngest(true, len(records), report.Elapsed)
	in.logger.Info("ingest complete",
		zap.Int("records", len(records)),
		zap.Int("feeds", len(sources)),
		zap.Int("failed", report.Failed()),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// ingestSource fetches, decodes and parses one feed.
func (in *Ingester) ingestSource(ctx context.Context, src string) (SourceReport, []models.Record) {
	sr := SourceReport{Source: src}
	content, err := in.fetcher.Fetch(ctx, src)
	if err != nil {
		return in.sourceFailed(sr, err), nil
	}
	doc, format, err := in.decoder.Decode(content, src)
	if err != nil {
		return in.sourceFailed(sr, err), nil
	}
	sr.Format = format
	parser, records := in.registry.Parse(doc, &Env{Source: src, Table: in.table})
	sr.Parser = parser
	sr.Records = len(records)
	in.logger.Debug("feed ingested",
		zap.String("source", src),
		zap.String("format", string(format)),
		zap.String("parser", parser),
		zap.Int("records", len(records)),
	)
	return sr, records
}

func (in *Ingester) sourceFailed(sr SourceReport, err error) SourceReport {
	in.logger.Warn("feed failed", zap.String("source", sr.Source), zap.Error(err))
	sr.Error = err.Error()
	return sr
}

func (in *Ingester) fail(ctx context.Context, start time.Time, err error) error {
	in.saveStatus(ctx, &models.UpdateStatus{
		Timestamp: time.Now().UTC(),
		Success:   false,
		Message:   err.Error(),
	})
	in.metrics.ObserveIngest(false, 0, time.Since(start))
	in.logger.Error("ingest failed", zap.Error(err))
	return err
}

func (in *Ingester) saveStatus(ctx context.Context, status *models.UpdateStatus) {
	if in.storage == nil {
		return
	}
	if err := in.storage.SaveStatus(ctx, status); err != nil {
		in.logger.Warn("failed to save update status", zap.Error(err))
	}
}

// LoadStored publishes the records persisted by a previous run so the server
// can answer before the first refresh completes. It returns the number of
// records loaded; zero leaves the store untouched.
func (in *Ingester) LoadStored(ctx context.Context) (int, error) {
	if in.storage == nil {
		return 0, nil
	}
	records, err := in.storage.ListRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load stored records: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	loadedAt := time.Now()
	if st, err := in.storage.LatestStatus(ctx); err == nil && st != nil {
		loadedAt = st.Timestamp
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		in.logger.Warn("failed to read update status", zap.Error(err))
	}
	in.store.Swap(snapshot.New(records, loadedAt))
	in.metrics.ObserveIngest(true, len(records), 0)
	in.logger.Info("loaded stored records", zap.Int("records", len(records)))
	return len(records), nil
}
