package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/vitrine/pkg/utils"
)

// Runner performs one ingestion pass.
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Refresher re-runs ingestion every interval and on demand.
type Refresher struct {
	runner   Runner
	interval time.Duration
	trigger  chan struct{}
	logger   *zap.Logger

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

// NewRefresher creates a refresher. A non-positive interval disables the
// periodic runs; Trigger still works.
func NewRefresher(runner Runner, interval time.Duration, logger *zap.Logger) *Refresher {
	return &Refresher{
		runner:   runner,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		logger:   utils.OrNop(logger),
		done:     make(chan struct{}),
	}
}

// Start runs ingestion once immediately when runNow is set, then on every tick
// and trigger until ctx is cancelled or Stop is called.
func (r *Refresher) Start(ctx context.Context, runNow bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	if runNow {
		r.Trigger()
	}
	go r.loop(ctx)
}

// Trigger requests a run. Requests made while one is pending coalesce.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Stop ends the refresh loop.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

func (r *Refresher) loop(ctx context.Context) {
	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-tick:
			r.run(ctx, "interval")
		case <-r.trigger:
			r.run(ctx, "trigger")
		}
	}
}

func (r *Refresher) run(ctx context.Context, reason string) {
	r.logger.Debug("refresh starting", zap.String("reason", reason))
	if _, err := r.runner.Run(ctx); err != nil {
		r.logger.Warn("refresh failed", zap.String("reason", reason), zap.Error(err))
	}
}
