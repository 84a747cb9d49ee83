package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/opendata-etl/internal/domain"
	"github.com/couchcryptid/opendata-etl/internal/observability"
)

// TablePipeline produces one assembled table per cycle.
type TablePipeline interface {
	Name() string
	Run(ctx context.Context) (domain.Table, error)
}

// Sink receives assembled tables.
type Sink interface {
	Name() string
	WriteTable(ctx context.Context, table string, t domain.Table) error
}

// Runner executes the configured pipelines on an interval and fans the
// resulting tables out to every sink.
type Runner struct {
	pipelines []TablePipeline
	sinks     []Sink
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration
	ready     atomic.Bool
}

// NewRunner creates a Runner with the given stages and observability.
func NewRunner(pipelines []TablePipeline, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock, interval time.Duration) *Runner {
	return &Runner{
		pipelines: pipelines,
		sinks:     sinks,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		interval:  interval,
	}
}

// CheckReadiness returns nil once at least one cycle has produced rows,
// or an error describing why the service is not yet ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no cycle has produced rows yet")
	}
	return nil
}

// Run executes cycles until the context is cancelled, starting with an
// immediate one.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("runner started", "interval", r.interval)
	r.metrics.RunnerRunning.Set(1)
	defer r.metrics.RunnerRunning.Set(0)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.RunCycle(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info("runner stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// RunCycle executes every pipeline once and writes each non-empty table
// to every sink. Pipeline and sink failures are contained: one pipeline's
// error never stops another, and one sink's error never stops the rest.
func (r *Runner) RunCycle(ctx context.Context) {
	start := r.clock.Now()
	produced := 0

	for _, p := range r.pipelines {
		table, err := p.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Error("pipeline failed", "pipeline", p.Name(), "error", err)
			continue
		}

		if table.IsEmpty() {
			r.metrics.EmptyResults.WithLabelValues(p.Name()).Inc()
			continue
		}

		produced += table.RowCount()
		r.writeTable(ctx, p.Name(), table)
	}

	if produced > 0 {
		r.ready.Store(true)
	}
	r.metrics.CycleDuration.Observe(r.clock.Since(start).Seconds())
}

func (r *Runner) writeTable(ctx context.Context, name string, table domain.Table) {
	for _, s := range r.sinks {
		if err := s.WriteTable(ctx, name, table); err != nil {
			r.logger.Error("sink write failed", "sink", s.Name(), "table", name, "error", err)
			r.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			continue
		}
		r.metrics.SinkWrites.WithLabelValues(s.Name()).Inc()
	}
}
