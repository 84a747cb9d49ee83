package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/opendata-etl/internal/domain"
	"github.com/couchcryptid/opendata-etl/internal/observability"
)

// StatsFetcher retrieves one raw e-Stat statistics document.
type StatsFetcher interface {
	FetchStatsData(ctx context.Context) ([]byte, error)
}

// StatsPipeline fetches a statistics document, resolves its classification
// codes, and assembles the normalized table.
type StatsPipeline struct {
	fetcher StatsFetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStatsPipeline creates the statistics normalization pipeline.
func NewStatsPipeline(fetcher StatsFetcher, logger *slog.Logger, metrics *observability.Metrics) *StatsPipeline {
	return &StatsPipeline{fetcher: fetcher, logger: logger, metrics: metrics}
}

// Name identifies the pipeline in logs, metrics, and sink table names.
func (p *StatsPipeline) Name() string { return "stats" }

// Run executes one fetch-resolve-assemble cycle. There is a single stats
// source, so unlike per-area forecast failures a fetch or parse failure
// here is returned to the caller.
func (p *StatsPipeline) Run(ctx context.Context) (domain.Table, error) {
	payload, err := p.fetcher.FetchStatsData(ctx)
	if err != nil {
		p.metrics.FetchErrors.WithLabelValues("estat").Inc()
		return domain.Table{}, fmt.Errorf("fetch stats data: %w", err)
	}

	data, err := domain.ParseStatsDocument(payload)
	if err != nil {
		return domain.Table{}, err
	}

	rows, columns := domain.ResolveClassifications(data.Rows, data.Columns, data.Axes)
	table := domain.TableFromRecords(columns, rows)

	p.metrics.RowsNormalized.WithLabelValues(p.Name()).Add(float64(table.RowCount()))
	LogSummary(p.logger, p.Name(), table, "")
	return table, nil
}
