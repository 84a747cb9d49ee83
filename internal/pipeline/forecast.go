package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/opendata-etl/internal/config"
	"github.com/couchcryptid/opendata-etl/internal/domain"
	"github.com/couchcryptid/opendata-etl/internal/observability"
)

// ForecastFetcher retrieves the raw forecast document for one area code.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, areaCode string) ([]byte, error)
}

// ForecastPipeline fetches the forecast for every configured area,
// reconstructs per-timestamp rows, and concatenates them into one table.
type ForecastPipeline struct {
	fetcher ForecastFetcher
	areas   []config.Area
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewForecastPipeline creates the forecast reconstruction pipeline. The
// area list is the fixed enumeration of codes of interest, in report order.
func NewForecastPipeline(fetcher ForecastFetcher, areas []config.Area, logger *slog.Logger, metrics *observability.Metrics) *ForecastPipeline {
	return &ForecastPipeline{fetcher: fetcher, areas: areas, logger: logger, metrics: metrics}
}

// Name identifies the pipeline in logs, metrics, and sink table names.
func (p *ForecastPipeline) Name() string { return "forecast" }

// Run fetches and reconstructs every configured area. A failed fetch or
// parse for one area contributes zero rows and never aborts the others;
// when nothing is retrievable at all the result is an explicitly empty
// table, not an error, so callers check emptiness uniformly.
func (p *ForecastPipeline) Run(ctx context.Context) (domain.Table, error) {
	tables := make([]domain.Table, 0, len(p.areas))

	for _, area := range p.areas {
		if ctx.Err() != nil {
			return domain.Table{}, ctx.Err()
		}

		payload, err := p.fetcher.FetchForecast(ctx, area.Code)
		if err != nil {
			p.logger.Warn("forecast fetch failed, skipping area",
				"area", area.Name, "area_code", area.Code, "error", err)
			p.metrics.FetchErrors.WithLabelValues("jma").Inc()
			continue
		}

		doc, err := domain.ParseForecastDocument(payload)
		if err != nil {
			p.logger.Warn("forecast parse failed, skipping area",
				"area", area.Name, "area_code", area.Code, "error", err)
			p.metrics.FetchErrors.WithLabelValues("jma").Inc()
			continue
		}

		records := domain.ReconstructSeries(doc, area.Name)
		p.logger.Info("area reconstructed", "area", area.Name, "area_code", area.Code, "rows", len(records))
		if len(records) == 0 {
			continue
		}
		tables = append(tables, domain.TableFromWeather(records))
	}

	table := domain.Concat(tables...)
	p.metrics.RowsNormalized.WithLabelValues(p.Name()).Add(float64(table.RowCount()))
	LogSummary(p.logger, p.Name(), table, "area")
	return table, nil
}
