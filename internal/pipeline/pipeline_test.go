package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/opendata-etl/internal/config"
	"github.com/couchcryptid/opendata-etl/internal/observability"
	"github.com/couchcryptid/opendata-etl/internal/pipeline"
)

const statsPayload = `{
  "GET_STATS_DATA": {
    "STATISTICAL_DATA": {
      "CLASS_INF": {
        "CLASS_OBJ": [
          {"@id": "cat01", "@name": "item", "CLASS": {"@code": "01000", "@name": "cereal"}}
        ]
      },
      "DATA_INF": {
        "VALUE": [
          {"@cat01": "01000", "@unit": "yen", "$": "73"},
          {"@cat01": "02000", "@unit": "yen", "$": "54"}
        ]
      }
    }
  }
}`

func forecastPayload(areaCode string) []byte {
	return fmt.Appendf(nil, `[
	  {
	    "timeSeries": [
	      {
	        "timeDefines": ["2026-08-29T11:00:00+09:00", "2026-08-30T00:00:00+09:00"],
	        "areas": [
	          {
	            "area": {"name": "area", "code": "%s"},
	            "weathers": ["sunny", "rain"],
	            "pops": ["10", "30"]
	          }
	        ]
	      }
	    ]
	  }
	]`, areaCode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mocks ---

type mockStatsFetcher struct {
	payload []byte
	err     error
}

func (m *mockStatsFetcher) FetchStatsData(_ context.Context) ([]byte, error) {
	return m.payload, m.err
}

type mockForecastFetcher struct {
	payloads map[string][]byte
	calls    []string
}

func (m *mockForecastFetcher) FetchForecast(_ context.Context, areaCode string) ([]byte, error) {
	m.calls = append(m.calls, areaCode)
	payload, ok := m.payloads[areaCode]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return payload, nil
}

// --- stats pipeline ---

func TestStatsPipeline_Run(t *testing.T) {
	p := pipeline.NewStatsPipeline(
		&mockStatsFetcher{payload: []byte(statsPayload)},
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	table, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"item", "unit", "value"}, table.Columns)
	require.Equal(t, 2, table.RowCount())
	assert.Equal(t, []string{"cereal", "yen", "73"}, table.Rows[0])
	// Unresolved code passes through.
	assert.Equal(t, []string{"02000", "yen", "54"}, table.Rows[1])
}

func TestStatsPipeline_FetchError(t *testing.T) {
	p := pipeline.NewStatsPipeline(
		&mockStatsFetcher{err: errors.New("boom")},
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	table, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch stats data")
	assert.True(t, table.IsEmpty())
}

func TestStatsPipeline_ParseError(t *testing.T) {
	p := pipeline.NewStatsPipeline(
		&mockStatsFetcher{payload: []byte("not json")},
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	_, err := p.Run(context.Background())
	require.Error(t, err)
}

// --- forecast pipeline ---

func testAreas() []config.Area {
	return []config.Area{
		{Code: "130000", Name: "Tokyo"},
		{Code: "270000", Name: "Osaka"},
		{Code: "999999", Name: "Nowhere"},
	}
}

func TestForecastPipeline_Run(t *testing.T) {
	fetcher := &mockForecastFetcher{payloads: map[string][]byte{
		"130000": forecastPayload("130010"),
		"270000": forecastPayload("270010"),
		"999999": forecastPayload("999910"),
	}}

	p := pipeline.NewForecastPipeline(fetcher, testAreas(), discardLogger(), observability.NewMetricsForTesting())

	table, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"130000", "270000", "999999"}, fetcher.calls)
	assert.Equal(t, 6, table.RowCount())
	// Source order preserved: Tokyo rows first.
	assert.Equal(t, "Tokyo", table.Rows[0][0])
	assert.Equal(t, "Osaka", table.Rows[2][0])
	assert.Equal(t, "10%", table.Rows[0][6])
}

func TestForecastPipeline_FailedAreaContributesZeroRows(t *testing.T) {
	fetcher := &mockForecastFetcher{payloads: map[string][]byte{
		"130000": forecastPayload("130010"),
		"270000": forecastPayload("270010"),
		// 999999 missing: fetch fails for that area.
	}}

	p := pipeline.NewForecastPipeline(fetcher, testAreas(), discardLogger(), observability.NewMetricsForTesting())

	table, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, table.RowCount())
	groups := table.GroupCounts("area")
	require.Len(t, groups, 2)
	assert.Equal(t, "Tokyo", groups[0].Key)
	assert.Equal(t, "Osaka", groups[1].Key)
	idx := table.ColumnIndex("area")
	for _, row := range table.Rows {
		assert.NotEqual(t, "Nowhere", row[idx])
	}
}

func TestForecastPipeline_MalformedAreaSkipped(t *testing.T) {
	fetcher := &mockForecastFetcher{payloads: map[string][]byte{
		"130000": []byte("<html>maintenance</html>"),
		"270000": forecastPayload("270010"),
	}}
	areas := []config.Area{{Code: "130000", Name: "Tokyo"}, {Code: "270000", Name: "Osaka"}}

	p := pipeline.NewForecastPipeline(fetcher, areas, discardLogger(), observability.NewMetricsForTesting())

	table, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, table.RowCount())
	assert.Equal(t, "Osaka", table.Rows[0][0])
}

func TestForecastPipeline_NothingRetrievable(t *testing.T) {
	fetcher := &mockForecastFetcher{payloads: map[string][]byte{}}

	p := pipeline.NewForecastPipeline(fetcher, testAreas(), discardLogger(), observability.NewMetricsForTesting())

	table, err := p.Run(context.Background())
	require.NoError(t, err, "a fully failed cycle is an empty result, not an error")
	assert.True(t, table.IsEmpty())
}

func TestForecastPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &mockForecastFetcher{payloads: map[string][]byte{}}
	p := pipeline.NewForecastPipeline(fetcher, testAreas(), discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.calls)
}
