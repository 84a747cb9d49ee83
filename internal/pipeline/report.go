package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/opendata-etl/internal/domain"
)

// LogSummary reports an assembled table: total row count and, when a
// group column is given, the number of distinct groups plus per-group row
// counts in first-seen order. An empty table is reported explicitly,
// never silently skipped.
func LogSummary(logger *slog.Logger, name string, t domain.Table, groupBy string) {
	if t.IsEmpty() {
		logger.Warn("no rows assembled", "table", name)
		return
	}

	logger.Info("table assembled", "table", name, "rows", t.RowCount())

	if groupBy == "" {
		return
	}
	logger.Info("group summary",
		"table", name, "column", groupBy, "distinct", t.DistinctCount(groupBy))
	for _, g := range t.GroupCounts(groupBy) {
		logger.Info("group rows", "table", name, "group", g.Key, "rows", g.Count)
	}
}
