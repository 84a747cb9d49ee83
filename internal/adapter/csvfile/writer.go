// Package csvfile persists assembled tables as timestamped CSV files.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/opendata-etl/internal/domain"
)

const timestampLayout = "20060102_150405"

// Writer implements pipeline.Sink by writing each table to its own file
// under a fixed output directory.
type Writer struct {
	dir    string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a CSV sink rooted at dir. The directory is created
// on first write.
func NewWriter(dir string, clock clockwork.Clock, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, clock: clock, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string {
	return "csv"
}

// WriteTable writes the header row followed by all data rows to
// <dir>/<table>_<timestamp>.csv.
func (w *Writer) WriteTable(_ context.Context, table string, t domain.Table) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.csv", table, w.clock.Now().Format(timestampLayout))
	path := filepath.Join(w.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("write rows: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv file: %w", err)
	}

	w.logger.Info("csv file written", "path", path, "rows", t.RowCount())
	return nil
}
