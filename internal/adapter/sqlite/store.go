// Package sqlite persists assembled tables into a local SQLite database.
// Each write is recorded as a capture with its rows stored as JSON
// objects keyed by column label.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/opendata-etl/internal/domain"
)

// Store implements pipeline.Sink on top of a SQLite database file.
type Store struct {
	db     *sql.DB
	clock  clockwork.Clock
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies pending
// migrations.
func Open(path string, clock clockwork.Clock, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite db: %w", err)
	}

	s := &Store{db: db, clock: clock, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string {
	return "sqlite"
}

// WriteTable records one capture of the table. Rows are serialized as
// JSON objects so schema changes upstream never require a migration.
func (s *Store) WriteTable(ctx context.Context, table string, t domain.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin capture tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO captures (table_name, captured_at, row_count) VALUES (?, ?, ?)",
		table, s.clock.Now().UTC(), t.RowCount(),
	)
	if err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}
	captureID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("capture id: %w", err)
	}

	for pos, row := range t.Rows {
		rec := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("serialize row %d: %w", pos, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO capture_rows (capture_id, position, data) VALUES (?, ?, ?)",
			captureID, pos, string(data),
		); err != nil {
			return fmt.Errorf("insert row %d: %w", pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit capture: %w", err)
	}

	s.logger.Debug("capture stored", "table", table, "capture_id", captureID, "rows", t.RowCount())
	return nil
}

// CaptureCount reports how many captures of the named table exist.
func (s *Store) CaptureCount(ctx context.Context, table string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM captures WHERE table_name = ?", table,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count captures: %w", err)
	}
	return n, nil
}

// LatestRows returns the JSON row objects of the most recent capture of
// the named table, in row order. A table never captured yields nil.
func (s *Store) LatestRows(ctx context.Context, table string) ([]map[string]string, error) {
	var captureID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(id) FROM captures WHERE table_name = ?", table,
	).Scan(&captureID)
	if err != nil {
		return nil, fmt.Errorf("latest capture: %w", err)
	}
	if !captureID.Valid {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM capture_rows WHERE capture_id = ? ORDER BY position", captureID.Int64,
	)
	if err != nil {
		return nil, fmt.Errorf("query capture rows: %w", err)
	}
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan capture row: %w", err)
		}
		rec := map[string]string{}
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decode capture row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
