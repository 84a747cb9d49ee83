package domain

// Table is an ordered sequence of uniformly-shaped rows with a declared
// column list. Cells are positionally aligned to Columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// WeatherColumns is the column list of tables built from WeatherRecords.
var WeatherColumns = []string{"area", "area_code", "time", "weather", "temp_low", "temp_high", "pop"}

// GroupCount is one group key and its row count.
type GroupCount struct {
	Key   string
	Count int
}

// TableFromRecords builds a table from normalized records using the given
// column order. A record missing a column yields an empty cell.
func TableFromRecords(columns []string, rows []Record) Table {
	t := Table{Columns: columns, Rows: make([][]string, 0, len(rows))}
	for _, rec := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = rec[c]
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// TableFromWeather builds a table from reconstructed weather records.
func TableFromWeather(records []WeatherRecord) Table {
	t := Table{Columns: WeatherColumns, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{r.Area, r.AreaCode, r.Time, r.Weather, r.TempLow, r.TempHigh, r.Pop})
	}
	return t
}

// Concat merges tables into one, preserving source-then-row order. The
// column list comes from the first table; callers concatenate tables of
// the same shape. Zero inputs yield an explicitly empty table so
// consumers can check emptiness uniformly.
func Concat(tables ...Table) Table {
	var out Table
	for _, t := range tables {
		if out.Columns == nil {
			out.Columns = t.Columns
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out
}

// RowCount returns the number of rows.
func (t Table) RowCount() int { return len(t.Rows) }

// IsEmpty reports whether the table has no rows.
func (t Table) IsEmpty() bool { return len(t.Rows) == 0 }

// ColumnIndex returns the position of a column, or -1 when absent.
func (t Table) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// DistinctCount returns the number of distinct values in a column, zero
// when the column does not exist.
func (t Table) DistinctCount(column string) int {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return 0
	}
	seen := make(map[string]struct{})
	for _, row := range t.Rows {
		seen[row[idx]] = struct{}{}
	}
	return len(seen)
}

// GroupCounts returns per-value row counts for a column, in first-seen
// order. A missing column yields nil.
func (t Table) GroupCounts(column string) []GroupCount {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil
	}

	positions := make(map[string]int)
	var groups []GroupCount
	for _, row := range t.Rows {
		key := row[idx]
		if pos, ok := positions[key]; ok {
			groups[pos].Count++
			continue
		}
		positions[key] = len(groups)
		groups = append(groups, GroupCount{Key: key, Count: 1})
	}
	return groups
}
