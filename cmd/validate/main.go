// Command validate performs offline integrity checks on captured API
// fixtures: a raw e-Stat getStatsData document and a directory of raw
// JMA forecast documents. It verifies that normalization preserves row
// and column counts, that coded columns resolve to labels, and that
// forecast reconstruction yields consistent weather rows.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -stats-json testdata/stats_0003348423.json \
//	  -forecast-dir testdata/forecasts
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/opendata-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	statsJSON := flag.String("stats-json", "", "path to a raw e-Stat getStatsData JSON fixture")
	forecastDir := flag.String("forecast-dir", "", "directory of raw JMA forecast JSON fixtures, one <areaCode>.json per area")
	flag.Parse()

	if *statsJSON == "" && *forecastDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*statsJSON, *forecastDir); code != 0 {
		os.Exit(code)
	}
}

func run(statsJSONPath, forecastDirPath string) int {
	fmt.Println("=== Open Data Fixture Validation ===")
	fmt.Println()

	var phases []*phase

	if statsJSONPath != "" {
		raw, err := os.ReadFile(statsJSONPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read stats fixture: %v\n", err)
			return 1
		}
		phases = append(phases, validateStatsNormalization(raw))
	}

	if forecastDirPath != "" {
		docs, err := loadForecastFixtures(forecastDirPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load forecast fixtures: %v\n", err)
			return 1
		}
		phases = append(phases,
			validateForecastReconstruction(docs),
			validateTableAssembly(docs),
		)
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Printf("  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println("\nAll checks passed.")
	return 0
}

func validateStatsNormalization(raw []byte) *phase {
	p := &phase{name: "Stats normalization"}

	data, err := domain.ParseStatsDocument(raw)
	if err != nil {
		p.errorf("parse stats document: %v", err)
		return p
	}
	if len(data.Columns) == 0 {
		p.errorf("no columns recovered from VALUE rows")
		return p
	}

	rows, columns := domain.ResolveClassifications(data.Rows, data.Columns, data.Axes)

	if len(columns) != len(data.Columns) {
		p.errorf("column count changed: %d before, %d after", len(data.Columns), len(columns))
	}
	if len(rows) != len(data.Rows) {
		p.errorf("row count changed: %d before, %d after", len(data.Rows), len(rows))
	}
	for _, col := range columns {
		if col == "@unit" || col == "$" {
			p.errorf("fixed column %q was not renamed", col)
		}
	}

	// Every resolved row must carry a value under every resolved column.
	table := domain.TableFromRecords(columns, rows)
	for i, row := range table.Rows {
		if len(row) != len(columns) {
			p.errorf("row %d has %d cells, want %d", i, len(row), len(columns))
		}
	}

	fmt.Printf("stats: %d rows, %d columns, %d classification axes\n",
		len(rows), len(columns), len(data.Axes))
	return p
}

type forecastFixture struct {
	areaCode string
	doc      *domain.ForecastDocument
}

func loadForecastFixtures(dir string) ([]forecastFixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no *.json fixtures in %s", dir)
	}

	var docs []forecastFixture
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		doc, err := domain.ParseForecastDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		code := strings.TrimSuffix(filepath.Base(path), ".json")
		docs = append(docs, forecastFixture{areaCode: code, doc: doc})
	}
	return docs, nil
}

func validateForecastReconstruction(docs []forecastFixture) *phase {
	p := &phase{name: "Forecast reconstruction"}

	for _, fx := range docs {
		if fx.doc == nil {
			p.errorf("%s: empty forecast document", fx.areaCode)
			continue
		}

		records := domain.ReconstructSeries(fx.doc, fx.areaCode)
		if len(records) == 0 {
			p.errorf("%s: no weather rows reconstructed", fx.areaCode)
			continue
		}

		times := map[string]bool{}
		for _, block := range fx.doc.TimeSeries {
			for _, td := range block.TimeDefines {
				times[td] = true
			}
		}

		for i, rec := range records {
			if rec.Time == "" {
				p.errorf("%s: row %d has no time", fx.areaCode, i)
			} else if !times[rec.Time] {
				p.errorf("%s: row %d time %q not in any timeDefines", fx.areaCode, i, rec.Time)
			}
			if rec.Weather == "" {
				p.errorf("%s: row %d has no weather text", fx.areaCode, i)
			}
			if rec.Pop != "" && !strings.HasSuffix(rec.Pop, "%") {
				p.errorf("%s: row %d pop %q missing %% suffix", fx.areaCode, i, rec.Pop)
			}
		}

		fmt.Printf("forecast %s: %d rows from %d series blocks\n",
			fx.areaCode, len(records), len(fx.doc.TimeSeries))
	}
	return p
}

func validateTableAssembly(docs []forecastFixture) *phase {
	p := &phase{name: "Table assembly"}

	var tables []domain.Table
	total := 0
	for _, fx := range docs {
		if fx.doc == nil {
			continue
		}
		records := domain.ReconstructSeries(fx.doc, fx.areaCode)
		tables = append(tables, domain.TableFromWeather(records))
		total += len(records)
	}

	combined := domain.Concat(tables...)
	if combined.RowCount() != total {
		p.errorf("combined table has %d rows, want %d", combined.RowCount(), total)
	}
	if enc, err := json.Marshal(combined.Columns); err == nil {
		fmt.Printf("combined: %d rows, columns %s\n", combined.RowCount(), enc)
	}
	for i, col := range domain.WeatherColumns {
		if i >= len(combined.Columns) || combined.Columns[i] != col {
			p.errorf("combined column %d is wrong: got %v", i, combined.Columns)
			break
		}
	}
	return p
}
