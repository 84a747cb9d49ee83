package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

// CodedFieldPrefix marks columns whose values are classification codes.
const CodedFieldPrefix = "@"

// Structural columns renamed on every document, independent of any axis.
const (
	unitColumn = "@unit"
	unitLabel  = "unit"

	valueColumn = "$"
	valueLabel  = "value"
)

// CodeEntry maps one opaque classification code to its display label.
type CodeEntry struct {
	Code  string
	Label string
}

// ClassificationAxis is one categorical dimension of a statistics
// document: the coded column it governs (CodedFieldPrefix + ID), its
// display name, and the code-to-label entries. Codes are unique within
// an axis. Built once per document, read-only afterward.
type ClassificationAxis struct {
	ID      string
	Name    string
	Entries []CodeEntry
}

// toAxis converts a decoded CLASS_OBJ into an axis, normalizing the
// single-entry form into a one-element slice. A CLASS member that cannot
// be decoded, or an entry missing its code or name, makes the whole axis
// structurally unusable.
func (c classObj) toAxis() (ClassificationAxis, error) {
	entries, err := decodeCodeEntries(c.Class)
	if err != nil {
		return ClassificationAxis{}, fmt.Errorf("axis %q: %w", c.ID, err)
	}
	return ClassificationAxis{ID: c.ID, Name: c.Name, Entries: entries}, nil
}

func decodeCodeEntries(raw json.RawMessage) ([]CodeEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var list []classEntry
	if err := json.Unmarshal(raw, &list); err != nil {
		var single classEntry
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, fmt.Errorf("decode CLASS entries: %w", err)
		}
		list = []classEntry{single}
	}

	entries := make([]CodeEntry, 0, len(list))
	for _, e := range list {
		if e.Code == "" || e.Name == "" {
			return nil, fmt.Errorf("CLASS entry missing code or name")
		}
		entries = append(entries, CodeEntry{Code: e.Code, Label: e.Name})
	}
	return entries, nil
}

// usable reports whether the axis carries enough metadata to resolve and
// rename its column. Zero entries is fine: the column is renamed and every
// value passes through.
func (a ClassificationAxis) usable() bool {
	return a.ID != "" && a.Name != ""
}

func (a ClassificationAxis) lookup() map[string]string {
	m := make(map[string]string, len(a.Entries))
	for _, e := range a.Entries {
		m[e.Code] = e.Label
	}
	return m
}

// ResolveClassifications rewrites coded values into their labels and
// renames the coded columns to the axis display names, returning new
// rows and a new column list. The input rows are not modified.
//
// Per axis: the governed column is CodedFieldPrefix + axis ID. An axis
// whose column is absent from the document is a no-op (some axes describe
// metadata not present in every value row). Codes without a matching
// entry pass through unchanged, never dropped. An axis missing its ID or
// name is skipped entirely, leaving its column unresolved.
//
// When several axes target the same column they are applied in listed
// order and the last write wins, for both values and the rename. The
// structural "@unit" and "$" columns are always renamed to "unit" and
// "value". Renaming preserves column count and positional order.
func ResolveClassifications(rows []Record, columns []string, axes []ClassificationAxis) ([]Record, []string) {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = maps.Clone(row)
	}

	rename := map[string]string{
		unitColumn:  unitLabel,
		valueColumn: valueLabel,
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	for _, axis := range axes {
		if !axis.usable() {
			continue
		}
		column := CodedFieldPrefix + axis.ID
		rename[column] = axis.Name
		if !present[column] {
			continue
		}

		labels := axis.lookup()
		for _, row := range out {
			if label, ok := labels[row[column]]; ok {
				row[column] = label
			}
		}
	}

	renamed := make([]string, len(columns))
	for i, c := range columns {
		if name, ok := rename[c]; ok {
			renamed[i] = name
		} else {
			renamed[i] = c
		}
	}

	for i, row := range out {
		out[i] = renameKeys(row, rename)
	}

	return out, renamed
}

func renameKeys(row Record, rename map[string]string) Record {
	renamed := make(Record, len(row))
	for k, v := range row {
		if name, ok := rename[k]; ok {
			renamed[name] = v
		} else {
			renamed[k] = v
		}
	}
	return renamed
}
