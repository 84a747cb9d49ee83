package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one flat row of statistical data, keyed by field identifier.
// Keys prefixed with the coded-field marker carry classification codes;
// the remaining keys carry scalar values.
type Record map[string]string

// StatsData is the decoded payload of one e-Stat statistics document:
// the value rows, their column order as it appears in the source, and
// the classification axes from the metadata section.
type StatsData struct {
	Columns []string
	Rows    []Record
	Axes    []ClassificationAxis
}

// statsResponse mirrors the envelope of a getStatsData response. Only the
// members the normalizer needs are mapped.
type statsResponse struct {
	GetStatsData struct {
		StatisticalData struct {
			ClassInf struct {
				ClassObj []classObj `json:"CLASS_OBJ"`
			} `json:"CLASS_INF"`
			DataInf struct {
				Value json.RawMessage `json:"VALUE"`
			} `json:"DATA_INF"`
		} `json:"STATISTICAL_DATA"`
	} `json:"GET_STATS_DATA"`
}

type classObj struct {
	ID    string          `json:"@id"`
	Name  string          `json:"@name"`
	Class json.RawMessage `json:"CLASS"`
}

type classEntry struct {
	Code string `json:"@code"`
	Name string `json:"@name"`
}

// ParseStatsDocument decodes a raw getStatsData response into rows, an
// ordered column list, and classification axes. Axes whose CLASS member
// cannot be decoded are skipped so the rest of the document stays usable;
// their columns simply remain unresolved.
func ParseStatsDocument(data []byte) (StatsData, error) {
	var resp statsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return StatsData{}, fmt.Errorf("parse stats document: %w", err)
	}

	rawValues := resp.GetStatsData.StatisticalData.DataInf.Value
	rows, err := decodeValueRows(rawValues)
	if err != nil {
		return StatsData{}, err
	}

	columns, err := columnOrder(rawValues)
	if err != nil {
		return StatsData{}, err
	}

	var axes []ClassificationAxis
	for _, obj := range resp.GetStatsData.StatisticalData.ClassInf.ClassObj {
		axis, err := obj.toAxis()
		if err != nil {
			continue
		}
		axes = append(axes, axis)
	}

	return StatsData{Columns: columns, Rows: rows, Axes: axes}, nil
}

// decodeValueRows decodes the VALUE array into Records, stringifying the
// occasional numeric or boolean scalar the API emits.
func decodeValueRows(raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic []map[string]any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode value rows: %w", err)
	}

	rows := make([]Record, 0, len(generic))
	for _, m := range generic {
		rec := make(Record, len(m))
		for k, v := range m {
			rec[k] = scalarString(v)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

// columnOrder extracts the key order of the first VALUE object. JSON
// objects are unordered once decoded into a map, so the order has to be
// recovered from the token stream before decoding.
func columnOrder(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read value array: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("value field is not an array")
	}
	if !dec.More() {
		return nil, nil
	}

	if _, err := dec.Token(); err != nil { // opening brace of the first row
		return nil, fmt.Errorf("read first value row: %w", err)
	}

	var columns []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read column name: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in value row", tok)
		}
		columns = append(columns, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("read column value: %w", err)
		}
	}
	return columns, nil
}
