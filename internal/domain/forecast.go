package domain

import (
	"encoding/json"
	"fmt"
)

// ForecastDocument is the first edition of a JMA bosai forecast feed for
// one reporting area.
type ForecastDocument struct {
	TimeSeries []SeriesBlock `json:"timeSeries"`
}

// SeriesBlock is one forecast time-series unit (e.g. today/tomorrow vs.
// week ahead) with its own timestamp axis.
type SeriesBlock struct {
	TimeDefines []string    `json:"timeDefines"`
	Areas       []AreaBlock `json:"areas"`
}

// AreaBlock is the per-region slice of a SeriesBlock. Weathers, Temps and
// Pops are parallel arrays correlated to TimeDefines purely by position;
// any of them may be absent.
type AreaBlock struct {
	Area     AreaRef  `json:"area"`
	Weathers []string `json:"weathers"`
	Temps    []string `json:"temps"`
	Pops     []string `json:"pops"`
}

// AreaRef identifies the region an AreaBlock describes.
type AreaRef struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// WeatherRecord is one reconstructed (area, timestamp) row. Weather,
// TempLow, TempHigh and Pop are optional; empty string means the source
// block did not carry that attribute for the row.
type WeatherRecord struct {
	Area     string
	AreaCode string
	Time     string
	Weather  string
	TempLow  string
	TempHigh string
	Pop      string
}

// ParseForecastDocument decodes a raw forecast feed. The feed wraps one
// or more editions in an array; only the first is used. An empty array is
// not an error; it reconstructs to zero rows.
func ParseForecastDocument(data []byte) (*ForecastDocument, error) {
	var editions []ForecastDocument
	if err := json.Unmarshal(data, &editions); err != nil {
		return nil, fmt.Errorf("parse forecast document: %w", err)
	}
	if len(editions) == 0 {
		return nil, nil
	}
	return &editions[0], nil
}

// ReconstructSeries flattens a forecast document into one row per
// (area, timestamp) pair, in block-then-area-then-timestamp order.
//
// Rows are created only while walking weathers, one per timestamp; that
// is what establishes row identity. Temps and pops patch rows already in
// the accumulated sequence: temps[i] belongs to the row at i/2 (readings
// come in low/high pairs per timestamp, flattened), pops[i] to the row at
// i, formatted as a percentage. A block carrying only temps or pops
// cannot create rows. Blocks covering overlapping time ranges produce
// distinct rows; nothing is merged or re-sorted.
//
// Every index is guarded against the shorter of the correlated arrays, so
// a temps array of odd length applies its unpaired trailing reading as a
// low value when the row at i/2 exists and is otherwise ignored.
func ReconstructSeries(doc *ForecastDocument, areaName string) []WeatherRecord {
	if doc == nil {
		return nil
	}

	var records []WeatherRecord
	for _, series := range doc.TimeSeries {
		for _, area := range series.Areas {
			for i, weather := range area.Weathers {
				if i >= len(series.TimeDefines) {
					break
				}
				records = append(records, WeatherRecord{
					Area:     areaName,
					AreaCode: area.Area.Code,
					Time:     series.TimeDefines[i],
					Weather:  weather,
				})
			}

			for i, temp := range area.Temps {
				pos := i / 2
				if pos >= len(records) {
					break
				}
				if i%2 == 0 {
					records[pos].TempLow = temp
				} else {
					records[pos].TempHigh = temp
				}
			}

			for i, pop := range area.Pops {
				if i >= len(records) {
					break
				}
				records[i].Pop = pop + "%"
			}
		}
	}
	return records
}
