// Package domain models Japanese government open-data documents and their
// normalization into flat tables.
//
// # Data Sources
//
// Statistics documents come from the e-Stat getStatsData REST API
// (https://api.e-stat.go.jp/rest/3.0/app/json/getStatsData). Forecast
// documents come from the JMA bosai forecast feed
// (https://www.jma.go.jp/bosai/forecast/data/forecast/<areaCode>.json).
// Both are fetched by the adapter layer; this package only consumes the
// decoded JSON bytes.
//
// # e-Stat Conventions
//
// The value rows live at GET_STATS_DATA.STATISTICAL_DATA.DATA_INF.VALUE as
// an array of flat objects. Coded columns are prefixed with "@" ("@cat01",
// "@area", "@time"); "@unit" carries the measurement unit and "$" carries
// the raw value.
//
// Classification metadata lives at CLASS_INF.CLASS_OBJ. Each entry has an
// "@id" naming the coded column it governs (the column name is "@" + id),
// an "@name" display name, and a CLASS member that is EITHER a single
// object OR an array of objects of the form {"@code": ..., "@name": ...}.
// The single-object form is normalized to a one-element slice at decode
// time so downstream code never branches on shape.
//
// Codes with no matching classification entry pass through unchanged.
// Dropping rows over unresolvable codes would be silent data loss.
//
// # JMA Forecast Conventions
//
// The feed returns an array of forecast editions; only the first is used.
// Each edition carries a timeSeries array of blocks, each block a
// timeDefines timestamp axis plus per-area slices. An area slice may carry
// up to three parallel arrays whose correspondence to timestamps is purely
// positional:
//
//	weathers: one description per timestamp
//	temps:    two readings per timestamp, flattened (low, high, low, high, ...)
//	pops:     one precipitation probability per timestamp, rendered "N%"
//
// Any of the three may be absent. Rows are created only while walking
// weathers; temps and pops patch rows already created, so a block carrying
// only temperatures contributes no rows of its own. Every index access is
// guarded against the shorter of the two correlated arrays.
package domain
