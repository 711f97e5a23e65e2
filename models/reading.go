package models

import (
	"strconv"
	"strings"
	"time"
)

// Column names of the cleaned table.
const (
	ColumnTimestamp      = "ActivityTimestamp"
	ColumnDischarge      = "discharge_cfs"
	ColumnApprovalStatus = "approval_status"

	// TimestampLayout is how timestamps are written to the CSV and JSON outputs.
	TimestampLayout = "2006-01-02 15:04:05"

	// DischargeUnit is the unit reported alongside discharge values.
	DischargeUnit = "cfs"
)

// Reading is one cleaned row of the NWIS instantaneous-values table.
// Timestamp and Discharge are always parsed; everything else is best-effort.
type Reading struct {
	Timestamp      time.Time
	Discharge      float64
	ApprovalStatus string
	SiteNo         string

	// Fields holds the passthrough columns (agency_cd, site_no, tz_cd, ...)
	// keyed by their trimmed header name.
	Fields map[string]string
}

// Series is the cleaned table in arrival order. Columns lists the output
// header in source order after renaming.
type Series struct {
	Columns  []string
	Readings []Reading
}

// Len returns the number of readings in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Readings)
}

// Summary holds the aggregates computed once over a non-empty Series.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Avg    float64
	Latest Reading
}

// FormatDischarge renders a discharge value with the shortest exact
// representation, always keeping a decimal point (100 → "100.0").
func FormatDischarge(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
