package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"usgs-water-summary/models"
	"usgs-water-summary/utils"
)

const (
	commentMarker   = "#"
	qualitySuffix   = "_cd"
	timestampColumn = "datetime"
	siteColumn      = "site_no"
)

// timestampLayouts are tried in order; NWIS emits the first one.
var timestampLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Outcome tags the result of cleaning.
type Outcome int

const (
	// OutcomeOK means the result carries a non-empty series.
	OutcomeOK Outcome = iota
	// OutcomeEmpty means there is nothing to summarize; Reason says why.
	OutcomeEmpty
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CleanResult is either a usable series or an explained absence of one.
type CleanResult struct {
	Outcome Outcome
	Series  *models.Series
	Reason  string
}

func okResult(s *models.Series) CleanResult {
	return CleanResult{Outcome: OutcomeOK, Series: s}
}

func emptyResult(reason string) CleanResult {
	return CleanResult{Outcome: OutcomeEmpty, Reason: reason}
}

// Cleaner turns a raw RDB response into a validated series of readings.
type Cleaner struct {
	parameterCode string
	logger        *utils.Logger
}

// NewCleaner creates a Cleaner that looks for the given parameter code.
func NewCleaner(parameterCode string, logger *utils.Logger) *Cleaner {
	return &Cleaner{parameterCode: parameterCode, logger: logger}
}

// Clean parses raw and returns the readings whose timestamp and discharge
// both parse. It never fails: anything unusable comes back as OutcomeEmpty.
func (c *Cleaner) Clean(raw string) CleanResult {
	tbl := parseTable(raw)
	for _, line := range tbl.overflow {
		c.logger.Warn("[cleaner] Line %d has more fields than the header; extra fields ignored", line)
	}
	if len(tbl.rows) == 0 {
		return c.empty("No data returned from USGS.")
	}

	valueCol, ok := FindValueColumn(tbl.header, c.parameterCode)
	if !ok || !hasColumn(tbl.header, timestampColumn) {
		return c.empty(fmt.Sprintf("Could not find required columns. Actual Columns: [%s]",
			strings.Join(tbl.header, ", ")))
	}
	qualityCol := valueCol + qualitySuffix

	renames := map[string]string{
		timestampColumn: models.ColumnTimestamp,
		valueCol:        models.ColumnDischarge,
	}
	if hasColumn(tbl.header, qualityCol) {
		renames[qualityCol] = models.ColumnApprovalStatus
	} else {
		c.logger.Debug("[cleaner] No quality column %q; approval_status left blank", qualityCol)
	}

	columns := make([]string, len(tbl.header))
	for i, h := range tbl.header {
		if to, ok := renames[h]; ok {
			columns[i] = to
		} else {
			columns[i] = h
		}
	}

	readings := make([]models.Reading, 0, len(tbl.rows))
	for lineNo, row := range tbl.rows {
		r := models.Reading{Fields: make(map[string]string)}
		var haveTime, haveValue bool

		for i, col := range columns {
			cell := row[i]
			switch col {
			case models.ColumnTimestamp:
				r.Timestamp, haveTime = parseTimestamp(cell)
			case models.ColumnDischarge:
				r.Discharge, haveValue = parseDischarge(cell)
			case models.ColumnApprovalStatus:
				r.ApprovalStatus = strings.TrimSpace(cell)
			default:
				r.Fields[col] = cell
			}
		}

		if !haveTime || !haveValue {
			c.logger.Debug("[cleaner] Dropping row %d: timestamp ok=%t discharge ok=%t",
				lineNo+1, haveTime, haveValue)
			continue
		}
		r.SiteNo = strings.TrimSpace(r.Fields[siteColumn])
		readings = append(readings, r)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d readings (dropped %d)",
		len(tbl.rows), len(readings), len(tbl.rows)-len(readings))

	if len(readings) == 0 {
		return c.empty("Table is empty after cleaning metadata.")
	}

	return okResult(&models.Series{Columns: columns, Readings: readings})
}

func (c *Cleaner) empty(reason string) CleanResult {
	c.logger.Warn("[cleaner] %s", reason)
	return emptyResult(reason)
}

// FindValueColumn returns the first column whose name contains
// parameterCode and is not a quality-code column.
func FindValueColumn(columns []string, parameterCode string) (string, bool) {
	for _, col := range columns {
		if strings.Contains(col, parameterCode) && !strings.HasSuffix(col, qualitySuffix) {
			return col, true
		}
	}
	return "", false
}

type table struct {
	header []string
	rows   [][]string

	// overflow holds the 1-based input lines cut to the header width.
	overflow []int
}

// parseTable splits an RDB body into a trimmed header and rows padded or
// cut to the header width. Comment and blank lines are skipped.
func parseTable(raw string) table {
	var tbl table
	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}

		fields := strings.Split(line, "\t")
		if tbl.header == nil {
			for i := range fields {
				fields[i] = strings.TrimSpace(fields[i])
			}
			tbl.header = fields
			continue
		}

		if len(fields) > len(tbl.header) {
			tbl.overflow = append(tbl.overflow, i+1)
		}
		row := make([]string, len(tbl.header))
		copy(row, fields)
		tbl.rows = append(tbl.rows, row)
	}
	return tbl
}

func hasColumn(columns []string, name string) bool {
	for _, col := range columns {
		if col == name {
			return true
		}
	}
	return false
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseDischarge accepts finite decimal numbers only; NWIS markers such as
// "Ice", "Eqp" or "Dis" count as missing.
func parseDischarge(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
