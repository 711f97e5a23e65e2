package services

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usgs-water-summary/models"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func reading(offset time.Duration, v float64, status string) models.Reading {
	return models.Reading{Timestamp: base.Add(offset), Discharge: v, ApprovalStatus: status}
}

func series(readings ...models.Reading) *models.Series {
	return &models.Series{
		Columns:  []string{models.ColumnTimestamp, models.ColumnDischarge, models.ColumnApprovalStatus},
		Readings: readings,
	}
}

func TestSummaryTwoRowScenario(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	sum := svc.Generate(series(
		reading(0, 100.0, "A"),
		reading(time.Hour, 150.0, "A"),
	))

	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 100.0, sum.Min)
	assert.Equal(t, 150.0, sum.Max)
	assert.Equal(t, 125.0, sum.Avg)
	assert.Equal(t, 150.0, sum.Latest.Discharge)
	assert.Equal(t, base.Add(time.Hour), sum.Latest.Timestamp)
}

func TestSummaryLatestIgnoresArrivalOrder(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	sum := svc.Generate(series(
		reading(2*time.Hour, 10, "P"),
		reading(0, 30, "P"),
		reading(time.Hour, 20, "P"),
	))

	assert.Equal(t, 10.0, sum.Latest.Discharge)
	assert.Equal(t, base.Add(2*time.Hour), sum.Latest.Timestamp)
}

func TestSummaryLatestTieGoesToLastArrival(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	s := series(
		reading(time.Hour, 1, "A"),
		reading(time.Hour, 2, "P"),
		reading(0, 3, "A"),
	)

	sum := svc.Generate(s)

	assert.Equal(t, 2.0, sum.Latest.Discharge)
	assert.Equal(t, "P", sum.Latest.ApprovalStatus)
	// Generate sorts a copy; the series keeps its arrival order.
	assert.Equal(t, 1.0, s.Readings[0].Discharge)
}

func TestSummaryProperties(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(40)
		readings := make([]models.Reading, n)
		for i := range readings {
			offset := time.Duration(rng.Intn(500)) * time.Minute
			readings[i] = reading(offset, rng.Float64()*1000, "A")
		}
		s := series(readings...)

		first := svc.Generate(s)
		second := svc.Generate(s)
		require.Equal(t, first, second, "Generate must be idempotent")

		assert.Equal(t, n, first.Count)
		assert.LessOrEqual(t, first.Min, first.Avg)
		assert.GreaterOrEqual(t, first.Max, first.Avg)
		for _, r := range readings {
			assert.False(t, r.Timestamp.After(first.Latest.Timestamp))
		}
	}
}

func TestSummaryAvgStaysInRangeForEqualValues(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	sum := svc.Generate(series(
		reading(0, 0.1, "A"),
		reading(time.Minute, 0.1, "A"),
		reading(2*time.Minute, 0.1, "A"),
	))

	assert.Equal(t, 0.1, sum.Min)
	assert.Equal(t, 0.1, sum.Max)
	assert.Equal(t, 0.1, sum.Avg)
}

func TestDocumentShape(t *testing.T) {
	sum := models.Summary{
		Count:  3,
		Min:    10,
		Max:    20.5,
		Avg:    15.166666,
		Latest: reading(time.Hour, 20.5, "P"),
	}

	data, err := json.Marshal(Document(sum))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"count": 3,
		"min": 10,
		"max": 20.5,
		"avg": 15.17,
		"latest_reading": {"date": "2024-01-01 01:00:00", "value": 20.5, "unit": "cfs"}
	}`, string(data))
}

func TestDocumentAvgTieRoundsToEven(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	sum := svc.Generate(series(
		reading(0, 0.1, "A"),
		reading(time.Minute, 0.15, "A"),
	))
	require.Equal(t, 0.125, sum.Avg)

	assert.Equal(t, 0.12, Document(sum).Avg)
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{125, 125},
		{2.675, 2.67},
		{1.005, 1.0},
		{0.125, 0.12},
		{0.375, 0.38},
		{-0.125, -0.12},
		{-1.234, -1.23},
		{99.999, 100},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrintReport(t *testing.T) {
	svc := NewSummaryService(newTestLogger())
	sum := svc.Generate(series(
		reading(0, 100.0, "A"),
		reading(time.Hour, 150.0, "A"),
	))

	var buf bytes.Buffer
	svc.Print(&buf, "NEW MEXICO WATER SUMMARY", "08358400", sum)
	out := buf.String()

	for _, want := range []string{
		"NEW MEXICO WATER SUMMARY",
		"Site ID:     08358400",
		"Readings:    2",
		"Min Flow:    100.00 cfs",
		"Max Flow:    150.00 cfs",
		"Avg Flow:    125.00 cfs",
		"Latest:      150.0 cfs",
		"As of:       2024-01-01 01:00:00",
		"--- PIPELINE SUCCESS ---",
		"Processed 2 records for Site 08358400",
	} {
		assert.Contains(t, out, want)
	}
}
