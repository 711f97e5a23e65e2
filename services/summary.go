package services

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"usgs-water-summary/models"
	"usgs-water-summary/utils"
)

// SummaryService aggregates a cleaned series and renders the console report.
type SummaryService struct {
	logger *utils.Logger
}

func NewSummaryService(logger *utils.Logger) *SummaryService {
	return &SummaryService{logger: logger}
}

// Generate computes count, min, max, mean and the latest reading. The
// series must be non-empty; callers stop at OutcomeEmpty before this point.
func (s *SummaryService) Generate(series *models.Series) models.Summary {
	readings := series.Readings

	sum := models.Summary{
		Count: len(readings),
		Min:   readings[0].Discharge,
		Max:   readings[0].Discharge,
	}

	var total float64
	for _, r := range readings {
		total += r.Discharge
		if r.Discharge < sum.Min {
			sum.Min = r.Discharge
		}
		if r.Discharge > sum.Max {
			sum.Max = r.Discharge
		}
	}
	sum.Avg = total / float64(len(readings))

	// Floating-point summation can leave the mean an ulp outside [min, max].
	if sum.Avg < sum.Min {
		sum.Avg = sum.Min
	}
	if sum.Avg > sum.Max {
		sum.Avg = sum.Max
	}

	ordered := make([]models.Reading, len(readings))
	copy(ordered, readings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	sum.Latest = ordered[len(ordered)-1]

	s.logger.Debug("[summary] count=%d min=%.2f max=%.2f avg=%.4f latest=%s",
		sum.Count, sum.Min, sum.Max, sum.Avg, sum.Latest.Timestamp.Format(models.TimestampLayout))
	return sum
}

// Document converts a Summary into its persisted JSON shape.
func Document(sum models.Summary) models.SummaryDocument {
	return models.SummaryDocument{
		Count: sum.Count,
		Min:   sum.Min,
		Max:   sum.Max,
		Avg:   round2(sum.Avg),
		LatestReading: models.LatestReadingDocument{
			Date:  sum.Latest.Timestamp.Format(models.TimestampLayout),
			Value: sum.Latest.Discharge,
			Unit:  models.DischargeUnit,
		},
	}
}

// Print writes the human-readable report for one site.
func (s *SummaryService) Print(w io.Writer, title, siteID string, sum models.Summary) {
	sep := strings.Repeat("=", 30)
	thin := strings.Repeat("-", 30)

	fmt.Fprintf(w, "\n\033[1;36m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;36m   %s\033[0m\n", title)
	fmt.Fprintf(w, "\033[1;36m%s\033[0m\n", sep)
	fmt.Fprintf(w, "Site ID:     %s\n", siteID)
	fmt.Fprintf(w, "Readings:    %d\n", sum.Count)
	fmt.Fprintf(w, "Min Flow:    %.2f %s\n", sum.Min, models.DischargeUnit)
	fmt.Fprintf(w, "Max Flow:    %.2f %s\n", sum.Max, models.DischargeUnit)
	fmt.Fprintf(w, "Avg Flow:    %.2f %s\n", sum.Avg, models.DischargeUnit)
	fmt.Fprintf(w, "%s\n", thin)
	fmt.Fprintf(w, "Latest:      %s %s\n", models.FormatDischarge(sum.Latest.Discharge), models.DischargeUnit)
	fmt.Fprintf(w, "As of:       %s\n", sum.Latest.Timestamp.Format(models.TimestampLayout))
	fmt.Fprintf(w, "\033[1;36m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\n\033[1;32m--- PIPELINE SUCCESS ---\033[0m\n")
	fmt.Fprintf(w, "Processed %d records for Site %s\n", sum.Count, siteID)
}

// exactDigits is enough fractional digits to print any float64 exactly.
const exactDigits = 1074

// round2 rounds the exact binary value of f to two places, ties to even.
// 2.675 is stored as 2.67499... and becomes 2.67; 0.125 is a true tie and
// becomes 0.12.
func round2(f float64) float64 {
	exact := decimal.RequireFromString(strconv.FormatFloat(f, 'f', exactDigits, 64))
	return exact.RoundBank(2).InexactFloat64()
}
