package stats

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/langowen/corra/internal/entities"
)

// Alignment decides how Correlate treats dates of the first series missing from the second.
type Alignment int

const (
	// AlignZeroFill counts a missing rate as 0 and keeps whole-series means.
	AlignZeroFill Alignment = iota
	// AlignIntersect drops missing dates and takes both means over the shared dates only.
	AlignIntersect
)

func (a Alignment) String() string {
	switch a {
	case AlignIntersect:
		return "intersect"
	default:
		return "zero-fill"
	}
}

func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "", "zero-fill":
		return AlignZeroFill, nil
	case "intersect":
		return AlignIntersect, nil
	}
	return AlignZeroFill, fmt.Errorf("unknown alignment %q", s)
}

type Calculator struct {
	log *slog.Logger
}

func NewCalculator(log *slog.Logger) *Calculator {
	if log == nil {
		log = slog.Default()
	}

	return &Calculator{log: log}
}

// Describe returns mean, high and low of the series.
func (c *Calculator) Describe(series entities.RateSeries) entities.SeriesStatistics {
	if len(series) == 0 {
		c.log.Error("no rates defined")
		return entities.SeriesStatistics{Empty: true}
	}

	dates := sortedDates(series)

	first := series[dates[0]]
	stats := entities.SeriesStatistics{High: first, Low: first}

	var sum float64
	for _, d := range dates {
		v := series[d]
		sum += v
		if v > stats.High {
			stats.High = v
		}
		if v < stats.Low {
			stats.Low = v
		}
	}
	stats.Mean = sum / float64(len(series))

	return stats
}

// Correlate returns the Pearson coefficient of a against b, walking the dates of a.
// Degenerate input gives NaN.
func (c *Calculator) Correlate(a, b entities.RateSeries, mode Alignment) float64 {
	if len(a) != len(b) {
		c.log.Warn("number of rates are different", "first", len(a), "second", len(b))
	}

	dates := sortedDates(a)

	var meanA, meanB float64
	switch mode {
	case AlignIntersect:
		dates = shared(dates, b)
		meanA = meanOf(a, dates)
		meanB = meanOf(b, dates)
	default:
		meanA = meanOf(a, dates)
		meanB = meanOf(b, sortedDates(b))
	}

	var num, sumA, sumB float64
	for _, d := range dates {
		vb, ok := b[d]
		if !ok {
			c.log.Error("missing rate for date", "date", d)
			vb = 0
		}

		da := a[d] - meanA
		db := vb - meanB

		num += da * db
		sumA += da * da
		sumB += db * db
	}

	return num / (math.Sqrt(sumA) * math.Sqrt(sumB))
}

func meanOf(series entities.RateSeries, dates []string) float64 {
	var sum float64
	for _, d := range dates {
		sum += series[d]
	}
	return sum / float64(len(dates))
}

func shared(dates []string, other entities.RateSeries) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := other[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

func sortedDates(series entities.RateSeries) []string {
	dates := make([]string, 0, len(series))
	for d := range series {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
