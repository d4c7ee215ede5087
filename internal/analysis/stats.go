package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// StatSummary describes the usable numeric values of one column.
// Min <= Median <= Max holds whenever Count > 0.
type StatSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stddev"`
}

// CalculateStatistics summarizes the numeric cells of column. Missing and
// non-numeric cells are dropped. A nil summary with a nil error means the
// column has no usable values.
//
// StdDev is the population standard deviation (divides by Count), which the
// anomaly z-scores depend on.
func CalculateStatistics(ds Dataset, column string, opt Options) (*StatSummary, error) {
	if err := ds.column("stats", column); err != nil {
		return nil, err
	}
	return summarize(numericValues(ds.Records, column, opt))
}

func summarize(vals []float64) (*StatSummary, error) {
	if len(vals) == 0 {
		return nil, nil
	}
	lo, hi := Min(vals), Max(vals)
	// Work on values scaled into (-2, 2) when sums or squares could overflow.
	// Dividing by a power of two is exact.
	scale := rangeScale(lo, hi)
	data := vals
	if scale != 1 {
		data = make([]float64, len(vals))
		for i, v := range vals {
			data[i] = v / scale
		}
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, fmt.Errorf("mean: %w", err)
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, fmt.Errorf("median: %w", err)
	}
	sd, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return nil, fmt.Errorf("stddev: %w", err)
	}
	mean, median, sd = mean*scale, median*scale, sd*scale
	// A constant column has no spread; ignore rounding residue from the mean.
	if lo == hi {
		sd = 0
		mean = lo
	}
	return &StatSummary{
		Count:  len(vals),
		Mean:   clamp(mean, lo, hi),
		Median: clamp(median, lo, hi),
		Min:    lo,
		Max:    hi,
		StdDev: sd,
	}, nil
}

// overflowGuard bounds magnitudes whose squares and sums stay finite for any
// realistic row count.
const overflowGuard = 1e100

// rangeScale returns 1 for ordinary magnitudes, otherwise a power of two that
// maps the largest magnitude into [1, 2).
func rangeScale(lo, hi float64) float64 {
	m := math.Max(math.Abs(lo), math.Abs(hi))
	if m <= overflowGuard {
		return 1
	}
	_, exp := math.Frexp(m)
	return math.Ldexp(1, exp-1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// numericValues extracts usable numbers of column in row order.
func numericValues(records []Record, column string, opt Options) []float64 {
	vals := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r[column].Float(opt); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// Scalar reducers shared with the group aggregator. Callers guarantee a
// non-empty input for Mean, Min and Max.

func Sum(vals []float64) float64 { return floats.Sum(vals) }

// Mean scales large magnitudes like summarize so the sum cannot overflow.
func Mean(vals []float64) float64 {
	scale := rangeScale(Min(vals), Max(vals))
	if scale == 1 {
		return floats.Sum(vals) / float64(len(vals))
	}
	var sum float64
	for _, v := range vals {
		sum += v / scale
	}
	return sum / float64(len(vals)) * scale
}

func Min(vals []float64) float64 { return floats.Min(vals) }

func Max(vals []float64) float64 { return floats.Max(vals) }
