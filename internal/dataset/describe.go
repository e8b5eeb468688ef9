package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary is one row of the "Data Description" view.
// Std is nil when fewer than two values are present.
type ColumnSummary struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   float64  `json:"mean"`
	Std    *float64 `json:"std"`
	Min    float64  `json:"min"`
	P25    float64  `json:"25%"`
	P50    float64  `json:"50%"`
	P75    float64  `json:"75%"`
	Max    float64  `json:"max"`
}

// Describe summarises every numeric column, in file order. Quantiles use
// linear interpolation between closest ranks.
func (d *Dataset) Describe() []ColumnSummary {
	if len(d.rows) == 0 {
		return []ColumnSummary{}
	}

	out := make([]ColumnSummary, 0, len(d.columns))
	values := make([]float64, len(d.rows))
	for _, col := range d.columns {
		for i, r := range d.rows {
			values[i], _ = r.Value(col)
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		s := ColumnSummary{
			Column: col,
			Count:  len(sorted),
			Mean:   stat.Mean(sorted, nil),
			Min:    floats.Min(sorted),
			P25:    quantile(sorted, 0.25),
			P50:    quantile(sorted, 0.50),
			P75:    quantile(sorted, 0.75),
			Max:    floats.Max(sorted),
		}
		if len(sorted) > 1 {
			std := stat.StdDev(sorted, nil)
			s.Std = &std
		}
		out = append(out, s)
	}
	return out
}

// quantile expects sorted, non-empty input.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	w := pos - float64(lower)
	return sorted[lower]*(1-w) + sorted[upper]*w
}
