// Package dataset holds the maternal health observations the dashboard
// explores and the classifier trains on.
package dataset

import (
	"slices"
	"sort"
)

// Column names as they appear in the CSV header.
const (
	ColAge         = "Age"
	ColSystolicBP  = "SystolicBP"
	ColDiastolicBP = "DiastolicBP"
	ColBS          = "BS"
	ColBodyTemp    = "BodyTemp"
	ColHeartRate   = "HeartRate"
	ColRiskLevel   = "RiskLevel"
)

var numericColumns = []string{ColAge, ColSystolicBP, ColDiastolicBP, ColBS, ColBodyTemp, ColHeartRate}

// IsNumericColumn reports whether name is one of the six vitals columns.
func IsNumericColumn(name string) bool {
	return slices.Contains(numericColumns, name)
}

// Observation is one row of vitals. RiskLevel is empty for an observation
// that has not been classified yet.
type Observation struct {
	Age         int     `json:"Age"`
	BloodSugar  float64 `json:"BS"`
	BodyTemp    float64 `json:"BodyTemp"`
	DiastolicBP int     `json:"DiastolicBP"`
	HeartRate   int     `json:"HeartRate"`
	SystolicBP  int     `json:"SystolicBP"`
	RiskLevel   string  `json:"RiskLevel,omitempty"`
}

// Value returns the numeric value stored under the given column name.
func (o Observation) Value(column string) (float64, bool) {
	switch column {
	case ColAge:
		return float64(o.Age), true
	case ColBS:
		return o.BloodSugar, true
	case ColBodyTemp:
		return o.BodyTemp, true
	case ColDiastolicBP:
		return float64(o.DiastolicBP), true
	case ColHeartRate:
		return float64(o.HeartRate), true
	case ColSystolicBP:
		return float64(o.SystolicBP), true
	}
	return 0, false
}

// Dataset is an ordered, read-only sequence of labelled observations.
type Dataset struct {
	rows        []Observation
	columns     []string
	fingerprint uint64
}

// New builds a dataset from rows. The rows are copied.
func New(rows []Observation) *Dataset {
	return newDataset(slices.Clone(rows), numericColumns)
}

func newDataset(rows []Observation, columns []string) *Dataset {
	return &Dataset{
		rows:        rows,
		columns:     columns,
		fingerprint: fingerprint(rows),
	}
}

func (d *Dataset) Len() int { return len(d.rows) }

func (d *Dataset) At(i int) Observation { return d.rows[i] }

// Rows returns a copy of all observations.
func (d *Dataset) Rows() []Observation { return slices.Clone(d.rows) }

// Head returns up to n leading observations.
func (d *Dataset) Head(n int) []Observation {
	if n > len(d.rows) {
		n = len(d.rows)
	}
	if n < 0 {
		n = 0
	}
	return slices.Clone(d.rows[:n])
}

// Columns returns the numeric columns in file order.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// Labels returns the RiskLevel of every row, in row order.
func (d *Dataset) Labels() []string {
	out := make([]string, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.RiskLevel
	}
	return out
}

// DistinctLabels returns the distinct RiskLevel values sorted lexicographically.
func (d *Dataset) DistinctLabels() []string {
	seen := make(map[string]struct{})
	for _, r := range d.rows {
		seen[r.RiskLevel] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Fingerprint is a content hash of the rows. Two datasets with the same
// rows in the same order share a fingerprint.
func (d *Dataset) Fingerprint() uint64 { return d.fingerprint }
