package dataset

import "sort"

// AgeCounts is the "RiskLevel Counts" view: how many observations of each
// risk level exist at every age.
type AgeCounts struct {
	Labels []string     `json:"labels"`
	Rows   []AgeCountRow `json:"rows"`
}

// AgeCountRow holds counts aligned with AgeCounts.Labels.
type AgeCountRow struct {
	Age    int   `json:"age"`
	Counts []int `json:"counts"`
}

// MaxCount returns the largest single cell, or 0 for an empty table.
func (c AgeCounts) MaxCount() int {
	m := 0
	for _, r := range c.Rows {
		for _, n := range r.Counts {
			m = max(m, n)
		}
	}
	return m
}

// CountsByAge groups observations by age (ascending) and risk level (sorted).
func (d *Dataset) CountsByAge() AgeCounts {
	labels := d.DistinctLabels()
	pos := make(map[string]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}

	byAge := make(map[int][]int)
	for _, r := range d.rows {
		counts, ok := byAge[r.Age]
		if !ok {
			counts = make([]int, len(labels))
			byAge[r.Age] = counts
		}
		counts[pos[r.RiskLevel]]++
	}

	rows := make([]AgeCountRow, 0, len(byAge))
	for age, counts := range byAge {
		rows = append(rows, AgeCountRow{Age: age, Counts: counts})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Age < rows[j].Age })

	return AgeCounts{Labels: labels, Rows: rows}
}
