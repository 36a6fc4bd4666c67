package domain

import (
	"sort"
	"time"
)

// NoProfile marks rows of variables without a soil-layer dimension.
const NoProfile = -1

// SummaryRow is one zonal statistic for a (time, member[, profile]) combination.
type SummaryRow struct {
	Time      time.Time `json:"time"`
	TimeIndex int       `json:"time_index"`
	Ensemble  int       `json:"ensemble"`
	Profile   int       `json:"profile"`
	Value     float64   `json:"value"`
}

// SummaryTable is the flat result of a zonal aggregation.
type SummaryTable struct {
	RegionID  string       `json:"region_id"`
	Variable  string       `json:"variable"`
	Reduction Reduction    `json:"reduction"`
	Cells     int          `json:"cells"`
	Rows      []SummaryRow `json:"rows"`
}

// FilterProfile returns a copy of the table holding only rows of profile p.
func (t *SummaryTable) FilterProfile(p int) *SummaryTable {
	out := *t
	out.Rows = make([]SummaryRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Profile == p {
			out.Rows = append(out.Rows, r)
		}
	}
	return &out
}

// ByTime groups row values by time index, in ascending time order.
func (t *SummaryTable) ByTime() ([]int, map[int][]float64) {
	groups := make(map[int][]float64)
	for _, r := range t.Rows {
		groups[r.TimeIndex] = append(groups[r.TimeIndex], r.Value)
	}
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys, groups
}
