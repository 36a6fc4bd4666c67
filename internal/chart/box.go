package chart

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"go.ngs.io/hydroviewer/internal/domain"
)

// colorway matches the plotly default qualitative palette.
var colorway = []string{
	"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
	"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// BoxTitle is the heading of the zonal box plot.
func BoxTitle(v domain.Variable, regionID string, profile int) string {
	if v.HasProfile() {
		return fmt.Sprintf("Displaying zonal %s in %s @profile level %d", v.Reduction.Noun(), regionID, profile)
	}
	return fmt.Sprintf("Displaying spread of ensemble members %s in zone %s", v.Reduction.Noun(), regionID)
}

// TimeLabel names a time step on the box-plot category axis.
func TimeLabel(row domain.SummaryRow) string {
	if row.Time.IsZero() {
		return fmt.Sprintf("t%d", row.TimeIndex)
	}
	return row.Time.UTC().Format("2006-01-02")
}

// Box builds the ensemble-spread figure of a zonal summary: one box per time
// step over the ensemble members. Profile variables are restricted to profile.
func Box(table *domain.SummaryTable, v domain.Variable, profile int) *Figure {
	if v.HasProfile() {
		table = table.FilterProfile(profile)
	}
	if len(table.Rows) == 0 {
		return Placeholder(fmt.Sprintf("No data for %s in %s", v.Name, table.RegionID))
	}

	index, groups := table.ByTime()
	labels := make(map[int]string, len(index))
	for _, r := range table.Rows {
		if _, ok := labels[r.TimeIndex]; !ok {
			labels[r.TimeIndex] = TimeLabel(r)
		}
	}

	yTitle := v.Name
	if v.Units != "" {
		yTitle = fmt.Sprintf("%s [%s]", v.Name, v.Units)
	}
	fig := &Figure{
		Data: make([]Trace, 0, len(index)),
		Layout: Layout{
			Title: BoxTitle(v, table.RegionID, profile),
			XAxis: Axis{Title: "time"},
			YAxis: Axis{Title: yTitle},
		},
	}
	for i, t := range index {
		vals := groups[t]
		cats := make([]string, len(vals))
		for k := range cats {
			cats[k] = labels[t]
		}
		fig.Data = append(fig.Data, Trace{
			Type:    "box",
			Name:    labels[t],
			Y:       Series(vals),
			XLabels: cats,
			Marker:  &Marker{Color: colorway[i%len(colorway)]},
		})
	}
	return fig
}

// BoxStats is the five-number summary of one box.
type BoxStats struct {
	Label  string  `json:"label"`
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// Describe summarises every box trace of f.
func Describe(f *Figure) []BoxStats {
	var out []BoxStats
	for _, t := range f.Data {
		if t.Type != "box" || len(t.Y) == 0 {
			continue
		}
		x := append([]float64(nil), t.Y...)
		sort.Float64s(x)
		out = append(out, BoxStats{
			Label:  t.Name,
			N:      len(x),
			Min:    x[0],
			Q1:     quantile(x, 0.25),
			Median: quantile(x, 0.5),
			Q3:     quantile(x, 0.75),
			Max:    x[len(x)-1],
			Mean:   stat.Mean(x, nil),
		})
	}
	return out
}

// quantile interpolates linearly between order statistics at position
// (n-1)p of the sorted sample x, the rule plotly uses to draw box quartiles.
func quantile(x []float64, p float64) float64 {
	pos := float64(len(x)-1) * p
	lo := int(math.Floor(pos))
	if lo+1 >= len(x) {
		return x[len(x)-1]
	}
	frac := pos - float64(lo)
	return x[lo] + frac*(x[lo+1]-x[lo])
}
