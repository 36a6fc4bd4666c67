// Package mapping builds the basin map: the polygon outline trace used to
// resolve clicks and the gridded heatmap drawn on top of it.
package mapping

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.ngs.io/hydroviewer/internal/adapter/store"
	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/chart"
)

// ErrNoRegionAtPoint is returned when a clicked point index does not map to a region.
var ErrNoRegionAtPoint = errors.New("no region at point")

var (
	lonNames = []string{"lon", "longitude", "x"}
	latNames = []string{"lat", "latitude", "y"}
)

// BuildRegionMap returns a figure holding a single outline trace. Every
// vertex carries its region identifier in the trace text so that a click on
// point i resolves to Text[i]. Rings are separated by NaN gaps.
func BuildRegionMap(layer *region.Layer) *chart.Figure {
	var xs, ys chart.Series
	var text chart.Labels
	for _, r := range layer.Regions() {
		for _, poly := range r.Boundary.Polygons() {
			for _, ring := range poly {
				for _, pt := range ring {
					xs = append(xs, pt.X)
					ys = append(ys, pt.Y)
					text = append(text, r.ID)
				}
				xs = append(xs, math.NaN())
				ys = append(ys, math.NaN())
				text = append(text, "")
			}
		}
	}

	hideLegend := false
	return &chart.Figure{
		Data: []chart.Trace{{
			Type:      "scatter",
			Name:      "basins",
			Mode:      "lines",
			X:         xs,
			Y:         ys,
			Text:      text,
			Fill:      "toself",
			FillColor: "rgba(0,0,0,0)",
			HoverInfo: "text",
			HoverOn:   "fills+points",
			Line:      &chart.Line{Color: "#333333", Width: 0.8},
		}},
		Layout: chart.Layout{
			XAxis:      chart.Axis{Title: "Longitude"},
			YAxis:      chart.Axis{Title: "Latitude", ScaleAnchor: "x"},
			ShowLegend: &hideLegend,
			Margin:     &chart.Margin{L: 40, R: 10, T: 10, B: 40},
		},
	}
}

// RegionIDAt returns the region identifier attached to point index i of an
// outline trace.
func RegionIDAt(outline chart.Trace, i int) (string, error) {
	if i < 0 || i >= len(outline.Text) {
		return "", fmt.Errorf("%w: index %d out of range [0, %d)", ErrNoRegionAtPoint, i, len(outline.Text))
	}
	if outline.Text[i] == "" {
		return "", fmt.Errorf("%w: index %d is a ring separator", ErrNoRegionAtPoint, i)
	}
	return outline.Text[i], nil
}

// StandardCoordinates reads the longitude, latitude and time coordinates of
// ds. times is nil when the dataset has no time coordinate.
func StandardCoordinates(ds store.Dataset) (lon, lat []float64, times []time.Time, err error) {
	lon, err = ds.Axis(lonNames...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read longitude: %w", err)
	}
	lat, err = ds.Axis(latNames...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read latitude: %w", err)
	}
	times, err = ds.Times()
	if errors.Is(err, store.ErrNoTimeAxis) {
		return lon, lat, nil, nil
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read time: %w", err)
	}
	return lon, lat, times, nil
}
