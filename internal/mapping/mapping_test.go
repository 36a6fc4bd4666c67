package mapping

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ctessum/geom"

	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/adapter/store/storetest"
	"go.ngs.io/hydroviewer/internal/chart"
	"go.ngs.io/hydroviewer/internal/domain"
)

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func testLayer(t *testing.T) *region.Layer {
	t.Helper()
	layer, err := region.NewLayer([]*region.Region{
		{ID: "62201", Boundary: square(-70, -5, -69, -4)},
		{ID: "62202", Boundary: geom.MultiPolygon{square(-69, -5, -68, -4), square(-67, -5, -66, -4)}},
	})
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	return layer
}

func TestBuildRegionMap(t *testing.T) {
	fig := BuildRegionMap(testLayer(t))
	if len(fig.Data) != 1 {
		t.Fatalf("expected a single outline trace, got %d", len(fig.Data))
	}
	outline := fig.Data[0]
	// Three rings of five vertices, each followed by a separator.
	if len(outline.X) != 18 || len(outline.Y) != 18 || len(outline.Text) != 18 {
		t.Fatalf("unexpected column lengths x=%d y=%d text=%d", len(outline.X), len(outline.Y), len(outline.Text))
	}
	for i, id := range outline.Text {
		if math.IsNaN(outline.X[i]) != (id == "") {
			t.Fatalf("point %d: separator and label disagree", i)
		}
	}

	tests := []struct {
		index int
		want  string
	}{
		{0, "62201"},
		{4, "62201"},
		{6, "62202"},
		{13, "62202"},
	}
	for _, tt := range tests {
		got, err := RegionIDAt(outline, tt.index)
		if err != nil {
			t.Fatalf("RegionIDAt(%d): %v", tt.index, err)
		}
		if got != tt.want {
			t.Errorf("RegionIDAt(%d) = %s, want %s", tt.index, got, tt.want)
		}
	}
	for _, bad := range []int{5, -1, 18} {
		if _, err := RegionIDAt(outline, bad); !errors.Is(err, ErrNoRegionAtPoint) {
			t.Errorf("RegionIDAt(%d): expected ErrNoRegionAtPoint, got %v", bad, err)
		}
	}
}

func TestMapKeepsOutlineAndOneDataTrace(t *testing.T) {
	base := BuildRegionMap(testLayer(t))
	m, err := NewMap(base)
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 trace before the first render, got %d", m.Len())
	}
	for i := 0; i < 5; i++ {
		m.SetData(chart.Trace{Type: "heatmap", Name: "render"})
		if m.Len() != 2 {
			t.Fatalf("render %d: expected 2 traces, got %d", i, m.Len())
		}
	}
	fig := m.Figure()
	if fig.Data[0].Name != "basins" || fig.Data[1].Type != "heatmap" {
		t.Fatalf("unexpected trace order %q, %q", fig.Data[0].Name, fig.Data[1].Type)
	}
	if len(base.Data) != 1 {
		t.Fatal("session renders must not modify the shared outline figure")
	}
	m.ClearData()
	if m.Len() != 1 {
		t.Fatalf("expected 1 trace after ClearData, got %d", m.Len())
	}
	if id, err := m.RegionAt(0); err != nil || id != "62201" {
		t.Fatalf("RegionAt(0) = %q, %v", id, err)
	}
}

func TestStandardCoordinates(t *testing.T) {
	lon := []float64{-70, -69}
	lat := []float64{-5, -4}
	times := []time.Time{time.Date(2015, 8, 31, 0, 0, 0, 0, time.UTC)}

	gotLon, gotLat, gotTimes, err := StandardCoordinates(storetest.NewDataset("a.nc", lon, lat, times))
	if err != nil {
		t.Fatalf("StandardCoordinates: %v", err)
	}
	if len(gotLon) != 2 || len(gotLat) != 2 || len(gotTimes) != 1 {
		t.Fatalf("unexpected coordinates %v %v %v", gotLon, gotLat, gotTimes)
	}

	_, _, gotTimes, err = StandardCoordinates(storetest.NewDataset("b.nc", lon, lat, nil))
	if err != nil {
		t.Fatalf("StandardCoordinates without time: %v", err)
	}
	if gotTimes != nil {
		t.Fatalf("expected nil times, got %v", gotTimes)
	}

	noLat := storetest.NewDataset("c.nc", lon, lat, nil)
	delete(noLat.Axes, "lat")
	if _, _, _, err := StandardCoordinates(noLat); err == nil {
		t.Fatal("expected an error for a dataset without latitude")
	}
}

func TestHeatmapTraceEnsembleMean(t *testing.T) {
	lon := []float64{290, 291, 292}
	lat := []float64{-5, -4}
	ds := storetest.NewDataset("surface.nc", lon, lat, nil)
	// Value = 10*member + time + y; member 1 is missing at y=1, x=2.
	arr := ds.AddVariable("Rainf_tavg", []string{"ensemble", "time", "lat", "lon"}, []int{2, 2, 2, 3}, func(idx []int) float64 {
		if idx[2] == 1 && idx[3] == 2 {
			if idx[0] == 1 {
				return storetest.NaN
			}
		}
		if idx[2] == 0 && idx[3] == 0 {
			return storetest.NaN
		}
		return float64(10*idx[0] + idx[1] + idx[2])
	})
	v := domain.Variable{Name: "Rainf_tavg", Reduction: domain.ReductionMean}

	tr, err := HeatmapTrace(arr, v, lon, lat, 1, 0)
	if err != nil {
		t.Fatalf("HeatmapTrace: %v", err)
	}
	if tr.HoverInfo != "skip" || tr.Type != "heatmap" {
		t.Fatalf("unexpected trace settings %+v", tr)
	}
	if tr.X[0] != -70 || tr.X[2] != -68 {
		t.Fatalf("longitudes not expressed in ±180: %v", tr.X)
	}
	if !math.IsNaN(tr.Z[0][0]) {
		t.Errorf("cell missing in every member should be NaN, got %v", tr.Z[0][0])
	}
	if tr.Z[0][1] != 6 {
		t.Errorf("Z[0][1] = %v, want 6", tr.Z[0][1])
	}
	if tr.Z[1][2] != 2 {
		t.Errorf("Z[1][2] = %v, want member 0 only (2)", tr.Z[1][2])
	}

	if _, err := HeatmapTrace(arr, v, lon, lat, 2, 0); err == nil {
		t.Error("expected error for an out-of-range time index")
	}
}

func TestHeatmapTraceProfile(t *testing.T) {
	lon := []float64{-70, -69}
	lat := []float64{-5, -4}
	ds := storetest.NewDataset("surface.nc", lon, lat, nil)
	arr := ds.AddVariable("SoilTemp_inst", []string{"ensemble", "time", "SoilTemp_profiles", "lat", "lon"}, []int{3, 1, 4, 2, 2},
		func(idx []int) float64 { return float64(100*idx[2] + idx[0]) })
	v := domain.Variable{Name: "SoilTemp_inst", ProfileDim: "SoilTemp_profiles"}

	tr, err := HeatmapTrace(arr, v, lon, lat, 0, 3)
	if err != nil {
		t.Fatalf("HeatmapTrace: %v", err)
	}
	for _, row := range tr.Z {
		for _, z := range row {
			if z != 301 {
				t.Fatalf("expected mean 301 at profile 3, got %v", z)
			}
		}
	}
	if _, err := HeatmapTrace(arr, v, lon, lat, 0, 4); err == nil {
		t.Error("expected error for an out-of-range profile")
	}
}
