package chart

import (
	"bytes"
	"encoding/json"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"go.ngs.io/hydroviewer/internal/domain"
)

var (
	rain = domain.Variable{Name: "Rainf_tavg", Units: "kg m-2 s-1", Family: domain.FamilySurface, Reduction: domain.ReductionMean}
	soil = domain.Variable{Name: "SoilMoist_inst", Family: domain.FamilySurface, ProfileDim: "SoilMoist_profiles", Reduction: domain.ReductionMean}
	flow = domain.Variable{Name: "Streamflow_tavg", Family: domain.FamilyRouting, Reduction: domain.ReductionMax}
)

func sampleTable(profiles bool) *domain.SummaryTable {
	t0 := time.Date(2015, 8, 31, 0, 0, 0, 0, time.UTC)
	t1 := time.Date(2015, 9, 30, 0, 0, 0, 0, time.UTC)
	table := &domain.SummaryTable{RegionID: "62201"}
	for ti, ts := range []time.Time{t0, t1} {
		for e := 0; e < 3; e++ {
			if !profiles {
				table.Rows = append(table.Rows, domain.SummaryRow{Time: ts, TimeIndex: ti, Ensemble: e, Profile: domain.NoProfile, Value: float64(10*ti + e)})
				continue
			}
			for p := 0; p < 2; p++ {
				table.Rows = append(table.Rows, domain.SummaryRow{Time: ts, TimeIndex: ti, Ensemble: e, Profile: p, Value: float64(100*p + 10*ti + e)})
			}
		}
	}
	return table
}

func TestBoxTitles(t *testing.T) {
	tests := []struct {
		v       domain.Variable
		profile int
		want    string
	}{
		{rain, 0, "Displaying spread of ensemble members average in zone 62201"},
		{flow, 0, "Displaying spread of ensemble members maximum in zone 62201"},
		{soil, 2, "Displaying zonal average in 62201 @profile level 2"},
	}
	for _, tt := range tests {
		if got := BoxTitle(tt.v, "62201", tt.profile); got != tt.want {
			t.Errorf("BoxTitle(%s) = %q, want %q", tt.v.Name, got, tt.want)
		}
	}
}

func TestBoxOneTracePerTime(t *testing.T) {
	fig := Box(sampleTable(false), rain, 0)
	if len(fig.Data) != 2 {
		t.Fatalf("expected 2 box traces, got %d", len(fig.Data))
	}
	if fig.Data[0].Name != "2015-08-31" || fig.Data[1].Name != "2015-09-30" {
		t.Errorf("unexpected trace names %q, %q", fig.Data[0].Name, fig.Data[1].Name)
	}
	if got := fig.Data[1].Y; len(got) != 3 || got[0] != 10 || got[2] != 12 {
		t.Errorf("unexpected member values %v", got)
	}
	if fig.Layout.YAxis.Title != "Rainf_tavg [kg m-2 s-1]" {
		t.Errorf("unexpected y axis title %q", fig.Layout.YAxis.Title)
	}
}

func TestBoxFiltersProfile(t *testing.T) {
	fig := Box(sampleTable(true), soil, 1)
	if len(fig.Data) != 2 {
		t.Fatalf("expected 2 box traces, got %d", len(fig.Data))
	}
	for _, tr := range fig.Data {
		for _, v := range tr.Y {
			if v < 100 {
				t.Fatalf("profile 0 value %v leaked into profile 1 figure", v)
			}
		}
	}
}

func TestBoxEmptyTableIsPlaceholder(t *testing.T) {
	fig := Box(&domain.SummaryTable{RegionID: "62201"}, rain, 0)
	if !fig.IsPlaceholder() {
		t.Fatal("expected a placeholder figure")
	}
}

func TestPlaceholder(t *testing.T) {
	fig := Placeholder(domain.NoRegion)
	if fig.PlaceholderText() != "Waiting input" {
		t.Fatalf("unexpected text %q", fig.PlaceholderText())
	}
	if *fig.Layout.XAxis.Visible || *fig.Layout.YAxis.Visible {
		t.Fatal("placeholder axes must be hidden")
	}
	b, err := json.Marshal(fig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"visible":false`) || !strings.Contains(string(b), `"data":[]`) {
		t.Fatalf("unexpected JSON %s", b)
	}
}

func TestMarshalNullGaps(t *testing.T) {
	tr := Trace{
		Type: "scatter",
		X:    Series{1, math.NaN(), 2},
		Text: Labels{"62201", "", "62202"},
		Z:    Matrix{{1, math.NaN()}},
	}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"x":[1,null,2]`, `"text":["62201",null,"62202"]`, `"z":[[1,null]]`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestMarshalBoxCategories(t *testing.T) {
	fig := Box(sampleTable(false), rain, 0)
	b, err := json.Marshal(fig.Data[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(b), `"x":["2015-08-31","2015-08-31","2015-08-31"]`) {
		t.Fatalf("expected categorical x in %s", b)
	}
}

func TestDescribe(t *testing.T) {
	fig := &Figure{Data: []Trace{{Type: "box", Name: "a", Y: Series{4, 1, 3, 2, 5}}}}
	stats := Describe(fig)
	if len(stats) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(stats))
	}
	s := stats[0]
	if s.Min != 1 || s.Max != 5 || s.Median != 3 || s.Mean != 3 || s.N != 5 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Q1 != 2 || s.Q3 != 4 {
		t.Fatalf("expected quartiles 2 and 4, got %v and %v", s.Q1, s.Q3)
	}
}

func TestDescribeEvenSample(t *testing.T) {
	fig := &Figure{Data: []Trace{
		{Type: "box", Name: "a", Y: Series{3, 1, 4, 2}},
		{Type: "box", Name: "single", Y: Series{7}},
		{Type: "scatter", Y: Series{1, 2}},
	}}
	stats := Describe(fig)
	if len(stats) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(stats))
	}

	tests := []struct {
		got, want float64
		name      string
	}{
		{stats[0].Q1, 1.75, "q1"},
		{stats[0].Median, 2.5, "median"},
		{stats[0].Q3, 3.25, "q3"},
		{stats[1].Q1, 7, "single q1"},
		{stats[1].Median, 7, "single median"},
		{stats[1].Q3, 7, "single q3"},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-12 {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, tt.got)
		}
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	fig := &Figure{
		Data: []Trace{
			{Type: "box", Name: "2015-08-31", Y: Series{1, 2}, XLabels: []string{"2015-08-31", "2015-08-31"}},
			{Type: "scatter", X: Series{-70, math.NaN(), -68}, Y: Series{-4, math.NaN(), -2}, Text: Labels{"62201", "", "62202"}},
			{Type: "heatmap", X: Series{0, 1}, Y: Series{0, 1}, Z: Matrix{{1, math.NaN()}, {3, 4}}},
		},
		Layout: Layout{Title: "t"},
	}
	b, err := json.Marshal(fig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Figure
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v (%s)", err, b)
	}
	if len(got.Data) != 3 {
		t.Fatalf("expected 3 traces, got %d", len(got.Data))
	}

	box := got.Data[0]
	if len(box.XLabels) != 2 || box.XLabels[0] != "2015-08-31" || box.X != nil {
		t.Errorf("box x not read as categories: %+v", box)
	}
	if len(box.Y) != 2 || box.Y[1] != 2 {
		t.Errorf("unexpected box y %v", box.Y)
	}

	outline := got.Data[1]
	if outline.XLabels != nil || len(outline.X) != 3 || outline.X[0] != -70 || !math.IsNaN(outline.X[1]) {
		t.Errorf("scatter x not read as numbers: %+v", outline)
	}
	if outline.Text[1] != "" || outline.Text[2] != "62202" {
		t.Errorf("unexpected text %v", outline.Text)
	}

	heat := got.Data[2]
	if len(heat.Z) != 2 || !math.IsNaN(heat.Z[0][1]) || heat.Z[1][0] != 3 {
		t.Errorf("unexpected z %v", heat.Z)
	}

	again, err := json.Marshal(&got)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(again) != string(b) {
		t.Errorf("second encoding differs:\n%s\n%s", b, again)
	}
}

func TestRenderPNG(t *testing.T) {
	figs := map[string]*Figure{
		"box":         Box(sampleTable(false), rain, 0),
		"placeholder": Placeholder(domain.NoRegion),
		"heatmap": {
			Data: []Trace{
				{Type: "scatter", X: Series{0, 1, 1, 0, math.NaN()}, Y: Series{0, 0, 1, 0, math.NaN()}},
				{Type: "heatmap", X: Series{0, 1}, Y: Series{0, 1}, Z: Matrix{{1, 2}, {math.NaN(), 4}}},
			},
		},
	}
	for name, fig := range figs {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderPNG(&buf, fig); err != nil {
				t.Fatalf("RenderPNG: %v", err)
			}
			if _, err := png.Decode(&buf); err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
		})
	}
}
