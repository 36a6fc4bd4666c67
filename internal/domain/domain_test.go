package domain

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2015-08-31T00:00:00", "2015-08"},
		{"2015-08-31", "2015-08"},
		{"2015-08", "2015-08"},
		{"2015", "2015"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	ts := time.Date(2016, 1, 31, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	if got := FormatTime(ts); got != "2016-01" {
		t.Errorf("FormatTime = %q, want 2016-01", got)
	}
}

func TestSelectionDefaults(t *testing.T) {
	s := DefaultSelection("Rainf_tavg")
	if s.Variable != "Rainf_tavg" || s.TimeIndex != 0 || s.Profile != 0 {
		t.Errorf("unexpected default selection %+v", s)
	}
	if s.DataType != DataTypeProbabilistic {
		t.Errorf("expected data type %q, got %q", DataTypeProbabilistic, s.DataType)
	}
	if s.HasRegion() {
		t.Error("default selection should carry the waiting sentinel")
	}

	s.RegionID = "62201"
	if !s.HasRegion() {
		t.Error("expected region after click")
	}
	s.RegionID = ""
	if s.HasRegion() {
		t.Error("empty region id is not a region")
	}
}

func testTable() *SummaryTable {
	t0 := time.Date(2015, 8, 31, 0, 0, 0, 0, time.UTC)
	t1 := time.Date(2015, 9, 30, 0, 0, 0, 0, time.UTC)
	return &SummaryTable{
		RegionID: "62201",
		Variable: "SoilMoist_inst",
		Cells:    4,
		Rows: []SummaryRow{
			{Time: t1, TimeIndex: 1, Ensemble: 0, Profile: 0, Value: 0.3},
			{Time: t0, TimeIndex: 0, Ensemble: 0, Profile: 0, Value: 0.1},
			{Time: t0, TimeIndex: 0, Ensemble: 0, Profile: 1, Value: 0.2},
			{Time: t0, TimeIndex: 0, Ensemble: 1, Profile: 0, Value: 0.15},
			{Time: t1, TimeIndex: 1, Ensemble: 1, Profile: 1, Value: 0.4},
		},
	}
}

func TestFilterProfile(t *testing.T) {
	table := testTable()

	got := table.FilterProfile(0)
	if len(got.Rows) != 3 {
		t.Fatalf("expected 3 rows for profile 0, got %d", len(got.Rows))
	}
	for _, r := range got.Rows {
		if r.Profile != 0 {
			t.Errorf("row with profile %d leaked through", r.Profile)
		}
	}
	if got.RegionID != "62201" || got.Cells != 4 {
		t.Errorf("metadata not carried over: %+v", got)
	}
	if len(table.Rows) != 5 {
		t.Errorf("FilterProfile modified its receiver")
	}
	if n := len(table.FilterProfile(3).Rows); n != 0 {
		t.Errorf("expected no rows for missing profile, got %d", n)
	}
}

func TestByTime(t *testing.T) {
	keys, groups := testTable().FilterProfile(0).ByTime()
	if len(keys) != 2 || keys[0] != 0 || keys[1] != 1 {
		t.Fatalf("expected sorted keys [0 1], got %v", keys)
	}
	if len(groups[0]) != 2 || len(groups[1]) != 1 {
		t.Errorf("unexpected groups %v", groups)
	}
}

func TestParseReduction(t *testing.T) {
	tests := []struct {
		in      string
		want    Reduction
		wantErr bool
	}{
		{"mean", ReductionMean, false},
		{" Average ", ReductionMean, false},
		{"max", ReductionMax, false},
		{"MAXIMUM", ReductionMax, false},
		{"median", "", true},
	}
	for _, tt := range tests {
		got, err := ParseReduction(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseReduction(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseReduction(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if ReductionMean.Noun() != "average" || ReductionMax.Noun() != "maximum" {
		t.Error("unexpected reduction nouns")
	}
}

func TestVariableFamily(t *testing.T) {
	if err := FamilyRouting.Validate(); err != nil {
		t.Errorf("routing: %v", err)
	}
	if err := Family("ocean").Validate(); err == nil {
		t.Error("expected error for unknown family")
	}
	v := Variable{Name: "SoilMoist_inst", ProfileDim: "SoilMoist_profiles"}
	if !v.HasProfile() {
		t.Error("expected profile variable")
	}
}
