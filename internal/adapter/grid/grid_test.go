package grid

import (
	"math"
	"testing"
)

// TestBilinear_CenterPoint tests interpolation at the center of a cell
func TestBilinear_CenterPoint(t *testing.T) {
	cell := Cell{
		X0: 0.0, X1: 2.0,
		Y0: 0.0, Y1: 2.0,
		V00: 1.0, V10: 3.0,
		V01: 5.0, V11: 7.0,
	}

	// 0.25 * (1 + 3 + 5 + 7) = 4.0
	result, err := Bilinear(cell, 1.0, 1.0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(result-4.0) > 1e-9 {
		t.Errorf("Center point: expected 4.0, got %.10f", result)
	}
}

// TestBilinear_MissingCorner tests that NaN corners are dropped and weights renormalised
func TestBilinear_MissingCorner(t *testing.T) {
	cell := Cell{
		X0: 0.0, X1: 1.0,
		Y0: 0.0, Y1: 1.0,
		V00: 2.0, V10: 2.0,
		V01: 2.0, V11: math.NaN(),
	}
	result, err := Bilinear(cell, 0.5, 0.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(result-2.0) > 1e-9 {
		t.Errorf("expected 2.0 from the three valid corners, got %.10f", result)
	}

	allMissing := Cell{X0: 0, X1: 1, Y0: 0, Y1: 1, V00: math.NaN(), V10: math.NaN(), V01: math.NaN(), V11: math.NaN()}
	result, err = Bilinear(allMissing, 0.5, 0.5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !math.IsNaN(result) {
		t.Errorf("expected NaN for an all-missing cell, got %v", result)
	}
}

// TestBilinear_OutOfBounds tests error handling for out-of-bounds points
func TestBilinear_OutOfBounds(t *testing.T) {
	cell := Cell{X0: 0, X1: 10, Y0: 0, Y1: 10, V00: 1, V10: 2, V01: 3, V11: 4}

	tests := []struct {
		x, y float64
		name string
	}{
		{-1.0, 5.0, "x too small"},
		{11.0, 5.0, "x too large"},
		{5.0, -1.0, "y too small"},
		{5.0, 11.0, "y too large"},
	}
	for _, tt := range tests {
		if _, err := Bilinear(cell, tt.x, tt.y); err == nil {
			t.Errorf("%s: expected error for point (%.1f, %.1f), got nil", tt.name, tt.x, tt.y)
		}
	}
}

// TestField_DescendingLatitude tests sampling on a north-to-south latitude axis
func TestField_DescendingLatitude(t *testing.T) {
	field := &Field{
		X: []float64{-70.0, -69.0, -68.0},
		Y: []float64{2.0, 1.0, 0.0},
		Values: [][]float64{
			{7.0, 8.0, 9.0}, // y=2
			{4.0, 5.0, 6.0}, // y=1
			{1.0, 2.0, 3.0}, // y=0
		},
	}

	tests := []struct {
		x, y     float64
		expected float64
	}{
		{-70.0, 0.0, 1.0},
		{-69.0, 1.0, 5.0},
		{-68.0, 2.0, 9.0},
		{-69.5, 0.5, 3.0},
	}
	for _, tt := range tests {
		got, err := field.At(tt.x, tt.y)
		if err != nil {
			t.Fatalf("Unexpected error at (%.1f, %.1f): %v", tt.x, tt.y, err)
		}
		if math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("At (%.1f, %.1f): expected %.10f, got %.10f", tt.x, tt.y, tt.expected, got)
		}
	}

	if _, err := field.At(-75, 1); err == nil {
		t.Error("expected error outside the field")
	}
}

func TestField_Validate(t *testing.T) {
	tests := []struct {
		name    string
		field   *Field
		wantErr bool
	}{
		{
			name:    "valid field",
			field:   &Field{X: []float64{0, 1, 2}, Y: []float64{0, 1}, Values: [][]float64{{1, 2, 3}, {4, 5, 6}}},
			wantErr: false,
		},
		{
			name:    "too few X coords",
			field:   &Field{X: []float64{0}, Y: []float64{0, 1}, Values: [][]float64{{1}, {2}}},
			wantErr: true,
		},
		{
			name:    "mismatched row count",
			field:   &Field{X: []float64{0, 1}, Y: []float64{0, 1}, Values: [][]float64{{1, 2}}},
			wantErr: true,
		},
		{
			name:    "mismatched column count",
			field:   &Field{X: []float64{0, 1, 2}, Y: []float64{0, 1}, Values: [][]float64{{1, 2}, {3, 4}}},
			wantErr: true,
		},
		{
			name:    "non-monotonic X",
			field:   &Field{X: []float64{0, 2, 1}, Y: []float64{0, 1}, Values: [][]float64{{1, 2, 3}, {4, 5, 6}}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.field.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLongitudeConventions(t *testing.T) {
	if !LonAxisRequiresWrap([]float64{0, 90, 270}) {
		t.Error("0-360 axis should require wrapping")
	}
	if LonAxisRequiresWrap([]float64{-80, -60, -40}) {
		t.Error("±180 axis should not require wrapping")
	}
	if got := NormalizeLon360(-60); got != 300 {
		t.Errorf("NormalizeLon360(-60) = %v", got)
	}
	if got := NormalizeLon180(300); got != -60 {
		t.Errorf("NormalizeLon180(300) = %v", got)
	}
	got := LonsForPolygons([]float64{290, 300})
	if got[0] != -70 || got[1] != -60 {
		t.Errorf("LonsForPolygons = %v", got)
	}
	if NormalizeLonForAxis([]float64{290, 300}, -65) != 295 {
		t.Error("expected -65 to map onto a 0-360 axis")
	}
}

func TestArrayOffsets(t *testing.T) {
	a, err := NewArray("v", []string{"time", "lat", "lon"}, []int{2, 3, 4})
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	if !math.IsNaN(a.Data[0]) {
		t.Fatal("new array should be filled with NaN")
	}
	strides := a.Strides()
	if strides[0] != 12 || strides[1] != 4 || strides[2] != 1 {
		t.Fatalf("unexpected strides %v", strides)
	}
	off, err := a.Offset(1, 2, 3)
	if err != nil || off != 23 {
		t.Fatalf("Offset(1,2,3) = %d, %v", off, err)
	}
	a.Data[off] = 42
	if v, _ := a.At(1, 2, 3); v != 42 {
		t.Fatalf("At returned %v", v)
	}
	if _, err := a.At(2, 0, 0); err == nil {
		t.Fatal("expected out of range error")
	}
	if a.FindDim("latitude", "lat") != 1 || a.DimIndex("ensemble") != -1 {
		t.Fatal("dimension lookup failed")
	}
	a.Data = a.Data[:5]
	if err := a.Validate(); err == nil {
		t.Fatal("expected validation error for truncated data")
	}
}
