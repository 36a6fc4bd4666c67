package grid

import (
	"fmt"
	"math"
	"sort"
)

// Cell is one grid cell with its four corner values.
type Cell struct {
	X0, X1 float64
	Y0, Y1 float64

	// V00 at (X0, Y0), V10 at (X1, Y0), V01 at (X0, Y1), V11 at (X1, Y1).
	V00, V10, V01, V11 float64
}

// Bilinear interpolates inside cell at (x, y).
//
//	f(x,y) ≈ (1-t)(1-u)V00 + t(1-u)V10 + (1-t)u V01 + tu V11
//
// with t = (x-X0)/(X1-X0) and u = (y-Y0)/(Y1-Y0). Corners holding NaN are
// dropped and the remaining weights renormalised; an all-NaN cell yields NaN.
func Bilinear(cell Cell, x, y float64) (float64, error) {
	if cell.X1 <= cell.X0 {
		return 0, fmt.Errorf("invalid cell: X1 must be > X0")
	}
	if cell.Y1 <= cell.Y0 {
		return 0, fmt.Errorf("invalid cell: Y1 must be > Y0")
	}

	const epsilon = 1e-9
	if x < cell.X0-epsilon || x > cell.X1+epsilon {
		return 0, fmt.Errorf("x %.6f outside cell [%.6f, %.6f]", x, cell.X0, cell.X1)
	}
	if y < cell.Y0-epsilon || y > cell.Y1+epsilon {
		return 0, fmt.Errorf("y %.6f outside cell [%.6f, %.6f]", y, cell.Y0, cell.Y1)
	}

	t := math.Max(0, math.Min(1, (x-cell.X0)/(cell.X1-cell.X0)))
	u := math.Max(0, math.Min(1, (y-cell.Y0)/(cell.Y1-cell.Y0)))

	weights := [4]float64{(1 - t) * (1 - u), t * (1 - u), (1 - t) * u, t * u}
	values := [4]float64{cell.V00, cell.V10, cell.V01, cell.V11}

	var sum, wsum float64
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += weights[i] * v
		wsum += weights[i]
	}
	if wsum == 0 {
		return math.NaN(), nil
	}
	return sum / wsum, nil
}

// Field is a 2D field on a rectilinear lon/lat grid.
// Values[i][j] is the value at (X[j], Y[i]). Axes may be ascending or descending.
type Field struct {
	X      []float64
	Y      []float64
	Values [][]float64
}

// Validate checks sizes and axis monotonicity.
func (f *Field) Validate() error {
	if len(f.X) < 2 {
		return fmt.Errorf("field must have at least 2 X coordinates")
	}
	if len(f.Y) < 2 {
		return fmt.Errorf("field must have at least 2 Y coordinates")
	}
	if len(f.Values) != len(f.Y) {
		return fmt.Errorf("number of value rows (%d) must match Y coordinates (%d)", len(f.Values), len(f.Y))
	}
	for i, row := range f.Values {
		if len(row) != len(f.X) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(f.X))
		}
	}
	if !monotonic(f.X) {
		return fmt.Errorf("X coordinates must be strictly monotonic")
	}
	if !monotonic(f.Y) {
		return fmt.Errorf("Y coordinates must be strictly monotonic")
	}
	return nil
}

// At samples the field at (x, y).
func (f *Field) At(x, y float64) (float64, error) {
	if err := f.Validate(); err != nil {
		return 0, fmt.Errorf("invalid field: %w", err)
	}
	j, err := bracket(f.X, x)
	if err != nil {
		return 0, fmt.Errorf("x: %w", err)
	}
	i, err := bracket(f.Y, y)
	if err != nil {
		return 0, fmt.Errorf("y: %w", err)
	}

	// Orient the cell so that X0 < X1 and Y0 < Y1.
	j0, j1 := j, j+1
	if f.X[j0] > f.X[j1] {
		j0, j1 = j1, j0
	}
	i0, i1 := i, i+1
	if f.Y[i0] > f.Y[i1] {
		i0, i1 = i1, i0
	}
	cell := Cell{
		X0: f.X[j0], X1: f.X[j1],
		Y0: f.Y[i0], Y1: f.Y[i1],
		V00: f.Values[i0][j0],
		V10: f.Values[i0][j1],
		V01: f.Values[i1][j0],
		V11: f.Values[i1][j1],
	}
	return Bilinear(cell, x, y)
}

func monotonic(axis []float64) bool {
	asc := axis[1] > axis[0]
	for i := 1; i < len(axis); i++ {
		if asc && axis[i] <= axis[i-1] {
			return false
		}
		if !asc && axis[i] >= axis[i-1] {
			return false
		}
	}
	return true
}

// bracket returns k such that v lies between axis[k] and axis[k+1].
func bracket(axis []float64, v float64) (int, error) {
	n := len(axis)
	asc := axis[n-1] > axis[0]
	lo, hi := axis[0], axis[n-1]
	if !asc {
		lo, hi = hi, lo
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%.6f outside range [%.6f, %.6f]", v, lo, hi)
	}
	var k int
	if asc {
		k = sort.Search(n, func(i int) bool { return axis[i] >= v }) - 1
	} else {
		k = sort.Search(n, func(i int) bool { return axis[i] <= v }) - 1
	}
	if k < 0 {
		k = 0
	}
	if k > n-2 {
		k = n - 2
	}
	return k, nil
}
