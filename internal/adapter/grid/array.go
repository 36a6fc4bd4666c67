// Package grid holds dense N-dimensional arrays read from gridded datasets,
// longitude-axis helpers and bilinear sampling of 2D fields.
package grid

import (
	"fmt"
	"math"
)

// Array is a dense row-major float64 array with named dimensions.
// Missing values are stored as NaN.
type Array struct {
	Name  string
	Dims  []string
	Shape []int
	Data  []float64
}

// NewArray allocates an array of the given dimensions filled with NaN.
func NewArray(name string, dims []string, shape []int) (*Array, error) {
	if len(dims) != len(shape) {
		return nil, fmt.Errorf("array %s: %d dimension names for %d sizes", name, len(dims), len(shape))
	}
	n := 1
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("array %s: negative dimension size %d", name, s)
		}
		n *= s
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = math.NaN()
	}
	return &Array{Name: name, Dims: dims, Shape: shape, Data: data}, nil
}

// Validate checks that the shape and the data length agree.
func (a *Array) Validate() error {
	if len(a.Dims) != len(a.Shape) {
		return fmt.Errorf("array %s: %d dimension names for %d sizes", a.Name, len(a.Dims), len(a.Shape))
	}
	n := 1
	for _, s := range a.Shape {
		n *= s
	}
	if n != len(a.Data) {
		return fmt.Errorf("array %s: shape %v holds %d values, data has %d", a.Name, a.Shape, n, len(a.Data))
	}
	return nil
}

// DimIndex returns the position of the named dimension, or -1.
func (a *Array) DimIndex(name string) int {
	for i, d := range a.Dims {
		if d == name {
			return i
		}
	}
	return -1
}

// FindDim returns the position of the first dimension whose name is in
// candidates, or -1.
func (a *Array) FindDim(candidates ...string) int {
	for _, c := range candidates {
		if i := a.DimIndex(c); i >= 0 {
			return i
		}
	}
	return -1
}

// Strides returns the row-major stride of every dimension.
func (a *Array) Strides() []int {
	strides := make([]int, len(a.Shape))
	acc := 1
	for i := len(a.Shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= a.Shape[i]
	}
	return strides
}

// Offset converts a full index into a flat position.
func (a *Array) Offset(idx ...int) (int, error) {
	if len(idx) != len(a.Shape) {
		return 0, fmt.Errorf("array %s: %d indices for %d dimensions", a.Name, len(idx), len(a.Shape))
	}
	off := 0
	strides := a.Strides()
	for i, v := range idx {
		if v < 0 || v >= a.Shape[i] {
			return 0, fmt.Errorf("array %s: index %d out of range [0, %d) on %s", a.Name, v, a.Shape[i], a.Dims[i])
		}
		off += v * strides[i]
	}
	return off, nil
}

// At returns the value at the given full index.
func (a *Array) At(idx ...int) (float64, error) {
	off, err := a.Offset(idx...)
	if err != nil {
		return 0, err
	}
	return a.Data[off], nil
}
