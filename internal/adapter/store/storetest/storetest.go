// Package storetest provides in-memory datasets for tests.
package storetest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.ngs.io/hydroviewer/internal/adapter/grid"
	"go.ngs.io/hydroviewer/internal/adapter/store"
)

// Dataset is an in-memory store.Dataset.
type Dataset struct {
	Name  string
	Vars  map[string]*grid.Array
	Axes  map[string][]float64
	Clock []time.Time // nil means no time coordinate.
}

// NewDataset builds a dataset over the given lon/lat axes.
func NewDataset(name string, lon, lat []float64, times []time.Time) *Dataset {
	return &Dataset{
		Name:  name,
		Vars:  map[string]*grid.Array{},
		Axes:  map[string][]float64{"lon": lon, "lat": lat},
		Clock: times,
	}
}

// AddVariable stores a variable of the given dims, filled by value(idx).
// idx follows dims order.
func (d *Dataset) AddVariable(name string, dims []string, shape []int, value func(idx []int) float64) *grid.Array {
	arr, err := grid.NewArray(name, dims, shape)
	if err != nil {
		panic(err)
	}
	idx := make([]int, len(shape))
	for off := range arr.Data {
		rem := off
		for k := len(shape) - 1; k >= 0; k-- {
			idx[k] = rem % shape[k]
			rem /= shape[k]
		}
		arr.Data[off] = value(idx)
	}
	d.Vars[name] = arr
	return arr
}

// Path returns the dataset name.
func (d *Dataset) Path() string { return d.Name }

// Variable returns a copy of the stored variable.
func (d *Dataset) Variable(name string) (*grid.Array, error) {
	arr, ok := d.Vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrVariableNotFound, name)
	}
	out := *arr
	out.Data = append([]float64(nil), arr.Data...)
	return &out, nil
}

// Axis returns the first stored axis among names.
func (d *Dataset) Axis(names ...string) ([]float64, error) {
	for _, n := range names {
		if a, ok := d.Axes[n]; ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: tried %v", store.ErrVariableNotFound, names)
}

// Times returns the time coordinate.
func (d *Dataset) Times() ([]time.Time, error) {
	if d.Clock == nil {
		return nil, store.ErrNoTimeAxis
	}
	return d.Clock, nil
}

// Close is a no-op; handles returned by Opener count closes.
func (d *Dataset) Close() error { return nil }

// Opener serves Datasets by path and records every open and close.
type Opener struct {
	mu       sync.Mutex
	datasets map[string]*Dataset
	opened   []string
	open     int
}

// NewOpener creates an Opener over datasets keyed by path.
func NewOpener(datasets map[string]*Dataset) *Opener {
	return &Opener{datasets: datasets}
}

// Open returns a handle on the dataset stored at path.
func (o *Opener) Open(_ context.Context, path string) (store.Dataset, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	d, ok := o.datasets[path]
	if !ok {
		return nil, fmt.Errorf("failed to open NetCDF file %s: no such file", path)
	}
	o.opened = append(o.opened, path)
	o.open++
	return &handle{Dataset: d, opener: o}, nil
}

// Opened returns the paths opened so far, in order.
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opened...)
}

// OpenHandles returns the number of handles not yet closed.
func (o *Opener) OpenHandles() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

type handle struct {
	*Dataset
	opener *Opener
	closed bool
}

func (h *handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.opener.mu.Lock()
	h.opener.open--
	h.opener.mu.Unlock()
	return nil
}

// NaN is a convenience for missing cells in value functions.
var NaN = math.NaN()
