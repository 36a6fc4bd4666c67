// Package ensemble reads land-surface and routing ensemble output from NetCDF files.
package ensemble

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/rs/zerolog"

	"go.ngs.io/hydroviewer/internal/adapter/fetch"
	"go.ngs.io/hydroviewer/internal/adapter/grid"
	"go.ngs.io/hydroviewer/internal/adapter/store"
)

// Opener opens ensemble files from local paths or http(s) URLs.
type Opener struct {
	fetcher *fetch.Fetcher
	log     zerolog.Logger
}

// NewOpener creates an Opener. fetcher may be nil when only local paths are used.
func NewOpener(fetcher *fetch.Fetcher, log zerolog.Logger) *Opener {
	return &Opener{fetcher: fetcher, log: log}
}

// Open opens the dataset at path. Remote files are downloaded to a temporary
// file that is removed when the dataset is closed.
func (o *Opener) Open(ctx context.Context, path string) (store.Dataset, error) {
	local := path
	var cleanup func()

	if fetch.IsRemote(path) {
		if o.fetcher == nil {
			return nil, fmt.Errorf("cannot open %s: remote fetching not configured", path)
		}
		tmp, err := o.fetcher.Download(ctx, path, "ensemble-*.nc")
		if err != nil {
			return nil, fmt.Errorf("failed to download dataset: %w", err)
		}
		local = tmp
		cleanup = func() { _ = os.Remove(tmp) }
	}

	nc, err := netcdf.OpenFile(local, netcdf.NOWRITE)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}

	o.log.Debug().Str("path", path).Msg("dataset opened")
	return &Dataset{nc: nc, path: path, cleanup: cleanup, log: o.log}, nil
}

// Dataset is an open NetCDF ensemble file.
type Dataset struct {
	nc      netcdf.Dataset
	path    string
	cleanup func()
	closed  bool
	log     zerolog.Logger
}

// Path returns the source the dataset was opened from.
func (d *Dataset) Path() string { return d.path }

// Close releases the NetCDF handle. It is safe to call more than once.
func (d *Dataset) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.nc.Close()
	if d.cleanup != nil {
		d.cleanup()
	}
	d.log.Debug().Str("path", d.path).Msg("dataset closed")
	return err
}

// Variable reads the named variable. Fill and missing values become NaN and
// packed values are unpacked with scale_factor/add_offset.
func (d *Dataset) Variable(name string) (*grid.Array, error) {
	v, err := d.nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", store.ErrVariableNotFound, name)
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	names := make([]string, len(dims))
	shape := make([]int, len(dims))
	total := 1
	for i, dim := range dims {
		n, err := dim.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension name of %s: %w", name, err)
		}
		l, err := dim.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension length of %s: %w", name, err)
		}
		names[i] = n
		shape[i] = int(l)
		total *= int(l)
	}

	data, err := readFloat64s(v, total)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	maskFill(v, data)
	unpack(v, data)

	arr := &grid.Array{Name: name, Dims: names, Shape: shape, Data: data}
	if err := arr.Validate(); err != nil {
		return nil, err
	}
	return arr, nil
}

// Axis reads the first 1D coordinate variable found among names.
func (d *Dataset) Axis(names ...string) ([]float64, error) {
	for _, name := range names {
		v, err := d.nc.Var(name)
		if err != nil {
			continue
		}
		dims, err := v.Dims()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
		}
		if len(dims) != 1 {
			return nil, fmt.Errorf("expected 1D coordinate %s, got %dD", name, len(dims))
		}
		n, err := dims[0].Len()
		if err != nil {
			return nil, err
		}
		return readFloat64s(v, int(n))
	}
	return nil, fmt.Errorf("%w: tried %v", store.ErrVariableNotFound, names)
}

// Times decodes the "time" coordinate using its CF units attribute.
func (d *Dataset) Times() ([]time.Time, error) {
	v, err := d.nc.Var("time")
	if err != nil {
		return nil, store.ErrNoTimeAxis
	}
	raw, err := d.Axis("time")
	if err != nil {
		return nil, err
	}
	unitsAttr, ok := textAttr(v, "units")
	if !ok {
		return nil, fmt.Errorf("time coordinate of %s has no units attribute", d.path)
	}
	units, err := ParseTimeUnits(unitsAttr)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, len(raw))
	for i, off := range raw {
		times[i] = units.Decode(off)
	}
	return times, nil
}

// readFloat64s reads n values of any numeric NetCDF type as float64.
func readFloat64s(v netcdf.Var, n int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}

	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, n)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, n)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, n)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT64:
		tmp := make([]int64, n)
		if err := v.ReadInt64s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}

// numericAttr returns the first value of a numeric attribute.
func numericAttr(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, n)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, n)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, n)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	bufs := make([]int16, n)
	if err := a.ReadInt16s(bufs); err == nil {
		return float64(bufs[0]), true
	}
	return 0, false
}

// textAttr returns a character attribute.
func textAttr(v netcdf.Var, name string) (string, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return "", false
	}
	buf := make([]byte, n)
	if err := a.ReadBytes(buf); err != nil {
		return "", false
	}
	return strings.TrimRight(string(buf), "\x00"), true
}

// maskFill replaces _FillValue and missing_value entries with NaN.
func maskFill(v netcdf.Var, data []float64) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		fv, ok := numericAttr(v, name)
		if !ok {
			continue
		}
		for i, val := range data {
			if val == fv || (math.Abs(fv) >= 1e30 && math.Abs(val) >= math.Abs(fv)*0.999999) {
				data[i] = math.NaN()
			}
		}
	}
}

func unpack(v netcdf.Var, data []float64) {
	scale, hasScale := numericAttr(v, "scale_factor")
	offset, hasOffset := numericAttr(v, "add_offset")
	if !hasScale && !hasOffset {
		return
	}
	if !hasScale {
		scale = 1
	}
	for i, val := range data {
		if !math.IsNaN(val) {
			data[i] = val*scale + offset
		}
	}
}
