package ensemble

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fhs/go-netcdf/netcdf"
)

// FileSpec describes a synthetic ensemble file laid out like LIS output:
// variables are (ensemble, time[, profile], lat, lon).
type FileSpec struct {
	Lon       []float64
	Lat       []float64
	Times     []float64 // Offsets in TimeUnits; empty omits the time coordinate.
	TimeUnits string
	Ensemble  int // Number of members; 0 omits the ensemble dimension.
	Variables []VariableSpec
}

// VariableSpec describes one data variable of a FileSpec.
type VariableSpec struct {
	Name       string
	Units      string
	ProfileDim string
	Profiles   int
	FillValue  *float32
	Value      func(member, step, profile, latIdx, lonIdx int) float32
}

// WriteFile creates path (and its directory) from spec, replacing any existing file.
func WriteFile(path string, spec FileSpec) error {
	//nolint:gosec // G301: output directory for generated data.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	latDim, err := f.AddDim("lat", uint64(len(spec.Lat)))
	if err != nil {
		return err
	}
	lonDim, err := f.AddDim("lon", uint64(len(spec.Lon)))
	if err != nil {
		return err
	}
	vlat, err := f.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	vlon, err := f.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}

	var lead []netcdf.Dim
	if spec.Ensemble > 0 {
		ensDim, err := f.AddDim("ensemble", uint64(spec.Ensemble))
		if err != nil {
			return err
		}
		lead = append(lead, ensDim)
	}

	var vtime netcdf.Var
	hasTime := len(spec.Times) > 0
	if hasTime {
		timeDim, err := f.AddDim("time", uint64(len(spec.Times)))
		if err != nil {
			return err
		}
		vtime, err = f.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
		if err != nil {
			return err
		}
		if err := vtime.Attr("units").WriteBytes([]byte(spec.TimeUnits)); err != nil {
			return fmt.Errorf("write time units: %w", err)
		}
		lead = append(lead, timeDim)
	}

	profileDims := map[string]netcdf.Dim{}
	vars := make([]netcdf.Var, len(spec.Variables))
	for i, vs := range spec.Variables {
		dims := append([]netcdf.Dim{}, lead...)
		if vs.ProfileDim != "" {
			pd, ok := profileDims[vs.ProfileDim]
			if !ok {
				pd, err = f.AddDim(vs.ProfileDim, uint64(vs.Profiles))
				if err != nil {
					return err
				}
				profileDims[vs.ProfileDim] = pd
			}
			dims = append(dims, pd)
		}
		dims = append(dims, latDim, lonDim)

		v, err := f.AddVar(vs.Name, netcdf.FLOAT, dims)
		if err != nil {
			return fmt.Errorf("add var %s: %w", vs.Name, err)
		}
		if vs.FillValue != nil {
			if err := v.Attr("_FillValue").WriteFloat32s([]float32{*vs.FillValue}); err != nil {
				return fmt.Errorf("write fill value: %w", err)
			}
		}
		if vs.Units != "" {
			if err := v.Attr("units").WriteBytes([]byte(vs.Units)); err != nil {
				return fmt.Errorf("write units: %w", err)
			}
		}
		vars[i] = v
	}

	if err := f.EndDef(); err != nil {
		return fmt.Errorf("enddef: %w", err)
	}

	if err := vlat.WriteFloat64s(spec.Lat); err != nil {
		return fmt.Errorf("write lat: %w", err)
	}
	if err := vlon.WriteFloat64s(spec.Lon); err != nil {
		return fmt.Errorf("write lon: %w", err)
	}
	if hasTime {
		if err := vtime.WriteFloat64s(spec.Times); err != nil {
			return fmt.Errorf("write time: %w", err)
		}
	}

	members := max(spec.Ensemble, 1)
	steps := max(len(spec.Times), 1)
	for i, vs := range spec.Variables {
		profiles := 1
		if vs.ProfileDim != "" {
			profiles = vs.Profiles
		}
		flat := make([]float32, 0, members*steps*profiles*len(spec.Lat)*len(spec.Lon))
		for e := 0; e < members; e++ {
			for t := 0; t < steps; t++ {
				for p := 0; p < profiles; p++ {
					for y := range spec.Lat {
						for x := range spec.Lon {
							flat = append(flat, vs.Value(e, t, p, y, x))
						}
					}
				}
			}
		}
		if err := vars[i].WriteFloat32s(flat); err != nil {
			return fmt.Errorf("write %s: %w", vs.Name, err)
		}
	}
	return nil
}
