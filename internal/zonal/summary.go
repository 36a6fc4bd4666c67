package zonal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go.ngs.io/hydroviewer/internal/adapter/grid"
	"go.ngs.io/hydroviewer/internal/adapter/store"
	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/domain"
)

// ErrEmptyMask is returned when no grid cell centre falls inside the region.
var ErrEmptyMask = errors.New("no grid cells inside region")

var (
	latNames      = []string{"lat", "latitude", "y"}
	lonNames      = []string{"lon", "longitude", "x"}
	ensembleNames = []string{"ensemble", "ens", "member", "realization"}
	timeNames     = []string{"time"}
)

// Request is one zonal-statistics computation.
type Request struct {
	Layer    *region.Layer
	Dataset  store.Dataset
	RegionID string
	Variable domain.Variable
	Lon      []float64
	Lat      []float64
	// Times labels the rows; optional.
	Times []time.Time
}

// Summarize masks the variable to the region and reduces every
// (time, member[, profile]) slice with the variable's reduction.
func Summarize(req Request) (*domain.SummaryTable, error) {
	r, err := req.Layer.Get(req.RegionID)
	if err != nil {
		return nil, err
	}

	mask, n := Mask(r.Boundary, req.Lon, req.Lat)
	if n == 0 {
		return nil, fmt.Errorf("%w %s", ErrEmptyMask, req.RegionID)
	}

	arr, err := req.Dataset.Variable(req.Variable.Name)
	if err != nil {
		return nil, err
	}

	table, err := Reduce(arr, mask, req.Variable, req.Times)
	if err != nil {
		return nil, err
	}
	table.RegionID = req.RegionID
	return table, nil
}

// Reduce applies mask to arr and reduces over the spatial dimensions.
// Rows are ordered by time, then member, then profile. Slices whose masked
// cells are all missing produce no row.
func Reduce(arr *grid.Array, mask [][]bool, v domain.Variable, times []time.Time) (*domain.SummaryTable, error) {
	latIdx := arr.FindDim(latNames...)
	lonIdx := arr.FindDim(lonNames...)
	if latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("variable %s has no lat/lon dimensions (dims %v)", arr.Name, arr.Dims)
	}
	if len(mask) != arr.Shape[latIdx] || (len(mask) > 0 && len(mask[0]) != arr.Shape[lonIdx]) {
		return nil, fmt.Errorf("mask does not match the %dx%d grid of %s", arr.Shape[latIdx], arr.Shape[lonIdx], arr.Name)
	}

	ensIdx := arr.FindDim(ensembleNames...)
	timeIdx := arr.FindDim(timeNames...)
	profIdx := -1
	if v.HasProfile() {
		profIdx = arr.DimIndex(v.ProfileDim)
		if profIdx < 0 {
			return nil, fmt.Errorf("variable %s has no %s dimension (dims %v)", arr.Name, v.ProfileDim, arr.Dims)
		}
	}
	for i, d := range arr.Dims {
		if i == latIdx || i == lonIdx || i == ensIdx || i == timeIdx || i == profIdx {
			continue
		}
		if arr.Shape[i] > 1 {
			return nil, fmt.Errorf("variable %s has unexpected dimension %s of size %d", arr.Name, d, arr.Shape[i])
		}
	}

	strides := arr.Strides()
	var cells []int
	for i, row := range mask {
		for j, in := range row {
			if in {
				cells = append(cells, i*strides[latIdx]+j*strides[lonIdx])
			}
		}
	}

	size := func(idx int) int {
		if idx < 0 {
			return 1
		}
		return arr.Shape[idx]
	}
	stride := func(idx int) int {
		if idx < 0 {
			return 0
		}
		return strides[idx]
	}
	nT, nE, nP := size(timeIdx), size(ensIdx), size(profIdx)

	reduce := reducer(v.Reduction)
	table := &domain.SummaryTable{
		Variable:  v.Name,
		Reduction: v.Reduction,
		Cells:     len(cells),
		Rows:      make([]domain.SummaryRow, 0, nT*nE*nP),
	}
	buf := make([]float64, 0, len(cells))
	for t := 0; t < nT; t++ {
		for e := 0; e < nE; e++ {
			for p := 0; p < nP; p++ {
				base := t*stride(timeIdx) + e*stride(ensIdx) + p*stride(profIdx)
				buf = buf[:0]
				for _, c := range cells {
					if val := arr.Data[base+c]; !math.IsNaN(val) {
						buf = append(buf, val)
					}
				}
				if len(buf) == 0 {
					continue
				}
				row := domain.SummaryRow{
					TimeIndex: t,
					Ensemble:  e,
					Profile:   domain.NoProfile,
					Value:     reduce(buf),
				}
				if profIdx >= 0 {
					row.Profile = p
				}
				if t < len(times) {
					row.Time = times[t]
				}
				table.Rows = append(table.Rows, row)
			}
		}
	}
	return table, nil
}

func reducer(r domain.Reduction) func([]float64) float64 {
	if r == domain.ReductionMax {
		return floats.Max
	}
	return func(x []float64) float64 { return stat.Mean(x, nil) }
}
