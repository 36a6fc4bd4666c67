package mapping

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"go.ngs.io/hydroviewer/internal/adapter/grid"
	"go.ngs.io/hydroviewer/internal/chart"
	"go.ngs.io/hydroviewer/internal/domain"
)

var (
	ensembleNames = []string{"ensemble", "ens", "member", "realization"}
	timeNames     = []string{"time"}
)

// MeanField averages arr over the ensemble dimension at one time step (and
// soil layer for profile variables). The result is indexed [lat][lon];
// cells missing in every member are NaN.
func MeanField(arr *grid.Array, v domain.Variable, timeIndex, profile int) ([][]float64, error) {
	latIdx := arr.FindDim(latNames...)
	lonIdx := arr.FindDim(lonNames...)
	if latIdx < 0 || lonIdx < 0 {
		return nil, fmt.Errorf("variable %s has no lat/lon dimensions (dims %v)", arr.Name, arr.Dims)
	}

	fixed := map[int]int{}
	if t := arr.FindDim(timeNames...); t >= 0 {
		if timeIndex < 0 || timeIndex >= arr.Shape[t] {
			return nil, fmt.Errorf("time index %d out of range [0, %d)", timeIndex, arr.Shape[t])
		}
		fixed[t] = timeIndex
	} else if timeIndex != 0 {
		return nil, fmt.Errorf("variable %s has no time dimension", arr.Name)
	}
	if v.HasProfile() {
		p := arr.DimIndex(v.ProfileDim)
		if p < 0 {
			return nil, fmt.Errorf("variable %s has no %s dimension", arr.Name, v.ProfileDim)
		}
		if profile < 0 || profile >= arr.Shape[p] {
			return nil, fmt.Errorf("profile %d out of range [0, %d)", profile, arr.Shape[p])
		}
		fixed[p] = profile
	}
	ensIdx := arr.FindDim(ensembleNames...)

	strides := arr.Strides()
	base := 0
	for i, d := range arr.Dims {
		if i == latIdx || i == lonIdx || i == ensIdx {
			continue
		}
		if k, ok := fixed[i]; ok {
			base += k * strides[i]
			continue
		}
		if arr.Shape[i] > 1 {
			return nil, fmt.Errorf("variable %s has unexpected dimension %s of size %d", arr.Name, d, arr.Shape[i])
		}
	}

	members, memberStride := 1, 0
	if ensIdx >= 0 {
		members, memberStride = arr.Shape[ensIdx], strides[ensIdx]
	}

	nLat, nLon := arr.Shape[latIdx], arr.Shape[lonIdx]
	field := make([][]float64, nLat)
	buf := make([]float64, 0, members)
	for y := 0; y < nLat; y++ {
		field[y] = make([]float64, nLon)
		for x := 0; x < nLon; x++ {
			off := base + y*strides[latIdx] + x*strides[lonIdx]
			buf = buf[:0]
			for e := 0; e < members; e++ {
				if v := arr.Data[off+e*memberStride]; !math.IsNaN(v) {
					buf = append(buf, v)
				}
			}
			if len(buf) == 0 {
				field[y][x] = math.NaN()
				continue
			}
			field[y][x] = stat.Mean(buf, nil)
		}
	}
	return field, nil
}

// HeatmapTrace draws the ensemble-mean field of arr. Longitudes are expressed
// in the convention of the outline trace; missing cells are left blank and
// hover is disabled so clicks reach the outline underneath.
func HeatmapTrace(arr *grid.Array, v domain.Variable, lon, lat []float64, timeIndex, profile int) (chart.Trace, error) {
	field, err := MeanField(arr, v, timeIndex, profile)
	if err != nil {
		return chart.Trace{}, err
	}
	if len(field) != len(lat) || (len(field) > 0 && len(field[0]) != len(lon)) {
		return chart.Trace{}, fmt.Errorf("variable %s does not match the %dx%d coordinate grid", arr.Name, len(lat), len(lon))
	}
	return chart.Trace{
		Type:       "heatmap",
		Name:       v.Name,
		X:          grid.LonsForPolygons(lon),
		Y:          lat,
		Z:          field,
		HoverInfo:  "skip",
		ColorScale: "Viridis",
	}, nil
}
