// Package zonal computes zonal statistics: summaries of the grid cells whose
// centres fall inside a watershed polygon, per time step, ensemble member and
// soil layer.
package zonal

import (
	"github.com/ctessum/geom"

	"go.ngs.io/hydroviewer/internal/adapter/grid"
)

// Mask marks the cells of the lat/lon grid whose centres lie inside or on the
// edge of boundary. mask[i][j] refers to (lon[j], lat[i]). Longitudes on a
// 0–360° axis are compared in the ±180° convention of the boundary layer.
func Mask(boundary geom.Polygonal, lon, lat []float64) ([][]bool, int) {
	lons := grid.LonsForPolygons(lon)
	b := boundary.Bounds()

	mask := make([][]bool, len(lat))
	count := 0
	for i, y := range lat {
		mask[i] = make([]bool, len(lons))
		if y < b.Min.Y || y > b.Max.Y {
			continue
		}
		for j, x := range lons {
			if x < b.Min.X || x > b.Max.X {
				continue
			}
			if (geom.Point{X: x, Y: y}).Within(boundary) != geom.Outside {
				mask[i][j] = true
				count++
			}
		}
	}
	return mask, count
}
