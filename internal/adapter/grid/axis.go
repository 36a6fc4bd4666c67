package grid

import "math"

// LonAxisRequiresWrap reports whether a longitude axis uses the 0–360° convention.
func LonAxisRequiresWrap(lons []float64) bool {
	if len(lons) == 0 {
		return false
	}
	lo, hi := lons[0], lons[len(lons)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo >= 0 && hi > 180
}

// NormalizeLon360 maps a longitude into [0, 360).
func NormalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// NormalizeLon180 maps a longitude into [-180, 180).
func NormalizeLon180(lon float64) float64 {
	lon = NormalizeLon360(lon)
	if lon >= 180 {
		lon -= 360
	}
	return lon
}

// LonsForPolygons returns the longitudes of axis expressed in the ±180°
// convention that vector boundary layers use.
func LonsForPolygons(axis []float64) []float64 {
	out := make([]float64, len(axis))
	wrap := LonAxisRequiresWrap(axis)
	for i, v := range axis {
		if wrap {
			out[i] = NormalizeLon180(v)
		} else {
			out[i] = v
		}
	}
	return out
}

// NormalizeLonForAxis expresses lon in the convention of the given axis.
func NormalizeLonForAxis(axis []float64, lon float64) float64 {
	if LonAxisRequiresWrap(axis) {
		return NormalizeLon360(lon)
	}
	return lon
}
