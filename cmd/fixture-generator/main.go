// Command fixture-generator writes synthetic routing and surface ensemble
// NetCDF files plus a GeoJSON basin layer for local development.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ctessum/geom"

	"go.ngs.io/hydroviewer/internal/adapter/store/ensemble"
	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/config"
	"go.ngs.io/hydroviewer/internal/domain"
)

// RegionalGrid defines the geographic bounds and resolution
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

// Axes returns cell-centre longitudes and latitudes.
func (g RegionalGrid) Axes() (lon, lat []float64) {
	for x := g.LonMin + g.Resolution/2; x < g.LonMax; x += g.Resolution {
		lon = append(lon, x)
	}
	for y := g.LatMin + g.Resolution/2; y < g.LatMax; y += g.Resolution {
		lat = append(lat, y)
	}
	return lon, lat
}

func main() {
	// Command line flags
	outDir := flag.String("out", "./data", "Output directory")
	catalogPath := flag.String("catalog", "", "Variable catalog YAML (default: built in)")
	latMin := flag.Float64("lat-min", -20.0, "Minimum latitude")
	latMax := flag.Float64("lat-max", 5.0, "Maximum latitude")
	lonMin := flag.Float64("lon-min", -80.0, "Minimum longitude")
	lonMax := flag.Float64("lon-max", -45.0, "Maximum longitude")
	resolution := flag.Float64("resolution", 0.5, "Grid resolution in degrees")
	basinSize := flag.Float64("basin-size", 5.0, "Edge length of each synthetic basin in degrees")
	members := flag.Int("members", 7, "Ensemble members")
	months := flag.Int("months", 6, "Monthly time steps")
	start := flag.String("start", "2015-08-31", "Date of the first time step")
	seed := flag.Int64("seed", 1, "Random seed")

	flag.Parse()

	grid := RegionalGrid{
		LatMin:     *latMin,
		LatMax:     *latMax,
		LonMin:     *lonMin,
		LonMax:     *lonMax,
		Resolution: *resolution,
	}
	if grid.LatMax <= grid.LatMin || grid.LonMax <= grid.LonMin || grid.Resolution <= 0 {
		log.Fatalf("Invalid grid: %+v", grid)
	}

	catalog, err := config.LoadCatalog(*catalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	lon, lat := grid.Axes()
	times := make([]float64, *months)
	for i := range times {
		times[i] = float64(i)
	}
	timeUnits := "months since " + *start + " 00:00:00"
	rng := rand.New(rand.NewSource(*seed))

	log.Printf("Generating ensemble fixtures")
	log.Printf("Grid: %.1f°-%.1f°N, %.1f°-%.1f°E, resolution: %.2f°",
		grid.LatMin, grid.LatMax, grid.LonMin, grid.LonMax, grid.Resolution)
	log.Printf("Grid size: %d × %d points, %d members, %d steps", len(lat), len(lon), *members, *months)

	for _, family := range []domain.Family{domain.FamilyRouting, domain.FamilySurface} {
		spec := ensemble.FileSpec{
			Lon:       lon,
			Lat:       lat,
			Times:     times,
			TimeUnits: timeUnits,
			Ensemble:  *members,
		}
		for _, v := range catalog.Variables {
			if v.Family != family {
				continue
			}
			spec.Variables = append(spec.Variables, variableSpec(v, lon, lat, len(catalog.Profiles), rng))
		}
		path := filepath.Join(*outDir, string(family)+"_ensemble.nc")
		if err := ensemble.WriteFile(path, spec); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		log.Printf("✓ Generated %s (%d variables)", path, len(spec.Variables))
	}

	basins := basinLayer(grid, *basinSize)
	data, err := region.EncodeFeatureCollection(basins, "PFAF_ID")
	if err != nil {
		log.Fatalf("Failed to encode basins: %v", err)
	}
	basinPath := filepath.Join(*outDir, "hybas_sa_lev05_amazon.geojson")
	//nolint:gosec // G306: generated fixture.
	if err := os.WriteFile(basinPath, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", basinPath, err)
	}
	log.Printf("✓ Generated %s (%d basins)", basinPath, len(basins))

	log.Printf("\n=== Generation Complete ===")
	log.Printf("Files created in: %s", *outDir)
}

// variableSpec fills v with a smooth seasonal field plus per-member noise.
// Cells near the grid corner are left as fill values.
func variableSpec(v domain.Variable, lon, lat []float64, profiles int, rng *rand.Rand) ensemble.VariableSpec {
	fill := float32(-9999)
	base, amp := magnitude(v)
	noise := make([]float32, 64)
	for i := range noise {
		noise[i] = float32(rng.NormFloat64())
	}

	vs := ensemble.VariableSpec{
		Name:      v.Name,
		Units:     v.Units,
		FillValue: &fill,
		Value: func(member, step, profile, latIdx, lonIdx int) float32 {
			if latIdx == 0 && lonIdx == 0 {
				return fill
			}
			x := float64(lonIdx) / float64(len(lon))
			y := float64(latIdx) / float64(len(lat))
			season := math.Sin(2 * math.Pi * float64(step) / 12)
			spatial := math.Cos(math.Pi*x) * math.Sin(math.Pi*y)
			depth := 1 - 0.15*float64(profile)
			val := (base + amp*(0.5*season+spatial)) * depth
			return float32(val) + noise[(member*7+step)%len(noise)]*float32(amp)*0.1
		},
	}
	if v.HasProfile() {
		vs.ProfileDim = v.ProfileDim
		vs.Profiles = profiles
	}
	return vs
}

// magnitude returns a plausible base value and amplitude for v.
func magnitude(v domain.Variable) (base, amp float64) {
	switch v.Units {
	case "K":
		return 298, 4
	case "m3 s-1":
		return 2000, 1500
	case "m3 m-3":
		return 0.3, 0.1
	case "mm":
		return 0, 200
	default:
		return 5e-5, 3e-5
	}
}

// basinLayer tiles the grid with square basins numbered like level-5
// HydroBASINS identifiers.
func basinLayer(g RegionalGrid, size float64) []*region.Region {
	var out []*region.Region
	id := 62201
	for y := g.LatMin; y < g.LatMax; y += size {
		for x := g.LonMin; x < g.LonMax; x += size {
			x1, y1 := math.Min(x+size, g.LonMax), math.Min(y+size, g.LatMax)
			out = append(out, &region.Region{
				ID: strconv.Itoa(id),
				Boundary: geom.Polygon{{
					{X: x, Y: y}, {X: x1, Y: y}, {X: x1, Y: y1}, {X: x, Y: y1}, {X: x, Y: y},
				}},
				Properties: map[string]string{"NAME": fmt.Sprintf("Basin %d", id)},
			})
			id++
		}
	}
	return out
}
