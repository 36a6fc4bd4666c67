package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.ngs.io/hydroviewer/internal/adapter/grid"
	"go.ngs.io/hydroviewer/internal/adapter/store"
	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/config"
	"go.ngs.io/hydroviewer/internal/domain"
	"go.ngs.io/hydroviewer/internal/mapping"
)

// ProbeRequest asks for the ensemble-mean value at a map position.
type ProbeRequest struct {
	Lon       float64
	Lat       float64
	Variable  string
	TimeIndex int
	Profile   int
}

// ProbeResponse is the hover readout of the heatmap.
type ProbeResponse struct {
	Lon       float64    `json:"lon"`
	Lat       float64    `json:"lat"`
	Variable  string     `json:"variable"`
	Units     string     `json:"units,omitempty"`
	TimeIndex int        `json:"time_index"`
	Time      *time.Time `json:"time,omitempty"`
	Profile   *int       `json:"profile,omitempty"`
	// Value is nil where every surrounding cell is missing.
	Value    *float64 `json:"value"`
	RegionID string   `json:"region_id,omitempty"`
}

// ProbeUseCase samples the ensemble-mean field bilinearly.
type ProbeUseCase struct {
	catalog *config.Catalog
	paths   map[domain.Family]string
	layer   *region.Layer
	opener  store.DatasetOpener
}

// NewProbeUseCase creates a new probe use case.
func NewProbeUseCase(deps Deps) *ProbeUseCase {
	return &ProbeUseCase{
		catalog: deps.Catalog,
		paths:   deps.Paths,
		layer:   deps.Layer,
		opener:  deps.Opener,
	}
}

// Validate checks coordinate ranges and catalog membership.
func (r *ProbeRequest) Validate(catalog *config.Catalog) (domain.Variable, error) {
	if r.Lat < -90 || r.Lat > 90 {
		return domain.Variable{}, fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidInput)
	}
	if r.Lon < -180 || r.Lon > 360 {
		return domain.Variable{}, fmt.Errorf("%w: longitude must be between -180 and 360", ErrInvalidInput)
	}
	if r.TimeIndex < 0 {
		return domain.Variable{}, fmt.Errorf("%w: time index must be non-negative", ErrInvalidInput)
	}
	v, ok := catalog.Lookup(r.Variable)
	if !ok {
		return domain.Variable{}, fmt.Errorf("%w: unknown variable %q", ErrInvalidInput, r.Variable)
	}
	if v.HasProfile() && !catalog.HasProfile(r.Profile) {
		return domain.Variable{}, fmt.Errorf("%w: unknown profile %d", ErrInvalidInput, r.Profile)
	}
	return v, nil
}

// Execute reads the variable, averages the members and interpolates at the position.
func (uc *ProbeUseCase) Execute(ctx context.Context, req ProbeRequest) (*ProbeResponse, error) {
	v, err := req.Validate(uc.catalog)
	if err != nil {
		return nil, err
	}
	path := uc.paths[v.Family]

	ds, err := uc.opener.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ds.Close()

	lon, lat, times, err := mapping.StandardCoordinates(ds)
	if err != nil {
		return nil, err
	}
	arr, err := ds.Variable(v.Name)
	if err != nil {
		return nil, err
	}
	values, err := mapping.MeanField(arr, v, req.TimeIndex, req.Profile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	field := grid.Field{X: lon, Y: lat, Values: values}
	x := grid.NormalizeLonForAxis(lon, req.Lon)
	val, err := field.At(x, req.Lat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	resp := &ProbeResponse{
		Lon:       req.Lon,
		Lat:       req.Lat,
		Variable:  v.Name,
		Units:     v.Units,
		TimeIndex: req.TimeIndex,
	}
	if !math.IsNaN(val) {
		resp.Value = &val
	}
	if req.TimeIndex < len(times) {
		t := times[req.TimeIndex]
		resp.Time = &t
	}
	if v.HasProfile() {
		p := req.Profile
		resp.Profile = &p
	}
	if r, ok := uc.layer.Locate(grid.NormalizeLon180(req.Lon), req.Lat); ok {
		resp.RegionID = r.ID
	}
	return resp, nil
}
