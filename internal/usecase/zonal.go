package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"go.ngs.io/hydroviewer/internal/adapter/store"
	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/config"
	"go.ngs.io/hydroviewer/internal/domain"
	"go.ngs.io/hydroviewer/internal/mapping"
	"go.ngs.io/hydroviewer/internal/zonal"
)

// ZonalRequest asks for the zonal summary of one variable over one region.
type ZonalRequest struct {
	RegionID string
	Variable string

	// Profile restricts profile variables to one soil layer; nil keeps all.
	Profile *int
}

// ZonalResponse is the summary table and the metadata needed to label it.
type ZonalResponse struct {
	Variable    domain.Variable      `json:"variable"`
	DatasetPath string               `json:"dataset_path"`
	Table       *domain.SummaryTable `json:"table"`
}

// ZonalUseCase computes zonal summaries outside any session.
type ZonalUseCase struct {
	catalog *config.Catalog
	paths   map[domain.Family]string
	layer   *region.Layer
	opener  store.DatasetOpener
	log     zerolog.Logger
}

// NewZonalUseCase creates a new zonal use case.
func NewZonalUseCase(deps Deps) *ZonalUseCase {
	return &ZonalUseCase{
		catalog: deps.Catalog,
		paths:   deps.Paths,
		layer:   deps.Layer,
		opener:  deps.Opener,
		log:     deps.Log,
	}
}

// Validate checks the request against the catalog.
func (r *ZonalRequest) Validate(catalog *config.Catalog) (domain.Variable, error) {
	if r.RegionID == "" || r.RegionID == domain.NoRegion {
		return domain.Variable{}, fmt.Errorf("%w: region is required", ErrInvalidInput)
	}
	v, ok := catalog.Lookup(r.Variable)
	if !ok {
		return domain.Variable{}, fmt.Errorf("%w: unknown variable %q", ErrInvalidInput, r.Variable)
	}
	if r.Profile != nil {
		if !v.HasProfile() {
			return domain.Variable{}, fmt.Errorf("%w: variable %s has no soil layers", ErrInvalidInput, v.Name)
		}
		if !catalog.HasProfile(*r.Profile) {
			return domain.Variable{}, fmt.Errorf("%w: unknown profile %d", ErrInvalidInput, *r.Profile)
		}
	}
	return v, nil
}

// Execute opens the backing dataset, summarises the region and closes the dataset.
func (uc *ZonalUseCase) Execute(ctx context.Context, req ZonalRequest) (*ZonalResponse, error) {
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
	table, err := zonal.Summarize(zonal.Request{
		Layer:    uc.layer,
		Dataset:  ds,
		RegionID: req.RegionID,
		Variable: v,
		Lon:      lon,
		Lat:      lat,
		Times:    times,
	})
	if err != nil {
		return nil, err
	}
	if req.Profile != nil {
		table = table.FilterProfile(*req.Profile)
	}

	uc.log.Debug().Str("region", req.RegionID).Str("variable", v.Name).Int("rows", len(table.Rows)).Msg("zonal summary computed")
	return &ZonalResponse{Variable: v, DatasetPath: path, Table: table}, nil
}
