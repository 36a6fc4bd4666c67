package region

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/rs/zerolog"

	"go.ngs.io/hydroviewer/internal/adapter/fetch"
)

// Loader reads boundary layers from GeoJSON (local or remote) or shapefiles.
type Loader struct {
	fetcher    *fetch.Fetcher
	idField    string
	labelField string
	log        zerolog.Logger
}

// NewLoader creates a Loader keyed by idField. fetcher may be nil when only
// local sources are used.
func NewLoader(fetcher *fetch.Fetcher, idField, labelField string, log zerolog.Logger) *Loader {
	if labelField == "" {
		labelField = idField
	}
	return &Loader{fetcher: fetcher, idField: idField, labelField: labelField, log: log}
}

// Load reads the layer at source.
func (l *Loader) Load(ctx context.Context, source string) (*Layer, error) {
	var (
		regions []*Region
		err     error
	)
	switch {
	case strings.EqualFold(fileExt(source), ".shp"):
		if fetch.IsRemote(source) {
			return nil, fmt.Errorf("shapefile %s must be a local path", source)
		}
		regions, err = l.decodeShapefile(source)
	case fetch.IsRemote(source):
		if l.fetcher == nil {
			return nil, fmt.Errorf("cannot load %s: remote fetching not configured", source)
		}
		var data []byte
		data, err = l.fetcher.Get(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch boundary layer: %w", err)
		}
		regions, err = DecodeFeatureCollection(data, l.idField, l.labelField)
	default:
		var data []byte
		//nolint:gosec // G304: source comes from operator configuration.
		data, err = os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read boundary layer: %w", err)
		}
		regions, err = DecodeFeatureCollection(data, l.idField, l.labelField)
	}
	if err != nil {
		return nil, err
	}

	layer, err := NewLayer(regions)
	if err != nil {
		return nil, err
	}
	l.log.Info().Str("source", source).Int("regions", layer.Len()).Msg("boundary layer loaded")
	return layer, nil
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

// DecodeFeatureCollection parses a GeoJSON FeatureCollection of polygons.
// Non-polygonal features are skipped.
func DecodeFeatureCollection(data []byte, idField, labelField string) ([]*Region, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fc featureCollection
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode GeoJSON: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("decode GeoJSON: expected FeatureCollection, got %q", fc.Type)
	}

	regions := make([]*Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		if len(f.Geometry) == 0 || string(f.Geometry) == "null" {
			continue
		}
		g, err := geojson.Decode(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: decode geometry: %w", i, err)
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			continue
		}
		props := make(map[string]string, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = propertyString(v)
		}
		id := props[idField]
		if id == "" {
			return nil, fmt.Errorf("feature %d: missing %s property", i, idField)
		}
		regions = append(regions, &Region{
			ID:         id,
			Label:      props[labelField],
			Boundary:   poly,
			Properties: props,
		})
	}
	return regions, nil
}

func (l *Loader) decodeShapefile(path string) ([]*Region, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer dec.Close()

	fields := []string{l.idField}
	if l.labelField != l.idField {
		fields = append(fields, l.labelField)
	}

	var regions []*Region
	for {
		g, row, more := dec.DecodeRowFields(fields...)
		if !more {
			break
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			continue
		}
		id := strings.TrimSpace(row[l.idField])
		regions = append(regions, &Region{
			ID:         id,
			Label:      strings.TrimSpace(row[l.labelField]),
			Boundary:   poly,
			Properties: row,
		})
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("decode shapefile: %w", err)
	}
	return regions, nil
}

func propertyString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func fileExt(source string) string {
	if i := strings.LastIndex(source, "."); i >= 0 {
		return source[i:]
	}
	return ""
}
