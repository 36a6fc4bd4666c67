package region

import (
	"encoding/json"
	"fmt"

	"github.com/ctessum/geom/encoding/geojson"
)

// EncodeFeatureCollection writes regions as a GeoJSON FeatureCollection whose
// features carry idField (and every other stored property).
func EncodeFeatureCollection(regions []*Region, idField string) ([]byte, error) {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(regions))}
	for _, r := range regions {
		g, err := geojson.Encode(r.Boundary)
		if err != nil {
			return nil, fmt.Errorf("encode region %s: %w", r.ID, err)
		}
		props := make(map[string]interface{}, len(r.Properties)+1)
		for k, v := range r.Properties {
			props[k] = v
		}
		props[idField] = r.ID
		fc.Features = append(fc.Features, feature{Type: "Feature", Properties: props, Geometry: g})
	}
	return json.Marshal(fc)
}
