package region

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/rs/zerolog"

	"go.ngs.io/hydroviewer/internal/adapter/fetch"
)

const twoBasins = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"PFAF_ID": 62201, "NAME": "Upper"},
     "geometry": {"type": "Polygon", "coordinates": [[[-70,-5],[-68,-5],[-68,-3],[-70,-3],[-70,-5]]]}},
    {"type": "Feature", "properties": {"PFAF_ID": 62202, "NAME": "Lower"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-68,-5],[-66,-5],[-66,-3],[-68,-3],[-68,-5]]]]}},
    {"type": "Feature", "properties": {"PFAF_ID": 1},
     "geometry": {"type": "Point", "coordinates": [-60, -2]}}
  ]
}`

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func TestDecodeFeatureCollection(t *testing.T) {
	regions, err := DecodeFeatureCollection([]byte(twoBasins), "PFAF_ID", "NAME")
	if err != nil {
		t.Fatalf("DecodeFeatureCollection: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expected the point feature to be skipped, got %d regions", len(regions))
	}
	if regions[0].ID != "62201" || regions[0].Label != "Upper" {
		t.Fatalf("unexpected first region %+v", regions[0])
	}
	if regions[1].Properties["NAME"] != "Lower" {
		t.Fatalf("properties not kept: %v", regions[1].Properties)
	}
}

func TestDecodeFeatureCollectionErrors(t *testing.T) {
	if _, err := DecodeFeatureCollection([]byte(`{"type":"Feature"}`), "PFAF_ID", ""); err == nil {
		t.Fatal("expected error for non-collection input")
	}
	missingID := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
		"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`
	if _, err := DecodeFeatureCollection([]byte(missingID), "PFAF_ID", ""); err == nil {
		t.Fatal("expected error for missing identifier")
	}
}

func TestLayerLocateAndGet(t *testing.T) {
	layer, err := NewLayer([]*Region{
		{ID: "a", Boundary: square(0, 0, 2, 2)},
		{ID: "b", Boundary: square(2, 0, 4, 2)},
	})
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}

	r, ok := layer.Locate(1, 1)
	if !ok || r.ID != "a" {
		t.Fatalf("Locate(1,1) = %v, %v", r, ok)
	}
	r, ok = layer.Locate(3, 0.5)
	if !ok || r.ID != "b" {
		t.Fatalf("Locate(3,0.5) = %v, %v", r, ok)
	}
	if _, ok := layer.Locate(10, 10); ok {
		t.Fatal("expected no region far outside the layer")
	}

	if got, err := layer.Get("b"); err != nil || got.Label != "b" {
		t.Fatalf("Get(b) = %v, %v", got, err)
	}
	if _, err := layer.Get("zzz"); !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("expected ErrUnknownRegion, got %v", err)
	}

	b := layer.Bounds()
	if b.Min.X != 0 || b.Max.X != 4 || b.Max.Y != 2 {
		t.Fatalf("unexpected layer bounds %+v", b)
	}
}

func TestNewLayerRejectsDuplicates(t *testing.T) {
	_, err := NewLayer([]*Region{
		{ID: "a", Boundary: square(0, 0, 1, 1)},
		{ID: "a", Boundary: square(1, 0, 2, 1)},
	})
	if err == nil {
		t.Fatal("expected duplicate identifier error")
	}
}

func TestLoaderLocalAndRemote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basins.geojson")
	if err := os.WriteFile(path, []byte(twoBasins), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil, "PFAF_ID", "", zerolog.Nop())
	layer, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load local: %v", err)
	}
	if layer.Len() != 2 {
		t.Fatalf("expected 2 regions, got %d", layer.Len())
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(twoBasins))
	}))
	defer srv.Close()

	remote := NewLoader(fetch.New(5*time.Second, 0, zerolog.Nop()), "PFAF_ID", "NAME", zerolog.Nop())
	layer, err = remote.Load(context.Background(), srv.URL+"/basins.geojson")
	if err != nil {
		t.Fatalf("Load remote: %v", err)
	}
	r, err := layer.Get("62202")
	if err != nil || r.Label != "Lower" {
		t.Fatalf("Get(62202) = %v, %v", r, err)
	}

	if _, err := loader.Load(context.Background(), srv.URL+"/basins.geojson"); err == nil {
		t.Fatal("expected error for remote source without fetcher")
	}
}

func TestEncodeRoundTripKeepsIdentifiers(t *testing.T) {
	regions := []*Region{{ID: "62201", Boundary: square(-70, -5, -68, -3), Properties: map[string]string{"NAME": "Upper"}}}
	data, err := EncodeFeatureCollection(regions, "PFAF_ID")
	if err != nil {
		t.Fatalf("EncodeFeatureCollection: %v", err)
	}
	back, err := DecodeFeatureCollection(data, "PFAF_ID", "NAME")
	if err != nil {
		t.Fatalf("DecodeFeatureCollection: %v", err)
	}
	if len(back) != 1 || back[0].ID != "62201" || back[0].Label != "Upper" {
		t.Fatalf("unexpected decoded regions %+v", back)
	}
}
