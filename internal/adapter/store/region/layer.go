// Package region loads watershed boundary layers and answers point-in-polygon
// lookups against them.
package region

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// ErrUnknownRegion is returned when a region identifier is not in the layer.
var ErrUnknownRegion = errors.New("unknown region")

// Region is one named watershed polygon.
type Region struct {
	ID         string
	Label      string
	Boundary   geom.Polygonal
	Properties map[string]string
}

// indexed is the rtree entry of a region.
type indexed struct {
	geom.Polygonal
	region *Region
}

// Layer is an immutable collection of regions, safe for concurrent reads.
type Layer struct {
	regions []*Region
	byID    map[string]*Region
	tree    *rtree.Rtree
	bounds  *geom.Bounds
}

// NewLayer indexes regions. Identifiers must be unique and non-empty.
func NewLayer(regions []*Region) (*Layer, error) {
	l := &Layer{
		regions: make([]*Region, 0, len(regions)),
		byID:    make(map[string]*Region, len(regions)),
		tree:    rtree.NewTree(25, 50),
		bounds:  geom.NewBounds(),
	}
	for _, r := range regions {
		if r.ID == "" {
			return nil, fmt.Errorf("region without identifier")
		}
		if r.Boundary == nil {
			return nil, fmt.Errorf("region %s has no boundary", r.ID)
		}
		if _, dup := l.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate region identifier %s", r.ID)
		}
		if r.Label == "" {
			r.Label = r.ID
		}
		l.regions = append(l.regions, r)
		l.byID[r.ID] = r
		l.tree.Insert(indexed{Polygonal: r.Boundary, region: r})
		l.bounds.Extend(r.Boundary.Bounds())
	}
	return l, nil
}

// Len returns the number of regions.
func (l *Layer) Len() int { return len(l.regions) }

// Regions returns the regions in load order.
func (l *Layer) Regions() []*Region { return l.regions }

// Bounds returns the extent of the whole layer.
func (l *Layer) Bounds() *geom.Bounds { return l.bounds }

// Get returns the region with the given identifier.
func (l *Layer) Get(id string) (*Region, error) {
	r, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, id)
	}
	return r, nil
}

// Locate returns the region containing (lon, lat). When several regions
// contain the point (shared edges), the one with the smallest identifier wins.
func (l *Layer) Locate(lon, lat float64) (*Region, bool) {
	p := geom.Point{X: lon, Y: lat}
	var hits []*Region
	for _, g := range l.tree.SearchIntersect(p.Bounds()) {
		e, ok := g.(indexed)
		if !ok {
			continue
		}
		if p.Within(e.Polygonal) != geom.Outside {
			hits = append(hits, e.region)
		}
	}
	if len(hits) == 0 {
		return nil, false
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return hits[0], true
}
