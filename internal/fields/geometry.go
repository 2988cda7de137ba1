package fields

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/siad-agro/siad-api/internal/db"
)

// ParseBoundary decodes a GeoJSON Polygon or MultiPolygon and returns it with its
// geodesic area in hectares.
func ParseBoundary(raw json.RawMessage) (orb.Geometry, float64, error) {
	if len(raw) == 0 {
		return nil, 0, fmt.Errorf("geometry required: %w", db.ErrInvalid)
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("geometry: %v: %w", err, db.ErrInvalid)
	}
	geom := g.Geometry()
	switch p := geom.(type) {
	case orb.Polygon:
		if err := checkPolygon(p); err != nil {
			return nil, 0, err
		}
	case orb.MultiPolygon:
		if len(p) == 0 {
			return nil, 0, fmt.Errorf("empty multipolygon: %w", db.ErrInvalid)
		}
		for _, poly := range p {
			if err := checkPolygon(poly); err != nil {
				return nil, 0, err
			}
		}
	default:
		return nil, 0, fmt.Errorf("geometry type %s: want Polygon or MultiPolygon: %w", geom.GeoJSONType(), db.ErrInvalid)
	}
	return geom, math.Round(geo.Area(geom)/10000*100) / 100, nil
}

// CheckRing reports why a ring is not a valid closed linear ring, or nil.
func CheckRing(r orb.Ring) error {
	if len(r) < 4 {
		return fmt.Errorf("ring has %d points, need at least 4: %w", len(r), db.ErrInvalid)
	}
	if !r.Closed() {
		return fmt.Errorf("ring is not closed: %w", db.ErrInvalid)
	}
	for _, pt := range r {
		if pt.Lon() < -180 || pt.Lon() > 180 || pt.Lat() < -90 || pt.Lat() > 90 {
			return fmt.Errorf("coordinate %v out of range: %w", pt, db.ErrInvalid)
		}
	}
	return nil
}

func checkPolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return fmt.Errorf("empty polygon: %w", db.ErrInvalid)
	}
	for _, r := range p {
		if err := CheckRing(r); err != nil {
			return err
		}
	}
	return nil
}
