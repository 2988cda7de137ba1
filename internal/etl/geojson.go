package etl

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/siad-agro/siad-api/internal/fields"
)

type GeoValidation struct {
	Features        int      `json:"features"`
	InvalidFeatures int      `json:"invalid_features"`
	SuggestedFixes  []string `json:"suggested_fixes"`
}

// ValidateGeoJSON checks that every feature of a collection is a usable field boundary.
func ValidateGeoJSON(data []byte) (GeoValidation, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return GeoValidation{}, err
	}
	v := GeoValidation{Features: len(fc.Features), SuggestedFixes: []string{}}
	for i, f := range fc.Features {
		if fix := featureFix(f.Geometry); fix != "" {
			v.InvalidFeatures++
			v.SuggestedFixes = append(v.SuggestedFixes, fmt.Sprintf("Feature %d: %s", i+1, fix))
		}
	}
	return v, nil
}

func featureFix(g orb.Geometry) string {
	switch p := g.(type) {
	case nil:
		return "adicionar geometria"
	case orb.Polygon:
		return polygonFix(p)
	case orb.MultiPolygon:
		for _, poly := range p {
			if fix := polygonFix(poly); fix != "" {
				return fix
			}
		}
		if len(p) == 0 {
			return "multipolígono vazio"
		}
		return ""
	default:
		return fmt.Sprintf("converter %s para Polygon", g.GeoJSONType())
	}
}

func polygonFix(p orb.Polygon) string {
	if len(p) == 0 {
		return "polígono vazio"
	}
	for _, r := range p {
		if len(r) >= 3 && !r.Closed() {
			return "fechar o anel do polígono"
		}
		if err := fields.CheckRing(r); err != nil {
			return "corrigir anel: " + err.Error()
		}
	}
	return ""
}
