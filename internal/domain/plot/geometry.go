package plot

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/verdantio/plotproof/pkg/errors"
)

// AreaHectaresOf computes the geodesic area of a geometry in hectares.
// Holes are subtracted; the result is never negative.
func AreaHectaresOf(g orb.Geometry) Hectares {
	if g == nil {
		return 0
	}
	return Hectares(math.Abs(geo.Area(g)) / 10_000)
}

// distinctVertices counts distinct points in a ring, ignoring the closing
// duplicate of the first vertex.
func distinctVertices(r orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(r))
	for _, p := range r {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func validateRing(r orb.Ring) error {
	if n := distinctVertices(r); n < 3 {
		return errors.Newf(errors.ErrCodeInvalidGeometry,
			"polygon ring has %d distinct vertices; at least 3 required", n)
	}
	return nil
}

// ValidateRings rejects degenerate Polygon/MultiPolygon geometries.  Every
// ring must contain at least 3 distinct vertices.  Geometry types other than
// Polygon and MultiPolygon are rejected outright: plots are areas, not
// points or lines.
func ValidateRings(g orb.Geometry) error {
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 {
			return errors.New(errors.ErrCodeInvalidGeometry, "polygon has no rings")
		}
		for _, r := range geom {
			if err := validateRing(r); err != nil {
				return err
			}
		}
		return nil
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return errors.New(errors.ErrCodeInvalidGeometry, "multipolygon has no polygons")
		}
		for _, p := range geom {
			if err := ValidateRings(p); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidGeometry,
			"geometry type %s is not a plot boundary; Polygon or MultiPolygon required", g.GeoJSONType())
	}
}
