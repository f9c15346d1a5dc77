package plot

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/verdantio/plotproof/pkg/errors"
)

// squareAround builds a closed square ring of the given side length in
// degrees centred on (lon, lat).
func squareAround(lon, lat, side float64) orb.Ring {
	h := side / 2
	return orb.Ring{
		{lon - h, lat - h},
		{lon + h, lat - h},
		{lon + h, lat + h},
		{lon - h, lat + h},
		{lon - h, lat - h},
	}
}

func TestAreaHectaresOfEquatorialSquare(t *testing.T) {
	// ~0.01 degree sides at the equator: roughly 1.11 km per side,
	// so on the order of 123 ha.
	poly := orb.Polygon{squareAround(0, 0, 0.01)}

	got := AreaHectaresOf(poly).Float64()
	if got < 100 || got > 150 {
		t.Errorf("area %v ha outside plausible range for a ~1.1 km square", got)
	}
}

func TestAreaHectaresOfNeverNegative(t *testing.T) {
	// Clockwise ring: signed geodesic area would be negative.
	ring := squareAround(10, 5, 0.001)
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}

	if got := AreaHectaresOf(orb.Polygon{ring}).Float64(); got < 0 {
		t.Errorf("area must be non-negative, got %v", got)
	}
	if AreaHectaresOf(nil) != 0 {
		t.Error("nil geometry must have zero area")
	}
}

func TestValidateRingsAcceptsTriangle(t *testing.T) {
	tri := orb.Polygon{{{0, 0}, {1, 0}, {0, 1}, {0, 0}}}
	if err := ValidateRings(tri); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRingsRejectsTwoPointRing(t *testing.T) {
	// Closed "ring" with only 2 distinct vertices.
	degenerate := orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}
	err := ValidateRings(degenerate)
	if err == nil {
		t.Fatal("expected error for 2-point ring")
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidGeometry) {
		t.Errorf("want ErrCodeInvalidGeometry, got %v", err)
	}
}

func TestValidateRingsRejectsNonAreal(t *testing.T) {
	for _, g := range []orb.Geometry{
		orb.Point{1, 2},
		orb.LineString{{0, 0}, {1, 1}},
		orb.Polygon{},
		orb.MultiPolygon{},
	} {
		if err := ValidateRings(g); err == nil {
			t.Errorf("expected rejection for %T", g)
		}
	}
}

func TestValidateRingsMultiPolygonChecksEveryPolygon(t *testing.T) {
	good := orb.Polygon{squareAround(0, 0, 0.01)}
	bad := orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}

	if err := ValidateRings(orb.MultiPolygon{good, bad}); err == nil {
		t.Error("degenerate member polygon must be rejected")
	}
	if err := ValidateRings(orb.MultiPolygon{good, good}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
