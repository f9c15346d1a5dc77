package overlay

import (
	"context"
	"embed"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/verdantio/plotproof/pkg/errors"
)

//go:embed static/*.geojson
var staticFS embed.FS

// StaticStrategy serves a bundled sample dataset as the terminal fallback,
// so a layer still renders something when every remote source is down.
type StaticStrategy struct{}

func NewStaticStrategy() *StaticStrategy { return &StaticStrategy{} }

func (s *StaticStrategy) Source() Source { return SourceStatic }

func (s *StaticStrategy) Fetch(_ context.Context, layer string, bounds Bounds) (*geojson.FeatureCollection, error) {
	data, err := staticFS.ReadFile(fmt.Sprintf("static/%s.geojson", layer))
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeUnknownLayer, "no bundled dataset for layer %q", layer)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "bundled dataset is invalid")
	}

	// Zero matches from the terminal strategy is a valid empty result.
	viewport := bounds.Bound()
	filtered := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if f.Geometry != nil && f.Geometry.Bound().Intersects(viewport) {
			filtered.Append(f)
		}
	}
	return filtered, nil
}
