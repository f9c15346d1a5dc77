// Package overlay loads map reference layers through ordered fallback
// strategy chains.  Each layer moves through an explicit state machine, so
// which source is serving a layer, and why, is always observable.
package overlay

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Known layer names.
const (
	LayerWDPA     = "wdpa"
	LayerPeatland = "peatland"
	LayerGFW      = "gfw"
	LayerJRC      = "jrc"
	LayerSBTN     = "sbtn"
)

// Layers lists the known layers in display order.
func Layers() []string {
	return []string{LayerWDPA, LayerPeatland, LayerGFW, LayerJRC, LayerSBTN}
}

// Bounds is a viewport rectangle in degrees.
type Bounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func (b Bounds) Width() float64  { return math.Abs(b.East - b.West) }
func (b Bounds) Height() float64 { return math.Abs(b.North - b.South) }

// Bound converts to an orb bound for intersection tests.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", b.West, b.South, b.East, b.North)
}

// Source identifies which strategy in a chain produced a layer's features.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceStatic    Source = "staticFallback"
)

// State is the lifecycle position of one layer.  Layers are independent: a
// failing layer never affects another layer's state.
type State string

const (
	StateUnloaded       State = "unloaded"
	StateLoading        State = "loading"
	StateLoadedPrimary  State = "loaded-primary"
	StateLoadedFallback State = "loaded-fallback"
	StateFailed         State = "failed"
)

// Result is a successfully loaded layer for one viewport.
type Result struct {
	Layer    string                     `json:"layer"`
	Source   Source                     `json:"source"`
	Features *geojson.FeatureCollection `json:"features"`
}

// Strategy is one way of fetching a layer's features for a viewport.
// Fetching zero features is not an error; the loader decides whether to try
// the next strategy.
type Strategy interface {
	Source() Source
	Fetch(ctx context.Context, layer string, bounds Bounds) (*geojson.FeatureCollection, error)
}
