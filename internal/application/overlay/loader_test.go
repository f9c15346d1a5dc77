package overlay

import (
	"context"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

type stubStrategy struct {
	source   Source
	features int
	err      error

	mu     sync.Mutex
	calls  int
	bounds []Bounds
}

func (s *stubStrategy) Source() Source { return s.source }

func (s *stubStrategy) Fetch(_ context.Context, _ string, b Bounds) (*geojson.FeatureCollection, error) {
	s.mu.Lock()
	s.calls++
	s.bounds = append(s.bounds, b)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	fc := geojson.NewFeatureCollection()
	for i := 0; i < s.features; i++ {
		fc.Append(geojson.NewFeature(orb.Point{0, 0}))
	}
	return fc, nil
}

var testBounds = Bounds{West: -2, South: 5, East: -1, North: 6}

func newTestLoader(chains map[string][]Strategy, opts ...Option) *Loader {
	return NewLoader(chains, logging.NewNopLogger(), opts...)
}

func TestLoadFirstStrategyWins(t *testing.T) {
	primary := &stubStrategy{source: SourcePrimary, features: 3}
	secondary := &stubStrategy{source: SourceSecondary, features: 1}
	l := newTestLoader(map[string][]Strategy{LayerWDPA: {primary, secondary}})

	res, err := l.Load(context.Background(), LayerWDPA, testBounds)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourcePrimary || len(res.Features.Features) != 3 {
		t.Errorf("got %s with %d features", res.Source, len(res.Features.Features))
	}
	if secondary.calls != 0 {
		t.Error("secondary must not be tried when primary succeeds")
	}
	if l.State(LayerWDPA) != StateLoadedPrimary {
		t.Errorf("state = %s", l.State(LayerWDPA))
	}
}

func TestLoadErrorFallsThrough(t *testing.T) {
	primary := &stubStrategy{source: SourcePrimary, err: errors.New(errors.ErrCodeExternalService, "down")}
	static := &stubStrategy{source: SourceStatic, features: 2}
	l := newTestLoader(map[string][]Strategy{LayerGFW: {primary, static}})

	res, err := l.Load(context.Background(), LayerGFW, testBounds)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceStatic {
		t.Errorf("want static fallback, got %s", res.Source)
	}
	if l.State(LayerGFW) != StateLoadedFallback {
		t.Errorf("state = %s", l.State(LayerGFW))
	}
}

func TestLoadZeroFeaturesTriesNext(t *testing.T) {
	primary := &stubStrategy{source: SourcePrimary, features: 0}
	secondary := &stubStrategy{source: SourceSecondary, features: 2}
	l := newTestLoader(map[string][]Strategy{LayerJRC: {primary, secondary}})

	res, err := l.Load(context.Background(), LayerJRC, testBounds)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != SourceSecondary {
		t.Errorf("zero features must fall through, got %s", res.Source)
	}
}

func TestLoadZeroFeaturesFromLastIsValidEmpty(t *testing.T) {
	primary := &stubStrategy{source: SourcePrimary, err: errors.New(errors.ErrCodeExternalService, "down")}
	static := &stubStrategy{source: SourceStatic, features: 0}
	l := newTestLoader(map[string][]Strategy{LayerSBTN: {primary, static}})

	res, err := l.Load(context.Background(), LayerSBTN, testBounds)
	if err != nil {
		t.Fatalf("empty terminal result is not an error: %v", err)
	}
	if res.Source != SourceStatic || len(res.Features.Features) != 0 {
		t.Errorf("got %s with %d features", res.Source, len(res.Features.Features))
	}
}

func TestLoadAllStrategiesFail(t *testing.T) {
	down := errors.New(errors.ErrCodeExternalService, "down")
	l := newTestLoader(map[string][]Strategy{
		LayerWDPA:     {&stubStrategy{source: SourcePrimary, err: down}, &stubStrategy{source: SourceStatic, err: down}},
		LayerPeatland: {&stubStrategy{source: SourcePrimary, features: 1}},
	})

	_, err := l.Load(context.Background(), LayerWDPA, testBounds)
	if !errors.IsCode(err, errors.ErrCodeLayerUnavailable) {
		t.Fatalf("want LayerUnavailable, got %v", err)
	}
	if l.State(LayerWDPA) != StateFailed {
		t.Errorf("state = %s", l.State(LayerWDPA))
	}

	// Other layers are untouched by the failure.
	if l.State(LayerPeatland) != StateUnloaded {
		t.Errorf("independent layer moved to %s", l.State(LayerPeatland))
	}
	if _, err := l.Load(context.Background(), LayerPeatland, testBounds); err != nil {
		t.Errorf("independent layer must still load: %v", err)
	}
}

func TestLoadUnknownLayer(t *testing.T) {
	l := newTestLoader(map[string][]Strategy{})
	_, err := l.Load(context.Background(), "bathymetry", testBounds)
	if !errors.IsCode(err, errors.ErrCodeUnknownLayer) {
		t.Errorf("want UnknownLayer, got %v", err)
	}
}

func TestReleaseKeepsCache(t *testing.T) {
	primary := &stubStrategy{source: SourcePrimary, features: 1}
	l := newTestLoader(map[string][]Strategy{LayerWDPA: {primary}})

	if _, err := l.Load(context.Background(), LayerWDPA, testBounds); err != nil {
		t.Fatal(err)
	}
	if err := l.Release(LayerWDPA); err != nil {
		t.Fatal(err)
	}
	if l.State(LayerWDPA) != StateUnloaded {
		t.Errorf("state after release = %s", l.State(LayerWDPA))
	}

	// Re-enable for the same viewport: served from cache, no new fetch.
	if _, err := l.Load(context.Background(), LayerWDPA, testBounds); err != nil {
		t.Fatal(err)
	}
	if primary.calls != 1 {
		t.Errorf("want 1 fetch, got %d", primary.calls)
	}
	if l.State(LayerWDPA) != StateLoadedPrimary {
		t.Errorf("state after cached reload = %s", l.State(LayerWDPA))
	}
}

func TestLoadNewViewportFetchesAgain(t *testing.T) {
	primary := &stubStrategy{source: SourcePrimary, features: 1}
	l := newTestLoader(map[string][]Strategy{LayerWDPA: {primary}})

	ctx := context.Background()
	if _, err := l.Load(ctx, LayerWDPA, testBounds); err != nil {
		t.Fatal(err)
	}
	other := Bounds{West: 10, South: 10, East: 11, North: 11}
	if _, err := l.Load(ctx, LayerWDPA, other); err != nil {
		t.Fatal(err)
	}
	if primary.calls != 2 {
		t.Errorf("want 2 fetches for 2 viewports, got %d", primary.calls)
	}
}

func TestOversizedBoundsUseDefaultExtent(t *testing.T) {
	primary := &stubStrategy{source: SourcePrimary, features: 1}
	def := Bounds{West: -10, South: -5, East: 10, North: 5}
	l := newTestLoader(map[string][]Strategy{LayerGFW: {primary}},
		WithMaxExtent(45), WithDefaultExtent(LayerGFW, def))

	whole := Bounds{West: -180, South: -90, East: 180, North: 90}
	if _, err := l.Load(context.Background(), LayerGFW, whole); err != nil {
		t.Fatal(err)
	}
	if len(primary.bounds) != 1 || primary.bounds[0] != def {
		t.Errorf("want default extent %v, got %v", def, primary.bounds)
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	loads [][2]string
}

func (r *recordingObserver) OverlayLoad(layer, source string) {
	r.mu.Lock()
	r.loads = append(r.loads, [2]string{layer, source})
	r.mu.Unlock()
}

func TestObserverSeesLoads(t *testing.T) {
	obs := &recordingObserver{}
	l := newTestLoader(map[string][]Strategy{
		LayerWDPA: {&stubStrategy{source: SourcePrimary, features: 1}},
	}, WithObserver(obs))

	ctx := context.Background()
	if _, err := l.Load(ctx, LayerWDPA, testBounds); err != nil {
		t.Fatal(err)
	}
	// Cached reload is not a new load.
	if _, err := l.Load(ctx, LayerWDPA, testBounds); err != nil {
		t.Fatal(err)
	}
	if len(obs.loads) != 1 || obs.loads[0] != [2]string{LayerWDPA, "primary"} {
		t.Errorf("got %v", obs.loads)
	}
}
