package overlay

import (
	"context"
	"sync"

	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

// Observer receives one observation per completed layer load.
type Observer interface {
	OverlayLoad(layer string, source string)
}

type nopObserver struct{}

func (nopObserver) OverlayLoad(string, string) {}

// fallbackExtent replaces viewports too large to query sensibly.  It covers
// the tropical production belt where most screened plots sit.
var fallbackExtent = Bounds{West: -90, South: -30, East: 150, North: 30}

type layerEntry struct {
	mu            sync.Mutex
	state         State
	strategies    []Strategy
	defaultExtent Bounds
	cache         map[string]*Result
}

// Loader evaluates each layer's strategy chain in order.  Per-layer locking
// keeps layers independent: a slow or failing layer never blocks another.
type Loader struct {
	layers    map[string]*layerEntry
	logger    logging.Logger
	observer  Observer
	maxExtent float64
}

// Option customises a Loader.
type Option func(*Loader)

// WithMaxExtent sets the viewport width/height in degrees above which the
// layer's default extent is queried instead.
func WithMaxExtent(degrees float64) Option {
	return func(l *Loader) {
		if degrees > 0 {
			l.maxExtent = degrees
		}
	}
}

// WithDefaultExtent overrides the substitute viewport for one layer.
func WithDefaultExtent(layer string, b Bounds) Option {
	return func(l *Loader) {
		if e, ok := l.layers[layer]; ok {
			e.defaultExtent = b
		}
	}
}

// WithObserver attaches a load observer.
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		if o != nil {
			l.observer = o
		}
	}
}

// NewLoader builds a loader over per-layer strategy chains.  Strategies are
// tried in slice order.
func NewLoader(chains map[string][]Strategy, log logging.Logger, opts ...Option) *Loader {
	l := &Loader{
		layers:    make(map[string]*layerEntry, len(chains)),
		logger:    log.Named("overlay"),
		observer:  nopObserver{},
		maxExtent: 60,
	}
	for layer, strategies := range chains {
		l.layers[layer] = &layerEntry{
			state:         StateUnloaded,
			strategies:    strategies,
			defaultExtent: fallbackExtent,
			cache:         make(map[string]*Result),
		}
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches a layer for a viewport, trying each strategy in order.  A
// strategy error falls through to the next strategy.  Zero features also
// falls through, except from the last strategy, where it is a valid empty
// result.  When every strategy errors the layer is failed and
// ErrCodeLayerUnavailable is returned.
func (l *Loader) Load(ctx context.Context, layer string, bounds Bounds) (*Result, error) {
	entry, ok := l.layers[layer]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownLayer, "unknown overlay layer %q", layer)
	}

	if bounds.Width() > l.maxExtent || bounds.Height() > l.maxExtent {
		l.logger.Debug("viewport too large, using layer default extent",
			logging.String("layer", layer),
			logging.String("requested", bounds.String()),
		)
		bounds = entry.defaultExtent
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	key := bounds.String()
	if cached, ok := entry.cache[key]; ok {
		entry.state = loadedState(cached.Source)
		return cached, nil
	}

	entry.state = StateLoading
	last := len(entry.strategies) - 1
	for i, strat := range entry.strategies {
		fc, err := strat.Fetch(ctx, layer, bounds)
		if err != nil {
			l.logger.Warn("overlay strategy failed, falling through",
				logging.String("layer", layer),
				logging.String("source", string(strat.Source())),
				logging.Err(err),
			)
			continue
		}
		if len(fc.Features) == 0 && i < last {
			l.logger.Debug("overlay strategy returned no features, falling through",
				logging.String("layer", layer),
				logging.String("source", string(strat.Source())),
			)
			continue
		}

		result := &Result{Layer: layer, Source: strat.Source(), Features: fc}
		entry.state = loadedState(result.Source)
		entry.cache[key] = result
		l.observer.OverlayLoad(layer, string(result.Source))
		l.logger.Info("overlay layer loaded",
			logging.String("layer", layer),
			logging.String("source", string(result.Source)),
			logging.Int("features", len(fc.Features)),
		)
		return result, nil
	}

	entry.state = StateFailed
	return nil, errors.Newf(errors.ErrCodeLayerUnavailable, "all sources for layer %q are unavailable", layer)
}

// Release marks a layer unloaded when the user toggles it off.  The viewport
// cache is kept, so re-enabling the layer for a seen viewport is instant.
func (l *Loader) Release(layer string) error {
	entry, ok := l.layers[layer]
	if !ok {
		return errors.Newf(errors.ErrCodeUnknownLayer, "unknown overlay layer %q", layer)
	}
	entry.mu.Lock()
	entry.state = StateUnloaded
	entry.mu.Unlock()
	return nil
}

// State reports a layer's current lifecycle state.
func (l *Loader) State(layer string) State {
	entry, ok := l.layers[layer]
	if !ok {
		return StateUnloaded
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state
}

func loadedState(src Source) State {
	if src == SourcePrimary {
		return StateLoadedPrimary
	}
	return StateLoadedFallback
}
