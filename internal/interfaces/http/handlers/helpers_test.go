package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/internal/application/classify"
	"github.com/verdantio/plotproof/internal/application/ingest"
	"github.com/verdantio/plotproof/internal/application/session"
	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/prometheus"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// AppMetrics is what main wires into the handlers; keep it satisfying the
// handler-side observer interfaces.
var (
	_ SessionMetrics = (*prometheus.AppMetrics)(nil)
	_ UploadMetrics  = (*prometheus.AppMetrics)(nil)
	_ Canceler       = (*UploadHandler)(nil)
)

const sampleUpload = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"plot_id": "P1", "country": "Ghana"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[-1.0, 6.0], [-1.0, 6.01], [-0.99, 6.01], [-0.99, 6.0], [-1.0, 6.0]]]
			}
		},
		{
			"type": "Feature",
			"properties": {"plot_id": "P2", "country": "Ghana"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[-1.2, 6.2], [-1.2, 6.21], [-1.19, 6.21], [-1.19, 6.2], [-1.2, 6.2]]]
			}
		}
	]
}`

// stubLossOracle answers a fixed loss area, optionally blocking until the
// context is cancelled.
type stubLossOracle struct {
	dataset plot.Dataset
	lossHa  float64
	err     error

	// block, when set, is closed once Loss has been entered; Loss then
	// waits for ctx cancellation.
	block chan struct{}
	once  sync.Once
}

func (o *stubLossOracle) Dataset() plot.Dataset { return o.dataset }

func (o *stubLossOracle) Loss(ctx context.Context, _ plot.NormalizedPlot) (classify.LossResult, error) {
	if o.block != nil {
		o.once.Do(func() { close(o.block) })
		<-ctx.Done()
		return classify.LossResult{}, ctx.Err()
	}
	if o.err != nil {
		return classify.LossResult{}, o.err
	}
	return classify.LossResult{AreaHectares: o.lossHa}, nil
}

type stubOverlapOracle struct {
	name     string
	overlaps bool
}

func (o *stubOverlapOracle) Name() string { return o.name }

func (o *stubOverlapOracle) Overlap(context.Context, plot.NormalizedPlot) (classify.OverlapResult, error) {
	return classify.OverlapResult{Overlaps: o.overlaps}, nil
}

func cleanClassifier() *classify.Service {
	return newClassifier(&stubLossOracle{dataset: plot.DatasetGFW})
}

// newClassifier builds a Service from the given GFW stub plus clean JRC and
// SBTN stubs.
func newClassifier(gfw classify.LossOracle) *classify.Service {
	log := logging.NewNopLogger()
	return classify.NewService(
		[]classify.LossOracle{
			gfw,
			&stubLossOracle{dataset: plot.DatasetJRC},
			&stubLossOracle{dataset: plot.DatasetSBTN},
		},
		&stubOverlapOracle{name: "wdpa"},
		&stubOverlapOracle{name: "peatland"},
		log,
	)
}

func newUploadHandler(cl *classify.Service, store session.Store) *UploadHandler {
	log := logging.NewNopLogger()
	return NewUploadHandler(ingest.NewNormalizer(log), cl, store, nil, log)
}

// seedSession classifies the sample upload and saves it, returning the token
// and the classified plots.
func seedSession(store session.Store) (session.Token, []plot.ClassifiedPlot, error) {
	log := logging.NewNopLogger()
	report, err := ingest.NewNormalizer(log).Normalize([]byte(sampleUpload))
	if err != nil {
		return "", nil, err
	}
	classified, _, err := cleanClassifier().Classify(context.Background(), report.Plots, nil)
	if err != nil {
		return "", nil, err
	}
	token, err := store.Save(context.Background(), classified)
	return token, classified, err
}

func newMemoryStore() session.Store {
	return session.NewMemoryStore(time.Hour)
}

// seedRestore pulls a session back out of the store for assertions.
func seedRestore(store session.Store, token string) ([]plot.ClassifiedPlot, session.Token, error) {
	tk := session.Token(token)
	plots, err := store.Restore(context.Background(), tk, session.IntentMapReturn)
	return plots, tk, err
}
