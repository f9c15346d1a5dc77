// Package classify queries the external forest-monitoring oracles for every
// normalized plot and aggregates the answers into risk and compliance
// verdicts.  A failure to reach one oracle never fails a plot, let alone the
// batch: the affected dataset degrades to UNKNOWN and is excluded from the
// risk computation.
package classify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

// LossResult is a forest-loss oracle answer, already converted to hectares.
// Oracles that report fractional loss rates multiply by plot area before
// returning.
type LossResult struct {
	AreaHectares float64
}

// LossOracle is one of the independent forest-loss datasets.
type LossOracle interface {
	Dataset() plot.Dataset
	Loss(ctx context.Context, p plot.NormalizedPlot) (LossResult, error)
}

// OverlapResult is an area-overlap oracle answer.
type OverlapResult struct {
	Overlaps     bool
	AreaHectares float64
}

// OverlapOracle answers whether a plot overlaps a reference layer
// (protected areas, peatland).
type OverlapOracle interface {
	Name() string
	Overlap(ctx context.Context, p plot.NormalizedPlot) (OverlapResult, error)
}

// Metrics receives one observation per oracle call.  Outcome is "ok" or
// "error".
type Metrics interface {
	OracleCall(oracle, outcome string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) OracleCall(string, string, time.Duration) {}

// Summary counts verdicts across a classified batch, reported to the user
// alongside the results.
type Summary struct {
	Total           int `json:"total"`
	HighRisk        int `json:"highRisk"`
	Compliant       int `json:"compliant"`
	NonCompliant    int `json:"nonCompliant"`
	Unknown         int `json:"unknown"`
	WithMissingData int `json:"withMissingData"`
}

// ProgressFunc receives discrete percentage updates as plots complete.
type ProgressFunc func(percent int)

// Service is the risk classifier.
type Service struct {
	lossOracles []LossOracle
	wdpa        OverlapOracle
	peatland    OverlapOracle

	logger       logging.Logger
	metrics      Metrics
	concurrency  int
	peatlandGate bool
	now          func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithConcurrency caps how many plots are classified in parallel.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMetrics attaches an oracle-call observer.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithPeatlandGate controls whether peatland overlap is a hard legal gate.
func WithPeatlandGate(on bool) Option {
	return func(s *Service) { s.peatlandGate = on }
}

// withClock overrides the classification timestamp source in tests.
func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a classifier over the given oracles.
func NewService(loss []LossOracle, wdpa, peatland OverlapOracle, log logging.Logger, opts ...Option) *Service {
	s := &Service{
		lossOracles:  loss,
		wdpa:         wdpa,
		peatland:     peatland,
		logger:       log.Named("classify"),
		metrics:      nopMetrics{},
		concurrency:  8,
		peatlandGate: true,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify queries every oracle for every plot and aggregates the verdicts.
// Plots are processed concurrently; within one plot the five dataset queries
// also run concurrently, and the verdict is derived only after all of them
// have answered or failed.  Output order matches input order.
//
// Classify returns an error only when ctx is cancelled (abandoned upload);
// oracle failures degrade to UNKNOWN and are counted in the summary.
func (s *Service) Classify(ctx context.Context, plots []plot.NormalizedPlot, progress ProgressFunc) ([]plot.ClassifiedPlot, Summary, error) {
	results := make([]plot.ClassifiedPlot, len(plots))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, p := range plots {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.classifyOne(gctx, p)

			mu.Lock()
			done++
			percent := done * 100 / len(plots)
			mu.Unlock()
			if progress != nil {
				progress(percent)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}
	// A cancellation that lands mid-plot surfaces as per-oracle failures,
	// not as a goroutine error.  Those verdicts belong to an abandoned
	// upload and must never be returned, let alone saved.
	if err := ctx.Err(); err != nil {
		return nil, Summary{}, errors.Wrap(err, errors.ErrCodeCanceled, "classification abandoned")
	}

	return results, summarize(results), nil
}

// classifyOne fans out the three loss queries and two overlap queries for a
// single plot and waits for all five before aggregating.
func (s *Service) classifyOne(ctx context.Context, p plot.NormalizedPlot) plot.ClassifiedPlot {
	var wg sync.WaitGroup

	losses := make(map[plot.Dataset]lossOutcome, len(s.lossOracles))
	var lossMu sync.Mutex

	for _, oracle := range s.lossOracles {
		oracle := oracle
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := s.queryLoss(ctx, oracle, p)
			lossMu.Lock()
			losses[oracle.Dataset()] = out
			lossMu.Unlock()
		}()
	}

	var wdpaOut, peatOut overlapOutcome
	wg.Add(1)
	go func() {
		defer wg.Done()
		wdpaOut = s.queryOverlap(ctx, s.wdpa, p)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		peatOut = s.queryOverlap(ctx, s.peatland, p)
	}()

	wg.Wait()
	return aggregate(p, losses, wdpaOut, peatOut, s.peatlandGate, s.now())
}

func (s *Service) queryLoss(ctx context.Context, oracle LossOracle, p plot.NormalizedPlot) lossOutcome {
	start := time.Now()
	res, err := oracle.Loss(ctx, p)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.OracleCall(string(oracle.Dataset()), "error", elapsed)
		s.logger.Warn("loss oracle failed; dataset degrades to UNKNOWN",
			logging.String("dataset", string(oracle.Dataset())),
			logging.String("plot_id", p.PlotID),
			logging.Err(err),
		)
		return lossOutcome{failed: true}
	}
	s.metrics.OracleCall(string(oracle.Dataset()), "ok", elapsed)
	return lossOutcome{areaHa: res.AreaHectares}
}

func (s *Service) queryOverlap(ctx context.Context, oracle OverlapOracle, p plot.NormalizedPlot) overlapOutcome {
	start := time.Now()
	res, err := oracle.Overlap(ctx, p)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.OracleCall(oracle.Name(), "error", elapsed)
		s.logger.Warn("overlap oracle failed; status degrades to UNKNOWN",
			logging.String("oracle", oracle.Name()),
			logging.String("plot_id", p.PlotID),
			logging.Err(err),
		)
		return overlapOutcome{failed: true}
	}
	s.metrics.OracleCall(oracle.Name(), "ok", elapsed)
	return overlapOutcome{overlaps: res.Overlaps, areaHa: res.AreaHectares}
}

func summarize(results []plot.ClassifiedPlot) Summary {
	sum := Summary{Total: len(results)}
	for _, r := range results {
		switch r.OverallRisk {
		case plot.RiskHigh:
			sum.HighRisk++
		}
		switch r.ComplianceStatus {
		case plot.Compliant:
			sum.Compliant++
		case plot.NonCompliant:
			sum.NonCompliant++
		default:
			sum.Unknown++
		}
		if hasMissingData(r) {
			sum.WithMissingData++
		}
	}
	return sum
}

func hasMissingData(r plot.ClassifiedPlot) bool {
	for _, dl := range r.DatasetLoss {
		if dl.Status == plot.RiskUnknown {
			return true
		}
	}
	return r.WDPAStatus == plot.WDPAUnknown || r.PeatlandStatus == plot.PeatlandUnknown
}
