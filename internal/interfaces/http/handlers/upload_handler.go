package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"

	"github.com/verdantio/plotproof/internal/application/classify"
	"github.com/verdantio/plotproof/internal/application/ingest"
	"github.com/verdantio/plotproof/internal/application/session"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

// UploadMetrics records upload outcomes.
type UploadMetrics interface {
	RecordUpload(status string, plots int)
}

type uploadRequest struct {
	GeoJSON  string `json:"geojson"`
	Filename string `json:"filename"`
}

type uploadResponse struct {
	SessionToken string                     `json:"sessionToken"`
	Summary      classify.Summary           `json:"summary"`
	Issues       []ingest.Issue             `json:"issues"`
	MajorityFail bool                       `json:"majorityFailed,omitempty"`
	Features     *geojson.FeatureCollection `json:"featureCollection"`
}

// UploadHandler runs the full pipeline for one uploaded file: normalize,
// classify, save.  Only one classification is in flight at a time; a new
// upload cancels the previous one, whose results are then discarded unsaved.
type UploadHandler struct {
	normalizer *ingest.Normalizer
	classifier *classify.Service
	store      session.Store
	metrics    UploadMetrics
	logger     logging.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewUploadHandler(
	n *ingest.Normalizer,
	cl *classify.Service,
	store session.Store,
	metrics UploadMetrics,
	log logging.Logger,
) *UploadHandler {
	return &UploadHandler{
		normalizer: n,
		classifier: cl,
		store:      store,
		metrics:    metrics,
		logger:     log.Named("upload"),
	}
}

// begin cancels any in-flight classification and registers a new one,
// returning its context and a generation marker for finish.
func (h *UploadHandler) begin(parent context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	h.gen++
	h.cancel = cancel
	gen := h.gen
	h.mu.Unlock()
	return ctx, gen
}

// finish releases the slot, unless a newer upload already took it over.
func (h *UploadHandler) finish(gen uint64) {
	h.mu.Lock()
	if h.gen == gen && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()
}

// CancelInFlight aborts the current classification, if any.  Clearing the
// session and shutting down both use it.
func (h *UploadHandler) CancelInFlight() {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.mu.Unlock()
}

// Upload handles POST /api/geojson/upload.
func (h *UploadHandler) Upload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.recordUpload("rejected", 0)
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "request body must be JSON with a geojson field"))
		return
	}
	if req.GeoJSON == "" {
		h.recordUpload("rejected", 0)
		respondError(c, errors.New(errors.ErrCodeValidation, "geojson payload is empty"))
		return
	}

	report, err := h.normalizer.NormalizeFile(req.Filename, []byte(req.GeoJSON))
	if err != nil {
		h.recordUpload("rejected", 0)
		respondError(c, err)
		return
	}

	ctx, gen := h.begin(c.Request.Context())
	defer h.finish(gen)

	classified, summary, err := h.classifier.Classify(ctx, report.Plots, h.logProgress)
	if err != nil {
		// Superseded or abandoned: results are discarded, nothing saved.
		h.recordUpload("canceled", 0)
		respondError(c, errors.Wrap(err, errors.ErrCodeConflict, "classification was superseded by a newer upload"))
		return
	}

	token, err := h.store.Save(ctx, classified)
	if err != nil {
		h.recordUpload("save_failed", 0)
		respondError(c, err)
		return
	}
	h.recordUpload("ok", len(classified))

	issues := report.Issues
	if issues == nil {
		issues = []ingest.Issue{}
	}
	c.JSON(http.StatusOK, uploadResponse{
		SessionToken: string(token),
		Summary:      summary,
		Issues:       issues,
		MajorityFail: report.MajorityFailed,
		Features:     toFeatureCollection(classified),
	})
}

func (h *UploadHandler) logProgress(percent int) {
	h.logger.Debug("classification progress", logging.Int("percent", percent))
}

func (h *UploadHandler) recordUpload(status string, plots int) {
	if h.metrics != nil {
		h.metrics.RecordUpload(status, plots)
	}
}
