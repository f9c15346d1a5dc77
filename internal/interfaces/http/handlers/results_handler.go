package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/internal/application/session"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

// Canceler aborts an in-flight classification.
type Canceler interface {
	CancelInFlight()
}

// SessionMetrics records session store outcomes.
type SessionMetrics interface {
	RecordSessionOp(op, outcome string)
}

type resultsResponse struct {
	Plots []plotResult `json:"plots"`
	Count int          `json:"count"`
}

// ResultsHandler serves saved analysis results and clears them.
type ResultsHandler struct {
	store    session.Store
	canceler Canceler
	metrics  SessionMetrics
	logger   logging.Logger
}

func NewResultsHandler(store session.Store, canceler Canceler, metrics SessionMetrics, log logging.Logger) *ResultsHandler {
	return &ResultsHandler{
		store:    store,
		canceler: canceler,
		metrics:  metrics,
		logger:   log.Named("results"),
	}
}

// Get handles GET /api/analysis-results.  A token and an explicit restore
// intent are both required.
func (h *ResultsHandler) Get(c *gin.Context) {
	intent, err := session.ParseIntent(c.Query("intent"))
	if err != nil {
		respondError(c, err)
		return
	}
	token := session.Token(c.Query("token"))

	plots, err := h.store.Restore(c.Request.Context(), token, intent)
	if err != nil {
		h.recordOp("restore", "miss")
		respondError(c, err)
		return
	}
	h.recordOp("restore", "ok")

	c.JSON(http.StatusOK, resultsResponse{
		Plots: toPlotResults(plots),
		Count: len(plots),
	})
}

// Delete handles DELETE /api/analysis-results.  Clearing also aborts any
// classification still running, so a late result can never repopulate the
// session.
func (h *ResultsHandler) Delete(c *gin.Context) {
	token := session.Token(c.Query("token"))
	if token == "" {
		respondError(c, errors.New(errors.ErrCodeValidation, "session token is required"))
		return
	}

	if h.canceler != nil {
		h.canceler.CancelInFlight()
	}
	if err := h.store.Clear(c.Request.Context(), token); err != nil {
		h.recordOp("clear", "error")
		respondError(c, err)
		return
	}
	h.recordOp("clear", "ok")
	h.logger.Info("session cleared", logging.String("token", string(token)))

	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (h *ResultsHandler) recordOp(op, outcome string) {
	if h.metrics != nil {
		h.metrics.RecordSessionOp(op, outcome)
	}
}
