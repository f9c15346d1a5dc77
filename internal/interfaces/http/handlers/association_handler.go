package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

type associationRequest struct {
	PlotIDs    []string `json:"plotIds"`
	SupplierID string   `json:"supplierId"`
	SessionID  string   `json:"sessionId"`
}

// AssociationHandler links screened plots to a supplier.
type AssociationHandler struct {
	repo   plot.AssociationRepository
	logger logging.Logger
}

func NewAssociationHandler(repo plot.AssociationRepository, log logging.Logger) *AssociationHandler {
	return &AssociationHandler{repo: repo, logger: log.Named("association")}
}

// Save handles POST /api/plots/save-association.
func (h *AssociationHandler) Save(c *gin.Context) {
	if h.repo == nil {
		respondError(c, errors.New(errors.ErrCodeServiceUnavailable, "association storage is not configured"))
		return
	}

	var req associationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "request body must be JSON"))
		return
	}
	if req.SupplierID == "" {
		respondError(c, errors.New(errors.ErrCodeValidation, "supplierId is required"))
		return
	}
	if len(req.PlotIDs) == 0 {
		respondError(c, errors.New(errors.ErrCodeValidation, "plotIds must not be empty"))
		return
	}

	now := time.Now().UTC()
	assocs := make([]plot.Association, len(req.PlotIDs))
	for i, id := range req.PlotIDs {
		assocs[i] = plot.Association{
			PlotID:     id,
			SupplierID: req.SupplierID,
			SessionID:  req.SessionID,
			CreatedAt:  now,
		}
	}

	n, err := h.repo.SaveBatch(c.Request.Context(), assocs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"associated": n})
}

// ListBySupplier handles GET /api/plots/associations/:supplierId.
func (h *AssociationHandler) ListBySupplier(c *gin.Context) {
	if h.repo == nil {
		respondError(c, errors.New(errors.ErrCodeServiceUnavailable, "association storage is not configured"))
		return
	}

	supplierID := c.Param("supplierId")
	assocs, err := h.repo.ListBySupplier(c.Request.Context(), supplierID)
	if err != nil {
		respondError(c, err)
		return
	}
	if assocs == nil {
		assocs = []plot.Association{}
	}
	c.JSON(http.StatusOK, gin.H{"associations": assocs, "count": len(assocs)})
}
