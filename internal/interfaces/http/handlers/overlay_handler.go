package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/internal/application/overlay"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

type peatlandRequest struct {
	Bounds overlay.Bounds `json:"bounds"`
}

// OverlayHandler serves reference layers for the map view.
type OverlayHandler struct {
	loader *overlay.Loader
	logger logging.Logger
}

func NewOverlayHandler(loader *overlay.Loader, log logging.Logger) *OverlayHandler {
	return &OverlayHandler{loader: loader, logger: log.Named("overlay")}
}

// Peatland handles POST /api/peatland-data, the dedicated peatland fetch.
func (h *OverlayHandler) Peatland(c *gin.Context) {
	var req peatlandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "request body must be JSON with a bounds object"))
		return
	}

	res, err := h.loader.Load(c.Request.Context(), overlay.LayerPeatland, req.Bounds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Features)
}

// Get handles GET /api/overlays/:layer with the viewport in query params.
func (h *OverlayHandler) Get(c *gin.Context) {
	bounds, err := boundsFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := h.loader.Load(c.Request.Context(), c.Param("layer"), bounds)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Release handles DELETE /api/overlays/:layer.  The layer returns to the
// unloaded state but keeps its viewport cache for instant re-enable.
func (h *OverlayHandler) Release(c *gin.Context) {
	layer := c.Param("layer")
	if err := h.loader.Release(layer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"layer": layer, "state": overlay.StateUnloaded})
}

func boundsFromQuery(c *gin.Context) (overlay.Bounds, error) {
	var b overlay.Bounds
	for _, q := range []struct {
		name string
		dest *float64
	}{
		{"west", &b.West},
		{"south", &b.South},
		{"east", &b.East},
		{"north", &b.North},
	} {
		raw := c.Query(q.name)
		if raw == "" {
			return b, errors.Newf(errors.ErrCodeValidation, "query parameter %q is required", q.name)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return b, errors.Newf(errors.ErrCodeValidation, "query parameter %q is not a number", q.name)
		}
		*q.dest = v
	}
	return b, nil
}
