package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/internal/application/selection"
	"github.com/verdantio/plotproof/internal/application/session"
	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/pkg/errors"
)

// ExportHandler streams the compliance CSV for a saved session.
type ExportHandler struct {
	store  session.Store
	logger logging.Logger
}

func NewExportHandler(store session.Store, log logging.Logger) *ExportHandler {
	return &ExportHandler{store: store, logger: log.Named("export")}
}

// Export handles GET /api/export.csv.  An optional ids parameter (comma
// separated) restricts the export to those plots, in the given order; without
// it every plot in the session is exported.
func (h *ExportHandler) Export(c *gin.Context) {
	token := session.Token(c.Query("token"))
	plots, err := h.store.Restore(c.Request.Context(), token, session.IntentExport)
	if err != nil {
		respondError(c, err)
		return
	}

	eng := selection.NewEngine(plots, selection.DefaultPageSize)
	if raw := c.Query("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if err := eng.Select(id); err != nil {
				respondError(c, errors.Newf(errors.ErrCodeValidation, "plot %q is not in this session", id))
				return
			}
		}
	}

	filename := fmt.Sprintf("eudr-screening-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := eng.Export(c.Writer); err != nil {
		// Headers are gone; all that remains is logging the failure.
		h.logger.Error("csv export aborted mid-stream", logging.Err(err))
	}
}
