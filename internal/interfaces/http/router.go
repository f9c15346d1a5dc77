// Package http assembles the gin route tree and the server around it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
	"github.com/verdantio/plotproof/internal/interfaces/http/handlers"
	"github.com/verdantio/plotproof/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware settings the route
// tree needs.  Optional handlers may be nil; their routes are then omitted.
type RouterConfig struct {
	Upload      *handlers.UploadHandler
	Results     *handlers.ResultsHandler
	Association *handlers.AssociationHandler
	Overlay     *handlers.OverlayHandler
	Export      *handlers.ExportHandler
	Health      *handlers.HealthHandler

	CORS    middleware.CORSConfig
	Logging middleware.LoggingConfig

	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
	// RequestMetrics receives one observation per request.
	RequestMetrics middleware.RequestMetrics

	Logger logging.Logger
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.RequestMetrics, cfg.Logging))

	if cfg.Health != nil {
		r.GET("/healthz", cfg.Health.Live)
		r.GET("/readyz", cfg.Health.Ready)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api")
	{
		if cfg.Upload != nil {
			api.POST("/geojson/upload", cfg.Upload.Upload)
		}
		if cfg.Results != nil {
			api.GET("/analysis-results", cfg.Results.Get)
			api.DELETE("/analysis-results", cfg.Results.Delete)
		}
		if cfg.Association != nil {
			api.POST("/plots/save-association", cfg.Association.Save)
			api.GET("/plots/associations/:supplierId", cfg.Association.ListBySupplier)
		}
		if cfg.Overlay != nil {
			api.POST("/peatland-data", cfg.Overlay.Peatland)
			api.GET("/overlays/:layer", cfg.Overlay.Get)
			api.DELETE("/overlays/:layer", cfg.Overlay.Release)
		}
		if cfg.Export != nil {
			api.GET("/export.csv", cfg.Export.Export)
		}
	}

	return r
}
