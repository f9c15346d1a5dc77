package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdantio/plotproof/internal/infrastructure/monitoring/logging"
)

// RequestMetrics receives one observation per served request.
type RequestMetrics interface {
	RecordHTTPRequest(method, path string, statusCode int, elapsed time.Duration)
}

// LoggingConfig tunes the request log middleware.
type LoggingConfig struct {
	// SkipPaths are high-frequency paths left out of the log.
	SkipPaths []string
	// SlowThreshold raises a request's log level to Warn.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig skips health probes and flags requests over three
// seconds.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 3 * time.Second,
	}
}

// RequestLogging logs each request with its status and duration, and feeds
// the metrics observer.  5xx answers log at Error, 4xx and slow requests at
// Warn.
func RequestLogging(log logging.Logger, metrics RequestMetrics, cfg LoggingConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	log = log.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		if metrics != nil {
			metrics.RecordHTTPRequest(c.Request.Method, path, status, elapsed)
		}
		if _, ok := skip[path]; ok {
			return
		}

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("duration", elapsed),
			logging.Int("bytes", c.Writer.Size()),
		}
		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400 || (cfg.SlowThreshold > 0 && elapsed > cfg.SlowThreshold):
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
