package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"legaldocs-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log line.
const (
	DocumentIDKey   = "documentId"
	AnalysisTypeKey = "analysisType"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
		}
		if id := c.GetString(DocumentIDKey); id != "" {
			fields["document_id"] = id
		}
		if kind := c.GetString(AnalysisTypeKey); kind != "" {
			fields["analysis_type"] = kind
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		telemetry.Info("request.complete", fields)
	}
}
