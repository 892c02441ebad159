package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/metrics"
	"careercoach-backend/internal/shared/telemetry"
)

const (
	contentTypeKey      = "contentType"
	contentIDKey        = "contentId"
	generationStatusKey = "generationStatus"
)

// SetGeneration records generation details for the request log line.
func SetGeneration(c *gin.Context, contentType, contentID, status string) {
	for key, val := range map[string]string{
		contentTypeKey:      contentType,
		contentIDKey:        contentID,
		generationStatusKey: status,
	} {
		if val != "" {
			c.Set(key, val)
		}
	}
}

// Logging writes one access line per request. 5xx responses log at error
// level and 4xx at warn; preflights are not logged.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"path":        c.Request.URL.Path,
			"status":      status,
			"bytes":       c.Writer.Size(),
			"duration_ms": metrics.SinceMillis(start),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if userID := UserIDFromContext(c); userID != "" {
			fields["user_id"] = userID
		}
		for key, field := range map[string]string{
			contentTypeKey:      "content_type",
			contentIDKey:        "content_id",
			generationStatusKey: "generation_status",
		} {
			if val := stringFromContext(c, key); val != "" {
				fields[field] = val
			}
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
