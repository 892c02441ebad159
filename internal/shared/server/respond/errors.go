package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/telemetry"
)

// ErrorBody is the payload under "error" in every failed response.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with an error body. Server errors log at error
// level, client errors at warn.
func Error(c *gin.Context, status int, code, message string, details any) {
	requestID := telemetry.RequestID(c.Request.Context())
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"route":      c.FullPath(),
		"method":     c.Request.Method,
		"request_id": requestID,
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= http.StatusInternalServerError {
		fields["message"] = message
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}})
}

// Internal hides err from the caller and logs it with the request.
func Internal(c *gin.Context, err error) {
	telemetry.Error("http.internal", map[string]any{
		"route":      c.FullPath(),
		"request_id": telemetry.RequestID(c.Request.Context()),
		"error":      err,
	})
	Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
}
