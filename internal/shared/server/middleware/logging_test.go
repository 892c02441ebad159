package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/shared/telemetry"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := telemetry.Logger()
	telemetry.SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { telemetry.SetLogger(prev) })
	return &buf
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines[0], "expected log output")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestLoggingRecordsGenerationFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.POST("/api/v1/generations/:kind", func(c *gin.Context) {
		SetUserID(c, "user-1")
		SetGeneration(c, "IMAGE", "content-1", "succeeded")
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generations/image", nil)
	req.Header.Set("X-Request-Id", "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	entry := lastLogLine(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "/api/v1/generations/:kind", entry["route"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "IMAGE", entry["content_type"])
	assert.Equal(t, "content-1", entry["content_id"])
	assert.Equal(t, "succeeded", entry["generation_status"])
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Contains(t, entry, "duration_ms")
}

func TestLoggingLevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusPaymentRequired, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			buf := captureLogs(t)
			router := gin.New()
			router.Use(Logging())
			router.GET("/x", func(c *gin.Context) { c.Status(tc.status) })
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			entry := lastLogLine(t, buf)
			assert.Equal(t, tc.level, entry["level"])
			assert.NotContains(t, entry, "user_id")
			assert.NotContains(t, entry, "generation_status")
		})
	}
}

func TestLoggingSkipsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)
	router := gin.New()
	router.Use(Logging())
	router.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodOptions, "/x", nil))

	assert.Empty(t, buf.String())
}
