package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/shared/server/middleware"
)

func TestListEndpointAnonymousReturnsEmptyItems(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(NewMemoryRepo(), nil)).RegisterPublicRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/generations", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"items":[]}`, resp.Body.String())
}

func TestDownloadEndpointServesImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()
	require.NoError(t, repo.Create(context.Background(), GeneratedContent{
		ID: "c1", UserID: "u1", ContentType: TypeImage,
		Result: EncodeDataURI("image/jpeg", []byte("jpeg")), CreatedAt: time.Now(),
	}))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetUserID(c, "u1")
		c.Next()
	})
	NewHandler(NewService(repo, nil)).RegisterRoutes(r.Group("/api/v1"))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/generations/c1/download", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/jpeg", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "generated_c1.jpg")
	assert.Equal(t, "jpeg", resp.Body.String())

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/generations/missing/download", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
