package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careercoach-backend/internal/shared/auth"
)

func newTestManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager("test-secret", "dev")
	require.NoError(t, err)
	return m
}

func signedToken(t *testing.T, m *auth.Manager) string {
	t.Helper()
	token, err := m.Sign(auth.Claims{
		Email:            "ada@example.com",
		Name:             "Ada",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "google:42"},
	})
	require.NoError(t, err)
	return token
}

func TestAuthSkipsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(newTestManager(t)))
	router.OPTIONS("/api/v1/generations", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/generations", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestAuthStoresPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := newTestManager(t)
	token := signedToken(t, manager)

	for _, header := range []string{"Bearer " + token, "bearer  " + token} {
		router := gin.New()
		router.Use(Auth(manager))
		var got Principal
		router.GET("/whoami", func(c *gin.Context) {
			got, _ = PrincipalFromContext(c)
			c.Status(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code, header)
		assert.Equal(t, Principal{Subject: "google:42", Email: "ada@example.com", Name: "Ada"}, got)
	}
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := newTestManager(t)
	cases := map[string]string{
		"invalid token":  "Bearer not-a-jwt",
		"wrong scheme":   "Basic " + signedToken(t, manager),
		"missing token":  "Bearer",
		"empty after ws": "Bearer   ",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			router.Use(Auth(manager))
			router.GET("/whoami", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", header)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			assert.Equal(t, http.StatusUnauthorized, resp.Code)
		})
	}
}

func TestAuthWithoutTokenContinuesAnonymously(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(newTestManager(t)))
	router.GET("/public", func(c *gin.Context) {
		_, ok := PrincipalFromContext(c)
		assert.False(t, ok)
		c.Status(http.StatusOK)
	})
	router.GET("/private", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
