package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/auth"
	"careercoach-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	principalKey = "principal"
)

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Principal is the identity carried by a verified session token.
type Principal struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Auth verifies a bearer token when one is sent. Requests without an
// Authorization header continue anonymously; RequireAuth gates the routes
// that need a user. A malformed or invalid token is always rejected.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if c.Request.Method == http.MethodOptions || header == "" {
			c.Next()
			return
		}

		token, ok := bearerToken(header)
		if !ok || verifier == nil {
			unauthorized(c, "missing or invalid token")
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			unauthorized(c, "missing or invalid token")
			return
		}

		c.Set(principalKey, Principal{
			Subject: claims.Subject,
			Email:   claims.Email,
			Name:    claims.Name,
			Picture: claims.Picture,
		})
		c.Next()
	}
}

// RequireAuth rejects requests that carry no resolved user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserIDFromContext(c) == "" {
			unauthorized(c, "login required")
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	respond.Error(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

// bearerToken extracts the credential from "Bearer <token>"; the scheme is
// matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// SetUserID stores the internal user id resolved for the caller.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}

// UserIDFromContext fetches the internal user id resolved for the caller.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// PrincipalFromContext returns the verified token identity, if any.
func PrincipalFromContext(c *gin.Context) (Principal, bool) {
	if c == nil {
		return Principal{}, false
	}
	val, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := val.(Principal)
	return p, ok
}

func AuthSubjectFromContext(c *gin.Context) string {
	p, _ := PrincipalFromContext(c)
	return p.Subject
}

func UserEmailFromContext(c *gin.Context) string {
	p, _ := PrincipalFromContext(c)
	return p.Email
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	s, _ := val.(string)
	return s
}
