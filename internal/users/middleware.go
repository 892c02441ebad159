package users

import (
	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/server/middleware"
	"careercoach-backend/internal/shared/server/respond"
)

// Attach resolves the authenticated caller to a user row, creating it on first
// access, and stores the internal user id in the request context.
func Attach(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.PrincipalFromContext(c)
		if !ok || principal.Subject == "" || svc == nil {
			c.Next()
			return
		}
		user, err := svc.Ensure(c.Request.Context(), Identity{
			Subject: principal.Subject,
			Email:   principal.Email,
			Name:    principal.Name,
			Picture: principal.Picture,
		})
		if err != nil {
			respond.Internal(c, err)
			return
		}
		middleware.SetUserID(c, user.ID)
		c.Next()
	}
}
