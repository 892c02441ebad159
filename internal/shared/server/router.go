package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "careercoach-backend/internal/auth"
	"careercoach-backend/internal/content"
	"careercoach-backend/internal/credits"
	"careercoach-backend/internal/generation"
	"careercoach-backend/internal/insights"
	"careercoach-backend/internal/services/health"
	"careercoach-backend/internal/shared/config"
	"careercoach-backend/internal/shared/metrics"
	"careercoach-backend/internal/shared/server/middleware"
	"careercoach-backend/internal/shared/server/respond"
	"careercoach-backend/internal/users"
)

const (
	rateLimitGroupGeneration = "GENERATION"
	rateLimitGroupDefault    = "DEFAULT"
)

// RouterDeps carries the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config            config.Config
	Verifier          middleware.TokenVerifier
	Users             *users.Service
	Limiter           middleware.Limiter
	Health            *health.Service
	GoogleAuth        *googleauth.GoogleService
	UsersHandler      *users.Handler
	CreditsHandler    *credits.Handler
	ContentHandler    *content.Handler
	GenerationHandler *generation.Handler
	InsightsHandler   *insights.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logging(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})

	api.Use(middleware.Auth(deps.Verifier), users.Attach(deps.Users))

	// History tolerates anonymous callers and answers with an empty list.
	if deps.ContentHandler != nil {
		deps.ContentHandler.RegisterPublicRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	authed := api.Group("")
	authed.Use(
		middleware.RequireAuth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        RateLimitRules(),
			DefaultGroup: rateLimitGroupDefault,
			GroupFor:     rateLimitGroup,
			Limiter:      deps.Limiter,
		}),
	)
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(authed)
	}
	if deps.CreditsHandler != nil {
		deps.CreditsHandler.RegisterRoutes(authed)
	}
	if deps.ContentHandler != nil {
		deps.ContentHandler.RegisterRoutes(authed)
	}
	if deps.GenerationHandler != nil {
		deps.GenerationHandler.RegisterRoutes(authed)
	}
	if deps.InsightsHandler != nil {
		deps.InsightsHandler.RegisterRoutes(authed)
		if deps.Config.IsDevLike() {
			deps.InsightsHandler.RegisterDevRoutes(authed)
		}
	}

	return r
}

// RateLimitRules returns the per-group token bucket rules.
func RateLimitRules() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		rateLimitGroupGeneration: {Rate: 0.1, Burst: 5},
		rateLimitGroupDefault:    {Rate: 2, Burst: 60},
	}
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/generations" {
		return rateLimitGroupGeneration
	}
	return rateLimitGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
