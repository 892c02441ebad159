package insights

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/server/middleware"
	"careercoach-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/insights", h.get)
}

// RegisterDevRoutes attaches manual sweep triggering. Only mounted in dev.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/dev/insights/sweep", h.sweep)
}

func (h *Handler) get(c *gin.Context) {
	row, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, row)
}

func (h *Handler) sweep(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("force"))
	report, err := h.Svc.Sweep(c.Request.Context(), SweepOptions{Force: force})
	if err != nil && report.Checked == 0 {
		respond.Error(c, http.StatusInternalServerError, "sweep_failed", "insights sweep failed", nil)
		return
	}
	// Per-industry failures are listed in the report.
	respond.OK(c, report)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotOnboarded):
		respond.Error(c, http.StatusConflict, "not_onboarded", "complete your profile to see industry insights", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrParse):
		respond.Error(c, http.StatusBadGateway, "insights_parse_error", "insights could not be generated, try again later", nil)
	case errors.Is(err, ErrProviderFailure):
		respond.Error(c, http.StatusBadGateway, "insights_unavailable", "insights provider unavailable, try again later", nil)
	case errors.Is(err, context.Canceled):
		respond.Error(c, http.StatusRequestTimeout, "request_canceled", "request canceled", nil)
	default:
		respond.Internal(c, err)
	}
}
