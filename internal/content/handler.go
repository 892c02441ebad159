package content

import (
	"errors"
	"fmt"
	"io"
	"net/http"

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

// RegisterPublicRoutes attaches routes that tolerate anonymous callers.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/generations", h.list)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/generations/:id/download", h.download)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.ListHistory(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Internal(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) download(c *gin.Context) {
	dl, err := h.Svc.Open(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
			respond.Error(c, http.StatusNotFound, "not_found", "content not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_request", "content cannot be downloaded", nil)
		default:
			respond.Internal(c, err)
		}
		return
	}
	if dl.RedirectURL != "" {
		c.Redirect(http.StatusFound, dl.RedirectURL)
		return
	}
	defer dl.Body.Close()

	c.Header("Content-Type", dl.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.FileName))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, dl.Body)
}
