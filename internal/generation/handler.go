package generation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/content"
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
	rg.POST("/generations", h.create)
}

type createRequest struct {
	Prompt string `json:"prompt"`
	Type   string `json:"type"`
}

type createResponse struct {
	Success          bool         `json:"success"`
	ID               string       `json:"id"`
	Data             string       `json:"data"`
	Type             content.Type `json:"type"`
	RemainingCredits int          `json:"remainingCredits"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body", nil)
		return
	}
	contentType, ok := content.ParseType(req.Type)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "type must be IMAGE or VIDEO", nil)
		return
	}

	res, err := h.Svc.Request(c.Request.Context(), middleware.UserIDFromContext(c), req.Prompt, contentType)
	if err != nil {
		middleware.SetGeneration(c, string(contentType), "", "error")
		writeError(c, err)
		return
	}
	middleware.SetGeneration(c, string(contentType), res.ContentID, string(res.Status))

	switch res.Status {
	case StatusDeclined:
		respond.Error(c, http.StatusPaymentRequired, "insufficient_credits", "Insufficient credits", gin.H{
			"required":     res.Required,
			"balance":      res.Balance,
			"limitReached": true,
		})
	case StatusFailed:
		respond.Error(c, http.StatusBadGateway, "generation_failed", res.Reason, nil)
	default:
		respond.Created(c, createResponse{
			Success:          true,
			ID:               res.ContentID,
			Data:             res.Data,
			Type:             res.ContentType,
			RemainingCredits: res.RemainingCredits,
		})
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, context.Canceled):
		respond.Error(c, http.StatusRequestTimeout, "request_canceled", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "transaction_failed", "Generation could not be saved. Please try again later.", nil)
	}
}
