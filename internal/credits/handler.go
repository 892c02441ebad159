package credits

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"careercoach-backend/internal/shared/server/middleware"
	"careercoach-backend/internal/shared/server/respond"
)

// Handler exposes credit endpoints.
type Handler struct {
	Ledger *Ledger
}

func NewHandler(ledger *Ledger) *Handler {
	return &Handler{Ledger: ledger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/credits", h.balance)
	rg.POST("/credits/purchase", h.purchase)
}

type purchaseRequest struct {
	Amount int `json:"amount"`
}

func (h *Handler) balance(c *gin.Context) {
	bal, err := h.Ledger.Balance(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"balance": bal,
		"bundles": h.Ledger.Bundles(),
	})
}

func (h *Handler) purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	bal, err := h.Ledger.Purchase(c.Request.Context(), middleware.UserIDFromContext(c), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"success":    true,
		"newBalance": bal,
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidBundle), errors.Is(err, ErrInvalidAmount):
		respond.Error(c, http.StatusBadRequest, "invalid_bundle", "amount must be one of the offered bundles", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "transaction_failed", "Transaction failed", nil)
	}
}
