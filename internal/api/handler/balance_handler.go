package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genstudio-io/genstudio-be/internal/api/dto"
	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// BalanceHandler handles balance-related HTTP requests
type BalanceHandler struct {
	deps *Dependencies
}

// NewBalanceHandler creates a new BalanceHandler instance
func NewBalanceHandler(deps *Dependencies) *BalanceHandler {
	return &BalanceHandler{deps: deps}
}

// GetBalance handles GET /api/v1/balance
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	externalID, ok := queryInt64(c, "external_id")
	if !ok {
		return
	}

	user, err := h.deps.Storage.UserByExternalID(c.Request.Context(), externalID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		ExternalID: user.ExternalID,
		Balance:    user.Balance,
	})
}

// TopUp handles POST /api/v1/balance/topup
// Credits a confirmed payment to the user's balance.
func (h *BalanceHandler) TopUp(c *gin.Context) {
	var req dto.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	user, err := h.deps.Storage.GetOrCreateUser(c.Request.Context(), req.ExternalID, nil, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.deps.Storage.Credit(c.Request.Context(), user.ID, req.Amount, domain.ReasonTopUp); err != nil {
		writeError(c, err)
		return
	}

	refreshed, err := h.deps.Storage.UserByID(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		ExternalID: refreshed.ExternalID,
		Balance:    refreshed.Balance,
	})
}
