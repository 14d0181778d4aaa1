package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/genstudio-io/genstudio-be/internal/api/dto"
	"github.com/genstudio-io/genstudio-be/internal/domain"
)

// AdminHandler handles the admin surface
type AdminHandler struct {
	deps *Dependencies
}

// NewAdminHandler creates a new AdminHandler instance
func NewAdminHandler(deps *Dependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

func (h *AdminHandler) externalIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("external_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "external_id must be an integer"})
		return 0, false
	}
	return id, true
}

// BanUser handles POST /api/v1/admin/users/:external_id/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	h.setBanned(c, true)
}

// UnbanUser handles POST /api/v1/admin/users/:external_id/unban
func (h *AdminHandler) UnbanUser(c *gin.Context) {
	h.setBanned(c, false)
}

func (h *AdminHandler) setBanned(c *gin.Context, banned bool) {
	externalID, ok := h.externalIDParam(c)
	if !ok {
		return
	}

	if err := h.deps.Storage.SetBanned(c.Request.Context(), externalID, banned); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"external_id": externalID, "is_banned": banned})
}

// GrantBalance handles POST /api/v1/admin/users/:external_id/grant
// Credits balance out of band, recorded with its own ledger reason.
func (h *AdminHandler) GrantBalance(c *gin.Context) {
	externalID, ok := h.externalIDParam(c)
	if !ok {
		return
	}

	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	user, err := h.deps.Storage.GetOrCreateUser(c.Request.Context(), externalID, nil, nil)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.deps.Storage.Credit(c.Request.Context(), user.ID, req.Amount, domain.ReasonAdminGive); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"external_id": externalID, "granted": req.Amount})
}

// SetPrice handles PUT /api/v1/admin/prices
func (h *AdminHandler) SetPrice(c *gin.Context) {
	var req dto.SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a decimal number"})
		return
	}
	cost := decimal.Zero
	if req.Cost != "" {
		cost, err = decimal.NewFromString(req.Cost)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cost must be a decimal number"})
			return
		}
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	entry := domain.PriceEntry{
		Code:     req.Code,
		Title:    req.Title,
		Cost:     cost,
		Price:    price,
		IsActive: active,
	}
	if err := h.deps.Storage.SetPrice(c.Request.Context(), entry); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PriceDTO{
		Code:     entry.Code,
		Title:    entry.Title,
		Price:    entry.Price.String(),
		IsActive: entry.IsActive,
	})
}

// PreviewBroadcast handles POST /api/v1/admin/broadcast/preview
// Stages the message; nothing is sent until the confirm call.
func (h *AdminHandler) PreviewBroadcast(c *gin.Context) {
	adminID := c.GetInt64("admin_id")

	var req dto.BroadcastPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.deps.Storage.SaveBroadcastPreview(c.Request.Context(), adminID, req.Message); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preview": req.Message})
}

// ConfirmBroadcast handles POST /api/v1/admin/broadcast/confirm
// Consumes the staged preview and enqueues the fan-out.
func (h *AdminHandler) ConfirmBroadcast(c *gin.Context) {
	adminID := c.GetInt64("admin_id")

	message, err := h.deps.Storage.TakeBroadcastPreview(c.Request.Context(), adminID, h.deps.Config.Broadcast.PreviewTTL)
	if err != nil {
		writeError(c, err)
		return
	}

	if _, err := h.deps.Publisher.EnqueueBroadcast(c.Request.Context(), message); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "broadcast scheduled"})
}

// Diagnostics handles GET /api/v1/admin/diagnostics
// Reports dependency health, queue depth, and the recent error window.
func (h *AdminHandler) Diagnostics(c *gin.Context) {
	out := gin.H{
		"database": "ok",
		"queue":    "ok",
		"errors":   h.deps.Recorder.Recent(),
	}

	if err := h.deps.Storage.HealthCheck(c.Request.Context()); err != nil {
		out["database"] = err.Error()
	}

	depth, err := h.deps.Publisher.Depth()
	if err != nil {
		out["queue"] = err.Error()
	} else {
		out["queue_depth"] = depth
	}

	c.JSON(http.StatusOK, out)
}
