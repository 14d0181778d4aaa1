package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genstudio-io/genstudio-be/internal/api/dto"
)

// CatalogHandler serves the read-only price and voice listings
type CatalogHandler struct {
	deps *Dependencies
}

// NewCatalogHandler creates a new CatalogHandler instance
func NewCatalogHandler(deps *Dependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// ListPrices handles GET /api/v1/prices
func (h *CatalogHandler) ListPrices(c *gin.Context) {
	entries, err := h.deps.Storage.ListPrices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.PriceDTO, 0, len(entries))
	for _, e := range entries {
		if !e.IsActive {
			continue
		}
		out = append(out, dto.PriceDTO{
			Code:     e.Code,
			Title:    e.Title,
			Price:    e.Price.String(),
			IsActive: e.IsActive,
		})
	}
	c.JSON(http.StatusOK, gin.H{"prices": out})
}

// ListVoices handles GET /api/v1/voices
func (h *CatalogHandler) ListVoices(c *gin.Context) {
	voices, err := h.deps.Storage.ListVoices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.VoiceDTO, 0, len(voices))
	for _, v := range voices {
		out = append(out, dto.VoiceDTO{
			ID:    v.ID,
			Code:  v.Code,
			Title: v.Title,
		})
	}
	c.JSON(http.StatusOK, gin.H{"voices": out})
}
