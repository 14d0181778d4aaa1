package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/genstudio-io/genstudio-be/internal/api/dto"
	"github.com/genstudio-io/genstudio-be/internal/domain"
	"github.com/genstudio-io/genstudio-be/internal/draft"
)

// DraftHandler handles draft-related HTTP requests
type DraftHandler struct {
	deps *Dependencies
}

// NewDraftHandler creates a new DraftHandler instance
func NewDraftHandler(deps *Dependencies) *DraftHandler {
	return &DraftHandler{deps: deps}
}

// SelectSection handles POST /api/v1/drafts/:section/select
// Makes the section the user's active one, creating its draft if needed and
// parking every other draft.
func (h *DraftHandler) SelectSection(c *gin.Context) {
	section, err := domain.ParseSection(c.Param("section"))
	if err != nil {
		writeError(c, err)
		return
	}

	var req dto.SelectSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.deps.Storage.GetOrCreateUser(c.Request.Context(), req.ExternalID, req.Username, req.FullName)
	if err != nil {
		writeError(c, err)
		return
	}
	if user.IsBanned {
		writeError(c, domain.ErrUserBanned)
		return
	}

	d, err := h.deps.Storage.SelectSection(c.Request.Context(), user.ID, section)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.draftDTO(c, d))
}

// ApplyEvent handles POST /api/v1/drafts/events
// Routes one input event (prompt, file, or option) into the user's active
// draft. Fails when no draft is awaiting input or more than one is.
func (h *DraftHandler) ApplyEvent(c *gin.Context) {
	var req dto.DraftEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.deps.Storage.UserByExternalID(c.Request.Context(), req.ExternalID)
	if err != nil {
		writeError(c, err)
		return
	}
	if user.IsBanned {
		writeError(c, domain.ErrUserBanned)
		return
	}

	drafts, err := h.deps.Storage.ListDrafts(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	active, err := draft.ResolveActive(drafts)
	if err != nil {
		writeError(c, err)
		return
	}

	switch req.Event {
	case "prompt":
		if req.Prompt == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
			return
		}
		draft.ApplyPrompt(active, req.Prompt)
	case "file":
		if req.FileID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file_id is required"})
			return
		}
		draft.ApplyFile(active, req.FileID)
	case "option":
		if err := draft.ApplyOption(active, req.OptionName, req.OptionValue); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
		return
	}

	if err := h.deps.Storage.UpdateDraftParams(c.Request.Context(), active.ID, active.Params); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.draftDTO(c, active))
}

// GetDraft handles GET /api/v1/drafts/:section
// Returns the draft with its readiness and, when ready, a price quote.
func (h *DraftHandler) GetDraft(c *gin.Context) {
	section, err := domain.ParseSection(c.Param("section"))
	if err != nil {
		writeError(c, err)
		return
	}

	externalID, ok := queryInt64(c, "external_id")
	if !ok {
		return
	}

	user, err := h.deps.Storage.UserByExternalID(c.Request.Context(), externalID)
	if err != nil {
		writeError(c, err)
		return
	}

	d, err := h.deps.Storage.DraftBySection(c.Request.Context(), user.ID, section)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.draftDTO(c, d))
}

// DeleteDraft handles DELETE /api/v1/drafts/:section
func (h *DraftHandler) DeleteDraft(c *gin.Context) {
	section, err := domain.ParseSection(c.Param("section"))
	if err != nil {
		writeError(c, err)
		return
	}

	externalID, ok := queryInt64(c, "external_id")
	if !ok {
		return
	}

	user, err := h.deps.Storage.UserByExternalID(c.Request.Context(), externalID)
	if err != nil {
		writeError(c, err)
		return
	}

	d, err := h.deps.Storage.DraftBySection(c.Request.Context(), user.ID, section)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.deps.Storage.DeleteDraft(c.Request.Context(), d.ID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// draftDTO renders a draft. Ready drafts carry a quote; a quote failure
// (say, a price code turned off mid-draft) just omits the price.
func (h *DraftHandler) draftDTO(c *gin.Context, d *domain.Draft) dto.DraftDTO {
	out := dto.DraftDTO{
		Section: string(d.Section),
		Ready:   d.Ready(),
		Params:  paramsMap(d.Params),
	}
	if out.Ready {
		price, err := h.deps.Dispatcher.Quote(c.Request.Context(), d.UserID, d.Section)
		if err == nil {
			out.Price = &price
		}
	}
	return out
}

func paramsMap(p domain.DraftParams) map[string]interface{} {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
