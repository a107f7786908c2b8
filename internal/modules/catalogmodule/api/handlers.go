// Package api exposes the catalog over HTTP and websockets.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/api"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/core/live"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/service"
	"github.com/mantonx/catalog/internal/services"
	"github.com/mantonx/catalog/internal/types"
)

// Handler provides HTTP handlers for catalog operations
type Handler struct {
	service  *service.CatalogService
	registry *services.Registry
	upgrader websocket.Upgrader
	logger   hclog.Logger
}

// NewHandler creates a new catalog API handler. registry is consulted for
// the metadata service when a prefill is requested.
func NewHandler(svc *service.CatalogService, registry *services.Registry, allowedOrigins []string, logger hclog.Logger) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{
		service:  svc,
		registry: registry,
		upgrader: api.NewUpgrader(allowedOrigins),
		logger:   logger,
	}
}

type createItemRequest struct {
	Type string `json:"type" binding:"required"`
	models.ItemFields
}

// UnmarshalJSON reads the type next to the field bag, which has its own
// decoder that would otherwise be promoted here
func (r *createItemRequest) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &r.ItemFields); err != nil {
		return err
	}
	r.Type = head.Type
	return nil
}

type createCommentRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName" binding:"required"`
	Text     string `json:"text" binding:"required"`
	Rating   *int   `json:"rating" binding:"omitempty,min=1,max=5"`
}

// ListItems handles GET /api/items
func (h *Handler) ListItems(c *gin.Context) {
	var itemType models.ItemType
	if raw := c.Query("type"); raw != "" {
		parsed, err := models.ParseItemType(raw)
		if err != nil {
			api.RespondWithValidationError(c, "invalid item type", raw)
			return
		}
		itemType = parsed
	}

	items, err := h.service.ListItems(c.Request.Context(), itemType)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// Overview handles GET /api/items/overview. It is a one-shot view: the
// full list, the filtered subset and per-type counts.
func (h *Handler) Overview(c *gin.Context) {
	filter, err := live.ParseFilter(c.Query("filter"))
	if err != nil {
		api.RespondWithValidationError(c, "invalid filter", c.Query("filter"))
		return
	}

	view := h.service.NewSnapshotView()
	view.SetFilter(filter)
	state, err := view.Load(c.Request.Context())
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, frameFromState(state))
}

// GetItem handles GET /api/items/:id
func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.service.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// CreateItem handles POST /api/items
func (h *Handler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "invalid request body", err.Error())
		return
	}

	itemType, err := models.ParseItemType(req.Type)
	if err != nil {
		api.RespondWithValidationError(c, "invalid item type", req.Type)
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), itemType, req.ItemFields)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateItem handles PUT /api/items/:id
func (h *Handler) UpdateItem(c *gin.Context) {
	var fields models.ItemFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		api.RespondWithValidationError(c, "invalid request body", err.Error())
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItem handles DELETE /api/items/:id
func (h *Handler) DeleteItem(c *gin.Context) {
	if err := h.service.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListComments handles GET /api/items/:id/comments
func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.service.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
	})
}

// CreateComment handles POST /api/items/:id/comments
func (h *Handler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithValidationError(c, "invalid request body", err.Error())
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), c.Param("id"), service.NewComment{
		UserID:   req.UserID,
		UserName: req.UserName,
		Text:     req.Text,
		Rating:   req.Rating,
	})
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// DeleteComment handles DELETE /api/comments/:id
func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.service.DeleteComment(c.Request.Context(), c.Param("id")); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRating handles GET /api/items/:id/rating
func (h *Handler) GetRating(c *gin.Context) {
	summary, err := h.service.Rating(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Prefill handles GET /api/items/prefill?type=&externalId=. It resolves the
// upstream record into the field bag a new item would be created from.
func (h *Handler) Prefill(c *gin.Context) {
	itemType, err := models.ParseItemType(c.Query("type"))
	if err != nil {
		api.RespondWithValidationError(c, "invalid item type", c.Query("type"))
		return
	}
	externalID := c.Query("externalId")
	if externalID == "" {
		api.RespondWithValidationError(c, "externalId is required")
		return
	}

	metadata, err := services.Get[services.MetadataService](h.registry, services.MetadataServiceName)
	if err != nil {
		api.RespondWithError(c, types.NewAppErrorWithCause(types.ErrorCodeInternal,
			"metadata lookups are not available", http.StatusServiceUnavailable, err))
		return
	}

	details, err := metadata.Details(c.Request.Context(), itemType, externalID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":   details.Type,
		"fields": details.ItemFields(),
	})
}
