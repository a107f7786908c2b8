// Package api exposes metadata lookups over HTTP and websockets.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/catalog/internal/api"
	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/service"
	"github.com/mantonx/catalog/internal/modules/metadatamodule/types"
)

// Handler provides HTTP handlers for metadata lookups
type Handler struct {
	service  *service.LookupService
	upgrader websocket.Upgrader
	logger   hclog.Logger
}

// NewHandler creates a new metadata API handler
func NewHandler(svc *service.LookupService, allowedOrigins []string, logger hclog.Logger) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{
		service:  svc,
		upgrader: api.NewUpgrader(allowedOrigins),
		logger:   logger,
	}
}

func parseType(c *gin.Context) (models.ItemType, bool) {
	itemType, err := models.ParseItemType(c.Query("type"))
	if err != nil {
		api.RespondWithValidationError(c, "invalid item type", c.Query("type"))
		return "", false
	}
	return itemType, true
}

// Search handles GET /api/metadata/search?type=&q=
func (h *Handler) Search(c *gin.Context) {
	itemType, ok := parseType(c)
	if !ok {
		return
	}

	matches, err := h.service.Search(c.Request.Context(), itemType, c.Query("q"))
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": types.ProviderFor(itemType),
		"matches":  matches,
		"count":    len(matches),
	})
}

// Details handles GET /api/metadata/details?type=&id=
func (h *Handler) Details(c *gin.Context) {
	itemType, ok := parseType(c)
	if !ok {
		return
	}

	details, err := h.service.Details(c.Request.Context(), itemType, c.Query("id"))
	if err != nil {
		api.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"details": details,
		"fields":  details.ItemFields(),
	})
}

// Providers handles GET /api/metadata/providers
func (h *Handler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"providers": h.service.Providers(),
	})
}
