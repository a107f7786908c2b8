package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all metadata module routes
func RegisterRoutes(router *gin.Engine, handler *Handler) {
	metadata := router.Group("/api/metadata")
	{
		metadata.GET("/providers", handler.Providers)
		metadata.GET("/search", handler.Search)
		metadata.GET("/details", handler.Details)
		metadata.GET("/autocomplete", handler.Autocomplete)
	}
}
