package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all catalog module routes
func RegisterRoutes(router *gin.Engine, handler *Handler) {
	items := router.Group("/api/items")
	{
		items.GET("", handler.ListItems)
		items.POST("", handler.CreateItem)
		items.GET("/live", handler.LiveItems)
		items.GET("/overview", handler.Overview)
		items.GET("/prefill", handler.Prefill)
		items.GET("/:id", handler.GetItem)
		items.PUT("/:id", handler.UpdateItem)
		items.DELETE("/:id", handler.DeleteItem)
		items.GET("/:id/comments", handler.ListComments)
		items.POST("/:id/comments", handler.CreateComment)
		items.GET("/:id/rating", handler.GetRating)
	}

	router.DELETE("/api/comments/:id", handler.DeleteComment)
}
