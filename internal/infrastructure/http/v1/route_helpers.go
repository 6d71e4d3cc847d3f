// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// CatalogTreeHandler is an optional interface for hierarchical catalogs.
type CatalogTreeHandler interface {
	GetTree(c *gin.Context)
}

// OperationRouteHandler defines the interface for operation handlers.
type OperationRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// If the handler supports trees, the tree route is added as well.
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/deletion-mark", handler.SetDeletionMark)

	if treeHandler, ok := handler.(CatalogTreeHandler); ok {
		group.GET("/tree", treeHandler.GetTree)
	}
}

// RegisterOperationRoutes registers routes for one operation kind.
// Operations are immutable: there is no update route, only delete
// with ledger reversal.
func RegisterOperationRoutes(group *gin.RouterGroup, handler OperationRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.DELETE("/:id", handler.Delete)
}
