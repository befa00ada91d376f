package router

import (
	"github.com/stocksync/backend/internal/interfaces/http/handler"
)

// ProductRoutes covers dashboard stock and purchase price edits
func ProductRoutes(h *handler.StockHandler) *DomainGroup {
	g := NewDomainGroup("products", "/products")
	g.PUT("/:id/stock", h.UpdateStock)
	g.PUT("/:id/purchase-price", h.UpdatePurchasePrice)
	g.PUT("/:id/variations/:variationId/stock", h.UpdateStock)
	g.PUT("/:id/variations/:variationId/purchase-price", h.UpdatePurchasePrice)
	return g
}

// MappingRoutes covers mappings, suggestions and consolidated inventory.
// Static segments are registered before /:id.
func MappingRoutes(h *handler.MappingHandler) *DomainGroup {
	g := NewDomainGroup("mappings", "/mappings")
	g.GET("/inventory", h.Inventory)
	g.GET("/search", h.SearchCandidates)
	g.POST("/auto", h.AutoMatch)
	g.GET("/suggestions", h.Suggestions)
	g.POST("/suggestions/dismiss", h.DismissSuggestion)
	g.DELETE("/suggestions/dismiss", h.RestoreSuggestion)

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/products", h.AddProducts)
	g.DELETE("/:id/products", h.RemoveProducts)
	return g
}

// StoreRoutes covers store onboarding, catalog sync and the webhook audit trail
func StoreRoutes(stores *handler.StoreHandler, logs *handler.WebhookLogHandler) *DomainGroup {
	g := NewDomainGroup("stores", "/stores")
	g.POST("", stores.Register)
	g.GET("", stores.List)
	g.GET("/:id", stores.Get)
	g.DELETE("/:id", stores.Delete)
	g.PUT("/:id/credentials", stores.RotateCredentials)
	g.POST("/:id/sync", stores.Sync)
	g.GET("/:id/sync-jobs", stores.SyncJobs)
	g.GET("/:id/webhook-logs", logs.List)
	g.GET("/:id/webhook-stats", logs.Stats)
	return g
}
