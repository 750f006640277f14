package router

import (
	"github.com/backoffice/backend/internal/interfaces/http/handler"
)

// Handlers bundles every handler the API surface needs
type Handlers struct {
	Items          *handler.ItemHandler
	Ledger         *handler.LedgerHandler
	Replenishments *handler.ReplenishmentHandler
	Orders         *handler.PurchaseOrderHandler
	Marketplace    *handler.MarketplaceHandler
	System         *handler.SystemHandler
	Outbox         *handler.OutboxHandler
}

// RegisterAll wires every domain group into the router
func RegisterAll(r *Router, h Handlers) {
	r.Register(itemRoutes(h))
	r.Register(ledgerRoutes(h))
	r.Register(replenishmentRoutes(h))
	r.Register(purchaseOrderRoutes(h))
	r.Register(marketplaceRoutes(h))
	r.Register(systemRoutes(h))
}

func itemRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("items", "/items")
	g.GET("", h.Items.List)
	g.POST("", h.Items.Define)
	g.GET("/low-stock", h.Items.ListLowStock)
	g.GET("/:id", h.Items.Get)
	g.DELETE("/:id", h.Items.Delete)
	g.PUT("/:id/reorder-point", h.Items.SetReorderPoint)
	g.POST("/:id/activate", h.Items.Activate)
	g.POST("/:id/deactivate", h.Items.Deactivate)
	g.PUT("/:id/packaging", h.Items.LinkPackaging)
	g.DELETE("/:id/packaging", h.Items.UnlinkPackaging)
	g.GET("/:id/composite-cost", h.Items.CompositeCost)
	g.GET("/:id/replenishments", h.Replenishments.History)
	return g
}

func ledgerRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("ledger", "/ledger")
	g.POST("/credit", h.Ledger.Credit)
	g.POST("/debit", h.Ledger.Debit)
	return g
}

func replenishmentRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("replenishments", "/replenishments")
	g.POST("", h.Replenishments.Record)
	reconciliations := g.Group("reconciliations", "/reconciliations")
	reconciliations.GET("", h.Replenishments.ListReconciliations)
	reconciliations.POST("/:id/resolve", h.Replenishments.ResolveReconciliation)
	return g
}

func purchaseOrderRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("purchase-orders", "/purchase-orders")
	g.GET("", h.Orders.List)
	g.POST("", h.Orders.Create)
	g.GET("/by-number/:number", h.Orders.GetByNumber)
	g.GET("/:id", h.Orders.Get)
	g.POST("/:id/items", h.Orders.AddItem)
	g.PUT("/:id/items/:item_id", h.Orders.UpdateItem)
	g.DELETE("/:id/items/:item_id", h.Orders.RemoveItem)
	g.POST("/:id/status", h.Orders.AdvanceStatus)
	g.POST("/:id/cancel", h.Orders.Cancel)
	return g
}

func marketplaceRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("marketplace", "/marketplace")
	g.GET("/orders", h.Marketplace.ListOrders)
	return g
}

func systemRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.System.GetSystemInfo)
	g.GET("/ping", h.System.Ping)

	outbox := g.Group("outbox", "/outbox")
	outbox.GET("/stats", h.Outbox.GetStats)
	outbox.GET("/dead-letters", h.Outbox.ListDeadLetters)
	outbox.GET("/dead-letters/:id", h.Outbox.GetEntry)
	outbox.POST("/dead-letters/:id/retry", h.Outbox.RetryDeadLetter)
	outbox.POST("/dead-letters/retry-all", h.Outbox.RetryAllDeadLetters)
	return g
}
