package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edn-commerce/storefront-core/controllers"
	"github.com/edn-commerce/storefront-core/middleware"
)

// Controllers bundles every handler group the router wires up.
type Controllers struct {
	Cart      *controllers.CartController
	Orders    *controllers.OrderController
	Inventory *controllers.InventoryController
	Invoices  *controllers.InvoiceController
	Loyalty   *controllers.LoyaltyController
}

// Register wires the full HTTP surface onto the engine. Identity resolution
// and rate limiting apply everywhere; per-group access goes through the
// authorization policy.
func Register(r *gin.Engine, jwtSecret []byte, c Controllers) {
	r.Use(middleware.RateLimitMiddleware())
	r.Use(middleware.Identity(jwtSecret))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	cart := r.Group("/cart")
	cart.Use(middleware.Authorize(middleware.ActionManageCart))
	cart.GET("", c.Cart.GetCart)
	cart.DELETE("", c.Cart.ClearCart)
	cart.POST("/items", c.Cart.AddItem)
	cart.PATCH("/items/:id", c.Cart.UpdateItem)
	cart.DELETE("/items/:id", c.Cart.RemoveItem)
	cart.POST("/merge", middleware.RequireUser(), c.Cart.MergeCart)

	orders := r.Group("/orders")
	orders.Use(middleware.RequireUser())
	orders.POST("", middleware.Authorize(middleware.ActionPlaceOrder), c.Orders.CreateOrder)
	orders.GET("", middleware.Authorize(middleware.ActionViewOwnOrders), c.Orders.GetOrders)
	orders.GET("/:id", middleware.Authorize(middleware.ActionViewOwnOrders), c.Orders.GetOrderByID)

	loyalty := r.Group("/loyalty")
	loyalty.Use(middleware.RequireUser(), middleware.Authorize(middleware.ActionViewLoyalty))
	loyalty.GET("/me", c.Loyalty.GetAccount)
	loyalty.POST("/redeem", c.Loyalty.Redeem)

	admin := r.Group("/admin")
	admin.Use(middleware.RequireUser())

	adminOrders := admin.Group("/orders")
	adminOrders.Use(middleware.Authorize(middleware.ActionManageOrders))
	adminOrders.GET("", c.Orders.GetAllOrders)
	adminOrders.PATCH("/:id/status", c.Orders.UpdateStatus)
	adminOrders.PATCH("/:id/payment", c.Orders.UpdatePayment)
	adminOrders.PUT("/:id/tracking", c.Orders.SetTracking)

	inventory := admin.Group("/inventory")
	inventory.Use(middleware.Authorize(middleware.ActionManageStock))
	inventory.GET("/low-stock", c.Inventory.LowStock)
	inventory.GET("/variants/:id", c.Inventory.GetVariant)
	inventory.POST("/variants/:id/adjust", c.Inventory.AdjustStock)
	inventory.POST("/variants/:id/restock", c.Inventory.Restock)

	invoices := admin.Group("/invoices")
	invoices.Use(middleware.Authorize(middleware.ActionManageInvoices))
	invoices.GET("", c.Invoices.ListInvoices)
	invoices.GET("/:id", c.Invoices.GetInvoice)
	invoices.PATCH("/:id/status", c.Invoices.UpdateStatus)
	invoices.POST("/sweep-overdue", c.Invoices.SweepOverdue)
}
