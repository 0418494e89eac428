package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront/internal/handler"
	"github.com/iliyamo/storefront/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints under /v1/auth.  limit guards
// the endpoints that hash passwords or send mail.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/resend", a.Resend, limit)
	g.GET("/verify", a.Verify)
	g.GET("/me", a.Me)
	g.POST("/logout", a.Logout)
}

// RegisterCatalog registers products, categories and contacts.  Reads are
// public and go through cache; writes require an administrator and purge
// the cache.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache, purge echo.MiddlewareFunc) {
	e.GET("/v1/products", h.ListProducts, cache)
	e.GET("/v1/products/:id", h.GetProduct, cache)
	e.GET("/v1/categories", h.ListCategories, cache)
	e.GET("/v1/contacts", h.GetContacts, cache)

	admin := []echo.MiddlewareFunc{middleware.RequireAdmin(), purge}
	e.POST("/v1/products", h.CreateProduct, admin...)
	e.PUT("/v1/products/:id", h.UpdateProduct, admin...)
	e.DELETE("/v1/products/:id", h.DeleteProduct, admin...)
	e.POST("/v1/categories", h.CreateCategory, admin...)
	e.PUT("/v1/categories/:id", h.RenameCategory, admin...)
	e.DELETE("/v1/categories/:id", h.DeleteCategory, admin...)
	e.PUT("/v1/contacts", h.UpdateContacts, admin...)
}

// RegisterOrders registers checkout for signed-in users and the order list
// and sales summary for administrators.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler) {
	e.POST("/v1/orders", h.Checkout, middleware.RequireUser())

	e.GET("/v1/orders", h.List, middleware.RequireAdmin())
	e.GET("/v1/admin/sales", h.Sales, middleware.RequireAdmin())
}
