package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/comedy-tour-seating/internal/handler"
	"github.com/iliyamo/comedy-tour-seating/internal/middleware"
	"github.com/iliyamo/comedy-tour-seating/internal/session"
)

// RegisterSelection registers the seat-picking endpoints.  Starting a
// selection is open; everything under /v1/selection needs the session
// token it returns.  limit throttles mutations.
func RegisterSelection(e *echo.Echo, h *handler.SelectionHandler, signer *session.Signer, limit echo.MiddlewareFunc) {
	e.POST("/v1/shows/:id/selections", h.Start, limit)

	g := e.Group("/v1/selection", middleware.SessionAuth(signer))
	g.GET("", h.Get)
	g.POST("/toggle", h.Toggle, limit)
	g.POST("/checkout", h.Checkout)
	g.DELETE("", h.Discard)
}

// RegisterOrders registers the checkout step and order lookup.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, limit echo.MiddlewareFunc) {
	e.GET("/v1/shows/:id/order-summary", h.Summary)
	e.POST("/v1/shows/:id/orders", h.Confirm, limit)
	e.GET("/v1/orders/:id", h.Get)
}
