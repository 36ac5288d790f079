// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/comedy-tour-seating/internal/handler"
	"github.com/iliyamo/comedy-tour-seating/internal/metrics"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, m *metrics.Metrics, deps map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health(deps))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterCatalog registers the public catalog reads.  cache wraps only
// the listings that rarely change; seat availability is always live.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/shows", h.ListShows, cache)
	e.GET("/v1/shows/:id", h.GetShow, cache)
	e.GET("/v1/shows/:id/ticket-types", h.TicketTypes, cache)
	e.GET("/v1/shows/:id/seats", h.Seats)
}
