package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/comedy-tour-seating/internal/checkout"
	"github.com/iliyamo/comedy-tour-seating/internal/handoff"
)

// OrderHandler serves the checkout step.  It trusts nothing from the seat
// step except the handoff payload and recomputes every total.
type OrderHandler struct {
	Service *checkout.Service
	Logger  *slog.Logger
}

// Summary handles GET /v1/shows/:id/order-summary?tickets=..&seats=..
func (h *OrderHandler) Summary(c echo.Context) error {
	showID, ok := parseShowID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid show id")
	}
	p, err := handoff.Decode(c.QueryParams())
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	sum, err := h.Service.Summary(c.Request().Context(), showID, p)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// Confirm handles POST /v1/shows/:id/orders with a handoff payload body
// that also carries the customer's name and email.
func (h *OrderHandler) Confirm(c echo.Context) error {
	showID, ok := parseShowID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid show id")
	}
	var p handoff.Payload
	if err := c.Bind(&p); err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	conf, err := h.Service.Confirm(c.Request().Context(), showID, p, checkout.Customer{Name: p.Name, Email: p.Email})
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, conf)
}

// Get handles GET /v1/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	o, err := h.Service.Order(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, o)
}
