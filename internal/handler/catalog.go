package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/model"
)

// CatalogHandler serves the read-only tour catalog.
type CatalogHandler struct {
	Catalogs catalog.Provider
	Logger   *slog.Logger
}

// SeatGroup is the chart of one ticket type.
type SeatGroup struct {
	TicketType model.TicketType      `json:"ticket_type"`
	Available  int                   `json:"available"`
	Items      []model.InventoryItem `json:"items"`
}

// ListShows handles GET /v1/shows.
func (h *CatalogHandler) ListShows(c echo.Context) error {
	shows, err := h.Catalogs.Shows(c.Request().Context())
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	if shows == nil {
		shows = []model.Show{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": shows})
}

// GetShow handles GET /v1/shows/:id.
func (h *CatalogHandler) GetShow(c echo.Context) error {
	id, ok := parseShowID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid show id")
	}
	show, err := h.Catalogs.Show(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, show)
}

// TicketTypes handles GET /v1/shows/:id/ticket-types.
func (h *CatalogHandler) TicketTypes(c echo.Context) error {
	cat, err := h.catalog(c)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": cat.TicketTypes()})
}

// Seats handles GET /v1/shows/:id/seats: the chart grouped by ticket type.
func (h *CatalogHandler) Seats(c echo.Context) error {
	cat, err := h.catalog(c)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	groups := make([]SeatGroup, 0, len(cat.TicketTypes()))
	for _, tt := range cat.TicketTypes() {
		items := cat.ItemsByCategory(tt.Code)
		free := 0
		for _, it := range items {
			if !it.IsTaken() {
				free++
			}
		}
		groups = append(groups, SeatGroup{TicketType: tt, Available: free, Items: items})
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": cat.Show().ID, "groups": groups})
}

func (h *CatalogHandler) catalog(c echo.Context) (*catalog.Catalog, error) {
	id, ok := parseShowID(c)
	if !ok {
		return nil, errInvalidShowID
	}
	return h.Catalogs.Catalog(c.Request().Context(), id)
}
