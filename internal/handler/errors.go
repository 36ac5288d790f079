// Package handler exposes the HTTP handlers of the seating API.  Handlers
// answer with JSON; failures use {"error": message, "code": code} plus
// structured fields (category, max, missing) that clients turn into copy.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/checkout"
	"github.com/iliyamo/comedy-tour-seating/internal/handoff"
	"github.com/iliyamo/comedy-tour-seating/internal/selection"
	"github.com/iliyamo/comedy-tour-seating/internal/session"
)

// Error codes returned in the "code" field.
const (
	CodeBadRequest        = "bad_request"
	CodeShowNotFound      = "show_not_found"
	CodeShowSoldOut       = "show_sold_out"
	CodeUnknownItem       = "unknown_item"
	CodeUnknownTicketType = "unknown_ticket_type"
	CodeTypeUnavailable   = "ticket_type_unavailable"
	CodeItemUnavailable   = "item_unavailable"
	CodeSelectionLimit    = "selection_limit_reached"
	CodeIncomplete        = "incomplete_selection"
	CodeEmptySelection    = "empty_selection"
	CodeInvalidQuota      = "invalid_quota"
	CodeDuplicateItem     = "duplicate_item"
	CodeCategoryMismatch  = "category_mismatch"
	CodeMalformedPayload  = "malformed_payload"
	CodePayloadMismatch   = "payload_mismatch"
	CodeCustomerRequired  = "customer_required"
	CodeSessionNotFound   = "session_not_found"
	CodeOrderNotFound     = "order_not_found"
	CodeInternal          = "internal_error"
)

var (
	errShowSoldOut   = errors.New("show is sold out")
	errInvalidShowID = errors.New("invalid show id")
)

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "code": code})
}

// writeError maps domain errors to responses.  Unknown errors are logged
// and reported as 500 without detail.
func writeError(c echo.Context, logger *slog.Logger, err error) error {
	var limit *selection.LimitError
	var incomplete *selection.IncompleteError
	switch {
	case errors.As(err, &limit):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    err.Error(),
			"code":     CodeSelectionLimit,
			"category": limit.Category,
			"max":      limit.Max,
		})
	case errors.As(err, &incomplete):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   err.Error(),
			"code":    CodeIncomplete,
			"missing": incomplete.Missing,
		})
	case errors.Is(err, errInvalidShowID):
		return fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, catalog.ErrShowNotFound):
		return fail(c, http.StatusNotFound, CodeShowNotFound, "show not found")
	case errors.Is(err, catalog.ErrUnknownItem):
		return fail(c, http.StatusNotFound, CodeUnknownItem, err.Error())
	case errors.Is(err, catalog.ErrUnknownTicketType):
		return fail(c, http.StatusBadRequest, CodeUnknownTicketType, err.Error())
	case errors.Is(err, catalog.ErrOffSale):
		return fail(c, http.StatusConflict, CodeTypeUnavailable, err.Error())
	case errors.Is(err, checkout.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, CodeOrderNotFound, "order not found")
	case errors.Is(err, errShowSoldOut):
		return fail(c, http.StatusConflict, CodeShowSoldOut, err.Error())
	case errors.Is(err, selection.ErrItemUnavailable):
		return fail(c, http.StatusConflict, CodeItemUnavailable, err.Error())
	case errors.Is(err, checkout.ErrEmptySelection):
		return fail(c, http.StatusConflict, CodeEmptySelection, err.Error())
	case errors.Is(err, selection.ErrNegativeQuota):
		return fail(c, http.StatusBadRequest, CodeInvalidQuota, err.Error())
	case errors.Is(err, selection.ErrDuplicateItem):
		return fail(c, http.StatusBadRequest, CodeDuplicateItem, err.Error())
	case errors.Is(err, handoff.ErrMalformedPayload):
		return fail(c, http.StatusBadRequest, CodeMalformedPayload, err.Error())
	case errors.Is(err, handoff.ErrPayloadMismatch):
		return fail(c, http.StatusBadRequest, CodePayloadMismatch, err.Error())
	case errors.Is(err, checkout.ErrCustomerRequired):
		return fail(c, http.StatusBadRequest, CodeCustomerRequired, err.Error())
	case errors.Is(err, session.ErrSessionNotFound):
		return fail(c, http.StatusNotFound, CodeSessionNotFound, "selection session expired or unknown")
	}
	logger.Error("unhandled error", "path", c.Path(), "err", err)
	return fail(c, http.StatusInternalServerError, CodeInternal, "internal error")
}

func parseShowID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
