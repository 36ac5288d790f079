package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/checkout"
	"github.com/iliyamo/comedy-tour-seating/internal/handoff"
	"github.com/iliyamo/comedy-tour-seating/internal/metrics"
	"github.com/iliyamo/comedy-tour-seating/internal/middleware"
	"github.com/iliyamo/comedy-tour-seating/internal/model"
	"github.com/iliyamo/comedy-tour-seating/internal/pricing"
	"github.com/iliyamo/comedy-tour-seating/internal/selection"
	"github.com/iliyamo/comedy-tour-seating/internal/session"
)

// SelectionHandler drives one customer's seat picking.  The session token
// issued by Start scopes every other call to one show.
type SelectionHandler struct {
	Catalogs catalog.Provider
	Sessions session.Store
	Signer   *session.Signer
	Service  *checkout.Service
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// SelectionView is the state returned after every selection call.
// Unavailable lists chosen items the chart now shows as taken or no
// longer carries; they block confirmation and can only be dropped by
// discarding the selection.
type SelectionView struct {
	SessionID string              `json:"session_id"`
	ShowID    uint64              `json:"show_id"`
	Quota     selection.Quota     `json:"quota"`
	Entries   []selection.Entry   `json:"entries"`
	Counts    selection.Counts    `json:"counts"`
	Complete  bool                `json:"complete"`
	Missing     selection.Shortfall `json:"missing"`
	Unavailable []string            `json:"unavailable,omitempty"`
	Summary     pricing.Summary     `json:"summary"`
}

type startRequest struct {
	Quota   selection.Quota `json:"quota"`
	Tickets []string        `json:"tickets"`
}

type toggleRequest struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

// Start handles POST /v1/shows/:id/selections.  The quota comes either as
// a map or as "CODE:qty" strings from the ticket step.
func (h *SelectionHandler) Start(c echo.Context) error {
	showID, ok := parseShowID(c)
	if !ok {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid show id")
	}
	var body startRequest
	if err := c.Bind(&body); err != nil {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	cat, err := h.Catalogs.Catalog(ctx, showID)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	if cat.Show().Status == model.ShowSoldOut {
		return writeError(c, h.Logger, errShowSoldOut)
	}

	quota, err := h.quota(body)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	capacity := h.Service.Capacity
	for code, n := range quota {
		// A zero quota for a type that is off sale asks for nothing.
		if err := cat.CheckOnSale(code); err != nil {
			if n > 0 || errors.Is(err, catalog.ErrUnknownTicketType) {
				return writeError(c, h.Logger, err)
			}
		}
		if n > capacity.Max(code) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":    fmt.Sprintf("at most %d %s per order", capacity.Max(code), code),
				"code":     CodeInvalidQuota,
				"category": code,
				"max":      capacity.Max(code),
			})
		}
	}

	sess := session.New(showID, quota, time.Now())
	if err := h.Sessions.Create(ctx, sess); err != nil {
		return writeError(c, h.Logger, err)
	}
	token, exp, err := h.Signer.Issue(sess)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	view, err := h.view(sess, cat)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"token":      token,
		"expires_at": exp,
		"selection":  view,
	})
}

func (h *SelectionHandler) quota(body startRequest) (selection.Quota, error) {
	q := selection.Quota{}
	for code, n := range body.Quota {
		q[code] = n
	}
	if len(body.Tickets) > 0 {
		p, err := handoff.Decode(url.Values{"tickets": body.Tickets})
		if err != nil {
			return nil, err
		}
		for code, n := range p.Quantities() {
			q[code] += n
		}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// Get handles GET /v1/selection.
func (h *SelectionHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	sess, err := h.Sessions.Get(ctx, middleware.SessionID(c))
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	cat, err := h.Catalogs.Catalog(ctx, sess.ShowID)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	view, err := h.view(sess, cat)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Toggle handles POST /v1/selection/toggle.  The category defaults to the
// item's category on the chart.
func (h *SelectionHandler) Toggle(c echo.Context) error {
	var body toggleRequest
	if err := c.Bind(&body); err != nil || body.ID == "" {
		return fail(c, http.StatusBadRequest, CodeBadRequest, "id is required")
	}
	ctx := c.Request().Context()
	cat, err := h.Catalogs.Catalog(ctx, middleware.ShowID(c))
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	it, err := cat.Item(body.ID)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	category := body.Category
	if category == "" {
		category = it.Category
	}
	if category != it.Category {
		return fail(c, http.StatusBadRequest, CodeCategoryMismatch,
			fmt.Sprintf("%s is sold as %s, not %s", it.ID, it.Category, category))
	}

	var outcome selection.Outcome
	sess, err := h.Sessions.Update(ctx, middleware.SessionID(c), func(s *session.Session) error {
		sel, err := s.Selection(h.Service.Capacity)
		if err != nil {
			return err
		}
		if !sel.IsSelected(it.ID) {
			if err := cat.CheckOnSale(category); err != nil {
				return err
			}
		}
		if outcome, err = sel.Toggle(selection.ItemOf(it), category); err != nil {
			return err
		}
		s.Save(sel)
		return nil
	})
	if err != nil {
		h.Metrics.Toggle(category, toggleFailure(err))
		return writeError(c, h.Logger, err)
	}
	h.Metrics.Toggle(category, outcome.String())

	view, err := h.view(sess, cat)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"outcome": outcome.String(), "selection": view})
}

// Checkout handles POST /v1/selection/checkout.  A complete selection
// yields the handoff query for the checkout step.
func (h *SelectionHandler) Checkout(c echo.Context) error {
	sess, err := h.Sessions.Get(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	sel, err := sess.Selection(h.Service.Capacity)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	p, err := h.Service.Gate(sel, sess.Quota)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	query := p.Query()
	return c.JSON(http.StatusOK, echo.Map{
		"show_id": sess.ShowID,
		"handoff": p,
		"query":   query,
		"next":    fmt.Sprintf("/v1/shows/%d/order-summary?%s", sess.ShowID, query),
	})
}

// Discard handles DELETE /v1/selection.
func (h *SelectionHandler) Discard(c echo.Context) error {
	if err := h.Sessions.Delete(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SelectionHandler) view(sess *session.Session, cat *catalog.Catalog) (SelectionView, error) {
	sel, err := sess.Selection(h.Service.Capacity)
	if err != nil {
		return SelectionView{}, err
	}
	var stale []string
	for _, id := range sel.IDs() {
		if it, err := cat.Item(id); err != nil || it.IsTaken() {
			stale = append(stale, id)
		}
	}
	counts := sel.Counts()
	return SelectionView{
		SessionID:   sess.ID,
		ShowID:      sess.ShowID,
		Quota:       sess.Quota,
		Entries:     sel.Entries(),
		Counts:      counts,
		Complete:    sel.IsComplete(sess.Quota),
		Missing:     sel.Missing(sess.Quota),
		Unavailable: stale,
		Summary:     pricing.Summarize(counts, cat, h.Service.FeeRate),
	}, nil
}

func toggleFailure(err error) string {
	switch {
	case errors.Is(err, selection.ErrItemUnavailable):
		return CodeItemUnavailable
	case errors.Is(err, selection.ErrSelectionLimit):
		return CodeSelectionLimit
	case errors.Is(err, catalog.ErrOffSale):
		return CodeTypeUnavailable
	}
	return "error"
}
