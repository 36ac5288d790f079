// Package checkout gates a finished selection into the checkout step,
// recomputes the order summary from the handoff payload and confirms the
// order.  No payment is taken; confirmation assigns an order number and
// announces it on the broker.
package checkout

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/handoff"
	"github.com/iliyamo/comedy-tour-seating/internal/metrics"
	"github.com/iliyamo/comedy-tour-seating/internal/model"
	"github.com/iliyamo/comedy-tour-seating/internal/money"
	"github.com/iliyamo/comedy-tour-seating/internal/pricing"
	"github.com/iliyamo/comedy-tour-seating/internal/queue"
	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

var (
	// ErrEmptySelection means nothing was selected.
	ErrEmptySelection = errors.New("selection is empty")
	// ErrCustomerRequired means the confirmation lacks a name or a valid email.
	ErrCustomerRequired = errors.New("customer name and email required")
	// ErrOrderNotFound means no stored order has the id.
	ErrOrderNotFound = errors.New("order not found")
)

// Publisher announces confirmed orders.  *queue.Publisher implements it.
type Publisher interface {
	PublishOrderConfirmed(ctx context.Context, ev queue.OrderConfirmedEvent) error
}

// OrderStore persists confirmed orders and claims their items.  SaveOrder
// must fail with selection.ErrItemUnavailable when an item was sold
// meanwhile; Order returns ErrOrderNotFound for an unknown id.
// *repository.OrderRepo and *MemoryOrders implement it.
type OrderStore interface {
	SaveOrder(ctx context.Context, c *Confirmation) error
	Order(ctx context.Context, orderID string) (*StoredOrder, error)
}

// StoredOrder is a confirmed order as read back from an OrderStore.
type StoredOrder struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	ShowID      uint64      `json:"show_id"`
	Customer    Customer    `json:"customer"`
	Seats       []string    `json:"seats"`
	Subtotal    money.Cents `json:"subtotal_cents"`
	Fees        money.Cents `json:"fees_cents"`
	FeeRate     money.Rate  `json:"fee_rate_bps"`
	Total       money.Cents `json:"total_cents"`
	ConfirmedAt time.Time   `json:"confirmed_at"`
}

// Customer identifies who placed the order.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderSummary is the priced content of a handoff payload.
type OrderSummary struct {
	Show    model.Show        `json:"show"`
	Entries []selection.Entry `json:"entries"`
	Summary pricing.Summary   `json:"summary"`
}

// Confirmation is the result of a confirmed order.
type Confirmation struct {
	OrderID     string       `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	ConfirmedAt time.Time    `json:"confirmed_at"`
	Customer    Customer     `json:"customer"`
	Order       OrderSummary `json:"order"`
}

// Service wires the catalog, pricing policy and broker together.
type Service struct {
	Catalogs  catalog.Provider
	Capacity  selection.Capacity
	FeeRate   money.Rate
	Publisher Publisher  // nil disables publishing
	Orders    OrderStore // nil disables order storage and lookup
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// NewService returns a Service with the default capacity table and fee.
func NewService(cat catalog.Provider, pub Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		Catalogs:  cat,
		Capacity:  selection.DefaultCapacity,
		FeeRate:   pricing.DefaultFeeRate,
		Publisher: pub,
		Metrics:   m,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Gate lets a selection through to checkout only when it is non-empty and
// satisfies quota.  The payload it returns is what the checkout step
// receives.
func (s *Service) Gate(sel *selection.Selection, quota selection.Quota) (handoff.Payload, error) {
	if sel.Len() == 0 {
		s.Metrics.Checkout("empty")
		return handoff.Payload{}, ErrEmptySelection
	}
	if err := sel.CheckComplete(quota); err != nil {
		s.Metrics.Checkout("incomplete")
		return handoff.Payload{}, err
	}
	s.Metrics.Checkout("ok")
	return handoff.FromSelection(sel), nil
}

// Summary prices payload against the current catalog of showID.  The
// totals are always recomputed, never carried over from the seat step.
func (s *Service) Summary(ctx context.Context, showID uint64, p handoff.Payload) (*OrderSummary, error) {
	cat, err := s.Catalogs.Catalog(ctx, showID)
	if err != nil {
		return nil, err
	}
	sum, _, err := s.summarize(cat, p)
	return sum, err
}

func (s *Service) summarize(cat *catalog.Catalog, p handoff.Payload) (*OrderSummary, []model.InventoryItem, error) {
	if len(p.Seats) == 0 {
		return nil, nil, ErrEmptySelection
	}
	items := make([]model.InventoryItem, 0, len(p.Seats))
	entries := make([]selection.Entry, 0, len(p.Seats))
	for _, id := range p.Seats {
		it, err := cat.Item(id)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, it)
		entries = append(entries, selection.Entry{ID: it.ID, Category: it.Category, DisplayName: it.DisplayName})
	}
	sel, err := selection.Restore(s.Capacity, entries)
	if err != nil {
		return nil, nil, err
	}
	counts := sel.Counts()
	if err := p.Match(counts); err != nil {
		return nil, nil, err
	}
	for _, code := range sel.Categories() {
		if err := cat.CheckOnSale(code); err != nil {
			return nil, nil, err
		}
	}
	return &OrderSummary{
		Show:    cat.Show(),
		Entries: sel.Entries(),
		Summary: pricing.Summarize(counts, cat, s.FeeRate),
	}, items, nil
}

// Confirm recomputes the order, rejects it if the catalog marks a chosen
// item taken, and hands it to the order store, which rejects items it has
// already sold.  Without a store nothing stops the same item being
// confirmed twice.  A broker failure is logged; the order still counts as
// confirmed.
func (s *Service) Confirm(ctx context.Context, showID uint64, p handoff.Payload, c Customer) (*Confirmation, error) {
	if c.Name == "" {
		c.Name = p.Name
	}
	if c.Email == "" {
		c.Email = p.Email
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" || c.Email == "" {
		return nil, ErrCustomerRequired
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCustomerRequired, err)
	}

	cat, err := s.Catalogs.Catalog(ctx, showID)
	if err != nil {
		return nil, err
	}
	sum, items, err := s.summarize(cat, p)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.IsTaken() {
			return nil, fmt.Errorf("%w: %s", selection.ErrItemUnavailable, it.ID)
		}
	}

	conf := &Confirmation{
		OrderID:     uuid.NewString(),
		OrderNumber: orderNumber(),
		ConfirmedAt: s.now().UTC(),
		Customer:    c,
		Order:       *sum,
	}
	if s.Orders != nil {
		if err := s.Orders.SaveOrder(ctx, conf); err != nil {
			return nil, err
		}
	}
	s.Metrics.OrderConfirmed(int64(sum.Summary.Total))

	if s.Publisher != nil {
		if err := s.Publisher.PublishOrderConfirmed(ctx, confirmedEvent(conf)); err != nil {
			s.Metrics.PublishFailed()
			s.logger().Warn("order event not published", "order_id", conf.OrderID, "err", err)
		}
	}
	s.logger().Info("order confirmed",
		"order_id", conf.OrderID,
		"order_number", conf.OrderNumber,
		"show_id", showID,
		"total", sum.Summary.Total.String())
	return conf, nil
}

// Order looks up a confirmed order by id.
func (s *Service) Order(ctx context.Context, orderID string) (*StoredOrder, error) {
	if s.Orders == nil {
		return nil, ErrOrderNotFound
	}
	return s.Orders.Order(ctx, orderID)
}

func storedOrder(c *Confirmation) StoredOrder {
	o := StoredOrder{
		OrderID:     c.OrderID,
		OrderNumber: c.OrderNumber,
		ShowID:      c.Order.Show.ID,
		Customer:    c.Customer,
		Subtotal:    c.Order.Summary.Subtotal,
		Fees:        c.Order.Summary.Fees,
		FeeRate:     c.Order.Summary.FeeRate,
		Total:       c.Order.Summary.Total,
		ConfirmedAt: c.ConfirmedAt,
	}
	for _, e := range c.Order.Entries {
		o.Seats = append(o.Seats, e.ID)
	}
	return o
}

func confirmedEvent(c *Confirmation) queue.OrderConfirmedEvent {
	show := c.Order.Show
	ev := queue.OrderConfirmedEvent{
		OrderID:       c.OrderID,
		OrderNumber:   c.OrderNumber,
		ShowID:        show.ID,
		City:          show.City,
		Venue:         show.Venue,
		StartsAt:      show.StartsAt.UTC().Format(time.RFC3339),
		SubtotalCents: int64(c.Order.Summary.Subtotal),
		FeesCents:     int64(c.Order.Summary.Fees),
		TotalCents:    int64(c.Order.Summary.Total),
		CustomerName:  c.Customer.Name,
		CustomerEmail: c.Customer.Email,
		ConfirmedAt:   c.ConfirmedAt.Format(time.RFC3339),
	}
	for _, e := range c.Order.Entries {
		ev.Seats = append(ev.Seats, e.ID)
	}
	for _, l := range c.Order.Summary.Lines {
		ev.Tickets = append(ev.Tickets, queue.TicketLine{
			Code:        l.Code,
			Label:       l.Label,
			Quantity:    l.Quantity,
			AmountCents: int64(l.Amount),
		})
	}
	return ev
}

// orderNumber is a random eight-digit customer-facing reference.
func orderNumber() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		id := uuid.New()
		copy(b[:], id[:4])
	}
	return fmt.Sprintf("%08d", 10000000+binary.BigEndian.Uint32(b[:])%90000000)
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
