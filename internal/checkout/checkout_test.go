package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/handoff"
	"github.com/iliyamo/comedy-tour-seating/internal/metrics"
	"github.com/iliyamo/comedy-tour-seating/internal/model"
	"github.com/iliyamo/comedy-tour-seating/internal/money"
	"github.com/iliyamo/comedy-tour-seating/internal/queue"
	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.OrderConfirmedEvent
	err    error
}

func (f *fakePublisher) PublishOrderConfirmed(_ context.Context, ev queue.OrderConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func newService(pub Publisher) *Service {
	s := NewService(catalog.NewFixture(), pub, metrics.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Now = func() time.Time { return time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func pickFrom(t *testing.T, cat *catalog.Catalog, sel *selection.Selection, ids ...string) {
	t.Helper()
	for _, id := range ids {
		it, err := cat.Item(id)
		if err != nil {
			t.Fatalf("item %s: %v", id, err)
		}
		if _, err := sel.Toggle(selection.ItemOf(it), it.Category); err != nil {
			t.Fatalf("toggle %s: %v", id, err)
		}
	}
}

func TestGate(t *testing.T) {
	t.Parallel()
	svc := newService(nil)
	cat, err := svc.Catalogs.Catalog(context.Background(), 2)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	quota := selection.Quota{"REG": 2, "VIP": 1}

	sel := selection.New(svc.Capacity)
	if _, err := svc.Gate(sel, quota); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("empty: expected ErrEmptySelection, got %v", err)
	}

	pickFrom(t, cat, sel, "REG-1")
	_, err = svc.Gate(sel, quota)
	var inc *selection.IncompleteError
	if !errors.As(err, &inc) {
		t.Fatalf("expected *IncompleteError, got %v", err)
	}
	if inc.Missing["REG"] != 1 || inc.Missing["VIP"] != 1 {
		t.Fatalf("missing = %v", inc.Missing)
	}

	pickFrom(t, cat, sel, "REG-2", "VIP-3")
	p, err := svc.Gate(sel, quota)
	if err != nil {
		t.Fatalf("complete selection gated: %v", err)
	}
	if got := p.Query(); got != "seats=REG-1&seats=REG-2&seats=VIP-3&tickets=REG%3A2&tickets=VIP%3A1" {
		t.Fatalf("query = %s", got)
	}
}

func TestSummary_TableAndRegular(t *testing.T) {
	t.Parallel()
	svc := newService(nil)

	p, err := handoff.Decode(url.Values{
		"tickets": {"T5:1", "REG:2"},
		"seats":   {"T5-A", "REG-1", "REG-2"},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sum, err := svc.Summary(context.Background(), 2, p)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Summary.Subtotal != money.Dollars(315) || sum.Summary.Fees != 4725 || sum.Summary.Total != 36225 {
		t.Fatalf("summary = %+v", sum.Summary)
	}
	if len(sum.Entries) != 3 || sum.Entries[0].ID != "T5-A" {
		t.Fatalf("entries = %+v", sum.Entries)
	}
}

func TestSummary_Rejects(t *testing.T) {
	t.Parallel()
	svc := newService(nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		show    uint64
		payload handoff.Payload
		want    error
	}{
		{"unknown show", 99, handoff.Payload{Seats: []string{"REG-1"}}, catalog.ErrShowNotFound},
		{"no seats", 2, handoff.Payload{}, ErrEmptySelection},
		{"unknown seat", 2, handoff.Payload{Seats: []string{"REG-99"}}, catalog.ErrUnknownItem},
		{"declared mismatch", 2, handoff.Payload{
			Tickets: []handoff.TicketQty{{Code: "REG", Quantity: 3}},
			Seats:   []string{"REG-1", "REG-2"},
		}, handoff.ErrPayloadMismatch},
		{"two large tables", 2, handoff.Payload{
			Tickets: []handoff.TicketQty{{Code: "T10", Quantity: 2}},
			Seats:   []string{"T10-A", "T10-B"},
		}, selection.ErrSelectionLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Summary(ctx, tt.show, tt.payload); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConfirm_PublishesEvent(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{}
	svc := newService(pub)

	p := handoff.Payload{
		Tickets: []handoff.TicketQty{{Code: "VIP", Quantity: 1}},
		Seats:   []string{"VIP-1"},
	}
	conf, err := svc.Confirm(context.Background(), 3, p, Customer{Name: "Sam Lee", Email: "sam@example.com"})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if len(conf.OrderNumber) != 8 {
		t.Fatalf("order number %q is not eight digits", conf.OrderNumber)
	}
	if conf.Order.Summary.Total != money.Dollars(95)+1425 {
		t.Fatalf("total = %s", conf.Order.Summary.Total)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.OrderID != conf.OrderID || ev.ShowID != 3 || ev.TotalCents != 10925 || ev.CustomerEmail != "sam@example.com" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.ConfirmedAt != "2023-06-01T12:00:00Z" {
		t.Fatalf("confirmed_at = %s", ev.ConfirmedAt)
	}
}

func TestConfirm_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	svc := newService(&fakePublisher{err: errors.New("broker down")})

	p := handoff.Payload{Seats: []string{"REG-1"}, Tickets: []handoff.TicketQty{{Code: "REG", Quantity: 1}}, Name: "A B", Email: "a@b.co"}
	if _, err := svc.Confirm(context.Background(), 2, p, Customer{}); err != nil {
		t.Fatalf("Confirm should succeed without the broker: %v", err)
	}
}

func TestConfirm_Rejects(t *testing.T) {
	t.Parallel()
	svc := newService(nil)
	ctx := context.Background()
	who := Customer{Name: "Sam", Email: "sam@example.com"}

	taken := handoff.Payload{Seats: []string{"REG-5"}, Tickets: []handoff.TicketQty{{Code: "REG", Quantity: 1}}}
	if _, err := svc.Confirm(ctx, 2, taken, who); !errors.Is(err, selection.ErrItemUnavailable) {
		t.Fatalf("taken seat: expected ErrItemUnavailable, got %v", err)
	}

	soldOut := handoff.Payload{Seats: []string{"REG-1"}, Tickets: []handoff.TicketQty{{Code: "REG", Quantity: 1}}}
	if _, err := svc.Confirm(ctx, 1, soldOut, who); !errors.Is(err, selection.ErrItemUnavailable) {
		t.Fatalf("sold-out show: expected ErrItemUnavailable, got %v", err)
	}

	if _, err := svc.Confirm(ctx, 2, soldOut, Customer{Name: "Sam"}); !errors.Is(err, ErrCustomerRequired) {
		t.Fatalf("missing email: expected ErrCustomerRequired, got %v", err)
	}
	if _, err := svc.Confirm(ctx, 2, soldOut, Customer{Name: "Sam", Email: "not-an-email"}); !errors.Is(err, ErrCustomerRequired) {
		t.Fatalf("bad email: expected ErrCustomerRequired, got %v", err)
	}
}

func TestConfirm_SellsEachItemOnce(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{}
	svc := newService(pub)
	orders := NewMemoryOrders()
	svc.Orders = orders
	ctx := context.Background()

	p := handoff.Payload{Seats: []string{"REG-1", "REG-2"}, Tickets: []handoff.TicketQty{{Code: "REG", Quantity: 2}}}
	who := Customer{Name: "Sam", Email: "sam@example.com"}

	conf, err := svc.Confirm(ctx, 2, p, who)
	if err != nil {
		t.Fatalf("first Confirm: %v", err)
	}
	if !orders.Sold(2, "REG-1") || !orders.Sold(2, "REG-2") || orders.Sold(3, "REG-1") {
		t.Fatalf("sold items not tracked per show")
	}

	again := handoff.Payload{Seats: []string{"REG-2"}, Tickets: []handoff.TicketQty{{Code: "REG", Quantity: 1}}}
	if _, err := svc.Confirm(ctx, 2, again, who); !errors.Is(err, selection.ErrItemUnavailable) {
		t.Fatalf("second Confirm: expected ErrItemUnavailable, got %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	// The same seat on another date is a different item.
	if _, err := svc.Confirm(ctx, 3, again, who); err != nil {
		t.Fatalf("other show: %v", err)
	}

	got, err := svc.Order(ctx, conf.OrderID)
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if got.OrderNumber != conf.OrderNumber || got.ShowID != 2 || got.Total != 10350 || got.Customer.Email != "sam@example.com" {
		t.Fatalf("stored order = %+v", got)
	}
	if len(got.Seats) != 2 || got.Seats[0] != "REG-1" || got.Seats[1] != "REG-2" {
		t.Fatalf("stored seats = %v", got.Seats)
	}
	if _, err := svc.Order(ctx, "no-such-order"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("unknown order: expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrder_WithoutStore(t *testing.T) {
	t.Parallel()
	if _, err := newService(nil).Order(context.Background(), "anything"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

type offSaleShows struct{}

func (offSaleShows) Shows(context.Context) ([]model.Show, error) {
	return []model.Show{{ID: 9}}, nil
}

func (offSaleShows) Show(_ context.Context, id uint64) (model.Show, error) {
	if id != 9 {
		return model.Show{}, catalog.ErrShowNotFound
	}
	return model.Show{ID: 9}, nil
}

func (offSaleShows) Catalog(ctx context.Context, id uint64) (*catalog.Catalog, error) {
	show, err := offSaleShows{}.Show(ctx, id)
	if err != nil {
		return nil, err
	}
	types := catalog.TourTicketTypes()
	types[1].Available = false // VIP
	return catalog.New(show, types, []model.InventoryItem{
		{ID: "REG-1", Category: "REG", DisplayName: "Seat 1", Availability: model.Available},
		{ID: "VIP-1", Category: "VIP", DisplayName: "Seat 1", Availability: model.Available},
	})
}

func TestSummary_RejectsOffSaleType(t *testing.T) {
	t.Parallel()
	svc := newService(nil)
	svc.Catalogs = offSaleShows{}
	ctx := context.Background()

	vip := handoff.Payload{Seats: []string{"VIP-1"}, Tickets: []handoff.TicketQty{{Code: "VIP", Quantity: 1}}}
	if _, err := svc.Summary(ctx, 9, vip); !errors.Is(err, catalog.ErrOffSale) {
		t.Fatalf("expected ErrOffSale, got %v", err)
	}
	reg := handoff.Payload{Seats: []string{"REG-1"}, Tickets: []handoff.TicketQty{{Code: "REG", Quantity: 1}}}
	if _, err := svc.Summary(ctx, 9, reg); err != nil {
		t.Fatalf("REG summary: %v", err)
	}
}

func TestOrderNumber(t *testing.T) {
	t.Parallel()
	for i := 0; i < 100; i++ {
		n := orderNumber()
		if len(n) != 8 || n[0] == '0' {
			t.Fatalf("orderNumber() = %q", n)
		}
	}
}
