package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

// MemoryOrders is an OrderStore for runs without MySQL.  It remembers the
// items each show has sold for the life of the process.
type MemoryOrders struct {
	mu     sync.Mutex
	sold   map[soldItem]string
	orders map[string]StoredOrder
}

type soldItem struct {
	show uint64
	item string
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{
		sold:   make(map[soldItem]string),
		orders: make(map[string]StoredOrder),
	}
}

// SaveOrder records c unless one of its items is already sold.
func (m *MemoryOrders) SaveOrder(_ context.Context, c *Confirmation) error {
	if len(c.Order.Entries) == 0 {
		return ErrEmptySelection
	}
	showID := c.Order.Show.ID

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range c.Order.Entries {
		if _, ok := m.sold[soldItem{showID, e.ID}]; ok {
			return fmt.Errorf("%w: %s", selection.ErrItemUnavailable, e.ID)
		}
	}
	for _, e := range c.Order.Entries {
		m.sold[soldItem{showID, e.ID}] = c.OrderID
	}
	m.orders[c.OrderID] = storedOrder(c)
	return nil
}

func (m *MemoryOrders) Order(_ context.Context, orderID string) (*StoredOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o.Seats = append([]string(nil), o.Seats...)
	return &o, nil
}

// Sold reports whether item of showID belongs to a stored order.
func (m *MemoryOrders) Sold(showID uint64, item string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sold[soldItem{showID, item}]
	return ok
}
