// Package catalog supplies the read-only data a seat-picking session works
// against: the show, its ticket types and its seating inventory.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/comedy-tour-seating/internal/model"
)

var (
	// ErrShowNotFound means the show id did not resolve.
	ErrShowNotFound = errors.New("show not found")
	// ErrUnknownItem means an inventory id is not on the show's chart.
	ErrUnknownItem = errors.New("unknown inventory item")
	// ErrInvalidCatalog is returned by New for inconsistent input.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrUnknownTicketType means a category code is not sold for the show.
	ErrUnknownTicketType = errors.New("unknown ticket type")
	// ErrOffSale means the ticket type exists but is not on sale.
	ErrOffSale = errors.New("ticket type not on sale")
)

// Provider resolves shows and their catalogs.
type Provider interface {
	Shows(ctx context.Context) ([]model.Show, error)
	Show(ctx context.Context, id uint64) (model.Show, error)
	Catalog(ctx context.Context, showID uint64) (*Catalog, error)
}

// Catalog is the immutable ticket-type and inventory snapshot of a show.
type Catalog struct {
	show    model.Show
	types   []model.TicketType
	items   []model.InventoryItem
	typeIdx map[string]int
	itemIdx map[string]int
}

// New validates and indexes a catalog.  Item ids must be unique, every
// item's category must be a known ticket type, and prices non-negative.
func New(show model.Show, types []model.TicketType, items []model.InventoryItem) (*Catalog, error) {
	c := &Catalog{
		show:    show,
		types:   append([]model.TicketType(nil), types...),
		items:   append([]model.InventoryItem(nil), items...),
		typeIdx: make(map[string]int, len(types)),
		itemIdx: make(map[string]int, len(items)),
	}
	for i, tt := range c.types {
		if tt.Code == "" {
			return nil, fmt.Errorf("%w: ticket type %d has no code", ErrInvalidCatalog, i)
		}
		if _, dup := c.typeIdx[tt.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate ticket type %s", ErrInvalidCatalog, tt.Code)
		}
		if tt.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: negative price for %s", ErrInvalidCatalog, tt.Code)
		}
		c.typeIdx[tt.Code] = i
	}
	for i, it := range c.items {
		if _, dup := c.itemIdx[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %s", ErrInvalidCatalog, it.ID)
		}
		if _, ok := c.typeIdx[it.Category]; !ok {
			return nil, fmt.Errorf("%w: item %s has unknown category %s", ErrInvalidCatalog, it.ID, it.Category)
		}
		c.itemIdx[it.ID] = i
	}
	return c, nil
}

// Show returns the show the catalog belongs to.
func (c *Catalog) Show() model.Show { return c.show }

// TicketTypes returns the ticket types in display order.
func (c *Catalog) TicketTypes() []model.TicketType {
	return append([]model.TicketType(nil), c.types...)
}

// TicketType looks up a ticket type by code.
func (c *Catalog) TicketType(code string) (model.TicketType, bool) {
	i, ok := c.typeIdx[code]
	if !ok {
		return model.TicketType{}, false
	}
	return c.types[i], true
}

// CheckOnSale returns ErrUnknownTicketType or ErrOffSale unless code can
// be bought.
func (c *Catalog) CheckOnSale(code string) error {
	tt, ok := c.TicketType(code)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTicketType, code)
	}
	if !tt.Available {
		return fmt.Errorf("%w: %s", ErrOffSale, code)
	}
	return nil
}

// Inventory returns every seat and table.
func (c *Catalog) Inventory() []model.InventoryItem {
	return append([]model.InventoryItem(nil), c.items...)
}

// Item looks up an inventory item by id.
func (c *Catalog) Item(id string) (model.InventoryItem, error) {
	i, ok := c.itemIdx[id]
	if !ok {
		return model.InventoryItem{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return c.items[i], nil
}

// ItemsByCategory returns the items sold under code, in chart order.
func (c *Catalog) ItemsByCategory(code string) []model.InventoryItem {
	var out []model.InventoryItem
	for _, it := range c.items {
		if it.Category == code {
			out = append(out, it)
		}
	}
	return out
}
