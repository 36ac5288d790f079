package model

// Availability is the sale state of an inventory item as supplied by the
// catalog.  The selection engine only reads it.
type Availability string

const (
	Available Availability = "available"
	Taken     Availability = "taken"
)

// InventoryItem is an addressable seat or table on a show's seating
// chart.  IDs are unique across the inventory of one show and stable for
// its lifetime.
//
// Fields:
//  ID           – seat or table identifier (e.g. "REG-12", "T5-A").
//  Category     – ticket type code the item is sold under.
//  DisplayName  – human label ("Seat 12", "Table A").
//  Availability – available or taken.
type InventoryItem struct {
	ID           string       `json:"id"`           // seats.id
	Category     string       `json:"category"`     // seats.type
	DisplayName  string       `json:"name"`         // seats.name
	Availability Availability `json:"availability"` // seats.status
}

// IsTaken reports whether the item can no longer be selected.
func (i InventoryItem) IsTaken() bool { return i.Availability == Taken }
