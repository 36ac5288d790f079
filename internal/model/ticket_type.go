package model

import "github.com/iliyamo/comedy-tour-seating/internal/money"

// Pricing describes how a ticket type's unit price turns into money.
type Pricing string

const (
	// PerPerson charges the unit price once per selected seat.
	PerPerson Pricing = "PER_PERSON"
	// PerTable sells the whole block once, however many guests it seats.
	PerTable Pricing = "PER_TABLE"
)

// TicketType is a purchasable category for a show.  Its Code matches
// the Category of the inventory items sold under it.
//
// Fields:
//  Code            – category code (REG, VIP, T5, T10).
//  Name            – display name ("Table for 5").
//  Description     – optional marketing copy.
//  UnitPrice       – price of one unit in cents; never negative.
//  CapacityPerUnit – attendees represented by one unit (1, 5 or 10).
//  Pricing         – PER_PERSON or PER_TABLE.
//  Available       – whether the type is on sale.
type TicketType struct {
	Code            string      `json:"code"`              // ticket_types.code
	Name            string      `json:"name"`              // ticket_types.name
	Description     string      `json:"description"`       // ticket_types.description
	UnitPrice       money.Cents `json:"unit_price_cents"`  // ticket_types.unit_price_cents
	CapacityPerUnit int         `json:"capacity_per_unit"` // ticket_types.capacity_per_unit
	Pricing         Pricing     `json:"pricing"`           // ticket_types.pricing
	Available       bool        `json:"available"`         // ticket_types.available
}

// IsTable reports whether the type is sold as a fixed-price block.
func (t TicketType) IsTable() bool { return t.Pricing == PerTable }
