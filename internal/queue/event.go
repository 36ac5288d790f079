// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderConfirmedQueue is the durable queue confirmed orders are published to.
const OrderConfirmedQueue = "order.confirmed"

// TicketLine is one priced row of a confirmed order.
type TicketLine struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	Quantity    int    `json:"quantity"`
	AmountCents int64  `json:"amount_cents"`
}

// OrderConfirmedEvent is published when a checkout is confirmed.  It carries
// enough for downstream consumers to log or notify without reading the
// catalog again.
type OrderConfirmedEvent struct {
	OrderID       string       `json:"order_id"`
	OrderNumber   string       `json:"order_number"`
	ShowID        uint64       `json:"show_id"`
	City          string       `json:"city"`
	Venue         string       `json:"venue"`
	StartsAt      string       `json:"starts_at"`
	Seats         []string     `json:"seats"`
	Tickets       []TicketLine `json:"tickets"`
	SubtotalCents int64        `json:"subtotal_cents"`
	FeesCents     int64        `json:"fees_cents"`
	TotalCents    int64        `json:"total_cents"`
	CustomerName  string       `json:"customer_name,omitempty"`
	CustomerEmail string       `json:"customer_email,omitempty"`
	ConfirmedAt   string       `json:"confirmed_at"`
}
