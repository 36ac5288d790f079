// Package pricing derives the cost breakdown of a selection.  Everything
// here is a pure function of per-category counts and the ticket types of
// the show; nothing is cached between calls, so the seat-picking step and
// the checkout step compute the same total from the same selection.
package pricing

import (
	"github.com/iliyamo/comedy-tour-seating/internal/model"
	"github.com/iliyamo/comedy-tour-seating/internal/money"
	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

// DefaultFeeRate is the 15% service fee charged at checkout.
const DefaultFeeRate money.Rate = 1500

// PriceBook resolves ticket types by category code.  *catalog.Catalog
// implements it.
type PriceBook interface {
	TicketType(code string) (model.TicketType, bool)
	TicketTypes() []model.TicketType
}

// Line is one row of an order summary.
type Line struct {
	Code     string      `json:"code"`
	Label    string      `json:"label"`
	Quantity int         `json:"quantity"`
	Amount   money.Cents `json:"amount_cents"`
}

// Summary is the full cost breakdown.
type Summary struct {
	Lines    []Line      `json:"lines"`
	Subtotal money.Cents `json:"subtotal_cents"`
	Fees     money.Cents `json:"fees_cents"`
	FeeRate  money.Rate  `json:"fee_rate_bps"`
	Total    money.Cents `json:"total_cents"`
}

// LineAmount prices count selected units of tt.  A table is sold once
// however many of its units are selected; per-person types multiply.
func LineAmount(tt model.TicketType, count int) money.Cents {
	if count <= 0 {
		return 0
	}
	if tt.IsTable() {
		return tt.UnitPrice
	}
	return tt.UnitPrice * money.Cents(count)
}

// Subtotal sums LineAmount over every category in counts.  Categories the
// price book does not know contribute nothing.
func Subtotal(counts selection.Counts, book PriceBook) money.Cents {
	var total money.Cents
	for code, n := range counts {
		tt, ok := book.TicketType(code)
		if !ok {
			continue
		}
		total += LineAmount(tt, n)
	}
	return total
}

// Fees applies rate to subtotal with a single round-half-up at the cent.
func Fees(subtotal money.Cents, rate money.Rate) money.Cents {
	return rate.Apply(subtotal)
}

// Total is subtotal plus fees.
func Total(subtotal, fees money.Cents) money.Cents {
	return subtotal + fees
}

// Summarize builds the order summary.  Lines follow the price book order.
func Summarize(counts selection.Counts, book PriceBook, rate money.Rate) Summary {
	var lines []Line
	for _, tt := range book.TicketTypes() {
		n := counts[tt.Code]
		if n <= 0 {
			continue
		}
		lines = append(lines, Line{
			Code:     tt.Code,
			Label:    tt.Name,
			Quantity: n,
			Amount:   LineAmount(tt, n),
		})
	}
	sub := Subtotal(counts, book)
	fees := Fees(sub, rate)
	return Summary{
		Lines:    lines,
		Subtotal: sub,
		Fees:     fees,
		FeeRate:  rate,
		Total:    Total(sub, fees),
	}
}
