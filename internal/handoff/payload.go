// Package handoff carries a finished selection from the seat-picking step
// to checkout as query parameters:
//
//	tickets=<code>:<qty>   one per category, in order of first selection
//	seats=<id>             one per chosen item, in click order
//
// Optional name and email parameters carry the customer for the
// confirmation page.  Encode and Decode round-trip losslessly.
package handoff

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

const (
	paramTickets = "tickets"
	paramSeats   = "seats"
	paramName    = "name"
	paramEmail   = "email"
)

var (
	// ErrMalformedPayload means the query could not be parsed.
	ErrMalformedPayload = errors.New("malformed handoff payload")
	// ErrPayloadMismatch means ticket quantities disagree with the seats.
	ErrPayloadMismatch = errors.New("handoff tickets do not match seats")
)

// TicketQty is the quantity chosen for one ticket category.
type TicketQty struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// Payload is the decoded handoff.
type Payload struct {
	Tickets []TicketQty `json:"tickets"`
	Seats   []string    `json:"seats"`
	Name    string      `json:"name,omitempty"`
	Email   string      `json:"email,omitempty"`
}

// FromSelection captures the current state of s.
func FromSelection(s *selection.Selection) Payload {
	counts := s.Counts()
	var p Payload
	for _, cat := range s.Categories() {
		p.Tickets = append(p.Tickets, TicketQty{Code: cat, Quantity: counts[cat]})
	}
	p.Seats = s.IDs()
	return p
}

// Encode renders the payload as query values.
func (p Payload) Encode() url.Values {
	v := url.Values{}
	for _, t := range p.Tickets {
		v.Add(paramTickets, t.Code+":"+strconv.Itoa(t.Quantity))
	}
	for _, id := range p.Seats {
		v.Add(paramSeats, id)
	}
	if p.Name != "" {
		v.Set(paramName, p.Name)
	}
	if p.Email != "" {
		v.Set(paramEmail, p.Email)
	}
	return v
}

// Query is Encode().Encode().
func (p Payload) Query() string { return p.Encode().Encode() }

// Decode parses query values produced by Encode.
func Decode(v url.Values) (Payload, error) {
	var p Payload
	seenCode := map[string]bool{}
	for _, raw := range v[paramTickets] {
		code, qty, ok := strings.Cut(raw, ":")
		if !ok || code == "" {
			return Payload{}, fmt.Errorf("%w: ticket %q", ErrMalformedPayload, raw)
		}
		n, err := strconv.Atoi(qty)
		if err != nil || n < 1 {
			return Payload{}, fmt.Errorf("%w: ticket quantity %q", ErrMalformedPayload, raw)
		}
		if seenCode[code] {
			return Payload{}, fmt.Errorf("%w: ticket %s repeated", ErrMalformedPayload, code)
		}
		seenCode[code] = true
		p.Tickets = append(p.Tickets, TicketQty{Code: code, Quantity: n})
	}
	seenSeat := map[string]bool{}
	for _, id := range v[paramSeats] {
		if id == "" {
			return Payload{}, fmt.Errorf("%w: empty seat id", ErrMalformedPayload)
		}
		if seenSeat[id] {
			return Payload{}, fmt.Errorf("%w: seat %s repeated", ErrMalformedPayload, id)
		}
		seenSeat[id] = true
		p.Seats = append(p.Seats, id)
	}
	p.Name = v.Get(paramName)
	p.Email = v.Get(paramEmail)
	return p, nil
}

// ParseQuery decodes a raw query string.
func ParseQuery(raw string) (Payload, error) {
	v, err := url.ParseQuery(raw)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return Decode(v)
}

// Quantities returns the ticket quantities keyed by category.
func (p Payload) Quantities() selection.Counts {
	out := make(selection.Counts, len(p.Tickets))
	for _, t := range p.Tickets {
		out[t.Code] = t.Quantity
	}
	return out
}

// Match checks the declared ticket quantities against counts derived
// from the seats.
func (p Payload) Match(counts selection.Counts) error {
	want := p.Quantities()
	var diffs []string
	for code, n := range want {
		if counts[code] != n {
			diffs = append(diffs, fmt.Sprintf("%s declared %d seats %d", code, n, counts[code]))
		}
	}
	for code, n := range counts {
		if _, ok := want[code]; !ok && n > 0 {
			diffs = append(diffs, fmt.Sprintf("%s undeclared seats %d", code, n))
		}
	}
	if len(diffs) > 0 {
		sort.Strings(diffs)
		return fmt.Errorf("%w: %s", ErrPayloadMismatch, strings.Join(diffs, "; "))
	}
	return nil
}
