package handoff

import (
	"errors"
	"reflect"
	"testing"

	"github.com/iliyamo/comedy-tour-seating/internal/model"
	"github.com/iliyamo/comedy-tour-seating/internal/selection"
)

func pick(t *testing.T, s *selection.Selection, id, cat string) {
	t.Helper()
	if _, err := s.Toggle(selection.Item{ID: id, DisplayName: id, Availability: model.Available}, cat); err != nil {
		t.Fatalf("toggle %s: %v", id, err)
	}
}

func TestFromSelection_RoundTrip(t *testing.T) {
	t.Parallel()

	s := selection.New(selection.DefaultCapacity)
	pick(t, s, "VIP-3", "VIP")
	pick(t, s, "REG-2", "REG")
	pick(t, s, "REG-7", "REG")
	pick(t, s, "T5-A", "T5")

	p := FromSelection(s)
	p.Name = "Jo Doe"
	p.Email = "jo@example.com"

	want := Payload{
		Tickets: []TicketQty{{"VIP", 1}, {"REG", 2}, {"T5", 1}},
		Seats:   []string{"VIP-3", "REG-2", "REG-7", "T5-A"},
		Name:    "Jo Doe",
		Email:   "jo@example.com",
	}
	if !reflect.DeepEqual(p, want) {
		t.Fatalf("FromSelection = %+v, want %+v", p, want)
	}

	got, err := ParseQuery(p.Query())
	if err != nil {
		t.Fatalf("ParseQuery: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
	if err := got.Match(s.Counts()); err != nil {
		t.Fatalf("Match: %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
	}{
		{"missing colon", "tickets=REG2"},
		{"zero quantity", "tickets=REG:0"},
		{"non numeric", "tickets=REG:two"},
		{"empty code", "tickets=:2"},
		{"repeated code", "tickets=REG:1&tickets=REG:2"},
		{"repeated seat", "seats=REG-1&seats=REG-1"},
		{"empty seat", "seats="},
		{"bad escape", "seats=%zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseQuery(tt.query); !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	p := Payload{Tickets: []TicketQty{{"REG", 2}}}
	if err := p.Match(selection.Counts{"REG": 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Match(selection.Counts{"REG": 1}); !errors.Is(err, ErrPayloadMismatch) {
		t.Fatalf("expected mismatch on count, got %v", err)
	}
	if err := p.Match(selection.Counts{"REG": 2, "VIP": 1}); !errors.Is(err, ErrPayloadMismatch) {
		t.Fatalf("expected mismatch on undeclared category, got %v", err)
	}
}
