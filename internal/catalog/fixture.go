package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/comedy-tour-seating/internal/model"
	"github.com/iliyamo/comedy-tour-seating/internal/money"
)

// Fixture is an in-memory Provider holding the published tour.  Seat
// availability is fixed data, identical on every call.
type Fixture struct {
	shows []model.Show
	types []model.TicketType
}

// NewFixture returns the tour fixture.
func NewFixture() *Fixture {
	return &Fixture{shows: tourShows(), types: TourTicketTypes()}
}

// Shows lists every date in chronological order.
func (f *Fixture) Shows(ctx context.Context) ([]model.Show, error) {
	return append([]model.Show(nil), f.shows...), nil
}

// Show returns the show with the given id or ErrShowNotFound.
func (f *Fixture) Show(ctx context.Context, id uint64) (model.Show, error) {
	for _, s := range f.shows {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Show{}, ErrShowNotFound
}

// Catalog builds the catalog of a show.  A sold-out show has every item
// taken.
func (f *Fixture) Catalog(ctx context.Context, showID uint64) (*Catalog, error) {
	show, err := f.Show(ctx, showID)
	if err != nil {
		return nil, err
	}
	return New(show, f.types, seatingChart(show.Status == model.ShowSoldOut))
}

// TourTicketTypes are the four ticket types sold on every date.
func TourTicketTypes() []model.TicketType {
	return []model.TicketType{
		{Code: "REG", Name: "Regular Admission", UnitPrice: money.Dollars(45), CapacityPerUnit: 1, Pricing: model.PerPerson, Available: true},
		{Code: "VIP", Name: "VIP Package", Description: "Includes meet & greet and signed merchandise", UnitPrice: money.Dollars(95), CapacityPerUnit: 1, Pricing: model.PerPerson, Available: true},
		{Code: "T5", Name: "Table for 5", Description: "Reserved table for 5 people (includes 5 tickets)", UnitPrice: money.Dollars(225), CapacityPerUnit: 5, Pricing: model.PerTable, Available: true},
		{Code: "T10", Name: "Table for 10", Description: "Reserved table for 10 people (includes 10 tickets)", UnitPrice: money.Dollars(400), CapacityPerUnit: 10, Pricing: model.PerTable, Available: true},
	}
}

// seatingChart lays out 8 five-seat tables, 4 ten-seat tables, 20 VIP and
// 50 regular seats.  Taken items follow a fixed pattern.
func seatingChart(soldOut bool) []model.InventoryItem {
	var items []model.InventoryItem
	state := func(taken bool) model.Availability {
		if soldOut || taken {
			return model.Taken
		}
		return model.Available
	}
	for i, letter := range "ABCDEFGH" {
		items = append(items, model.InventoryItem{
			ID:           fmt.Sprintf("T5-%c", letter),
			Category:     "T5",
			DisplayName:  fmt.Sprintf("Table %c", letter),
			Availability: state(i == 4 || i == 7),
		})
	}
	for i, letter := range "ABCD" {
		items = append(items, model.InventoryItem{
			ID:           fmt.Sprintf("T10-%c", letter),
			Category:     "T10",
			DisplayName:  fmt.Sprintf("Table %c", letter),
			Availability: state(i == 2),
		})
	}
	for n := 1; n <= 20; n++ {
		items = append(items, model.InventoryItem{
			ID:           fmt.Sprintf("VIP-%d", n),
			Category:     "VIP",
			DisplayName:  fmt.Sprintf("Seat %d", n),
			Availability: state(n%4 == 0),
		})
	}
	for n := 1; n <= 50; n++ {
		items = append(items, model.InventoryItem{
			ID:           fmt.Sprintf("REG-%d", n),
			Category:     "REG",
			DisplayName:  fmt.Sprintf("Seat %d", n),
			Availability: state(n%5 == 0),
		})
	}
	return items
}

func showTime(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func tourShows() []model.Show {
	return []model.Show{
		{
			ID: 1, StartsAt: showTime(2023, time.June, 12, 20, 0),
			City: "New York, NY", Venue: "Comedy Cellar", Address: "117 MacDougal St, New York, NY 10012",
			Status:      model.ShowSoldOut,
			Description: "A night of laughter with Alex Miller's signature observational comedy.",
			Policies:    "21+ only. Two drink minimum. No recording devices allowed.",
			Duration:    "90 minutes",
		},
		{
			ID: 2, StartsAt: showTime(2023, time.June, 18, 19, 30),
			City: "Boston, MA", Venue: "Wilbur Theatre", Address: "246 Tremont St, Boston, MA 02116",
			Status:      model.ShowAvailable,
			Description: "The Boston leg of the 'Everyday Extraordinary' tour, with a Q&A segment at the end.",
			Policies:    "All ages show. No phones allowed during performance.",
			Duration:    "100 minutes",
		},
		{
			ID: 3, StartsAt: showTime(2023, time.June, 24, 20, 30),
			City: "Chicago, IL", Venue: "The Laugh Factory", Address: "3175 N Broadway, Chicago, IL 60657",
			Status:      model.ShowAvailable,
			Description: "City-specific material and fresh improvisation in an intimate venue.",
			Policies:    "18+ only. Two item minimum purchase required.",
			Duration:    "75 minutes",
		},
		{
			ID: 4, StartsAt: showTime(2023, time.July, 2, 19, 0),
			City: "Austin, TX", Venue: "Cap City Comedy", Address: "8120 Research Blvd #100, Austin, TX 78758",
			Status:      model.ShowFewLeft,
			Description: "A first visit to Austin with Texas-themed material.",
			Policies:    "18+ only. No recording devices. Arrive 30 minutes before showtime.",
			Duration:    "90 minutes",
		},
		{
			ID: 5, StartsAt: showTime(2023, time.July, 8, 21, 0),
			City: "Los Angeles, CA", Venue: "The Comedy Store", Address: "8433 Sunset Blvd, Los Angeles, CA 90069",
			Status:      model.ShowAvailable,
			Description: "A homecoming show with surprise guest appearances.",
			Policies:    "21+ only. Two drink minimum. No heckling policy strictly enforced.",
			Duration:    "120 minutes",
		},
		{
			ID: 6, StartsAt: showTime(2023, time.July, 15, 20, 0),
			City: "Seattle, WA", Venue: "The Paramount Theatre", Address: "911 Pine St, Seattle, WA 98101",
			Status:      model.ShowAvailable,
			Description: "A Pacific Northwest debut with longer-form stories.",
			Policies:    "All ages welcome. Concessions available in lobby.",
			Duration:    "100 minutes",
		},
	}
}
