package model

import "time"

// Show represents one date of the tour at a particular venue.  Shows
// are the unit a seating chart belongs to: every inventory item and
// ticket type is scoped to exactly one show.
//
// Fields:
//  ID          – primary key identifier.
//  StartsAt    – local start of the performance.
//  City        – city and state label (e.g. "Boston, MA").
//  Venue       – venue name.
//  Address     – street address of the venue.
//  Status      – sales status (Available, Few Left, Sold Out).
//  Description – marketing blurb for the date.
//  Policies    – venue policies (age limits, drink minimums).
//  Duration    – running time label (e.g. "90 minutes").
type Show struct {
	ID          uint64     `json:"id"`          // shows.id
	StartsAt    time.Time  `json:"starts_at"`   // shows.starts_at
	City        string     `json:"city"`        // shows.city
	Venue       string     `json:"venue"`       // shows.venue
	Address     string     `json:"address"`     // shows.address
	Status      ShowStatus `json:"status"`      // shows.status
	Description string     `json:"description"` // shows.description
	Policies    string     `json:"policies"`    // shows.policies
	Duration    string     `json:"duration"`    // shows.duration
}

// ShowStatus is the sales status advertised for a show.
type ShowStatus string

const (
	ShowAvailable ShowStatus = "Available"
	ShowFewLeft   ShowStatus = "Few Left"
	ShowSoldOut   ShowStatus = "Sold Out"
)
