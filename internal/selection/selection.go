// Package selection tracks which seats and tables a customer intends to
// buy for one show.  A Selection is an insertion-ordered list of entries
// guarded by three rules: an id appears at most once, no category exceeds
// its capacity, and taken items never enter.  Toggle is the only mutation.
//
// A Selection is owned by a single session and is not safe for concurrent
// use; callers serialise access (see package session).
package selection

import (
	"fmt"

	"github.com/iliyamo/comedy-tour-seating/internal/model"
)

// Entry is one chosen seat or table, in click order.
type Entry struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	DisplayName string `json:"name"`
}

// Item describes the inventory item a toggle is aimed at.
type Item struct {
	ID           string
	DisplayName  string
	Availability model.Availability
}

// ItemOf adapts a catalog inventory item.
func ItemOf(it model.InventoryItem) Item {
	return Item{ID: it.ID, DisplayName: it.DisplayName, Availability: it.Availability}
}

// Outcome tells the caller which way a successful toggle went.
type Outcome int

const (
	Added Outcome = iota + 1
	Removed
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Selection is the mutable set of chosen items for one session.
type Selection struct {
	capacity Capacity
	entries  []Entry
}

// New returns an empty selection governed by capacity.
func New(capacity Capacity) *Selection {
	return &Selection{capacity: capacity.Clone()}
}

// Restore rebuilds a selection from previously saved entries, re-checking
// uniqueness and capacity.  Availability is not re-checked here.
func Restore(capacity Capacity, entries []Entry) (*Selection, error) {
	s := New(capacity)
	counts := make(Counts, len(capacity))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, e.ID)
		}
		if counts[e.Category] >= s.capacity.Max(e.Category) {
			return nil, &LimitError{Category: e.Category, Max: s.capacity.Max(e.Category)}
		}
		seen[e.ID] = struct{}{}
		counts[e.Category]++
		s.entries = append(s.entries, e)
	}
	return s, nil
}

// Toggle selects item under category, or deselects it when already chosen.
// On error the selection is left untouched.
func (s *Selection) Toggle(item Item, category string) (Outcome, error) {
	if item.Availability == model.Taken {
		return 0, ErrItemUnavailable
	}
	if i := s.indexOf(item.ID); i >= 0 {
		s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
		return Removed, nil
	}
	limit := s.capacity.Max(category)
	if s.count(category) >= limit {
		return 0, &LimitError{Category: category, Max: limit}
	}
	s.entries = append(s.entries, Entry{ID: item.ID, Category: category, DisplayName: item.DisplayName})
	return Added, nil
}

// IsSelected reports whether id is currently chosen.
func (s *Selection) IsSelected(id string) bool { return s.indexOf(id) >= 0 }

// Len is the number of chosen items.
func (s *Selection) Len() int { return len(s.entries) }

// Entries returns a copy of the chosen entries in click order.
func (s *Selection) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// IDs returns the chosen ids in click order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.ID
	}
	return out
}

// Categories returns the distinct categories in order of first selection.
func (s *Selection) Categories() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, e := range s.entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}

// Capacity returns a copy of the capacity table in force.
func (s *Selection) Capacity() Capacity { return s.capacity.Clone() }

// Counts derives the per-category count from the current entries.
func (s *Selection) Counts() Counts {
	c := make(Counts)
	for _, e := range s.entries {
		c[e.Category]++
	}
	return c
}

// IsComplete reports whether every positive requirement in q is met.
func (s *Selection) IsComplete(q Quota) bool {
	return len(s.Missing(q)) == 0
}

// Missing lists the shortfall for every category whose requirement is
// not yet met.
func (s *Selection) Missing(q Quota) Shortfall {
	counts := s.Counts()
	out := make(Shortfall)
	for cat, need := range q {
		if need <= 0 {
			continue
		}
		if have := counts[cat]; have < need {
			out[cat] = need - have
		}
	}
	return out
}

// CheckComplete returns an *IncompleteError when q is not satisfied.
func (s *Selection) CheckComplete(q Quota) error {
	if missing := s.Missing(q); len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}

func (s *Selection) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Selection) count(category string) int {
	n := 0
	for _, e := range s.entries {
		if e.Category == category {
			n++
		}
	}
	return n
}
