package selection

import "fmt"

// Quota is the required number of selections per category, fixed by the
// ticket-quantity step that precedes seat picking.
type Quota map[string]int

// Validate rejects negative requirements.
func (q Quota) Validate() error {
	for cat, n := range q {
		if n < 0 {
			return fmt.Errorf("%w: %s=%d", ErrNegativeQuota, cat, n)
		}
	}
	return nil
}

// Counts maps category to the number of currently selected entries.
type Counts map[string]int

// Shortfall maps category to how many more selections it still needs.
// Only unmet categories appear.
type Shortfall map[string]int

// Total is the sum of all shortfalls.
func (s Shortfall) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}
