package selection

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrItemUnavailable is returned when toggling on an item the catalog
	// marks as taken.
	ErrItemUnavailable = errors.New("item unavailable")
	// ErrSelectionLimit is matched by every *LimitError.
	ErrSelectionLimit = errors.New("selection limit reached")
	// ErrIncompleteSelection is matched by every *IncompleteError.
	ErrIncompleteSelection = errors.New("incomplete selection")
	// ErrDuplicateItem is returned by Restore when an id appears twice.
	ErrDuplicateItem = errors.New("duplicate item")
	// ErrNegativeQuota is returned by Quota.Validate.
	ErrNegativeQuota = errors.New("negative quota")
)

// LimitError reports a toggle-on rejected by the capacity table.
type LimitError struct {
	Category string
	Max      int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("selection limit reached: %s allows at most %d", e.Category, e.Max)
}

func (e *LimitError) Is(target error) bool { return target == ErrSelectionLimit }

// IncompleteError carries the per-category shortfall that blocks checkout.
type IncompleteError struct {
	Missing Shortfall
}

func (e *IncompleteError) Error() string {
	cats := make([]string, 0, len(e.Missing))
	for c := range e.Missing {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s=%d", c, e.Missing[c]))
	}
	return "incomplete selection: missing " + strings.Join(parts, ", ")
}

func (e *IncompleteError) Is(target error) bool { return target == ErrIncompleteSelection }
