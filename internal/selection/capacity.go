package selection

// Capacity is the per-category ceiling on concurrently selected items.
// Table categories carry 1; individually sold seats carry a fixed
// ceiling.  A category missing from the table allows nothing.
type Capacity map[string]int

// DefaultCapacity mirrors the box-office rules: one table of each size,
// up to ten individual seats per seat category.
var DefaultCapacity = Capacity{
	"T5":  1,
	"T10": 1,
	"VIP": 10,
	"REG": 10,
}

// Max returns the ceiling for category, 0 when unknown.
func (c Capacity) Max(category string) int {
	if n, ok := c[category]; ok && n > 0 {
		return n
	}
	return 0
}

// Clone returns an independent copy.
func (c Capacity) Clone() Capacity {
	out := make(Capacity, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
