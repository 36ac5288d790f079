// Package money holds the integer currency types used for prices and fees.
// Amounts are whole cents; rates are basis points. Nothing in this package
// touches floating point, so the same inputs always produce the same cent.
package money

import (
	"fmt"
	"strconv"
)

// Cents is an amount of money in minor units (1/100 of a dollar).
type Cents int64

// Dollars converts a whole-dollar amount into Cents.
func Dollars(d int64) Cents { return Cents(d * 100) }

// String renders the amount as "$315.00" (or "-$1.50" for negatives).
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// Rate is a proportional rate in basis points: 1500 means 15%.
type Rate int64

// BasisPoints is the denominator of a Rate.
const BasisPoints = 10000

// ParseRate parses a basis-point string such as "1500".
func ParseRate(s string) (Rate, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rate %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("parse rate %q: negative", s)
	}
	return Rate(n), nil
}

// String renders the rate as a percentage, e.g. "15.00%".
func (r Rate) String() string {
	return fmt.Sprintf("%d.%02d%%", int64(r)/100, int64(r)%100)
}

// Apply returns amount*rate rounded half-up at the cent. The rounding is done
// exactly once on the whole product.
func (r Rate) Apply(amount Cents) Cents {
	return RoundHalfUp(int64(amount)*int64(r), BasisPoints)
}

// RoundHalfUp divides num by den (den > 0) and rounds halves away from zero.
func RoundHalfUp(num, den int64) Cents {
	if num < 0 {
		return -RoundHalfUp(-num, den)
	}
	return Cents((num + den/2) / den)
}
