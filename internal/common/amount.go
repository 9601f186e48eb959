package common

import (
	"strconv"

	"github.com/eigerco/relief/internal/safemath"
)

// Amount is an opaque quantity of minor currency units.
type Amount uint64

// Add returns a+b, failing with ErrInvalidAmount on overflow.
func (a Amount) Add(b Amount) (Amount, error) {
	s, err := safemath.Add(a, b)
	if err != nil {
		return 0, Wrap(ErrInvalidAmount, "amount overflow", err)
	}
	return s, nil
}

func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}
