package safemath

import (
	"errors"
	"math"
	"math/bits"
)

var ErrOverflow = errors.New("number overflow")

type Unsigned interface {
	~uint32 | ~uint64
}

func Add32(a, b uint32) (uint32, bool) {
	v, carry := bits.Add32(a, b, 0)
	return v, carry == 0
}

func Add64(a, b uint64) (uint64, bool) {
	v, carry := bits.Add64(a, b, 0)
	return v, carry == 0
}

func Sub64(a, b uint64) (uint64, bool) {
	v, borrow := bits.Sub64(a, b, 0)
	return v, borrow == 0
}

// Add returns a+b or ErrOverflow when the sum wraps.
func Add[T Unsigned](a, b T) (T, error) {
	s := a + b
	if s < a {
		return 0, ErrOverflow
	}
	return s, nil
}

// Sub returns a-b or ErrOverflow when b > a.
func Sub[T Unsigned](a, b T) (T, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// AddInt64 returns a+b or ErrOverflow when the sum leaves the int64 range.
func AddInt64(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}
