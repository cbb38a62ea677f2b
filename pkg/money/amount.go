package money

import (
	"errors"
	"math"
)

var (
	ErrOverflow = errors.New("money: amount overflow")
	ErrNegative = errors.New("money: negative operand")
)

// Amount is a quantity in the smallest indivisible unit. Integer only.
type Amount int64

func (a Amount) Positive() bool { return a > 0 }

func (a Amount) Int64() int64 { return int64(a) }

// Add returns a+b, refusing to wrap around.
func Add(a, b Amount) (Amount, error) {
	if a < 0 || b < 0 {
		return 0, ErrNegative
	}
	if int64(a) > math.MaxInt64-int64(b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// PercentCeil returns ceil(a * pct / 100).
func PercentCeil(a Amount, pct int64) (Amount, error) {
	if a < 0 || pct < 0 {
		return 0, ErrNegative
	}
	if pct != 0 && int64(a) > math.MaxInt64/pct {
		return 0, ErrOverflow
	}
	p := int64(a) * pct
	q := p / 100
	if p%100 != 0 {
		q++
	}
	return Amount(q), nil
}

// Sum adds every amount, failing on overflow.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		var err error
		if total, err = Add(total, a); err != nil {
			return 0, err
		}
	}
	return total, nil
}
