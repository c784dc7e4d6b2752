package tendency

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating point type a range outcome can produce.
type Number interface {
	constraints.Integer | constraints.Float
}

// NewBool returns true when the computed value is above 0.5.
func NewBool(deviation float64, opts ...Option) *Engine[bool] {
	return New(func(computed float64) bool {
		return computed > 0.5
	}, withDeviationFirst(deviation, opts)...)
}

// NewFloat selects min + (max-min)*computed.
func NewFloat(min, max, deviation float64, opts ...Option) *Engine[float64] {
	return NewNumber(min, max, deviation, opts...)
}

// NewInt selects min plus the rounded share of the range.
func NewInt(min, max int, deviation float64, opts ...Option) *Engine[int] {
	return NewNumber(min, max, deviation, opts...)
}

// NewNumber uses the computed value as a share of the range between min and
// max. Integer types round the offset from min; unsigned types require
// min <= max.
func NewNumber[N Number](min, max N, deviation float64, opts ...Option) *Engine[N] {
	integral := isIntegral[N]()
	span := float64(max) - float64(min)
	return New(func(computed float64) N {
		offset := span * computed
		if integral {
			offset = math.Round(offset)
		}
		return min + N(offset)
	}, withDeviationFirst(deviation, opts)...)
}

// NewChoice picks an item of items, the computed value selecting a position
// from first to last. An empty list yields the zero value.
func NewChoice[T any](items []T, deviation float64, opts ...Option) *Engine[T] {
	items = append([]T(nil), items...)
	return New(func(computed float64) T {
		var zero T
		if len(items) == 0 {
			return zero
		}
		return items[int(math.Round(float64(len(items)-1)*computed))]
	}, withDeviationFirst(deviation, opts)...)
}

func isIntegral[N Number]() bool {
	half := 0.5
	return N(half) == 0
}

func withDeviationFirst(deviation float64, opts []Option) []Option {
	return append([]Option{WithDeviation(deviation)}, opts...)
}
