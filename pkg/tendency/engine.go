// Package tendency generates biased random values. An Engine samples a
// normal distribution around a movable mean, clamps the sample to [0,1] and
// interprets it as a domain value: a bool, a number in a range, an item of a
// list, or anything an Interpreter can produce.
package tendency

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"tendency/internal/extension"
	"tendency/internal/sampler"
)

const (
	DefaultMean      = 0.5
	DefaultDeviation = 0.5
)

var (
	ErrInvalidExposedSignature  = extension.ErrInvalidExposedSignature
	ErrInvalidExposedReturnType = extension.ErrInvalidExposedReturnType
	ErrInvalidArguments         = extension.ErrInvalidArguments
	ErrNilExtension             = errors.New("extension is nil")
)

// Interpreter maps a computed value in [0,1] to a result.
type Interpreter[T any] func(computed float64) T

// Result is produced once per Compute and is never modified afterwards.
type Result[T any] struct {
	Mean     float64
	Computed float64
	Value    T
}

// Engine owns the mean and the deviation policy for one outcome type. It is
// not safe for concurrent use.
type Engine[T any] struct {
	mean      float64
	deviation func() float64
	interpret Interpreter[T]
	source    Source
	logger    *slog.Logger
	registry  *extension.Registry[Extendable]
}

func New[T any](interpret Interpreter[T], opts ...Option) *Engine[T] {
	s := settings{
		mean:      DefaultMean,
		deviation: func() float64 { return DefaultDeviation },
		source:    sampler.Default(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Engine[T]{
		mean:      s.mean,
		deviation: s.deviation,
		interpret: interpret,
		source:    s.source,
		logger:    s.logger,
	}
}

// ChangeMean moves the mean by delta. The mean is not bounded; values far
// outside [0,1] push nearly every sample to a bound.
func (e *Engine[T]) ChangeMean(delta float64) Extendable {
	return e.Shift(delta)
}

// Shift is ChangeMean returning the concrete engine for chaining.
func (e *Engine[T]) Shift(delta float64) *Engine[T] {
	e.mean += delta
	return e
}

func (e *Engine[T]) Mean() float64 {
	return e.mean
}

// Deviation returns the policy value before clamping.
func (e *Engine[T]) Deviation() float64 {
	return e.deviation()
}

// Compute draws fresh entropy, samples around the current mean and
// interprets the sample.
func (e *Engine[T]) Compute() Result[T] {
	deviation := sampler.Clamp(e.deviation())
	computed := sampler.Draw(e.source, e.mean, deviation)
	return Result[T]{
		Mean:     e.mean,
		Computed: computed,
		Value:    e.interpret(computed),
	}
}

// Extend registers ext and every operation in its registration table. All
// handlers are validated first, so a rejected extension leaves nothing
// behind.
func (e *Engine[T]) Extend(ext Extension) (*Engine[T], error) {
	if ext == nil {
		return e, ErrNilExtension
	}
	if e.registry == nil {
		e.registry = extension.New[Extendable]()
	}

	table := ext.Exposed()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.registry.Validate(table[name]); err != nil {
			return e, fmt.Errorf("extend %T: operation %q: %w", ext, name, err)
		}
	}

	e.registry.Register(ext)
	for _, name := range names {
		if isBuiltin(name) {
			e.logger.Warn("exposed operation shadows a built-in and will not be reachable", "extension", fmt.Sprintf("%T", ext), "operation", name)
		}
		e.registry.Expose(ext, name, table[name])
	}
	e.logger.Debug("extension registered", "extension", fmt.Sprintf("%T", ext), "operations", names)
	return e, nil
}

// MustExtend is Extend that panics on error.
func (e *Engine[T]) MustExtend(ext Extension) *Engine[T] {
	if _, err := e.Extend(ext); err != nil {
		panic(err)
	}
	return e
}

// Has reports whether name resolves to a built-in or an exposed operation.
func (e *Engine[T]) Has(name string) bool {
	if isBuiltin(name) {
		return true
	}
	return e.registry != nil && e.registry.Has(name)
}

// Operations lists exposed extension operations in sorted order.
func (e *Engine[T]) Operations() []string {
	if e.registry == nil {
		return nil
	}
	return e.registry.Names()
}
