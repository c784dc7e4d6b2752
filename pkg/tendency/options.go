package tendency

import (
	"log/slog"

	"tendency/internal/sampler"
)

// Source yields uniform draws in (0,1].
type Source = sampler.Source

// NewSource returns a deterministic source; equal seeds replay equal draws.
func NewSource(seed uint64) Source {
	return sampler.NewSource(seed)
}

// FixedSource cycles through values. Useful for replaying known draws.
func FixedSource(values ...float64) Source {
	return sampler.Fixed(values...)
}

type settings struct {
	mean      float64
	deviation func() float64
	source    Source
	logger    *slog.Logger
}

type Option func(*settings)

// WithDeviation fixes the standard deviation. It is clamped to [0,1] when
// sampling.
func WithDeviation(deviation float64) Option {
	return func(s *settings) {
		s.deviation = func() float64 { return deviation }
	}
}

// WithDeviationFunc lets the deviation be derived on every Compute.
func WithDeviationFunc(fn func() float64) Option {
	return func(s *settings) {
		if fn != nil {
			s.deviation = fn
		}
	}
}

func WithMean(mean float64) Option {
	return func(s *settings) {
		s.mean = mean
	}
}

func WithSource(src Source) Option {
	return func(s *settings) {
		if src != nil {
			s.source = src
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}
