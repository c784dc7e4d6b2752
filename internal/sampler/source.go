package sampler

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Source yields uniform draws in (0,1]. Zero is never returned.
type Source interface {
	Uniform() float64
}

type globalSource struct{}

// Default returns the process-wide source. It is safe for concurrent use
// and seeded by the runtime.
func Default() Source {
	return globalSource{}
}

func (globalSource) Uniform() float64 {
	return 1 - rand.Float64()
}

// PCGSource is a deterministic source backed by a PCG generator.
type PCGSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a PCG-backed source. Equal seeds replay equal draws.
func NewSource(seed uint64) *PCGSource {
	return &PCGSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *PCGSource) Uniform() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 1 - s.r.Float64()
}

// FixedSource cycles through a fixed list of draws. Values outside (0,1]
// are pulled back into range so the sampler never sees a zero.
type FixedSource struct {
	values []float64
	next   int
}

// Fixed builds a FixedSource. With no values every draw is 1.
func Fixed(values ...float64) *FixedSource {
	return &FixedSource{values: append([]float64(nil), values...)}
}

func (f *FixedSource) Uniform() float64 {
	if len(f.values) == 0 {
		return 1
	}
	v := f.values[f.next%len(f.values)]
	f.next++
	switch {
	case math.IsNaN(v), v <= 0:
		return math.SmallestNonzeroFloat64
	case v > 1:
		return 1
	}
	return v
}
