package outcome

import "tendency/pkg/tendency"

// Generator is an engine with its result type erased, so engines of
// different outcome kinds can be driven the same way.
type Generator interface {
	tendency.Extendable
	Mean() float64
	Compute() tendency.Result[any]
	Extend(ext tendency.Extension) error
	Call(name string, args ...any) (tendency.Dispatch, error)
	Operations() []string
}

// Wrap erases the result type of engine.
func Wrap[T any](engine *tendency.Engine[T]) Generator {
	return generator[T]{engine: engine}
}

type generator[T any] struct {
	engine *tendency.Engine[T]
}

func (g generator[T]) ChangeMean(delta float64) tendency.Extendable {
	g.engine.ChangeMean(delta)
	return g
}

func (g generator[T]) Mean() float64 {
	return g.engine.Mean()
}

func (g generator[T]) Compute() tendency.Result[any] {
	r := g.engine.Compute()
	return tendency.Result[any]{Mean: r.Mean, Computed: r.Computed, Value: r.Value}
}

func (g generator[T]) Extend(ext tendency.Extension) error {
	_, err := g.engine.Extend(ext)
	return err
}

func (g generator[T]) Call(name string, args ...any) (tendency.Dispatch, error) {
	return g.engine.Call(name, args...)
}

func (g generator[T]) Operations() []string {
	return g.engine.Operations()
}
