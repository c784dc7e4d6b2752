// Package outcome maps outcome kind names to engine factories.
package outcome

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"tendency/pkg/tendency"
)

var (
	ErrKindExists    = errors.New("outcome kind already registered")
	ErrKindNotFound  = errors.New("outcome kind not found")
	ErrInvalidParams = errors.New("invalid outcome parameters")
)

// Params configures a generator built by a Factory.
type Params struct {
	Min       float64
	Max       float64
	Deviation float64
	Items     []string
	Source    tendency.Source
	Logger    *slog.Logger
}

func (p Params) options() []tendency.Option {
	return []tendency.Option{tendency.WithSource(p.Source), tendency.WithLogger(p.Logger)}
}

type Factory func(p Params) (Generator, error)

type Kind struct {
	Name        string
	Description string
	Factory     Factory
}

var kindRegistry = struct {
	mu sync.RWMutex
	m  map[string]Kind
}{
	m: make(map[string]Kind),
}

func init() {
	initializeBuiltInKinds()
}

func initializeBuiltInKinds() {
	MustRegister(Kind{
		Name:        "bool",
		Description: "true when the computed value is above 0.5",
		Factory: func(p Params) (Generator, error) {
			return Wrap(tendency.NewBool(p.Deviation, p.options()...)), nil
		},
	})
	MustRegister(Kind{
		Name:        "float",
		Description: "min + (max-min) * computed",
		Factory: func(p Params) (Generator, error) {
			return Wrap(tendency.NewFloat(p.Min, p.Max, p.Deviation, p.options()...)), nil
		},
	})
	MustRegister(Kind{
		Name:        "int",
		Description: "min + round((max-min) * computed)",
		Factory: func(p Params) (Generator, error) {
			if p.Min != math.Trunc(p.Min) || p.Max != math.Trunc(p.Max) {
				return nil, fmt.Errorf("%w: int bounds must be whole numbers, got [%v,%v]", ErrInvalidParams, p.Min, p.Max)
			}
			return Wrap(tendency.NewInt(int(p.Min), int(p.Max), p.Deviation, p.options()...)), nil
		},
	})
	MustRegister(Kind{
		Name:        "choice",
		Description: "item of a list, first to last as computed goes from 0 to 1",
		Factory: func(p Params) (Generator, error) {
			if len(p.Items) == 0 {
				return nil, fmt.Errorf("%w: choice requires at least one item", ErrInvalidParams)
			}
			return Wrap(tendency.NewChoice(p.Items, p.Deviation, p.options()...)), nil
		},
	})
}

func Register(kind Kind) error {
	if kind.Name == "" {
		return errors.New("outcome kind name is required")
	}
	if kind.Factory == nil {
		return errors.New("outcome kind factory is required")
	}

	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()

	if _, exists := kindRegistry.m[kind.Name]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, kind.Name)
	}
	kindRegistry.m[kind.Name] = kind
	return nil
}

func MustRegister(kind Kind) {
	if err := Register(kind); err != nil {
		panic(err)
	}
}

func Resolve(name string) (Kind, error) {
	kindRegistry.mu.RLock()
	kind, ok := kindRegistry.m[name]
	if !ok {
		kind, ok = kindRegistry.m[NormalizeKind(name)]
	}
	kindRegistry.mu.RUnlock()
	if !ok {
		return Kind{}, fmt.Errorf("%w: %s", ErrKindNotFound, name)
	}
	return kind, nil
}

// Build resolves name and runs its factory.
func Build(name string, p Params) (Generator, error) {
	kind, err := Resolve(name)
	if err != nil {
		return nil, err
	}
	return kind.Factory(p)
}

func List() []Kind {
	kindRegistry.mu.RLock()
	defer kindRegistry.mu.RUnlock()

	kinds := make([]Kind, 0, len(kindRegistry.m))
	for _, kind := range kindRegistry.m {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })
	return kinds
}

func resetKindRegistryForTests() {
	kindRegistry.mu.Lock()
	kindRegistry.m = make(map[string]Kind)
	kindRegistry.mu.Unlock()
	initializeBuiltInKinds()
}
