// Package extension keeps track of extension instances and the operations
// they expose, and invokes those operations on behalf of an engine.
//
// A Registry is parameterized by the capability type C that every exposed
// handler receives as its first argument and returns. Handlers are checked
// against C when they are validated, so a malformed handler is rejected
// before it can be called.
package extension

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

var (
	ErrInvalidExposedSignature  = errors.New("first parameter of an exposed operation must be the capability type")
	ErrInvalidExposedReturnType = errors.New("exposed operation must return the capability type")
	ErrInvalidArguments         = errors.New("arguments do not match exposed operation")
	ErrOperationNotFound        = errors.New("operation not exposed")
)

// Registry is not safe for concurrent use; it belongs to a single engine.
type Registry[C any] struct {
	capability reflect.Type
	instances  map[reflect.Type]any
	exposed    map[string]reflect.Type
	handlers   map[reflect.Type]map[string]reflect.Value
}

func New[C any]() *Registry[C] {
	return &Registry[C]{
		capability: reflect.TypeFor[C](),
		instances:  make(map[reflect.Type]any),
		exposed:    make(map[string]reflect.Type),
		handlers:   make(map[reflect.Type]map[string]reflect.Value),
	}
}

// Register stores instance under its concrete type. A later instance of the
// same type replaces the earlier one along with its handlers.
func (r *Registry[C]) Register(instance any) {
	key := reflect.TypeOf(instance)
	r.instances[key] = instance
	delete(r.handlers, key)
}

// Expose maps name to the type of instance and records its handler. The
// registry does not check that instance was registered first.
func (r *Registry[C]) Expose(instance any, name string, handler any) {
	key := reflect.TypeOf(instance)
	r.exposed[name] = key
	if _, ok := r.handlers[key]; !ok {
		r.handlers[key] = make(map[string]reflect.Value)
	}
	r.handlers[key][name] = reflect.ValueOf(handler)
}

// Validate checks handler against the capability contract.
func (r *Registry[C]) Validate(handler any) error {
	fn := reflect.ValueOf(handler)
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Errorf("%w: handler is %T, not a function", ErrInvalidExposedSignature, handler)
	}
	t := fn.Type()
	if t.NumIn() == 0 || t.In(0) != r.capability {
		return fmt.Errorf("%w: got %s", ErrInvalidExposedSignature, t)
	}
	if t.NumOut() != 1 || t.Out(0) != r.capability {
		return fmt.Errorf("%w: got %s", ErrInvalidExposedReturnType, t)
	}
	return nil
}

// Has reports whether name is exposed and still backed by a handler.
func (r *Registry[C]) Has(name string) bool {
	_, ok := r.handler(name)
	return ok
}

// Instance returns the registered instance that currently answers name.
func (r *Registry[C]) Instance(name string) (any, bool) {
	key, ok := r.exposed[name]
	if !ok {
		return nil, false
	}
	instance, ok := r.instances[key]
	return instance, ok
}

// Names returns the exposed operation names in sorted order.
func (r *Registry[C]) Names() []string {
	names := make([]string, 0, len(r.exposed))
	for name := range r.exposed {
		if r.Has(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Call invokes the handler exposed as name with ref prepended to args and
// returns the handler's raw result.
func (r *Registry[C]) Call(ref C, name string, args []any) (any, error) {
	fn, ok := r.handler(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, name)
	}
	in, err := bindArgs(fn.Type(), reflect.ValueOf(&ref).Elem(), args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := fn.Call(in)
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

func (r *Registry[C]) handler(name string) (reflect.Value, bool) {
	key, ok := r.exposed[name]
	if !ok {
		return reflect.Value{}, false
	}
	fn, ok := r.handlers[key][name]
	return fn, ok
}
