package tendency

import (
	"fmt"
	"reflect"

	"tendency/internal/extension"
)

var builtins = map[string]struct{}{
	"changeMean": {}, "ChangeMean": {},
	"compute": {}, "Compute": {},
	"mean": {}, "Mean": {},
	"extend": {}, "Extend": {},
}

func isBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Call resolves name against the built-in operations first and then against
// exposed extension operations. An exposed operation runs with the engine
// as its capability and the engine is returned for chaining; the handler's
// own return value is discarded.
//
// An unknown name is not an error: Call returns a Dispatch with Handled
// false. Arguments that do not fit the target operation return
// ErrInvalidArguments.
func (e *Engine[T]) Call(name string, args ...any) (Dispatch, error) {
	switch name {
	case "changeMean", "ChangeMean":
		delta, err := floatArg(name, args)
		if err != nil {
			return Dispatch{}, err
		}
		return Dispatch{Handled: true, Engine: e.ChangeMean(delta)}, nil
	case "compute", "Compute":
		if len(args) != 0 {
			return Dispatch{}, fmt.Errorf("%s: %w: want 0 arguments, got %d", name, ErrInvalidArguments, len(args))
		}
		return Dispatch{Handled: true, Engine: e, Value: e.Compute()}, nil
	case "mean", "Mean":
		if len(args) != 0 {
			return Dispatch{}, fmt.Errorf("%s: %w: want 0 arguments, got %d", name, ErrInvalidArguments, len(args))
		}
		return Dispatch{Handled: true, Engine: e, Value: e.mean}, nil
	case "extend", "Extend":
		if len(args) != 1 {
			return Dispatch{}, fmt.Errorf("%s: %w: want 1 argument, got %d", name, ErrInvalidArguments, len(args))
		}
		ext, ok := args[0].(Extension)
		if !ok {
			return Dispatch{}, fmt.Errorf("%s: %w: %T is not an Extension", name, ErrInvalidArguments, args[0])
		}
		if _, err := e.Extend(ext); err != nil {
			return Dispatch{}, err
		}
		return Dispatch{Handled: true, Engine: e}, nil
	}

	if e.registry == nil || !e.registry.Has(name) {
		return Dispatch{}, nil
	}
	if _, err := e.registry.Call(e, name, args); err != nil {
		return Dispatch{}, err
	}
	return Dispatch{Handled: true, Engine: e}, nil
}

func floatArg(name string, args []any) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: %w: want 1 argument, got %d", name, ErrInvalidArguments, len(args))
	}
	v, err := extension.Coerce(args[0], reflect.TypeFor[float64]())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v.Float(), nil
}
