package extension

import (
	"fmt"
	"reflect"
)

func bindArgs(t reflect.Type, ref reflect.Value, args []any) ([]reflect.Value, error) {
	fixed := t.NumIn() - 1
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: want at least %d arguments, got %d", ErrInvalidArguments, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrInvalidArguments, fixed, len(args))
	}

	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, ref)
	for i, arg := range args {
		var param reflect.Type
		if i < fixed {
			param = t.In(i + 1)
		} else {
			param = t.In(t.NumIn() - 1).Elem()
		}
		v, err := Coerce(arg, param)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, v)
	}
	return in, nil
}

// Coerce converts arg to a value of type param. Assignable values pass
// through; numbers convert between numeric kinds; nil becomes the zero value
// of nillable types.
func Coerce(arg any, param reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch param.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(param), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrInvalidArguments, param)
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(param) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(param.Kind()) {
		return v.Convert(param), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s for %s", ErrInvalidArguments, v.Type(), param)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
