package extension

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type capability interface {
	Add(delta float64) capability
}

type tally struct {
	total float64
}

func (t *tally) Add(delta float64) capability {
	t.total += delta
	return t
}

type doubler struct {
	factor float64
}

func (d doubler) Bump(c capability, delta float64) capability {
	return c.Add(delta * d.factor)
}

func (d doubler) Many(c capability, deltas ...int) capability {
	for _, delta := range deltas {
		c.Add(float64(delta))
	}
	return c
}

type other struct{}

func (other) Bump(c capability, delta float64) capability {
	return c.Add(-delta)
}

func TestValidate(t *testing.T) {
	r := New[capability]()

	if err := r.Validate(doubler{}.Bump); err != nil {
		t.Fatalf("valid handler rejected: %v", err)
	}
	if err := r.Validate(func(delta float64) capability { return nil }); !errors.Is(err, ErrInvalidExposedSignature) {
		t.Fatalf("expected ErrInvalidExposedSignature, got: %v", err)
	}
	if err := r.Validate(func() capability { return nil }); !errors.Is(err, ErrInvalidExposedSignature) {
		t.Fatalf("expected ErrInvalidExposedSignature for no params, got: %v", err)
	}
	if err := r.Validate("not a func"); !errors.Is(err, ErrInvalidExposedSignature) {
		t.Fatalf("expected ErrInvalidExposedSignature for non-func, got: %v", err)
	}
	if err := r.Validate(func(c capability, delta float64) float64 { return 0 }); !errors.Is(err, ErrInvalidExposedReturnType) {
		t.Fatalf("expected ErrInvalidExposedReturnType, got: %v", err)
	}
	if err := r.Validate(func(c capability) {}); !errors.Is(err, ErrInvalidExposedReturnType) {
		t.Fatalf("expected ErrInvalidExposedReturnType for no result, got: %v", err)
	}
	if err := r.Validate(func(c capability) (capability, error) { return c, nil }); !errors.Is(err, ErrInvalidExposedReturnType) {
		t.Fatalf("expected ErrInvalidExposedReturnType for two results, got: %v", err)
	}
}

func TestCallPrependsCapability(t *testing.T) {
	r := New[capability]()
	ext := doubler{factor: 2}
	r.Register(ext)
	r.Expose(ext, "bump", ext.Bump)

	target := &tally{}
	got, err := r.Call(target, "bump", []any{0.25})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if target.total != 0.5 {
		t.Fatalf("expected total=0.5, got=%v", target.total)
	}
	if got != capability(target) {
		t.Fatalf("expected raw result to be the capability, got=%v", got)
	}
}

func TestCallCoercesNumericArguments(t *testing.T) {
	r := New[capability]()
	ext := doubler{factor: 1}
	r.Register(ext)
	r.Expose(ext, "bump", ext.Bump)
	r.Expose(ext, "many", ext.Many)

	target := &tally{}
	if _, err := r.Call(target, "bump", []any{1}); err != nil {
		t.Fatalf("int into float64: %v", err)
	}
	if _, err := r.Call(target, "many", []any{1, 2.0, int64(3)}); err != nil {
		t.Fatalf("variadic: %v", err)
	}
	if _, err := r.Call(target, "many", nil); err != nil {
		t.Fatalf("empty variadic: %v", err)
	}
	if target.total != 7 {
		t.Fatalf("expected total=7, got=%v", target.total)
	}
}

func TestCallArgumentErrors(t *testing.T) {
	r := New[capability]()
	ext := doubler{factor: 1}
	r.Register(ext)
	r.Expose(ext, "bump", ext.Bump)

	target := &tally{}
	if _, err := r.Call(target, "bump", nil); !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected arity error, got: %v", err)
	}
	if _, err := r.Call(target, "bump", []any{"x"}); !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected type error, got: %v", err)
	}
	if _, err := r.Call(target, "bump", []any{nil}); !errors.Is(err, ErrInvalidArguments) {
		t.Fatalf("expected nil error, got: %v", err)
	}
	if _, err := r.Call(target, "missing", nil); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got: %v", err)
	}
	if target.total != 0 {
		t.Fatalf("failed calls must not run the handler, total=%v", target.total)
	}
}

func TestRegisterReplacesInstanceOfSameType(t *testing.T) {
	r := New[capability]()
	first := doubler{factor: 1}
	second := doubler{factor: 10}

	r.Register(first)
	r.Expose(first, "bump", first.Bump)
	r.Register(second)
	if r.Has("bump") {
		t.Fatal("re-registering a type must drop handlers bound to the old instance")
	}
	r.Expose(second, "bump", second.Bump)

	instance, ok := r.Instance("bump")
	if !ok || instance.(doubler).factor != 10 {
		t.Fatalf("expected latest instance, got=%v ok=%v", instance, ok)
	}

	target := &tally{}
	if _, err := r.Call(target, "bump", []any{1.0}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if target.total != 10 {
		t.Fatalf("expected latest instance to answer, total=%v", target.total)
	}
}

func TestExposeOverwritesName(t *testing.T) {
	r := New[capability]()
	a := doubler{factor: 1}
	b := other{}
	r.Register(a)
	r.Expose(a, "bump", a.Bump)
	r.Register(b)
	r.Expose(b, "bump", b.Bump)

	target := &tally{}
	if _, err := r.Call(target, "bump", []any{1.0}); err != nil {
		t.Fatalf("call: %v", err)
	}
	if target.total != -1 {
		t.Fatalf("expected overwriting instance to answer, total=%v", target.total)
	}
}

func TestNamesSorted(t *testing.T) {
	r := New[capability]()
	ext := doubler{factor: 1}
	r.Register(ext)
	r.Expose(ext, "zeta", ext.Bump)
	r.Expose(ext, "alpha", ext.Many)

	if diff := cmp.Diff([]string{"alpha", "zeta"}, r.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if !r.Has("alpha") || r.Has("beta") {
		t.Fatal("unexpected Has result")
	}
}
