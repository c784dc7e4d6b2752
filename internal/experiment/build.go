package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tendency/internal/extensions"
	"tendency/internal/model"
	"tendency/internal/outcome"
	"tendency/pkg/tendency"
)

// ErrUnknownOperation is returned when a plan names an operation that no
// built-in or attached extension handles. Engines themselves ignore unknown
// names; a plan treats them as a typo.
var ErrUnknownOperation = errors.New("unknown operation")

// Build turns a plan into a generator: it resolves the outcome kind,
// attaches the default extensions, applies the mean shift and then runs the
// plan's operations in order.
func Build(plan model.Plan, logger *slog.Logger) (outcome.Generator, error) {
	params := outcome.Params{
		Min:       plan.Min,
		Max:       plan.Max,
		Deviation: plan.Deviation,
		Items:     plan.Items,
		Logger:    logger,
	}
	if plan.Seed != 0 {
		params.Source = tendency.NewSource(plan.Seed)
	}

	gen, err := outcome.Build(plan.Kind, params)
	if err != nil {
		return nil, err
	}
	for _, ext := range extensions.Default() {
		if err := gen.Extend(ext); err != nil {
			return nil, err
		}
	}
	if plan.MeanShift != 0 {
		gen.ChangeMean(plan.MeanShift)
	}

	for i, op := range plan.Operations {
		args := make([]any, len(op.Args))
		for j, arg := range op.Args {
			args[j] = arg
		}
		dispatch, err := gen.Call(op.Name, args...)
		if err != nil {
			return nil, fmt.Errorf("operation %d %q: %w", i, op.Name, err)
		}
		if !dispatch.Handled {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownOperation, op.Name, gen.Operations())
		}
	}
	return gen, nil
}

// Sample computes n results from gen, stopping early if ctx is cancelled.
func Sample(ctx context.Context, gen outcome.Generator, n int) ([]tendency.Result[any], error) {
	if n < 0 {
		return nil, fmt.Errorf("sample count must be >= 0, got %d", n)
	}
	results := make([]tendency.Result[any], 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, gen.Compute())
	}
	return results, nil
}
