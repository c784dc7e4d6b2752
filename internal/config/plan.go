package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"tendency/internal/model"
)

const (
	DefaultKind      = "bool"
	DefaultDeviation = 0.5
	DefaultSamples   = 1000
)

var (
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrUnsupportedFormat = errors.New("unsupported plan format")
)

// DefaultPlan is the plan used when no file or flag says otherwise.
func DefaultPlan() model.Plan {
	return model.Plan{
		Kind:      DefaultKind,
		Min:       0,
		Max:       1,
		Deviation: DefaultDeviation,
		Samples:   DefaultSamples,
	}
}

// LoadPlan reads a plan file, choosing the decoder by extension. Fields the
// file leaves out keep their DefaultPlan values.
func LoadPlan(path string) (model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Plan{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSONPlan(data)
	case ".hcl":
		return ParseHCLPlan(path, data)
	default:
		return model.Plan{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ParseJSONPlan decodes a JSON plan. A field that is present but has the
// wrong type fails with ErrInvalidPlan naming the field.
func ParseJSONPlan(data []byte) (model.Plan, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return model.Plan{}, err
	}

	plan := DefaultPlan()
	fields := []error{
		decodeField(raw, "kind", &plan.Kind, asString, "a string"),
		decodeField(raw, "min", &plan.Min, asFloat64, "a number"),
		decodeField(raw, "max", &plan.Max, asFloat64, "a number"),
		decodeField(raw, "deviation", &plan.Deviation, asFloat64, "a number"),
		decodeField(raw, "mean_shift", &plan.MeanShift, asFloat64, "a number"),
		decodeField(raw, "samples", &plan.Samples, asInt, "an integer"),
		decodeField(raw, "seed", &plan.Seed, asUint64, "a non-negative integer"),
	}
	for _, err := range fields {
		if err != nil {
			return model.Plan{}, err
		}
	}

	if v, present := raw["items"]; present && v != nil {
		rawItems, ok := v.([]any)
		if !ok {
			return model.Plan{}, fmt.Errorf("%w: items must be a list of strings", ErrInvalidPlan)
		}
		items := make([]string, 0, len(rawItems))
		for i, item := range rawItems {
			s, ok := asString(item)
			if !ok {
				return model.Plan{}, fmt.Errorf("%w: items[%d] must be a string", ErrInvalidPlan, i)
			}
			items = append(items, s)
		}
		plan.Items = items
	}
	if v, present := raw["operations"]; present && v != nil {
		rawOps, ok := v.([]any)
		if !ok {
			return model.Plan{}, fmt.Errorf("%w: operations must be a list", ErrInvalidPlan)
		}
		ops, err := parseJSONOperations(rawOps)
		if err != nil {
			return model.Plan{}, err
		}
		plan.Operations = ops
	}

	if err := ValidatePlan(plan); err != nil {
		return model.Plan{}, err
	}
	return plan, nil
}

// decodeField stores raw[key] in dst when present. JSON null counts as
// absent.
func decodeField[T any](raw map[string]any, key string, dst *T, conv func(any) (T, bool), want string) error {
	v, present := raw[key]
	if !present || v == nil {
		return nil
	}
	x, ok := conv(v)
	if !ok {
		return fmt.Errorf("%w: %s must be %s, got %v", ErrInvalidPlan, key, want, v)
	}
	*dst = x
	return nil
}

func parseJSONOperations(rawOps []any) ([]model.Operation, error) {
	ops := make([]model.Operation, 0, len(rawOps))
	for i, rawOp := range rawOps {
		entry, ok := rawOp.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: operations[%d] must be an object", ErrInvalidPlan, i)
		}
		name, ok := asString(entry["name"])
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: operations[%d] requires a name", ErrInvalidPlan, i)
		}
		op := model.Operation{Name: name}
		if v, present := entry["args"]; present && v != nil {
			rawArgs, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: operations[%d].args must be a list", ErrInvalidPlan, i)
			}
			for j, rawArg := range rawArgs {
				arg, ok := asFloat64(rawArg)
				if !ok {
					return nil, fmt.Errorf("%w: operations[%d].args[%d] must be a number", ErrInvalidPlan, i, j)
				}
				op.Args = append(op.Args, arg)
			}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

type hclPlanFile struct {
	Kind       *string         `hcl:"kind,optional"`
	Min        *float64        `hcl:"min,optional"`
	Max        *float64        `hcl:"max,optional"`
	Deviation  *float64        `hcl:"deviation,optional"`
	MeanShift  *float64        `hcl:"mean_shift,optional"`
	Items      []string        `hcl:"items,optional"`
	Samples    *int            `hcl:"samples,optional"`
	Seed       *uint64         `hcl:"seed,optional"`
	Operations []*hclOperation `hcl:"operation,block"`
}

type hclOperation struct {
	Name string    `hcl:"name,label"`
	Args []float64 `hcl:"args,optional"`
}

// ParseHCLPlan decodes a plan written as HCL attributes with one
// `operation "name" { args = [...] }` block per operation.
func ParseHCLPlan(filename string, data []byte) (model.Plan, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return model.Plan{}, fmt.Errorf("failed to parse HCL plan %s: %w", filename, diags)
	}

	var parsed hclPlanFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return model.Plan{}, fmt.Errorf("failed to decode HCL plan %s: %w", filename, diags)
	}

	plan := DefaultPlan()
	if parsed.Kind != nil {
		plan.Kind = *parsed.Kind
	}
	if parsed.Min != nil {
		plan.Min = *parsed.Min
	}
	if parsed.Max != nil {
		plan.Max = *parsed.Max
	}
	if parsed.Deviation != nil {
		plan.Deviation = *parsed.Deviation
	}
	if parsed.MeanShift != nil {
		plan.MeanShift = *parsed.MeanShift
	}
	if parsed.Samples != nil {
		plan.Samples = *parsed.Samples
	}
	if parsed.Seed != nil {
		plan.Seed = *parsed.Seed
	}
	if len(parsed.Items) > 0 {
		plan.Items = append([]string(nil), parsed.Items...)
	}
	for _, op := range parsed.Operations {
		plan.Operations = append(plan.Operations, model.Operation{
			Name: op.Name,
			Args: append([]float64(nil), op.Args...),
		})
	}

	if err := ValidatePlan(plan); err != nil {
		return model.Plan{}, err
	}
	return plan, nil
}

// ValidatePlan checks the fields that do not depend on the outcome kind.
// Kind specific checks happen when the generator is built.
func ValidatePlan(plan model.Plan) error {
	if strings.TrimSpace(plan.Kind) == "" {
		return fmt.Errorf("%w: kind is required", ErrInvalidPlan)
	}
	if plan.Samples <= 0 {
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidPlan, plan.Samples)
	}
	if plan.Max < plan.Min {
		return fmt.Errorf("%w: max %v is below min %v", ErrInvalidPlan, plan.Max, plan.Min)
	}
	for i, op := range plan.Operations {
		if strings.TrimSpace(op.Name) == "" {
			return fmt.Errorf("%w: operations[%d] requires a name", ErrInvalidPlan, i)
		}
	}
	return nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case json.Number:
		n, err := strconv.ParseInt(x.String(), 10, 0)
		return int(n), err == nil
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

func asUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case json.Number:
		n, err := strconv.ParseUint(x.String(), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
