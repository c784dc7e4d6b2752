package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"tendency/internal/config"
	"tendency/internal/model"
)

// planFlags are the flags shared by sample and run. Values set on the
// command line override a plan file.
type planFlags struct {
	configPath string
	kind       string
	min        float64
	max        float64
	deviation  float64
	meanShift  float64
	items      string
	seed       uint64
	ops        operationsFlag
}

func registerPlanFlags(fs *flag.FlagSet) *planFlags {
	defaults := config.DefaultPlan()
	p := &planFlags{}
	fs.StringVar(&p.configPath, "config", "", "optional plan file (.json or .hcl)")
	fs.StringVar(&p.kind, "kind", defaults.Kind, "outcome kind (see kinds command)")
	fs.Float64Var(&p.min, "min", defaults.Min, "lower bound for int and float kinds")
	fs.Float64Var(&p.max, "max", defaults.Max, "upper bound for int and float kinds")
	fs.Float64Var(&p.deviation, "deviation", defaults.Deviation, "standard deviation, clamped to [0,1]")
	fs.Float64Var(&p.meanShift, "mean-shift", 0, "amount added to the mean before operations")
	fs.StringVar(&p.items, "items", "", "comma separated items for the choice kind")
	fs.Uint64Var(&p.seed, "seed", 0, "entropy seed (0 uses a shared nondeterministic source)")
	fs.Var(&p.ops, "op", "operation to apply before sampling, name or name=arg[,arg...] (repeatable)")
	return p
}

// resolve loads the plan file, if any, and lays explicitly set flags over it.
func (p *planFlags) resolve(set map[string]bool) (model.Plan, error) {
	plan := config.DefaultPlan()
	if p.configPath != "" {
		loaded, err := config.LoadPlan(p.configPath)
		if err != nil {
			return model.Plan{}, err
		}
		plan = loaded
	}

	for name := range set {
		switch name {
		case "kind":
			plan.Kind = p.kind
		case "min":
			plan.Min = p.min
		case "max":
			plan.Max = p.max
		case "deviation":
			plan.Deviation = p.deviation
		case "mean-shift":
			plan.MeanShift = p.meanShift
		case "items":
			plan.Items = splitItems(p.items)
		case "seed":
			plan.Seed = p.seed
		case "op":
			plan.Operations = append(plan.Operations, p.ops...)
		}
	}
	return plan, nil
}

func splitItems(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}

type operationsFlag []model.Operation

func (o *operationsFlag) String() string {
	if o == nil {
		return ""
	}
	parts := make([]string, 0, len(*o))
	for _, op := range *o {
		if len(op.Args) == 0 {
			parts = append(parts, op.Name)
			continue
		}
		args := make([]string, len(op.Args))
		for i, arg := range op.Args {
			args[i] = strconv.FormatFloat(arg, 'f', -1, 64)
		}
		parts = append(parts, op.Name+"="+strings.Join(args, ","))
	}
	return strings.Join(parts, " ")
}

func (o *operationsFlag) Set(value string) error {
	op, err := parseOperation(value)
	if err != nil {
		return err
	}
	*o = append(*o, op)
	return nil
}

func parseOperation(value string) (model.Operation, error) {
	name, rawArgs, hasArgs := strings.Cut(strings.TrimSpace(value), "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Operation{}, fmt.Errorf("operation name is required in %q", value)
	}
	op := model.Operation{Name: name}
	if !hasArgs {
		return op, nil
	}
	for _, raw := range strings.Split(rawArgs, ",") {
		arg, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return model.Operation{}, fmt.Errorf("operation %s: invalid argument %q: %w", name, raw, err)
		}
		op.Args = append(op.Args, arg)
	}
	return op, nil
}
