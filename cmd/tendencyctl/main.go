package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"tendency/internal/config"
	"tendency/internal/experiment"
	"tendency/internal/logging"
	"tendency/internal/outcome"
	"tendency/internal/storage"
)

// stdout receives command output; tests swap it for a buffer.
var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	if env.Store == "" {
		env.Store = storage.DefaultStoreKind()
	}

	switch args[0] {
	case "sample":
		return runSample(ctx, env, args[1:])
	case "run":
		return runRun(ctx, env, args[1:])
	case "runs":
		return runRuns(ctx, env, args[1:])
	case "show":
		return runShow(ctx, env, args[1:])
	case "export":
		return runExport(ctx, env, args[1:])
	case "delete":
		return runDelete(ctx, env, args[1:])
	case "kinds":
		return runKinds(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// commonFlags are accepted by every command that touches the run store.
type commonFlags struct {
	storeKind    *string
	dbPath       *string
	artifactsDir *string
	logLevel     *string
	logFormat    *string
}

func registerCommonFlags(fs *flag.FlagSet, env config.Env) commonFlags {
	return commonFlags{
		storeKind:    fs.String("store", env.Store, "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", env.DBPath, "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", env.ArtifactsDir, "directory for run artifacts and the run index"),
		logLevel:     fs.String("log-level", env.LogLevel, "log level: debug|info|warn|error"),
		logFormat:    fs.String("log-format", env.LogFormat, "log format: text|json"),
	}
}

// open builds a logger and an initialized runner. The caller closes the
// runner.
func (c commonFlags) open(ctx context.Context) (context.Context, *experiment.Runner, error) {
	logger := logging.New(*c.logLevel, *c.logFormat, os.Stderr)
	ctx = logging.WithLogger(ctx, logger)

	runner, err := experiment.New(experiment.Options{
		StoreKind:    *c.storeKind,
		DBPath:       *c.dbPath,
		ArtifactsDir: *c.artifactsDir,
		Logger:       logging.FromContext(ctx),
	})
	if err != nil {
		return ctx, nil, err
	}
	if err := runner.Init(ctx); err != nil {
		_ = runner.Close()
		return ctx, nil, err
	}
	return ctx, runner, nil
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func runSample(ctx context.Context, env config.Env, args []string) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	planOpts := registerPlanFlags(fs)
	n := fs.Int("n", 10, "number of results to print")
	logLevel := fs.String("log-level", env.LogLevel, "log level: debug|info|warn|error")
	logFormat := fs.String("log-format", env.LogFormat, "log format: text|json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 {
		return errors.New("n must be > 0")
	}

	plan, err := planOpts.resolve(visited(fs))
	if err != nil {
		return err
	}
	plan.Samples = *n
	if err := config.ValidatePlan(plan); err != nil {
		return err
	}

	logger := logging.New(*logLevel, *logFormat, os.Stderr)
	gen, err := experiment.Build(plan, logger)
	if err != nil {
		return err
	}
	results, err := experiment.Sample(ctx, gen, plan.Samples)
	if err != nil {
		return err
	}
	for _, result := range results {
		fmt.Fprintf(stdout, "mean=%.4f computed=%.6f value=%v\n", result.Mean, result.Computed, result.Value)
	}
	return nil
}

func runRun(ctx context.Context, env config.Env, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	common := registerCommonFlags(fs, env)
	planOpts := registerPlanFlags(fs)
	samples := fs.Int("samples", config.DefaultSamples, "number of samples to draw")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	jsonOut := fs.Bool("json", false, "emit the run record as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := visited(fs)

	plan, err := planOpts.resolve(set)
	if err != nil {
		return err
	}
	if set["samples"] {
		plan.Samples = *samples
	}

	ctx, runner, err := common.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = runner.Close()
	}()

	summary, err := runner.Run(ctx, experiment.RunRequest{Plan: plan, RunID: *runID})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(summary.Record)
	}

	s := summary.Record.Summary
	fmt.Fprintf(stdout, "run_id=%s kind=%s samples=%d final_mean=%.4f computed_mean=%.4f computed_std=%.4f bound_hits=%d/%d\n",
		summary.RunID, plan.Kind, s.Samples, s.FinalMean, s.ComputedMean, s.ComputedStd, s.LowerHits, s.UpperHits)
	if s.ValueMean != nil {
		fmt.Fprintf(stdout, "value_mean=%.4f\n", *s.ValueMean)
	}
	for _, key := range sortedKeys(s.Outcomes) {
		fmt.Fprintf(stdout, "outcome %s=%d\n", key, s.Outcomes[key])
	}
	fmt.Fprintf(stdout, "artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, env config.Env, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := registerCommonFlags(fs, env)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	ctx, runner, err := common.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = runner.Close()
	}()

	entries, err := runner.Runs(ctx, experiment.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "run_id=%s created_at=%s kind=%s samples=%d seed=%d final_mean=%.4f computed_mean=%.4f\n",
			e.RunID, e.CreatedAtUTC, e.Kind, e.Samples, e.Seed, e.FinalMean, e.ComputedMean)
	}
	return nil
}

func runShow(ctx context.Context, env config.Env, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	common := registerCommonFlags(fs, env)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from run index")
	withSamples := fs.Bool("samples", false, "also print every sample")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, runner, err := common.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = runner.Close()
	}()

	req := experiment.ShowRequest{RunID: *runID, Latest: *latest}
	record, err := runner.Show(ctx, req)
	if err != nil {
		return err
	}
	if err := writeJSON(record); err != nil {
		return err
	}
	if !*withSamples {
		return nil
	}
	samples, err := runner.Samples(ctx, experiment.ShowRequest{RunID: record.ID})
	if err != nil {
		return err
	}
	for _, sample := range samples {
		fmt.Fprintf(stdout, "%d mean=%.4f computed=%.6f value=%s\n", sample.Index, sample.Mean, sample.Computed, sample.Value)
	}
	return nil
}

func runExport(ctx context.Context, env config.Env, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := registerCommonFlags(fs, env)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", "exports", "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, runner, err := common.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = runner.Close()
	}()

	exported, err := runner.Export(ctx, experiment.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runDelete(ctx context.Context, env config.Env, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	common := registerCommonFlags(fs, env)
	runID := fs.String("run-id", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, runner, err := common.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = runner.Close()
	}()

	if err := runner.Delete(ctx, *runID); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted run_id=%s\n", *runID)
	return nil
}

func runKinds(args []string) error {
	fs := flag.NewFlagSet("kinds", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, kind := range outcome.List() {
		fmt.Fprintf(stdout, "%s\t%s\n", kind.Name, kind.Description)
	}
	return nil
}

func writeJSON(value any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: tendencyctl <%s> [flags]", msg, strings.Join([]string{"sample", "run", "runs", "show", "export", "delete", "kinds"}, "|"))
}
