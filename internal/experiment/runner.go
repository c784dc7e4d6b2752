// Package experiment runs sampling plans and keeps their results in a run
// store and on disk.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tendency/internal/config"
	"tendency/internal/model"
	"tendency/internal/stats"
	"tendency/internal/storage"
)

const (
	defaultArtifactsDir = "runs"
	defaultExportsDir   = "exports"
	defaultDBPath       = "tendency.db"
	defaultRunsLimit    = 20

	// createdAtLayout is fixed width so timestamps sort as strings.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z"
)

var ErrRunNotFound = errors.New("run not found")

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
	Logger       *slog.Logger
	// Now stamps new runs. Defaults to time.Now.
	Now func() time.Time
}

type Runner struct {
	store        storage.Store
	artifactsDir string
	exportsDir   string
	logger       *slog.Logger
	now          func() time.Time
}

type RunRequest struct {
	Plan  model.Plan
	RunID string
}

type RunSummary struct {
	RunID        string
	ArtifactsDir string
	Record       model.RunRecord
}

type RunsRequest struct {
	Limit int
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Runner, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Runner{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
		logger:       logger,
		now:          now,
	}, nil
}

func (r *Runner) Close() error {
	return storage.CloseIfSupported(r.store)
}

func (r *Runner) Init(ctx context.Context) error {
	return r.store.Init(ctx)
}

func (r *Runner) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	plan := req.Plan
	if err := config.ValidatePlan(plan); err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = fmt.Sprintf("%s-%s", plan.Kind, uuid.NewString())
	} else if err := stats.ValidateRunID(runID); err != nil {
		return RunSummary{}, err
	}
	logger := r.logger.With("run_id", runID, "kind", plan.Kind)

	gen, err := Build(plan, logger)
	if err != nil {
		return RunSummary{}, fmt.Errorf("build %s: %w", runID, err)
	}
	results, err := Sample(ctx, gen, plan.Samples)
	if err != nil {
		return RunSummary{}, fmt.Errorf("sample %s: %w", runID, err)
	}

	observations := make([]stats.Observation, len(results))
	samples := make([]model.Sample, len(results))
	for i, result := range results {
		observations[i] = stats.Observation{Computed: result.Computed, Value: result.Value}
		samples[i] = model.Sample{
			Index:    i,
			Mean:     result.Mean,
			Computed: result.Computed,
			Value:    fmt.Sprint(result.Value),
		}
	}
	summary := stats.Summarize(observations, gen.Mean(), plan.Deviation)

	record := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		CreatedAtUTC:    r.now().UTC().Format(createdAtLayout),
		Plan:            plan,
		Summary:         summary,
	}
	if err := r.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := r.store.SaveSamples(ctx, runID, samples); err != nil {
		return RunSummary{}, fmt.Errorf("save samples %s: %w", runID, err)
	}

	runDir, err := stats.WriteRunArtifacts(r.artifactsDir, stats.RunArtifacts{
		Config:  stats.RunConfig{RunID: runID, Plan: plan},
		Summary: summary,
		Samples: samples,
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(r.artifactsDir, stats.RunIndexEntry{
		RunID:        runID,
		Kind:         plan.Kind,
		Samples:      summary.Samples,
		Seed:         plan.Seed,
		Deviation:    plan.Deviation,
		FinalMean:    summary.FinalMean,
		ComputedMean: summary.ComputedMean,
		ValueMean:    summary.ValueMean,
		CreatedAtUTC: record.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, err
	}

	logger.Info("run completed",
		"samples", summary.Samples,
		"final_mean", summary.FinalMean,
		"computed_mean", summary.ComputedMean,
		"bound_hits", summary.LowerHits+summary.UpperHits,
	)
	return RunSummary{RunID: runID, ArtifactsDir: runDir, Record: record}, nil
}

// Runs lists the run index newest first.
func (r *Runner) Runs(_ context.Context, req RunsRequest) ([]stats.RunIndexEntry, error) {
	if req.Limit <= 0 {
		req.Limit = defaultRunsLimit
	}

	entries, err := stats.ListRunIndex(r.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return entries, nil
}

// Show loads a run from the store, falling back to its artifacts when the
// store does not hold it.
func (r *Runner) Show(ctx context.Context, req ShowRequest) (model.RunRecord, error) {
	runID, err := r.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return model.RunRecord{}, err
	}

	record, ok, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if ok {
		return record, nil
	}

	cfg, ok, err := stats.ReadRunConfig(r.artifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	summary, _, err := stats.ReadSummary(r.artifactsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	record = model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		Plan:            cfg.Plan,
		Summary:         summary,
	}
	entries, err := stats.ListRunIndex(r.artifactsDir)
	if err != nil {
		return model.RunRecord{}, err
	}
	for _, e := range entries {
		if e.RunID == runID {
			record.CreatedAtUTC = e.CreatedAtUTC
			break
		}
	}
	return record, nil
}

// Samples returns the per-sample rows of a run.
func (r *Runner) Samples(ctx context.Context, req ShowRequest) ([]model.Sample, error) {
	runID, err := r.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	samples, ok, err := r.store.GetSamples(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return samples, nil
	}
	samples, ok, err = stats.ReadSamples(r.artifactsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return samples, nil
}

func (r *Runner) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = r.exportsDir
	}
	runID, err := r.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if err := r.requireRun(ctx, runID); err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(r.artifactsDir, runID, req.OutDir)
	if errors.Is(err, fs.ErrNotExist) {
		return ExportSummary{}, fmt.Errorf("%w: no artifacts for %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Delete removes a run from the store, the run index and disk.
func (r *Runner) Delete(ctx context.Context, runID string) error {
	if err := stats.ValidateRunID(runID); err != nil {
		return err
	}
	if err := r.requireRun(ctx, runID); err != nil {
		return err
	}
	if err := r.store.DeleteRun(ctx, runID); err != nil {
		return err
	}
	if err := stats.DeleteRunArtifacts(r.artifactsDir, runID); err != nil {
		return err
	}
	r.logger.Info("run deleted", "run_id", runID)
	return nil
}

func (r *Runner) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if !latest {
		return runID, stats.ValidateRunID(runID)
	}
	entries, err := stats.ListRunIndex(r.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

// requireRun fails with ErrRunNotFound unless the store, the run index or the
// artifacts directory knows runID.
func (r *Runner) requireRun(ctx context.Context, runID string) error {
	_, ok, err := r.store.GetRun(ctx, runID)
	if err != nil || ok {
		return err
	}
	ok, err = stats.HasRunIndexEntry(r.artifactsDir, runID)
	if err != nil || ok {
		return err
	}
	_, ok, err = stats.ReadRunConfig(r.artifactsDir, runID)
	if err != nil || ok {
		return err
	}
	return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
}
