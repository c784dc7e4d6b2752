package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"tendency/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	samples     map[string][]model.Sample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.samples = make(map[string][]model.Sample)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	s.runs[run.ID] = copyRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	return copyRun(run), true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, copyRun(run))
	}
	sortNewestFirst(runs)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, id)
	delete(s.samples, id)
	return nil
}

func (s *MemoryStore) SaveSamples(_ context.Context, runID string, samples []model.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	copied := make([]model.Sample, len(samples))
	copy(copied, samples)
	s.samples[runID] = copied
	return nil
}

func (s *MemoryStore) GetSamples(_ context.Context, runID string) ([]model.Sample, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples, ok := s.samples[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.Sample, len(samples))
	copy(copied, samples)
	return copied, true, nil
}

func copyRun(run model.RunRecord) model.RunRecord {
	run.Plan.Items = append([]string(nil), run.Plan.Items...)
	ops := make([]model.Operation, len(run.Plan.Operations))
	for i, op := range run.Plan.Operations {
		ops[i] = model.Operation{Name: op.Name, Args: append([]float64(nil), op.Args...)}
	}
	run.Plan.Operations = ops
	run.Summary.Histogram.Dividers = append([]float64(nil), run.Summary.Histogram.Dividers...)
	run.Summary.Histogram.Counts = append([]float64(nil), run.Summary.Histogram.Counts...)
	if run.Summary.Outcomes != nil {
		outcomes := make(map[string]int, len(run.Summary.Outcomes))
		for k, v := range run.Summary.Outcomes {
			outcomes[k] = v
		}
		run.Summary.Outcomes = outcomes
	}
	if run.Summary.ValueMean != nil {
		v := *run.Summary.ValueMean
		run.Summary.ValueMean = &v
	}
	return run
}

// sortNewestFirst orders by creation time, then id, both descending.
func sortNewestFirst(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC > runs[j].CreatedAtUTC
		}
		return runs[i].ID > runs[j].ID
	})
}
