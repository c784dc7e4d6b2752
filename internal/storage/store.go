package storage

import (
	"context"

	"tendency/internal/model"
)

// Store defines persistence operations for experiment runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first. A limit of zero or less returns
	// every run.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	SaveSamples(ctx context.Context, runID string, samples []model.Sample) error
	GetSamples(ctx context.Context, runID string) ([]model.Sample, bool, error)
}
