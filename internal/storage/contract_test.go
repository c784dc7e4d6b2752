package storage

import (
	"context"
	"testing"

	"tendency/internal/model"
)

func testRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              id,
		CreatedAtUTC:    createdAt,
		Plan: model.Plan{
			Kind:       "int",
			Min:        -10,
			Max:        10,
			Deviation:  0.3,
			Operations: []model.Operation{{Name: "nudge", Args: []float64{0.2}}},
			Samples:    3,
		},
		Summary: model.Summary{Samples: 3, FinalMean: 0.7},
	}
}

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	runs := []model.RunRecord{
		testRun("run-a", "2026-01-01T00:00:00.000000000Z"),
		testRun("run-c", "2026-01-03T00:00:00.000000000Z"),
		testRun("run-b", "2026-01-02T00:00:00.000000000Z"),
	}
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	loaded, ok, err := store.GetRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected run-a")
	}
	if loaded.Plan.Kind != "int" || len(loaded.Plan.Operations) != 1 || loaded.Plan.Operations[0].Args[0] != 0.2 {
		t.Fatalf("unexpected run loaded: %+v", loaded)
	}

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}

	listed, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	want := []string{"run-c", "run-b", "run-a"}
	if len(listed) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(listed))
	}
	for i, id := range want {
		if listed[i].ID != id {
			t.Fatalf("unexpected order at %d: got=%s want=%s", i, listed[i].ID, id)
		}
	}

	limited, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "run-c" {
		t.Fatalf("unexpected limited runs: %+v", limited)
	}

	samples := []model.Sample{{Index: 0, Mean: 0.5, Computed: 0.4, Value: "-2"}}
	if err := store.SaveSamples(ctx, "run-b", samples); err != nil {
		t.Fatalf("save samples: %v", err)
	}
	loadedSamples, ok, err := store.GetSamples(ctx, "run-b")
	if err != nil || !ok {
		t.Fatalf("get samples: ok=%t err=%v", ok, err)
	}
	if len(loadedSamples) != 1 || loadedSamples[0] != samples[0] {
		t.Fatalf("unexpected samples: %+v", loadedSamples)
	}

	if err := store.DeleteRun(ctx, "run-b"); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, ok, _ := store.GetRun(ctx, "run-b"); ok {
		t.Fatal("expected run-b deleted")
	}
	if _, ok, _ := store.GetSamples(ctx, "run-b"); ok {
		t.Fatal("expected run-b samples deleted")
	}
}
