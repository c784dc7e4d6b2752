package stats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tendency/internal/model"
)

func TestWriteAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	runID := "run-123"
	artifacts := RunArtifacts{
		Config: RunConfig{
			RunID: runID,
			Plan:  model.Plan{Kind: "float", Min: 20, Max: 40, Deviation: 0.3, Samples: 2, Seed: 1},
		},
		Summary: model.Summary{Samples: 2, FinalMean: 0.5},
		Samples: []model.Sample{
			{Index: 0, Mean: 0.5, Computed: 0.625, Value: "32.5"},
			{Index: 1, Mean: 0.5, Computed: 1, Value: "40"},
		},
	}

	runDir, err := WriteRunArtifacts(baseDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	files := []string{"config.json", "summary.json", "samples.csv"}
	for _, file := range files {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	cfg, ok, err := ReadRunConfig(baseDir, runID)
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.Plan.Kind != "float" || cfg.Plan.Max != 40 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	samples, ok, err := ReadSamples(baseDir, runID)
	if err != nil || !ok {
		t.Fatalf("read samples: ok=%t err=%v", ok, err)
	}
	if len(samples) != 2 || samples[0] != artifacts.Samples[0] || samples[1] != artifacts.Samples[1] {
		t.Fatalf("unexpected samples: %+v", samples)
	}

	exportedDir, err := ExportRunArtifacts(baseDir, runID, outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}
	for _, file := range files {
		if _, err := os.Stat(filepath.Join(exportedDir, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected run id error")
	}
}

func TestExportMissingRun(t *testing.T) {
	if _, err := ExportRunArtifacts(t.TempDir(), "missing", t.TempDir()); err == nil {
		t.Fatal("expected missing run error")
	}
}

func TestReadMissingArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	if _, ok, err := ReadRunConfig(baseDir, "missing"); ok || err != nil {
		t.Fatalf("expected missing config, ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadSummary(baseDir, "missing"); ok || err != nil {
		t.Fatalf("expected missing summary, ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadSamples(baseDir, "missing"); ok || err != nil {
		t.Fatalf("expected missing samples, ok=%t err=%v", ok, err)
	}
}

func TestRunIndexAppendListAndUpsert(t *testing.T) {
	baseDir := t.TempDir()

	err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-1",
		Kind:         "bool",
		Samples:      100,
		Seed:         1,
		FinalMean:    0.5,
		CreatedAtUTC: "2026-02-10T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-1: %v", err)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-2",
		Kind:         "int",
		Samples:      100,
		Seed:         2,
		FinalMean:    0.6,
		CreatedAtUTC: "2026-02-10T11:00:00Z",
	})
	if err != nil {
		t.Fatalf("append run-2: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-2" || entries[1].RunID != "run-1" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	err = AppendRunIndex(baseDir, RunIndexEntry{
		RunID:        "run-1",
		Kind:         "bool",
		Samples:      100,
		Seed:         1,
		FinalMean:    0.9,
		CreatedAtUTC: "2026-02-10T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("upsert run-1: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after upsert, got %d", len(entries))
	}
	if entries[0].RunID != "run-1" || entries[0].FinalMean != 0.9 {
		t.Fatalf("unexpected first entry after upsert: %+v", entries[0])
	}
}

func TestRunIndexTiesPreferLaterEntries(t *testing.T) {
	baseDir := t.TempDir()
	for _, id := range []string{"first", "second", "third"} {
		if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: id, CreatedAtUTC: "2026-02-10T10:00:00Z"}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if entries[0].RunID != "third" || entries[2].RunID != "first" {
		t.Fatalf("unexpected tie order: %+v", entries)
	}
}

func TestDeleteRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	for _, id := range []string{"keep", "drop"} {
		if _, err := WriteRunArtifacts(baseDir, RunArtifacts{Config: RunConfig{RunID: id}}); err != nil {
			t.Fatalf("write %s: %v", id, err)
		}
		if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: id, CreatedAtUTC: "2026-02-10T10:00:00Z"}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	if err := DeleteRunArtifacts(baseDir, "drop"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "drop")); !os.IsNotExist(err) {
		t.Fatalf("expected run dir removed, stat err=%v", err)
	}
	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].RunID != "keep" {
		t.Fatalf("unexpected index after delete: %+v", entries)
	}

	if err := DeleteRunArtifacts(baseDir, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestRunIndexKeepsAppendOrderOnDisk(t *testing.T) {
	baseDir := t.TempDir()
	for _, id := range []string{"a", "b", "c", "d"} {
		if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: id, CreatedAtUTC: "2026-02-10T10:00:00Z"}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: "b", CreatedAtUTC: "2026-02-10T10:00:00Z", FinalMean: 1}); err != nil {
		t.Fatalf("upsert b: %v", err)
	}

	raw, err := readRunIndex(baseDir)
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	var ids []string
	for _, e := range raw {
		ids = append(ids, e.RunID)
	}
	if strings.Join(ids, ",") != "a,b,c,d" {
		t.Fatalf("expected file order a,b,c,d, got %v", ids)
	}
	if raw[1].FinalMean != 1 {
		t.Fatalf("expected upsert in place: %+v", raw[1])
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if entries[0].RunID != "d" || entries[3].RunID != "a" {
		t.Fatalf("unexpected tie order: %+v", entries)
	}
}

func TestValidateRunID(t *testing.T) {
	for _, id := range []string{"run-1", "float-3f1c", "a.b"} {
		if err := ValidateRunID(id); err != nil {
			t.Fatalf("expected %q to be accepted: %v", id, err)
		}
	}
	for _, id := range []string{"", "  ", ".", "..", "../x", "a/b", `a\b`} {
		if err := ValidateRunID(id); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("expected ErrInvalidRunID for %q, got: %v", id, err)
		}
	}
}

func TestArtifactsRejectEscapingRunIDs(t *testing.T) {
	root := t.TempDir()
	baseDir := filepath.Join(root, "runs")
	keep := filepath.Join(root, "keep.txt")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatalf("write keep file: %v", err)
	}
	if _, err := WriteRunArtifacts(baseDir, RunArtifacts{Config: RunConfig{RunID: "ok"}}); err != nil {
		t.Fatalf("write ok run: %v", err)
	}

	for _, id := range []string{".", "..", "../runs"} {
		if err := DeleteRunArtifacts(baseDir, id); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("delete %q: expected ErrInvalidRunID, got: %v", id, err)
		}
		if _, err := ExportRunArtifacts(baseDir, id, t.TempDir()); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("export %q: expected ErrInvalidRunID, got: %v", id, err)
		}
		if _, _, err := ReadRunConfig(baseDir, id); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("read config %q: expected ErrInvalidRunID, got: %v", id, err)
		}
		if _, _, err := ReadSummary(baseDir, id); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("read summary %q: expected ErrInvalidRunID, got: %v", id, err)
		}
		if _, _, err := ReadSamples(baseDir, id); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("read samples %q: expected ErrInvalidRunID, got: %v", id, err)
		}
		if _, err := WriteRunArtifacts(baseDir, RunArtifacts{Config: RunConfig{RunID: id}}); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("write %q: expected ErrInvalidRunID, got: %v", id, err)
		}
		if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: id}); !errors.Is(err, ErrInvalidRunID) {
			t.Fatalf("append %q: expected ErrInvalidRunID, got: %v", id, err)
		}
	}

	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("file outside artifacts dir was touched: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, "ok", "config.json")); err != nil {
		t.Fatalf("existing run was touched: %v", err)
	}
}
