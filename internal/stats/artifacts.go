package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"tendency/internal/model"
)

const (
	runIndexFile   = "run_index.json"
	configFile     = "config.json"
	summaryFile    = "summary.json"
	samplesCSVFile = "samples.csv"
)

// ErrInvalidRunID reports a run id that cannot name a directory under the
// artifacts directory.
var ErrInvalidRunID = errors.New("invalid run id")

// ValidateRunID rejects ids that are blank, dot segments or contain a path
// separator.
func ValidateRunID(runID string) error {
	switch {
	case strings.TrimSpace(runID) == "":
		return fmt.Errorf("%w: run id is required", ErrInvalidRunID)
	case runID == "." || runID == "..":
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	case strings.ContainsAny(runID, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidRunID, runID)
	}
	return nil
}

type RunConfig struct {
	RunID string     `json:"run_id"`
	Plan  model.Plan `json:"plan"`
}

type RunArtifacts struct {
	Config  RunConfig      `json:"config"`
	Summary model.Summary  `json:"summary"`
	Samples []model.Sample `json:"samples"`
}

type RunIndexEntry struct {
	RunID        string   `json:"run_id"`
	Kind         string   `json:"kind"`
	Samples      int      `json:"samples"`
	Seed         uint64   `json:"seed"`
	Deviation    float64  `json:"deviation"`
	FinalMean    float64  `json:"final_mean"`
	ComputedMean float64  `json:"computed_mean"`
	ValueMean    *float64 `json:"value_mean,omitempty"`
	CreatedAtUTC string   `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if err := ValidateRunID(artifacts.Config.RunID); err != nil {
		return "", err
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, summaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	if err := writeSamplesCSV(filepath.Join(runDir, samplesCSVFile), artifacts.Samples); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if err := ValidateRunID(entry.RunID); err != nil {
		return err
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}

	// The file is in append order; reversing first lets later entries win ties.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

// HasRunIndexEntry reports whether the index holds runID.
func HasRunIndexEntry(baseDir, runID string) (bool, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.RunID == runID {
			return true, nil
		}
	}
	return false, nil
}

// readRunIndex returns the index in file order.
func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if err := ValidateRunID(runID); err != nil {
		return "", err
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, summaryFile, samplesCSVFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	return dst, nil
}

// DeleteRunArtifacts removes a run directory and its index entry. Missing
// runs are not an error.
func DeleteRunArtifacts(baseDir, runID string) error {
	if err := ValidateRunID(runID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(baseDir, runID)); err != nil {
		return err
	}

	index, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}
	kept := make([]RunIndexEntry, 0, len(index))
	for _, entry := range index {
		if entry.RunID != runID {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(index) {
		return nil
	}
	return writeJSON(filepath.Join(baseDir, runIndexFile), kept)
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	if err := ValidateRunID(runID); err != nil {
		return cfg, false, err
	}
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	return cfg, ok, err
}

func ReadSummary(baseDir, runID string) (model.Summary, bool, error) {
	var summary model.Summary
	if err := ValidateRunID(runID); err != nil {
		return summary, false, err
	}
	ok, err := readJSON(filepath.Join(baseDir, runID, summaryFile), &summary)
	return summary, ok, err
}

func writeSamplesCSV(path string, samples []model.Sample) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"index", "mean", "computed", "value"}); err != nil {
		return err
	}
	for _, sample := range samples {
		if err := writer.Write([]string{
			strconv.Itoa(sample.Index),
			strconv.FormatFloat(sample.Mean, 'f', -1, 64),
			strconv.FormatFloat(sample.Computed, 'f', -1, 64),
			sample.Value,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadSamples(baseDir, runID string) ([]model.Sample, bool, error) {
	if err := ValidateRunID(runID); err != nil {
		return nil, false, err
	}
	path := filepath.Join(baseDir, runID, samplesCSVFile)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.Sample{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 4 {
		return nil, false, fmt.Errorf("samples header must have 4 columns")
	}

	samples := make([]model.Sample, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 4 {
			return nil, false, fmt.Errorf("samples row must have 4 columns")
		}
		index, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, false, err
		}
		mean, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		computed, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, false, err
		}
		samples = append(samples, model.Sample{Index: index, Mean: mean, Computed: computed, Value: record[3]})
	}
	return samples, true, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
