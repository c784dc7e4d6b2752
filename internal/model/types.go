package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Operation is a dynamic call applied to an engine before sampling.
type Operation struct {
	Name string    `json:"name"`
	Args []float64 `json:"args,omitempty"`
}

// Plan describes one experiment: an outcome kind, its bias settings and
// how many samples to draw.
type Plan struct {
	Kind       string      `json:"kind"`
	Min        float64     `json:"min"`
	Max        float64     `json:"max"`
	Deviation  float64     `json:"deviation"`
	MeanShift  float64     `json:"mean_shift"`
	Items      []string    `json:"items,omitempty"`
	Operations []Operation `json:"operations,omitempty"`
	Samples    int         `json:"samples"`
	// Seed selects a deterministic entropy source. Zero uses the shared
	// process-wide source.
	Seed uint64 `json:"seed"`
}

type Histogram struct {
	Dividers []float64 `json:"dividers"`
	Counts   []float64 `json:"counts"`
}

// Summary aggregates the computed values of a run. Value statistics are
// only filled for numeric outcome kinds and Outcomes only for categorical
// ones.
type Summary struct {
	Samples      int     `json:"samples"`
	FinalMean    float64 `json:"final_mean"`
	ComputedMean float64 `json:"computed_mean"`
	ComputedStd  float64 `json:"computed_std"`
	ComputedMin  float64 `json:"computed_min"`
	ComputedMax  float64 `json:"computed_max"`
	P05          float64 `json:"p05"`
	P50          float64 `json:"p50"`
	P95          float64 `json:"p95"`
	LowerHits    int     `json:"lower_hits"`
	UpperHits    int     `json:"upper_hits"`
	// Expected bound hit rates under the normal model for the final mean
	// and deviation.
	ExpectedLowerRate float64        `json:"expected_lower_rate"`
	ExpectedUpperRate float64        `json:"expected_upper_rate"`
	Histogram         Histogram      `json:"histogram"`
	ValueMean         *float64       `json:"value_mean,omitempty"`
	Outcomes          map[string]int `json:"outcomes,omitempty"`
}

// Sample is one Compute result as persisted.
type Sample struct {
	Index    int     `json:"index"`
	Mean     float64 `json:"mean"`
	Computed float64 `json:"computed"`
	Value    string  `json:"value"`
}

type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	CreatedAtUTC string  `json:"created_at_utc"`
	Plan         Plan    `json:"plan"`
	Summary      Summary `json:"summary"`
}
