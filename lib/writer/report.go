package writer

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Key-space partitioning
// --------------------------------------------------------------------------

// Range is a contiguous half-open id range [Start, End) owned by one worker.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of ids in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Partition splits [0, totalKeys) into numWorkers contiguous, disjoint
// ranges. The remainder of the integer division is appended to the last
// range, so the union covers the key-space exactly once. A worker count
// below 1 is raised to 1 and one above totalKeys is capped so every worker
// owns at least one id. An empty key-space yields no ranges.
func Partition(totalKeys, numWorkers int) []Range {
	if totalKeys <= 0 {
		return nil
	}
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > totalKeys {
		numWorkers = totalKeys
	}

	perWorker := totalKeys / numWorkers
	remainder := totalKeys % numWorkers

	ranges := make([]Range, numWorkers)
	for i := 0; i < numWorkers; i++ {
		ranges[i] = Range{Start: i * perWorker, End: (i + 1) * perWorker}
	}
	ranges[numWorkers-1].End += remainder

	return ranges
}

// --------------------------------------------------------------------------
// Reports
// --------------------------------------------------------------------------

// Report holds the final counters of one batch writer.
type Report struct {
	WorkerID    int           `json:"worker_id"`
	Version     string        `json:"version"`
	StartID     int           `json:"start_id"`
	EndID       int           `json:"end_id"`
	KeysWritten int           `json:"keys_written"`
	KeysSkipped int           `json:"keys_skipped"`
	Duration    time.Duration `json:"duration_ns"`
}

// Rate returns the writer's keys written per second.
func (r Report) Rate() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.KeysWritten) / r.Duration.Seconds()
}

// AggregateReport merges the per-worker reports of one parallel import. The
// duration is the orchestrator's own wall clock for the whole parallel
// phase, not the sum of worker durations, so the combined rate reflects real
// throughput.
type AggregateReport struct {
	Version          string        `json:"version"`
	NumWorkers       int           `json:"num_workers"`
	TotalKeysWritten int           `json:"total_keys_written"`
	TotalKeysSkipped int           `json:"total_keys_skipped"`
	Duration         time.Duration `json:"duration_ns"`
	Workers          []Report      `json:"workers"`
}

// Rate returns the combined keys written per second over the wall clock.
func (r AggregateReport) Rate() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.TotalKeysWritten) / r.Duration.Seconds()
}

// MultiVersionReport holds the results of sequential per-version imports
// plus combined totals across all versions.
type MultiVersionReport struct {
	Versions         []AggregateReport `json:"versions"`
	TotalKeysWritten int               `json:"total_keys_written"`
	TotalKeysSkipped int               `json:"total_keys_skipped"`
	Duration         time.Duration     `json:"duration_ns"`
}

// Rate returns keys written per second across all versions.
func (r MultiVersionReport) Rate() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.TotalKeysWritten) / r.Duration.Seconds()
}

// ProjectedDuration linearly extrapolates how long importing
// hypotheticalKeys would take at the combined rate. Returns zero when no
// rate is available.
func (r MultiVersionReport) ProjectedDuration(hypotheticalKeys int) time.Duration {
	rate := r.Rate()
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(hypotheticalKeys) / rate * float64(time.Second))
}

// --------------------------------------------------------------------------
// Live progress counters
// --------------------------------------------------------------------------

// Progress carries striped live counters shared by all workers of a run.
// Workers add to it on every batch; the orchestrator's monitor goroutine
// reads it for periodic snapshots without touching worker-owned state.
type Progress struct {
	Written *xsync.Counter
	Skipped *xsync.Counter
}

// NewProgress creates zeroed progress counters.
func NewProgress() *Progress {
	return &Progress{
		Written: xsync.NewCounter(),
		Skipped: xsync.NewCounter(),
	}
}
