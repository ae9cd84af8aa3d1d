package reader

import (
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Tier identifies which version namespace served a read.
type Tier uint8

const (
	// TierNone means the key was absent from both namespaces.
	TierNone Tier = iota
	// TierPrimary means the primary namespace served the read.
	TierPrimary
	// TierSecondary means the read fell back to the secondary namespace.
	TierSecondary
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// Stats is the outcome of one benchmark run. The counters obey
// SuccessfulReads+Misses == TotalReads and
// PrimaryHits+SecondaryHits == SuccessfulReads; an interrupted run reports
// the attempts made so far.
type Stats struct {
	Strategy string `json:"strategy"`

	TotalReads      int `json:"total_reads"`
	SuccessfulReads int `json:"successful_reads"`
	Misses          int `json:"misses"`
	PrimaryHits     int `json:"primary_hits"`
	SecondaryHits   int `json:"secondary_hits"`

	BytesRead int64         `json:"bytes_read"`
	Duration  time.Duration `json:"duration_ns"`

	// Latency percentiles over successful reads only. In pipelined modes
	// the batch round-trip is amortized evenly across its reads.
	LatencyP50 time.Duration `json:"latency_p50_ns"`
	LatencyP95 time.Duration `json:"latency_p95_ns"`
}

// Rate returns reads per second over the wall clock.
func (s Stats) Rate() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalReads) / s.Duration.Seconds()
}

// HitRate returns the fraction of reads served from either namespace.
func (s Stats) HitRate() float64 {
	if s.TotalReads == 0 {
		return 0
	}
	return float64(s.SuccessfulReads) / float64(s.TotalReads)
}

// --------------------------------------------------------------------------
// Accumulation
// --------------------------------------------------------------------------

// accumulator collects one goroutine's counters. The latency histogram is
// shared across all accumulators of a run (it locks internally); the plain
// counters are goroutine-owned and merged once at the end.
type accumulator struct {
	stats Stats
	hist  gometrics.Histogram
}

func newAccumulator(hist gometrics.Histogram) *accumulator {
	return &accumulator{hist: hist}
}

// newLatencyHistogram builds the shared per-run latency sample.
func newLatencyHistogram() gometrics.Histogram {
	return gometrics.NewHistogram(gometrics.NewUniformSample(16384))
}

// record counts one completed read attempt.
func (a *accumulator) record(tier Tier, bytes int, latency time.Duration) {
	a.stats.TotalReads++
	switch tier {
	case TierPrimary:
		a.stats.SuccessfulReads++
		a.stats.PrimaryHits++
	case TierSecondary:
		a.stats.SuccessfulReads++
		a.stats.SecondaryHits++
	default:
		a.stats.Misses++
		return
	}
	a.stats.BytesRead += int64(bytes)
	a.hist.Update(int64(latency))
}

// merge folds another accumulator's counters into this one.
func (a *accumulator) merge(other *accumulator) {
	a.stats.TotalReads += other.stats.TotalReads
	a.stats.SuccessfulReads += other.stats.SuccessfulReads
	a.stats.Misses += other.stats.Misses
	a.stats.PrimaryHits += other.stats.PrimaryHits
	a.stats.SecondaryHits += other.stats.SecondaryHits
	a.stats.BytesRead += other.stats.BytesRead
}

// finalize stamps strategy, duration and percentiles and returns the stats.
func (a *accumulator) finalize(strategy string, duration time.Duration) Stats {
	a.stats.Strategy = strategy
	a.stats.Duration = duration
	ps := a.hist.Percentiles([]float64{0.5, 0.95})
	a.stats.LatencyP50 = time.Duration(ps[0])
	a.stats.LatencyP95 = time.Duration(ps[1])
	return a.stats
}
