package reader

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/locationflex/lfbench/lib/record"
	"github.com/locationflex/lfbench/lib/store/storetest"
)

const (
	testPrimary   = "v23"
	testSecondary = "v22"
	testMaxKeys   = 50
)

func newTestBenchmark(st *storetest.FakeStore, threads, batchSize int) *Benchmark {
	return NewBenchmark(st, Options{
		PrimaryVersion:   testPrimary,
		SecondaryVersion: testSecondary,
		MaxKeys:          testMaxKeys,
		NumThreads:       threads,
		BatchSize:        batchSize,
	})
}

// populate writes every id in [0, testMaxKeys) under the given version.
func populate(t *testing.T, st *storetest.FakeStore, version string) {
	t.Helper()
	for id := 0; id < testMaxKeys; id++ {
		if err := st.SetTTL(context.Background(), record.Key(version, id), []byte("payload"), time.Hour); err != nil {
			t.Fatalf("Expected no error populating %s, got %v", version, err)
		}
	}
}

func checkConservation(t *testing.T, s Stats) {
	t.Helper()
	if s.SuccessfulReads+s.Misses != s.TotalReads {
		t.Errorf("Expected successful+misses == total, got %d+%d != %d",
			s.SuccessfulReads, s.Misses, s.TotalReads)
	}
	if s.PrimaryHits+s.SecondaryHits != s.SuccessfulReads {
		t.Errorf("Expected primary+secondary == successful, got %d+%d != %d",
			s.PrimaryHits, s.SecondaryHits, s.SuccessfulReads)
	}
}

// --------------------------------------------------------------------------
// Two-tier lookup
// --------------------------------------------------------------------------

func TestReadKeyPrefersPrimary(t *testing.T) {
	st := storetest.NewFakeStore()
	st.SetTTL(context.Background(), record.Key(testPrimary, 1), []byte("primary"), 0)
	st.SetTTL(context.Background(), record.Key(testSecondary, 1), []byte("secondary"), 0)

	b := newTestBenchmark(st, 1, 10)

	value, tier, err := b.ReadKey(context.Background(), 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tier != TierPrimary {
		t.Errorf("Expected tier primary, got %s", tier)
	}
	if string(value) != "primary" {
		t.Errorf("Expected primary payload, got %q", value)
	}
}

func TestReadKeyFallsBackToSecondary(t *testing.T) {
	st := storetest.NewFakeStore()
	st.SetTTL(context.Background(), record.Key(testSecondary, 2), []byte("secondary"), 0)

	b := newTestBenchmark(st, 1, 10)

	value, tier, err := b.ReadKey(context.Background(), 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tier != TierSecondary {
		t.Errorf("Expected tier secondary, got %s", tier)
	}
	if string(value) != "secondary" {
		t.Errorf("Expected secondary payload, got %q", value)
	}
}

func TestReadKeyMiss(t *testing.T) {
	st := storetest.NewFakeStore()
	b := newTestBenchmark(st, 1, 10)

	value, tier, err := b.ReadKey(context.Background(), 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if tier != TierNone {
		t.Errorf("Expected tier none, got %s", tier)
	}
	if value != nil {
		t.Errorf("Expected nil value on miss, got %q", value)
	}
}

// --------------------------------------------------------------------------
// Strategy 1: threaded sequential
// --------------------------------------------------------------------------

func TestRunBenchmarkAllPrimary(t *testing.T) {
	st := storetest.NewFakeStore()
	populate(t, st, testPrimary)

	b := newTestBenchmark(st, 4, 10)
	stats := b.RunBenchmark(context.Background(), 200)

	checkConservation(t, stats)
	if stats.TotalReads != 200 {
		t.Errorf("Expected 200 reads, got %d", stats.TotalReads)
	}
	if stats.PrimaryHits != 200 {
		t.Errorf("Expected all reads from primary, got %d primary %d secondary %d misses",
			stats.PrimaryHits, stats.SecondaryHits, stats.Misses)
	}
	if stats.BytesRead == 0 {
		t.Error("Expected non-zero bytes read")
	}
	if stats.Duration <= 0 {
		t.Error("Expected positive duration")
	}
	if stats.Strategy != "sequential" {
		t.Errorf("Expected strategy sequential, got %q", stats.Strategy)
	}
}

func TestRunBenchmarkAllSecondary(t *testing.T) {
	st := storetest.NewFakeStore()
	populate(t, st, testSecondary)

	b := newTestBenchmark(st, 2, 10)
	stats := b.RunBenchmark(context.Background(), 100)

	checkConservation(t, stats)
	if stats.SecondaryHits != 100 {
		t.Errorf("Expected all reads from secondary, got %d", stats.SecondaryHits)
	}
	if stats.PrimaryHits != 0 {
		t.Errorf("Expected no primary hits, got %d", stats.PrimaryHits)
	}
}

func TestRunBenchmarkAllMisses(t *testing.T) {
	st := storetest.NewFakeStore()
	b := newTestBenchmark(st, 3, 10)

	stats := b.RunBenchmark(context.Background(), 90)

	checkConservation(t, stats)
	if stats.Misses != 90 {
		t.Errorf("Expected 90 misses, got %d", stats.Misses)
	}
	if stats.HitRate() != 0 {
		t.Errorf("Expected zero hit rate, got %f", stats.HitRate())
	}
}

func TestRunBenchmarkUnevenThreadSplit(t *testing.T) {
	st := storetest.NewFakeStore()
	populate(t, st, testPrimary)

	// 103 reads over 4 threads: three threads read 26, one reads 25.
	b := newTestBenchmark(st, 4, 10)
	stats := b.RunBenchmark(context.Background(), 103)

	checkConservation(t, stats)
	if stats.TotalReads != 103 {
		t.Errorf("Expected 103 reads, got %d", stats.TotalReads)
	}
}

func TestRunBenchmarkCancelledContext(t *testing.T) {
	st := storetest.NewFakeStore()
	populate(t, st, testPrimary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newTestBenchmark(st, 2, 10)
	stats := b.RunBenchmark(ctx, 100)

	checkConservation(t, stats)
	if stats.TotalReads != 0 {
		t.Errorf("Expected no reads after cancellation, got %d", stats.TotalReads)
	}
}

func TestRunBenchmarkUpdatesProcessCounters(t *testing.T) {
	st := storetest.NewFakeStore()
	b := newTestBenchmark(st, 1, 10)

	b.RunBenchmark(context.Background(), 10)

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	out := buf.String()

	for _, name := range []string{"lfbench_reads_total", "lfbench_read_misses_total"} {
		if !strings.Contains(out, name) {
			t.Errorf("Expected counter %s in Prometheus exposition", name)
		}
	}
}

// --------------------------------------------------------------------------
// Strategy 2: single-threaded pipelined
// --------------------------------------------------------------------------

func TestRunPipelineBenchmark(t *testing.T) {
	st := storetest.NewFakeStore()
	populate(t, st, testSecondary)

	b := newTestBenchmark(st, 1, 25)
	stats := b.RunPipelineBenchmark(context.Background(), 100)

	checkConservation(t, stats)
	if stats.TotalReads != 100 {
		t.Errorf("Expected 100 reads, got %d", stats.TotalReads)
	}
	if stats.SecondaryHits != 100 {
		t.Errorf("Expected all reads from secondary, got %d", stats.SecondaryHits)
	}
	if stats.Strategy != "pipeline" {
		t.Errorf("Expected strategy pipeline, got %q", stats.Strategy)
	}
	// 100 ids in batches of 25, two GETs per id, one pipeline per batch.
	if st.PipelineCalls() != 4 {
		t.Errorf("Expected 4 pipeline calls, got %d", st.PipelineCalls())
	}
}

func TestRunPipelineBenchmarkFallsBackPerBatch(t *testing.T) {
	st := storetest.NewFakeStore()
	populate(t, st, testPrimary)
	st.FailPipelines = 1

	b := newTestBenchmark(st, 1, 20)
	stats := b.RunPipelineBenchmark(context.Background(), 60)

	checkConservation(t, stats)
	// The failed batch is re-read sequentially, so totals are unchanged.
	if stats.TotalReads != 60 {
		t.Errorf("Expected 60 reads, got %d", stats.TotalReads)
	}
	if stats.PrimaryHits != 60 {
		t.Errorf("Expected all reads from primary, got %d", stats.PrimaryHits)
	}
	if st.GetCalls() == 0 {
		t.Error("Expected sequential fallback reads for the failed batch")
	}
}

// --------------------------------------------------------------------------
// Strategy 3: multi-threaded pipelined
// --------------------------------------------------------------------------

func TestRunPipelineBenchmarkMT(t *testing.T) {
	st := storetest.NewFakeStore()
	populate(t, st, testPrimary)

	b := newTestBenchmark(st, 3, 10)
	stats := b.RunPipelineBenchmarkMT(context.Background(), 100)

	checkConservation(t, stats)
	if stats.TotalReads != 100 {
		t.Errorf("Expected 100 reads, got %d", stats.TotalReads)
	}
	if stats.PrimaryHits != 100 {
		t.Errorf("Expected all reads from primary, got %d", stats.PrimaryHits)
	}
	if stats.Strategy != "pipeline-mt" {
		t.Errorf("Expected strategy pipeline-mt, got %q", stats.Strategy)
	}
}

func TestRunPipelineBenchmarkMTMixedTiers(t *testing.T) {
	st := storetest.NewFakeStore()
	// Even ids under primary, odd ids under secondary; every read hits.
	for id := 0; id < testMaxKeys; id++ {
		version := testPrimary
		if id%2 == 1 {
			version = testSecondary
		}
		st.SetTTL(context.Background(), record.Key(version, id), []byte("payload"), 0)
	}

	b := newTestBenchmark(st, 2, 10)
	stats := b.RunPipelineBenchmarkMT(context.Background(), 200)

	checkConservation(t, stats)
	if stats.Misses != 0 {
		t.Errorf("Expected no misses, got %d", stats.Misses)
	}
	if stats.PrimaryHits == 0 || stats.SecondaryHits == 0 {
		t.Errorf("Expected hits on both tiers, got primary=%d secondary=%d",
			stats.PrimaryHits, stats.SecondaryHits)
	}
}
