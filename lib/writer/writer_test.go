package writer

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

func newTestWriter(st *storetest.FakeStore, opts Options) *BatchWriter {
	if opts.Version == "" {
		opts.Version = "v23"
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = 10
	}
	return NewBatchWriter(st, record.NewGenerator(10), opts)
}

func TestWriteFillsRange(t *testing.T) {
	st := storetest.NewFakeStore()
	w := newTestWriter(st, Options{MaxKeys: 50, TTL: time.Hour})

	written, skipped := w.Write(context.Background(), 50, 10)

	if written != 50 {
		t.Errorf("Expected 50 keys written, got %d", written)
	}
	if skipped != 0 {
		t.Errorf("Expected 0 keys skipped, got %d", skipped)
	}
	if st.Len() != 50 {
		t.Errorf("Expected 50 keys in store, got %d", st.Len())
	}
	if !w.Exhausted() {
		t.Error("Expected writer to be exhausted")
	}

	// Keys follow the versioned format and carry the TTL.
	value, found, err := st.Get(context.Background(), record.Key("v23", 49))
	if err != nil || !found {
		t.Fatalf("Expected key for id 49 to exist, got found=%v err=%v", found, err)
	}
	if len(value) == 0 {
		t.Error("Expected non-empty payload")
	}
	ttl, found, err := st.TTL(context.Background(), record.Key("v23", 0))
	if err != nil || !found {
		t.Fatalf("Expected TTL for id 0, got found=%v err=%v", found, err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("Expected TTL in (0, 1h], got %v", ttl)
	}
}

func TestWriteNeverPassesKeySpaceBound(t *testing.T) {
	st := storetest.NewFakeStore()
	w := newTestWriter(st, Options{MaxKeys: 25})

	written, _ := w.Write(context.Background(), 100, 10)

	if written != 25 {
		t.Errorf("Expected 25 keys written, got %d", written)
	}
	if w.Cursor() != 25 {
		t.Errorf("Expected cursor at 25, got %d", w.Cursor())
	}

	// Further calls are no-ops.
	written, _ = w.Write(context.Background(), 10, 10)
	if written != 0 {
		t.Errorf("Expected 0 keys written after exhaustion, got %d", written)
	}
}

func TestWriteFallsBackToIndividualWrites(t *testing.T) {
	st := storetest.NewFakeStore()
	st.FailPipelines = 1
	w := newTestWriter(st, Options{MaxKeys: 10})

	written, _ := w.Write(context.Background(), 10, 10)

	if written != 10 {
		t.Errorf("Expected 10 keys written via fallback, got %d", written)
	}
	if st.SetCalls() != 10 {
		t.Errorf("Expected 10 individual writes, got %d", st.SetCalls())
	}
	if st.Len() != 10 {
		t.Errorf("Expected 10 keys in store, got %d", st.Len())
	}
}

func TestWriteCountsIndividualFailures(t *testing.T) {
	st := storetest.NewFakeStore()
	st.FailPipelines = 1
	st.FailKeys[record.Key("v23", 3)] = true
	w := newTestWriter(st, Options{MaxKeys: 10})

	written, _ := w.Write(context.Background(), 10, 10)

	// The failing key is counted as not written, the batch continues.
	if written != 9 {
		t.Errorf("Expected 9 keys written, got %d", written)
	}
	if st.Len() != 9 {
		t.Errorf("Expected 9 keys in store, got %d", st.Len())
	}
}

func TestWriteCountsPipelineItemFailures(t *testing.T) {
	st := storetest.NewFakeStore()
	st.FailKeys[record.Key("v23", 7)] = true
	w := newTestWriter(st, Options{MaxKeys: 10})

	written, _ := w.Write(context.Background(), 10, 10)

	if written != 9 {
		t.Errorf("Expected 9 keys written, got %d", written)
	}
	if st.PipelineCalls() != 1 {
		t.Errorf("Expected 1 pipeline call, got %d", st.PipelineCalls())
	}
	if st.SetCalls() != 0 {
		t.Errorf("Expected no individual writes, got %d", st.SetCalls())
	}
}

func TestSkippedIDsConsumeCursor(t *testing.T) {
	st := storetest.NewFakeStore()
	w := newTestWriter(st, Options{MaxKeys: 20, SkipProbability: 1})

	written, skipped := w.Write(context.Background(), 20, 10)

	if written != 0 {
		t.Errorf("Expected 0 keys written, got %d", written)
	}
	if skipped != 20 {
		t.Errorf("Expected 20 keys skipped, got %d", skipped)
	}
	if w.Cursor() != 20 {
		t.Errorf("Expected cursor at 20, got %d", w.Cursor())
	}
	if st.PipelineCalls() != 0 {
		t.Errorf("Expected no pipeline calls for all-skipped batches, got %d", st.PipelineCalls())
	}
}

func TestWriteStopsOnCancelledContext(t *testing.T) {
	st := storetest.NewFakeStore()
	w := newTestWriter(st, Options{MaxKeys: 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	written, skipped := w.Write(ctx, 100, 10)
	if written != 0 || skipped != 0 {
		t.Errorf("Expected no work after cancellation, got written=%d skipped=%d", written, skipped)
	}
}

func TestWriteUpdatesProcessCounters(t *testing.T) {
	st := storetest.NewFakeStore()
	st.FailPipelines = 1
	w := newTestWriter(st, Options{MaxKeys: 5})

	w.Write(context.Background(), 5, 5)

	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, false)
	out := buf.String()

	for _, name := range []string{
		"lfbench_keys_written_total",
		"lfbench_keys_skipped_total",
		"lfbench_write_batch_fallbacks_total",
	} {
		if !strings.Contains(out, name) {
			t.Errorf("Expected counter %s in Prometheus exposition", name)
		}
	}
}

func TestRunContinuousStopsAtTarget(t *testing.T) {
	st := storetest.NewFakeStore()
	w := newTestWriter(st, Options{MaxKeys: 100})

	rep := w.RunContinuous(context.Background(), 30, 0)

	if rep.KeysWritten != 30 {
		t.Errorf("Expected 30 keys written, got %d", rep.KeysWritten)
	}
	if rep.Duration <= 0 {
		t.Error("Expected positive duration")
	}
	if rep.Rate() <= 0 {
		t.Error("Expected positive rate")
	}
}

func TestRunContinuousStopsWhenExhausted(t *testing.T) {
	st := storetest.NewFakeStore()
	w := newTestWriter(st, Options{MaxKeys: 20})

	rep := w.RunContinuous(context.Background(), 0, 0)

	if rep.KeysWritten != 20 {
		t.Errorf("Expected 20 keys written, got %d", rep.KeysWritten)
	}
	if rep.StartID != 0 || rep.EndID != 20 {
		t.Errorf("Expected range [0, 20), got [%d, %d)", rep.StartID, rep.EndID)
	}
}

func TestRunContinuousReportsPartialWorkOnCancel(t *testing.T) {
	st := storetest.NewFakeStore()
	w := newTestWriter(st, Options{MaxKeys: 1000, BatchSize: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := w.RunContinuous(ctx, 1000, 0)
	if rep.KeysWritten != 0 {
		t.Errorf("Expected 0 keys written after cancellation, got %d", rep.KeysWritten)
	}
	if rep.Version != "v23" {
		t.Errorf("Expected version in report, got %q", rep.Version)
	}
}
