package writer

import (
	"context"
	"math/rand"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"go.uber.org/zap"

	"github.com/locationflex/lfbench/lib/record"
	"github.com/locationflex/lfbench/lib/store"
)

// progressInterval is how often a running writer emits a progress snapshot.
const progressInterval = 5 * time.Second

var (
	keysWrittenTotal = metrics.NewCounter("lfbench_keys_written_total")
	keysSkippedTotal = metrics.NewCounter("lfbench_keys_skipped_total")
	writeBatchesFell = metrics.NewCounter("lfbench_write_batch_fallbacks_total")
)

// Options configures one BatchWriter.
type Options struct {
	// Version is the namespace tag written into every key.
	Version string
	// StartID is the first id of the writer's range.
	StartID int
	// MaxKeys is the exclusive upper bound of the cursor. The writer stops
	// permanently once the cursor reaches it, even mid-run.
	MaxKeys int
	// BatchSize is the number of keys per pipelined batch.
	BatchSize int
	// TTL is applied uniformly to every written key.
	TTL time.Duration
	// SkipProbability optionally skips writes to simulate cache misses.
	// A skipped id still consumes the cursor position and is counted as
	// skipped, never retried.
	SkipProbability float64
	// Progress, when set, receives live counter updates shared with other
	// workers. Optional.
	Progress *Progress
	// Logger defaults to zap.NewNop when nil.
	Logger *zap.Logger
}

// BatchWriter writes a contiguous sub-range of the key-space to the store in
// pipelined batches. It owns its cursor and counters exclusively; instances
// are created per run and discarded with their final Report.
type BatchWriter struct {
	store  store.IStore
	source *record.Generator
	opts   Options
	log    *zap.Logger
	rng    *rand.Rand

	cursor  int
	written int
	skipped int
}

// NewBatchWriter creates a writer over [opts.StartID, opts.MaxKeys).
func NewBatchWriter(st store.IStore, source *record.Generator, opts Options) *BatchWriter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &BatchWriter{
		store:  st,
		source: source,
		opts:   opts,
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(opts.StartID))),
		cursor: opts.StartID,
	}
}

// Cursor returns the next id the writer would attempt.
func (w *BatchWriter) Cursor() int {
	return w.cursor
}

// Counters returns the cumulative written and skipped counts.
func (w *BatchWriter) Counters() (written, skipped int) {
	return w.written, w.skipped
}

// Exhausted reports whether the cursor has reached the key-space bound.
func (w *BatchWriter) Exhausted() bool {
	return w.cursor >= w.opts.MaxKeys
}

// --------------------------------------------------------------------------
// Batch writing
// --------------------------------------------------------------------------

// batchOutcome is the explicit result of one pipelined batch attempt, so the
// fallback path is a first-class branch rather than an error handler.
type batchOutcome struct {
	attempted int  // ids consumed from the cursor
	written   int  // keys confirmed written
	skipped   int  // ids skipped by probability
	fellBack  bool // the pipelined call failed and individual writes ran
	itemErrs  int  // per-key failures (pipeline items or fallback writes)
}

// Write advances the cursor by up to count ids, issuing pipelined batches of
// at most batchSize keys. It returns how many keys were written and skipped.
// The cursor never passes the configured key-space bound.
func (w *BatchWriter) Write(ctx context.Context, count, batchSize int) (written, skipped int) {
	if batchSize <= 0 {
		batchSize = w.opts.BatchSize
	}

	remaining := count
	for remaining > 0 && w.cursor < w.opts.MaxKeys {
		if ctx.Err() != nil {
			break
		}

		size := batchSize
		if remaining < size {
			size = remaining
		}

		out := w.writeBatch(ctx, size)
		written += out.written
		skipped += out.skipped
		remaining -= out.attempted

		if out.attempted == 0 {
			break
		}
	}

	w.written += written
	w.skipped += skipped

	keysWrittenTotal.Add(written)
	keysSkippedTotal.Add(skipped)
	if p := w.opts.Progress; p != nil {
		p.Written.Add(int64(written))
		p.Skipped.Add(int64(skipped))
	}

	return written, skipped
}

// writeBatch consumes up to size ids from the cursor and issues them as one
// non-transactional pipelined request. On whole-batch failure every key of
// the batch is written individually once; per-key failures are counted and
// the rest of the batch continues.
func (w *BatchWriter) writeBatch(ctx context.Context, size int) batchOutcome {
	var out batchOutcome

	ops := make([]store.Op, 0, size)
	for len(ops) < size && w.cursor < w.opts.MaxKeys {
		id := w.cursor
		w.cursor++
		out.attempted++

		if w.opts.SkipProbability > 0 && w.rng.Float64() < w.opts.SkipProbability {
			out.skipped++
			continue
		}

		key := record.Key(w.opts.Version, id)
		ops = append(ops, store.SetTTLOp(key, w.source.Generate(id), w.opts.TTL))
	}

	if len(ops) == 0 {
		return out
	}

	results, err := w.store.Pipeline(ctx, ops)
	if err == nil {
		for _, res := range results {
			if res.Err != nil {
				out.itemErrs++
				continue
			}
			out.written++
		}
		return out
	}

	// Whole batch failed; one individual-write pass, best effort.
	out.fellBack = true
	writeBatchesFell.Inc()
	w.log.Warn("pipelined batch failed, falling back to individual writes",
		zap.Int("batch_size", len(ops)),
		zap.Error(err))

	for _, op := range ops {
		if err := w.store.SetTTL(ctx, op.Key, op.Value, op.TTL); err != nil {
			out.itemErrs++
			w.log.Warn("individual write failed",
				zap.String("key", op.Key),
				zap.Error(err))
			continue
		}
		out.written++
	}

	return out
}

// --------------------------------------------------------------------------
// Continuous mode
// --------------------------------------------------------------------------

// RunContinuous writes batches in a loop until the target key count is
// reached, the duration elapses, the cursor hits the key-space bound, or
// the context is cancelled, whichever comes first. A zero target or zero
// duration disables that condition. The final Report always reflects the
// work actually done.
func (w *BatchWriter) RunContinuous(ctx context.Context, targetKeys int, maxDuration time.Duration) Report {
	start := time.Now()
	lastReport := start
	lastWritten := 0

	for {
		if ctx.Err() != nil {
			break
		}
		if targetKeys > 0 && w.written >= targetKeys {
			break
		}
		if maxDuration > 0 && time.Since(start) >= maxDuration {
			break
		}
		if w.Exhausted() {
			w.log.Debug("reached end of key space",
				zap.Int("max_keys", w.opts.MaxKeys))
			break
		}

		chunk := w.opts.BatchSize
		if targetKeys > 0 {
			if left := targetKeys - w.written; left < chunk {
				chunk = left
			}
		}
		w.Write(ctx, chunk, w.opts.BatchSize)

		if now := time.Now(); now.Sub(lastReport) >= progressInterval {
			elapsed := now.Sub(start).Seconds()
			instRate := float64(w.written-lastWritten) / now.Sub(lastReport).Seconds()
			w.log.Info("write progress",
				zap.String("version", w.opts.Version),
				zap.Int("written", w.written),
				zap.Int("skipped", w.skipped),
				zap.Float64("rate_keys_per_sec", instRate),
				zap.Float64("avg_rate_keys_per_sec", float64(w.written)/elapsed))
			lastReport = now
			lastWritten = w.written
		}
	}

	return Report{
		Version:     w.opts.Version,
		StartID:     w.opts.StartID,
		EndID:       w.opts.MaxKeys,
		KeysWritten: w.written,
		KeysSkipped: w.skipped,
		Duration:    time.Since(start),
	}
}
