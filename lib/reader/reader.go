package reader

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/locationflex/lfbench/lib/record"
	"github.com/locationflex/lfbench/lib/store"
	"github.com/locationflex/lfbench/lib/writer"
)

// progressInterval is how often a running benchmark emits a snapshot.
const progressInterval = 5 * time.Second

var (
	readsTotal      = metrics.NewCounter("lfbench_reads_total")
	readMissesTotal = metrics.NewCounter("lfbench_read_misses_total")
)

// Options configures a Benchmark.
type Options struct {
	// PrimaryVersion is the namespace checked first on every read.
	PrimaryVersion string
	// SecondaryVersion is the fallback namespace.
	SecondaryVersion string
	// MaxKeys bounds the random id draw to [0, MaxKeys).
	MaxKeys int
	// NumThreads is the fan-out of the sequential and MT pipelined modes.
	NumThreads int
	// BatchSize is the number of ids per pipelined batch.
	BatchSize int
	// Logger defaults to zap.NewNop when nil.
	Logger *zap.Logger
}

// Benchmark drives two-tier reads against the store in one of three
// strategies. A Benchmark is stateless between runs and safe to reuse.
type Benchmark struct {
	store store.IStore
	opts  Options
	log   *zap.Logger
}

// NewBenchmark creates a benchmark runner.
func NewBenchmark(st store.IStore, opts Options) *Benchmark {
	if opts.NumThreads < 1 {
		opts.NumThreads = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 100
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Benchmark{store: st, opts: opts, log: log}
}

// ReadKey performs one two-tier lookup for an id. The primary namespace is
// always checked first; the secondary only on a primary miss or error. A key
// absent from both tiers returns TierNone with a nil value. An error is
// returned only when the secondary lookup itself fails.
func (b *Benchmark) ReadKey(ctx context.Context, id int) ([]byte, Tier, error) {
	value, found, err := b.store.Get(ctx, record.Key(b.opts.PrimaryVersion, id))
	if err == nil && found {
		return value, TierPrimary, nil
	}
	if err != nil {
		b.log.Debug("primary read failed, trying secondary",
			zap.Int("id", id),
			zap.Error(err))
	}

	value, found, err = b.store.Get(ctx, record.Key(b.opts.SecondaryVersion, id))
	if err != nil {
		return nil, TierNone, err
	}
	if found {
		return value, TierSecondary, nil
	}
	return nil, TierNone, nil
}

// generateIDs pre-draws n random ids from one source, so pipelined runs
// behave identically regardless of thread split.
func (b *Benchmark) generateIDs(n int) []int {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ids := make([]int, n)
	for i := range ids {
		ids[i] = record.RandomID(rng, b.opts.MaxKeys)
	}
	return ids
}

// --------------------------------------------------------------------------
// Strategy 1: threaded sequential reads
// --------------------------------------------------------------------------

// RunBenchmark runs totalReads individual two-tier lookups spread over the
// configured number of threads. The first totalReads mod N threads read one
// extra id; each thread draws its own fresh random ids. Cancellation stops
// every thread at its next read; partial stats are returned.
func (b *Benchmark) RunBenchmark(ctx context.Context, totalReads int) Stats {
	threads := b.opts.NumThreads
	if threads > totalReads {
		threads = totalReads
	}
	if threads < 1 {
		threads = 1
	}

	b.log.Info("starting sequential read benchmark",
		zap.Int("total_reads", totalReads),
		zap.Int("threads", threads))

	hist := newLatencyHistogram()
	progress := xsync.NewCounter()
	start := time.Now()

	stopMonitor := b.startMonitor("sequential", totalReads, progress, start)
	defer stopMonitor()

	results := make(chan *accumulator, threads)
	var wg sync.WaitGroup

	base := totalReads / threads
	extra := totalReads % threads
	for i := 0; i < threads; i++ {
		count := base
		if i < extra {
			count++
		}

		wg.Add(1)
		go func(threadID, count int) {
			defer wg.Done()

			acc := newAccumulator(hist)
			rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(threadID)<<32))

			for n := 0; n < count; n++ {
				if ctx.Err() != nil {
					break
				}

				id := record.RandomID(rng, b.opts.MaxKeys)
				readStart := time.Now()
				value, tier, err := b.ReadKey(ctx, id)
				if err != nil {
					b.log.Debug("read failed",
						zap.Int("id", id),
						zap.Error(err))
					tier = TierNone
				}

				acc.record(tier, len(value), time.Since(readStart))
				progress.Inc()
			}

			results <- acc
		}(i+1, count)
	}

	wg.Wait()
	close(results)

	return b.collect("sequential", hist, results, start)
}

// --------------------------------------------------------------------------
// Strategy 2: single-threaded pipelined reads
// --------------------------------------------------------------------------

// RunPipelineBenchmark pre-generates totalReads random ids and reads them in
// pipelined batches on one goroutine. Each batch issues the primary and
// secondary GET of every id adjacent in a single pipeline; a batch whose
// pipeline fails as a whole is re-read sequentially, batch-local only.
func (b *Benchmark) RunPipelineBenchmark(ctx context.Context, totalReads int) Stats {
	b.log.Info("starting pipelined read benchmark",
		zap.Int("total_reads", totalReads),
		zap.Int("batch_size", b.opts.BatchSize))

	hist := newLatencyHistogram()
	progress := xsync.NewCounter()
	start := time.Now()

	stopMonitor := b.startMonitor("pipeline", totalReads, progress, start)
	defer stopMonitor()

	acc := newAccumulator(hist)
	ids := b.generateIDs(totalReads)
	b.readSlicePipelined(ctx, ids, acc, progress)

	results := make(chan *accumulator, 1)
	results <- acc
	close(results)

	return b.collect("pipeline", hist, results, start)
}

// RunPipelineBenchmarkMT pre-generates totalReads random ids, splits them
// into contiguous per-thread slices (remainder to the last slice, like the
// writer's key-space partitioning) and runs the pipelined strategy on every
// slice concurrently.
func (b *Benchmark) RunPipelineBenchmarkMT(ctx context.Context, totalReads int) Stats {
	threads := b.opts.NumThreads

	b.log.Info("starting multi-threaded pipelined read benchmark",
		zap.Int("total_reads", totalReads),
		zap.Int("threads", threads),
		zap.Int("batch_size", b.opts.BatchSize))

	hist := newLatencyHistogram()
	progress := xsync.NewCounter()
	start := time.Now()

	stopMonitor := b.startMonitor("pipeline-mt", totalReads, progress, start)
	defer stopMonitor()

	ids := b.generateIDs(totalReads)
	ranges := writer.Partition(len(ids), threads)

	results := make(chan *accumulator, len(ranges))
	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(slice []int) {
			defer wg.Done()

			acc := newAccumulator(hist)
			b.readSlicePipelined(ctx, slice, acc, progress)
			results <- acc
		}(ids[r.Start:r.End])
	}

	wg.Wait()
	close(results)

	return b.collect("pipeline-mt", hist, results, start)
}

// readSlicePipelined reads a slice of ids in pipelined batches, recording
// every attempt into acc.
func (b *Benchmark) readSlicePipelined(ctx context.Context, ids []int, acc *accumulator, progress *xsync.Counter) {
	for len(ids) > 0 {
		if ctx.Err() != nil {
			return
		}

		size := b.opts.BatchSize
		if len(ids) < size {
			size = len(ids)
		}
		batch := ids[:size]
		ids = ids[size:]

		b.readBatchPipelined(ctx, batch, acc)
		progress.Add(int64(len(batch)))
	}
}

// readBatchPipelined issues one pipeline carrying the primary GET at index
// 2i and the secondary GET at index 2i+1 for the id at position i. On a
// whole-pipeline failure the batch is read again with individual two-tier
// lookups; other batches are unaffected.
func (b *Benchmark) readBatchPipelined(ctx context.Context, batch []int, acc *accumulator) {
	ops := make([]store.Op, 0, len(batch)*2)
	for _, id := range batch {
		ops = append(ops,
			store.GetOp(record.Key(b.opts.PrimaryVersion, id)),
			store.GetOp(record.Key(b.opts.SecondaryVersion, id)))
	}

	batchStart := time.Now()
	results, err := b.store.Pipeline(ctx, ops)

	if err != nil || len(results) != len(ops) {
		b.log.Warn("pipelined batch failed, falling back to sequential reads",
			zap.Int("batch_size", len(batch)),
			zap.Error(err))

		for _, id := range batch {
			if ctx.Err() != nil {
				return
			}
			readStart := time.Now()
			value, tier, err := b.ReadKey(ctx, id)
			if err != nil {
				tier = TierNone
			}
			acc.record(tier, len(value), time.Since(readStart))
		}
		return
	}

	// The batch round-trip is amortized evenly across its reads.
	perRead := time.Since(batchStart) / time.Duration(len(batch))

	for i := range batch {
		primary := results[i*2]
		secondary := results[i*2+1]

		switch {
		case primary.Err == nil && primary.Found:
			acc.record(TierPrimary, len(primary.Value), perRead)
		case secondary.Err == nil && secondary.Found:
			acc.record(TierSecondary, len(secondary.Value), perRead)
		default:
			acc.record(TierNone, 0, perRead)
		}
	}
}

// --------------------------------------------------------------------------
// Collection and progress
// --------------------------------------------------------------------------

// collect merges per-goroutine accumulators, updates process counters and
// finalizes the stats. hist is the histogram shared by all accumulators of
// the run.
func (b *Benchmark) collect(strategy string, hist gometrics.Histogram, results <-chan *accumulator, start time.Time) Stats {
	merged := newAccumulator(hist)
	for acc := range results {
		merged.merge(acc)
	}

	readsTotal.Add(merged.stats.TotalReads)
	readMissesTotal.Add(merged.stats.Misses)

	out := merged.finalize(strategy, time.Since(start))

	b.log.Info("read benchmark finished",
		zap.String("strategy", strategy),
		zap.Int("total_reads", out.TotalReads),
		zap.Int("primary_hits", out.PrimaryHits),
		zap.Int("secondary_hits", out.SecondaryHits),
		zap.Int("misses", out.Misses),
		zap.Float64("rate_reads_per_sec", out.Rate()),
		zap.Duration("duration", out.Duration))

	return out
}

// startMonitor launches the periodic snapshot goroutine and returns its stop
// function.
func (b *Benchmark) startMonitor(strategy string, totalReads int, progress *xsync.Counter, start time.Time) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		lastDone := int64(0)
		lastTick := start

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				done := progress.Value()
				instRate := float64(done-lastDone) / now.Sub(lastTick).Seconds()

				b.log.Info("read progress",
					zap.String("strategy", strategy),
					zap.Int64("reads", done),
					zap.Int("target", totalReads),
					zap.Float64("rate_reads_per_sec", instRate))

				lastDone = done
				lastTick = now
			}
		}
	}()

	return cancel
}
