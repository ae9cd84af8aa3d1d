package writer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/locationflex/lfbench/lib/config"
	"github.com/locationflex/lfbench/lib/record"
	"github.com/locationflex/lfbench/lib/store"
)

// versionPause is the brief pause between sequential version imports.
const versionPause = 2 * time.Second

// Orchestrator partitions the key-space across parallel batch writers and
// merges their reports.
type Orchestrator struct {
	store  store.IStore
	source *record.Generator
	cfg    config.WriterConfig
	log    *zap.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger defaults to nop.
func NewOrchestrator(st store.IStore, source *record.Generator, cfg config.WriterConfig, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		store:  st,
		source: source,
		cfg:    cfg,
		log:    log,
	}
}

// RunImport imports targetKeys keys under one version, partitioned across
// the configured number of workers. Each worker owns its accumulator and
// returns its Report over a channel; the orchestrator merges them once after
// all workers finish. The aggregate duration is this method's own wall
// clock. Cancelling the context stops workers at their next batch boundary;
// the partial report is still returned.
func (o *Orchestrator) RunImport(ctx context.Context, version string, targetKeys int) AggregateReport {
	ranges := Partition(targetKeys, o.cfg.NumWorkers)
	progress := NewProgress()

	o.log.Info("starting parallel import",
		zap.String("version", version),
		zap.Int("target_keys", targetKeys),
		zap.Int("workers", len(ranges)))

	start := time.Now()
	reports := make(chan Report, len(ranges))

	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(workerID int, r Range) {
			defer wg.Done()

			bw := NewBatchWriter(o.store, o.source, Options{
				Version:         version,
				StartID:         r.Start,
				MaxKeys:         r.End,
				BatchSize:       o.cfg.BatchSize,
				TTL:             o.cfg.KeyTTL(),
				SkipProbability: o.cfg.SkipProbability,
				Progress:        progress,
				Logger:          o.log.With(zap.Int("worker", workerID)),
			})

			rep := bw.RunContinuous(ctx, r.Len(), 0)
			rep.WorkerID = workerID
			reports <- rep
		}(i+1, r)
	}

	// Periodic snapshot of the shared live counters while workers run.
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	go o.monitor(monitorCtx, version, targetKeys, progress, start)

	wg.Wait()
	stopMonitor()
	close(reports)

	agg := AggregateReport{
		Version:    version,
		NumWorkers: len(ranges),
		Workers:    make([]Report, 0, len(ranges)),
	}
	for rep := range reports {
		agg.TotalKeysWritten += rep.KeysWritten
		agg.TotalKeysSkipped += rep.KeysSkipped
		agg.Workers = append(agg.Workers, rep)
	}
	agg.Duration = time.Since(start)

	o.log.Info("parallel import finished",
		zap.String("version", version),
		zap.Int("written", agg.TotalKeysWritten),
		zap.Int("skipped", agg.TotalKeysSkipped),
		zap.Duration("duration", agg.Duration),
		zap.Float64("rate_keys_per_sec", agg.Rate()))

	return agg
}

// RunMultiVersionImport runs the full partitioned import once per version,
// sequentially, with a brief pause between versions.
func (o *Orchestrator) RunMultiVersionImport(ctx context.Context, versions []string, targetKeysEach int) MultiVersionReport {
	start := time.Now()
	multi := MultiVersionReport{
		Versions: make([]AggregateReport, 0, len(versions)),
	}

	for i, version := range versions {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(versionPause):
			}
		}

		agg := o.RunImport(ctx, version, targetKeysEach)
		multi.Versions = append(multi.Versions, agg)
		multi.TotalKeysWritten += agg.TotalKeysWritten
		multi.TotalKeysSkipped += agg.TotalKeysSkipped
	}

	multi.Duration = time.Since(start)
	return multi
}

// monitor logs periodic snapshots until its context is cancelled.
func (o *Orchestrator) monitor(ctx context.Context, version string, targetKeys int, progress *Progress, start time.Time) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	lastWritten := int64(0)
	lastTick := start

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			written := progress.Written.Value()
			skipped := progress.Skipped.Value()
			instRate := float64(written-lastWritten) / now.Sub(lastTick).Seconds()

			o.log.Info("import progress",
				zap.String("version", version),
				zap.Int64("written", written),
				zap.Int64("skipped", skipped),
				zap.Int("target", targetKeys),
				zap.Float64("rate_keys_per_sec", instRate))

			lastWritten = written
			lastTick = now
		}
	}
}
