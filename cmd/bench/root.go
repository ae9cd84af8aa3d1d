package bench

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/locationflex/lfbench/cmd/util"
	"github.com/locationflex/lfbench/lib/config"
	"github.com/locationflex/lfbench/lib/reader"
)

var (
	benchCfg config.Config
	benchLog *zap.Logger

	// BenchCommands represents the bench command group
	BenchCommands = &cobra.Command{
		Use:               "bench",
		Short:             "Benchmark two-tier fallback reads against the store",
		PersistentPreRunE: setupBench,
	}

	seqCmd = &cobra.Command{
		Use:   "seq",
		Short: "Threaded sequential reads, one two-tier lookup per id",
		RunE:  func(_ *cobra.Command, _ []string) error { return runBench("seq") },
	}

	pipelineCmd = &cobra.Command{
		Use:   "pipeline",
		Short: "Single-threaded pipelined reads in fixed-size batches",
		RunE:  func(_ *cobra.Command, _ []string) error { return runBench("pipeline") },
	}

	pipelineMTCmd = &cobra.Command{
		Use:   "pipeline-mt",
		Short: "Pipelined reads fanned out over contiguous per-thread id slices",
		RunE:  func(_ *cobra.Command, _ []string) error { return runBench("pipeline-mt") },
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common store flags to the bench command
	util.SetupStoreFlags(BenchCommands)

	key := "reads"
	BenchCommands.PersistentFlags().Int(key, 10000, util.WrapString("How many reads to perform"))
	key = "threads"
	BenchCommands.PersistentFlags().Int(key, 0, util.WrapString("Number of reader threads (default from config)"))
	key = "read-batch-size"
	BenchCommands.PersistentFlags().Int(key, 0, util.WrapString("Ids per pipelined batch (default from config)"))
	key = "primary"
	BenchCommands.PersistentFlags().String(key, "", util.WrapString("Primary version namespace (default from config)"))
	key = "secondary"
	BenchCommands.PersistentFlags().String(key, "", util.WrapString("Secondary fallback namespace (default from config)"))
	key = "max-keys"
	BenchCommands.PersistentFlags().Int(key, 0, util.WrapString("Upper bound of the random id draw (default from config)"))
	key = "json"
	BenchCommands.PersistentFlags().String(key, "", util.WrapString("Optional path to save the benchmark stats as JSON"))
	key = "metrics"
	BenchCommands.PersistentFlags().String(key, "", util.WrapString("Optional path to dump process counters in Prometheus text format"))

	// Add subcommands
	BenchCommands.AddCommand(seqCmd)
	BenchCommands.AddCommand(pipelineCmd)
	BenchCommands.AddCommand(pipelineMTCmd)
}

// setupBench merges flags, environment and defaults into the bench config
func setupBench(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	cfg, logger, err := util.GetRuntime()
	if err != nil {
		return err
	}

	if v := viper.GetInt("threads"); v > 0 {
		cfg.Reader.NumThreads = v
	}
	if v := viper.GetInt("read-batch-size"); v > 0 {
		cfg.Reader.BatchSize = v
	}
	if v := viper.GetString("primary"); v != "" {
		cfg.PrimaryVersion = v
	}
	if v := viper.GetString("secondary"); v != "" {
		cfg.SecondaryVersion = v
	}
	if v := viper.GetInt("max-keys"); v > 0 {
		cfg.Writer.MaxKeys = v
	}

	benchCfg = cfg
	benchLog = logger
	return nil
}

func runBench(strategy string) error {
	ctx, stop := util.SignalContext()
	defer stop()

	reads := viper.GetInt("reads")

	fmt.Println("Read benchmark")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(benchCfg.String())
	fmt.Printf("Strategy: %s, reads: %d\n\n", strategy, reads)

	st, err := util.Connect(ctx, benchCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	b := reader.NewBenchmark(st, reader.Options{
		PrimaryVersion:   benchCfg.PrimaryVersion,
		SecondaryVersion: benchCfg.SecondaryVersion,
		MaxKeys:          benchCfg.Writer.MaxKeys,
		NumThreads:       benchCfg.Reader.NumThreads,
		BatchSize:        benchCfg.Reader.BatchSize,
		Logger:           benchLog,
	})

	var stats reader.Stats
	switch strategy {
	case "seq":
		stats = b.RunBenchmark(ctx, reads)
	case "pipeline":
		stats = b.RunPipelineBenchmark(ctx, reads)
	case "pipeline-mt":
		stats = b.RunPipelineBenchmarkMT(ctx, reads)
	default:
		return fmt.Errorf("unknown strategy %s", strategy)
	}

	printStats(stats)

	if path := viper.GetString("json"); path != "" {
		if err := util.WriteJSONReport(path, stats); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Printf("\nreport saved to %s\n", path)
	}

	if path := viper.GetString("metrics"); path != "" {
		if err := util.WriteMetricsReport(path); err != nil {
			return fmt.Errorf("save metrics: %w", err)
		}
		fmt.Printf("metrics saved to %s\n", path)
	}
	return nil
}

func printStats(s reader.Stats) {
	fmt.Println()
	fmt.Println("Results:")
	fmt.Printf("  strategy:       %s\n", s.Strategy)
	fmt.Printf("  total reads:    %d\n", s.TotalReads)
	fmt.Printf("  successful:     %d (%.1f%%)\n", s.SuccessfulReads, s.HitRate()*100)
	fmt.Printf("  primary hits:   %d\n", s.PrimaryHits)
	fmt.Printf("  secondary hits: %d\n", s.SecondaryHits)
	fmt.Printf("  misses:         %d\n", s.Misses)
	fmt.Printf("  bytes read:     %d\n", s.BytesRead)
	fmt.Printf("  duration:       %s\n", s.Duration.Round(time.Millisecond))
	fmt.Printf("  rate:           %.1f reads/sec\n", s.Rate())
	fmt.Printf("  latency p50:    %s\n", s.LatencyP50.Round(time.Microsecond))
	fmt.Printf("  latency p95:    %s\n", s.LatencyP95.Round(time.Microsecond))
}
