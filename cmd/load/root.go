package load

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/locationflex/lfbench/cmd/util"
	"github.com/locationflex/lfbench/lib/config"
	"github.com/locationflex/lfbench/lib/record"
	"github.com/locationflex/lfbench/lib/writer"
)

var (
	loadCfg config.Config
	loadLog *zap.Logger

	// LoadCommands represents the load command group
	LoadCommands = &cobra.Command{
		Use:               "load",
		Short:             "Bulk-populate the store with synthetic records",
		PersistentPreRunE: setupLoad,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a partitioned parallel import of one version",
		RunE:  runImport,
	}

	multiCmd = &cobra.Command{
		Use:   "multi",
		Short: "Import several versions sequentially and project total runtime",
		RunE:  runMultiImport,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common store flags to the load command
	util.SetupStoreFlags(LoadCommands)

	key := "version"
	LoadCommands.PersistentFlags().String(key, "", util.WrapString("Version tag to write under (default derived from the current day, e.g. v23)"))
	key = "keys"
	LoadCommands.PersistentFlags().Int(key, 0, util.WrapString("How many keys to import per version (default from config)"))
	key = "workers"
	LoadCommands.PersistentFlags().Int(key, 0, util.WrapString("Number of parallel writers (default from config)"))
	key = "write-batch-size"
	LoadCommands.PersistentFlags().Int(key, 0, util.WrapString("Keys per pipelined batch (default from config)"))
	key = "ttl"
	LoadCommands.PersistentFlags().Int(key, 0, util.WrapString("Key TTL in seconds (default from config)"))
	key = "skip-probability"
	LoadCommands.PersistentFlags().Float64(key, 0, util.WrapString("Probability of skipping a key to simulate gaps (0 disables)"))
	key = "json"
	LoadCommands.PersistentFlags().String(key, "", util.WrapString("Optional path to save the import report as JSON"))
	key = "metrics"
	LoadCommands.PersistentFlags().String(key, "", util.WrapString("Optional path to dump process counters in Prometheus text format"))

	key = "versions"
	multiCmd.Flags().String(key, "", util.WrapString("Comma-separated version tags to import (default secondary,primary from config)"))
	key = "project"
	multiCmd.Flags().Int(key, 0, util.WrapString("Project the runtime for a hypothetical total key count"))

	// Add subcommands
	LoadCommands.AddCommand(runCmd)
	LoadCommands.AddCommand(multiCmd)
}

// setupLoad merges flags, environment and defaults into the load config
func setupLoad(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	cfg, logger, err := util.GetRuntime()
	if err != nil {
		return err
	}

	// Writer flags layer on top of config and environment.
	if v := viper.GetInt("keys"); v > 0 {
		cfg.Writer.MaxKeys = v
	}
	if v := viper.GetInt("workers"); v > 0 {
		cfg.Writer.NumWorkers = v
	}
	if v := viper.GetInt("write-batch-size"); v > 0 {
		cfg.Writer.BatchSize = v
	}
	if v := viper.GetInt("ttl"); v > 0 {
		cfg.Writer.KeyTTLSec = v
	}
	if v := viper.GetFloat64("skip-probability"); v > 0 {
		cfg.Writer.SkipProbability = v
	}

	loadCfg = cfg
	loadLog = logger
	return nil
}

func runImport(_ *cobra.Command, _ []string) error {
	ctx, stop := util.SignalContext()
	defer stop()

	version := viper.GetString("version")
	if version == "" {
		version = config.DefaultVersionTag(time.Now())
	}

	fmt.Println("Bulk import")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(loadCfg.String())
	fmt.Printf("Target version: %s\n\n", version)

	st, err := util.Connect(ctx, loadCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	o := writer.NewOrchestrator(st, record.NewGenerator(0), loadCfg.Writer, loadLog)
	agg := o.RunImport(ctx, version, loadCfg.Writer.MaxKeys)

	printAggregate(agg)

	if path := viper.GetString("json"); path != "" {
		if err := util.WriteJSONReport(path, agg); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Printf("\nreport saved to %s\n", path)
	}
	return dumpMetrics()
}

func runMultiImport(_ *cobra.Command, _ []string) error {
	ctx, stop := util.SignalContext()
	defer stop()

	versions := []string{loadCfg.SecondaryVersion, loadCfg.PrimaryVersion}
	if raw := viper.GetString("versions"); raw != "" {
		versions = strings.Split(raw, ",")
	}

	fmt.Println("Multi-version bulk import")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(loadCfg.String())
	fmt.Printf("Versions: %s\n\n", strings.Join(versions, ", "))

	st, err := util.Connect(ctx, loadCfg)
	if err != nil {
		return err
	}
	defer st.Close()

	o := writer.NewOrchestrator(st, record.NewGenerator(0), loadCfg.Writer, loadLog)
	multi := o.RunMultiVersionImport(ctx, versions, loadCfg.Writer.MaxKeys)

	fmt.Println()
	fmt.Println("Results:")
	for _, agg := range multi.Versions {
		fmt.Printf("  %s: written=%d skipped=%d duration=%s rate=%.1f keys/sec\n",
			agg.Version, agg.TotalKeysWritten, agg.TotalKeysSkipped,
			agg.Duration.Round(time.Millisecond), agg.Rate())
	}
	fmt.Printf("  total:    written=%d skipped=%d\n", multi.TotalKeysWritten, multi.TotalKeysSkipped)
	fmt.Printf("  duration: %s\n", multi.Duration.Round(time.Millisecond))
	fmt.Printf("  rate:     %.1f keys/sec\n", multi.Rate())

	if project := viper.GetInt("project"); project > 0 {
		fmt.Printf("  projected runtime for %d keys: %s\n",
			project, multi.ProjectedDuration(project).Round(time.Second))
	}

	if path := viper.GetString("json"); path != "" {
		if err := util.WriteJSONReport(path, multi); err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Printf("\nreport saved to %s\n", path)
	}
	return dumpMetrics()
}

// dumpMetrics saves the process counters when the metrics flag is set.
func dumpMetrics() error {
	path := viper.GetString("metrics")
	if path == "" {
		return nil
	}
	if err := util.WriteMetricsReport(path); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	fmt.Printf("metrics saved to %s\n", path)
	return nil
}

func printAggregate(agg writer.AggregateReport) {
	fmt.Println()
	fmt.Println("Results:")
	fmt.Printf("  version:  %s\n", agg.Version)
	fmt.Printf("  workers:  %d\n", agg.NumWorkers)
	fmt.Printf("  written:  %d\n", agg.TotalKeysWritten)
	fmt.Printf("  skipped:  %d\n", agg.TotalKeysSkipped)
	fmt.Printf("  duration: %s\n", agg.Duration.Round(time.Millisecond))
	fmt.Printf("  rate:     %.1f keys/sec\n", agg.Rate())
	for _, w := range agg.Workers {
		fmt.Printf("    worker %d: range=[%d, %d) written=%d skipped=%d rate=%.1f keys/sec\n",
			w.WorkerID, w.StartID, w.EndID, w.KeysWritten, w.KeysSkipped, w.Rate())
	}
}
