package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/locationflex/lfbench/cmd/bench"
	"github.com/locationflex/lfbench/cmd/load"
	storecmd "github.com/locationflex/lfbench/cmd/store"
	"github.com/locationflex/lfbench/cmd/util"
)

const (
	Version = "1.2.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "lfbench",
		Short: "bulk population and read benchmark tool for Redis-compatible stores",
		Long: fmt.Sprintf(`lfbench (v%s)

Populates a Redis-compatible store with versioned synthetic geolocation
records using partitioned parallel pipelined writes, and benchmarks
two-tier fallback reads against it.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of lfbench",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lfbench v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(load.LoadCommands)
	RootCmd.AddCommand(bench.BenchCommands)
	RootCmd.AddCommand(storecmd.StoreCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("log level (debug, info, warn, error)"))
	key = "log-format"
	RootCmd.PersistentFlags().String(key, "console", util.WrapString("log output format (console, json)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
