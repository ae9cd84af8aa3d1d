package store

import (
	"github.com/spf13/cobra"

	"github.com/locationflex/lfbench/cmd/util"
	libstore "github.com/locationflex/lfbench/lib/store"
)

var (
	cliStore libstore.IStore

	// StoreCommands represents the store command group
	StoreCommands = &cobra.Command{
		Use:               "store",
		Short:             "Perform direct store operations",
		PersistentPreRunE: setupStoreClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common store flags to the store command
	util.SetupStoreFlags(StoreCommands)

	// Add subcommands
	StoreCommands.AddCommand(pingCmd)
	StoreCommands.AddCommand(getCmd)
	StoreCommands.AddCommand(setCmd)
	StoreCommands.AddCommand(keysCmd)
	StoreCommands.AddCommand(ttlCmd)
	StoreCommands.AddCommand(flushCmd)
}

// setupStoreClient initializes the store client
func setupStoreClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	cfg, _, err := util.GetRuntime()
	if err != nil {
		return err
	}

	// Create and verify the store client
	ctx, stop := util.SignalContext()
	defer stop()
	cliStore, err = util.Connect(ctx, cfg)
	return err
}
