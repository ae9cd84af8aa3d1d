package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/locationflex/lfbench/cmd/util"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks the connection to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := util.SignalContext()
			defer stop()
			start := time.Now()
			if err := cliStore.Ping(ctx); err != nil {
				return err
			}
			fmt.Printf("PONG (%s)\n", time.Since(start).Round(time.Microsecond))
			return nil
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := util.SignalContext()
			defer stop()
			key := args[0]
			if value, found, err := cliStore.Get(ctx, key); err != nil {
				return err
			} else {
				fmt.Printf("key=%s, found=%v, value=%s\n", key, found, value)
			}
			return nil
		},
	}

	setCmd = &cobra.Command{
		Use:   "set [key] [value] [ttlSeconds]",
		Short: "Sets the value for a key with a TTL (0 for no expiry)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := util.SignalContext()
			defer stop()
			key := args[0]
			value := args[1]
			ttlSec, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("ttlSeconds must be a number: %w", err)
			}
			if err := cliStore.SetTTL(
				ctx,
				key,
				[]byte(value),
				time.Duration(ttlSec)*time.Second,
			); err != nil {
				return err
			} else {
				fmt.Println("set successfully")
			}
			return nil
		},
	}

	keysCmd = &cobra.Command{
		Use:   "keys [pattern]",
		Short: "Lists all keys matching a glob pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := util.SignalContext()
			defer stop()
			pattern := args[0]
			keys, err := cliStore.Keys(ctx, pattern)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Println(key)
			}
			fmt.Printf("%d key(s)\n", len(keys))
			return nil
		},
	}

	ttlCmd = &cobra.Command{
		Use:   "ttl [key]",
		Short: "Shows the remaining TTL of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := util.SignalContext()
			defer stop()
			key := args[0]
			ttl, found, err := cliStore.TTL(ctx, key)
			if err != nil {
				return err
			}
			switch {
			case !found:
				fmt.Printf("key=%s, found=false\n", key)
			case ttl == 0:
				fmt.Printf("key=%s, found=true, no expiry\n", key)
			default:
				fmt.Printf("key=%s, found=true, ttl=%s\n", key, ttl.Round(time.Second))
			}
			return nil
		},
	}

	flushCmd = &cobra.Command{
		Use:   "flush",
		Short: "Deletes all keys in the current database",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := util.SignalContext()
			defer stop()
			if err := cliStore.FlushAll(ctx); err != nil {
				return err
			}
			fmt.Println("flushed successfully")
			return nil
		},
	}
)
