// Package cmd implements the command-line interface for lfbench, a bulk
// population and read-benchmark tool for Redis-compatible stores.
//
// The package is organized into several subpackages:
//
//   - load: Commands for partitioned parallel imports (single and multi version)
//   - bench: Commands for the three read-benchmark strategies
//   - store: Commands for direct store operations (ping, get, set, keys, ttl, flush)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See lfbench -help for a list of all commands.
package cmd
