// Package config holds the typed runtime configuration and its environment
// override handling. Defaults are defined here; every value can be overridden
// by an LFBENCH_* environment variable (see envOverrides for the full set) or
// by command flags bound on top at the CLI layer. Invalid override values are
// logged and ignored, never fatal.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/locationflex/lfbench/lib/store"
)

// EnvPrefix is the prefix of all environment overrides (LFBENCH_...).
const EnvPrefix = "lfbench"

// --------------------------------------------------------------------------
// Configuration structs
// --------------------------------------------------------------------------

// WriterConfig configures the parallel import.
type WriterConfig struct {
	NumWorkers      int     `json:"num_workers"`
	BatchSize       int     `json:"batch_size"`
	KeyTTLSec       int     `json:"key_ttl_sec"`
	MaxKeys         int     `json:"max_keys"`
	SkipProbability float64 `json:"skip_probability"`
}

// KeyTTL returns the configured TTL as a duration.
func (c WriterConfig) KeyTTL() time.Duration {
	return time.Duration(c.KeyTTLSec) * time.Second
}

// ReaderConfig configures the read benchmark.
type ReaderConfig struct {
	NumThreads int `json:"num_threads"`
	BatchSize  int `json:"batch_size"`
}

// Config is the top-level runtime configuration.
type Config struct {
	Store  store.Config `json:"store"`
	Writer WriterConfig `json:"writer"`
	Reader ReaderConfig `json:"reader"`

	// PrimaryVersion is the namespace checked first on reads and the
	// default write target; SecondaryVersion is the fallback namespace.
	PrimaryVersion   string `json:"primary_version"`
	SecondaryVersion string `json:"secondary_version"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: store.Config{
			Host:           "localhost",
			Port:           6379,
			DB:             0,
			DialTimeoutSec: 5,
			ReadTimeoutSec: 5,
			PoolSize:       50,
		},
		Writer: WriterConfig{
			NumWorkers:      4,
			BatchSize:       100,
			KeyTTLSec:       259200, // 3 days
			MaxKeys:         200000,
			SkipProbability: 0,
		},
		Reader: ReaderConfig{
			NumThreads: 4,
			BatchSize:  100,
		},
		PrimaryVersion:   "v23",
		SecondaryVersion: "v22",
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// DefaultVersionTag derives a version tag from a date, format "v<day>"
// (e.g. "v23" on the 23rd). Used when a write command is invoked without an
// explicit version.
func DefaultVersionTag(t time.Time) string {
	return fmt.Sprintf("v%d", t.Day())
}

// --------------------------------------------------------------------------
// Environment overrides
// --------------------------------------------------------------------------

type overrideKind uint8

const (
	kindString overrideKind = iota
	kindInt
	kindFloat
)

type override struct {
	key   string // viper key; env var is LFBENCH_<KEY> with - replaced by _
	kind  overrideKind
	apply func(c *Config, s string, i int, f float64)
}

// envOverrides is the documented set of override keys.
var envOverrides = []override{
	{"store-host", kindString, func(c *Config, s string, _ int, _ float64) { c.Store.Host = s }},
	{"store-port", kindInt, func(c *Config, _ string, i int, _ float64) { c.Store.Port = i }},
	{"store-db", kindInt, func(c *Config, _ string, i int, _ float64) { c.Store.DB = i }},
	{"store-password", kindString, func(c *Config, s string, _ int, _ float64) { c.Store.Password = s }},
	{"store-pool-size", kindInt, func(c *Config, _ string, i int, _ float64) { c.Store.PoolSize = i }},
	{"writer-count", kindInt, func(c *Config, _ string, i int, _ float64) { c.Writer.NumWorkers = i }},
	{"writer-batch-size", kindInt, func(c *Config, _ string, i int, _ float64) { c.Writer.BatchSize = i }},
	{"writer-ttl", kindInt, func(c *Config, _ string, i int, _ float64) { c.Writer.KeyTTLSec = i }},
	{"writer-max-keys", kindInt, func(c *Config, _ string, i int, _ float64) { c.Writer.MaxKeys = i }},
	{"writer-skip-probability", kindFloat, func(c *Config, _ string, _ int, f float64) { c.Writer.SkipProbability = f }},
	{"reader-count", kindInt, func(c *Config, _ string, i int, _ float64) { c.Reader.NumThreads = i }},
	{"reader-batch-size", kindInt, func(c *Config, _ string, i int, _ float64) { c.Reader.BatchSize = i }},
	{"primary-version", kindString, func(c *Config, s string, _ int, _ float64) { c.PrimaryVersion = s }},
	{"secondary-version", kindString, func(c *Config, s string, _ int, _ float64) { c.SecondaryVersion = s }},
	{"log-level", kindString, func(c *Config, s string, _ int, _ float64) { c.LogLevel = s }},
	{"log-format", kindString, func(c *Config, s string, _ int, _ float64) { c.LogFormat = s }},
}

// Load returns the default configuration with environment overrides applied.
// Viper must already be initialized with the LFBENCH prefix and AutomaticEnv
// (the CLI does this in cobra.OnInitialize). An override that fails to parse
// is logged at warn and the default is retained.
func Load(logger *zap.Logger) Config {
	cfg := Default()
	ApplyEnvOverrides(&cfg, logger)
	return cfg
}

// ApplyEnvOverrides merges LFBENCH_* environment values into cfg.
func ApplyEnvOverrides(cfg *Config, logger *zap.Logger) {
	for _, o := range envOverrides {
		if !viper.IsSet(o.key) {
			continue
		}
		raw := viper.GetString(o.key)
		if raw == "" {
			continue
		}

		switch o.kind {
		case kindString:
			o.apply(cfg, raw, 0, 0)
		case kindInt:
			i, err := strconv.Atoi(raw)
			if err != nil {
				logger.Warn("ignoring invalid configuration override",
					zap.String("key", envVarName(o.key)),
					zap.String("value", raw),
					zap.Error(err))
				continue
			}
			o.apply(cfg, "", i, 0)
		case kindFloat:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				logger.Warn("ignoring invalid configuration override",
					zap.String("key", envVarName(o.key)),
					zap.String("value", raw),
					zap.Error(err))
				continue
			}
			o.apply(cfg, "", 0, f)
		}
	}
}

// envVarName converts a viper key to the environment variable it reads from.
func envVarName(key string) string {
	return strings.ToUpper(EnvPrefix) + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// --------------------------------------------------------------------------
// Pretty printing
// --------------------------------------------------------------------------

// String returns a formatted string representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Store")
	addField("Address", c.Store.Addr())
	addField("DB", strconv.Itoa(c.Store.DB))
	password := "none"
	if c.Store.Password != "" {
		password = "***"
	}
	addField("Password", password)
	addField("Pool Size", strconv.Itoa(c.Store.PoolSize))

	addSection("Writer")
	addField("Workers", strconv.Itoa(c.Writer.NumWorkers))
	addField("Batch Size", strconv.Itoa(c.Writer.BatchSize))
	addField("Key TTL", c.Writer.KeyTTL().String())
	addField("Max Keys", strconv.Itoa(c.Writer.MaxKeys))
	addField("Skip Probability", fmt.Sprintf("%.1f%%", c.Writer.SkipProbability*100))

	addSection("Reader")
	addField("Threads", strconv.Itoa(c.Reader.NumThreads))
	addField("Batch Size", strconv.Itoa(c.Reader.BatchSize))

	addSection("Versions")
	addField("Primary", c.PrimaryVersion)
	addField("Secondary", c.SecondaryVersion)

	return sb.String()
}
