package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/locationflex/lfbench/lib/config"
	"github.com/locationflex/lfbench/lib/logging"
	"github.com/locationflex/lfbench/lib/store"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupStoreFlags adds common store connection flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "store-host"
	cmd.PersistentFlags().String(key, "localhost", WrapString("Hostname of the store"))

	key = "store-port"
	cmd.PersistentFlags().Int(key, 6379, WrapString("Port of the store"))

	key = "store-db"
	cmd.PersistentFlags().Int(key, 0, WrapString("Database number to use"))

	key = "store-password"
	cmd.PersistentFlags().String(key, "", WrapString("Password for the store (empty for none)"))

	key = "store-pool-size"
	cmd.PersistentFlags().Int(key, 50, WrapString("Size of the client connection pool"))
}

// GetRuntime builds the logger and the merged configuration. It must be
// called after BindCommandFlags so changed flags take precedence over
// environment overrides.
func GetRuntime() (config.Config, *zap.Logger, error) {
	logger, err := logging.Setup(viper.GetString("log-level"), viper.GetString("log-format"))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("setup logging: %w", err)
	}
	return config.Load(logger), logger, nil
}

// Connect creates the store client and verifies the connection. An
// unreachable store is fatal for every command.
func Connect(ctx context.Context, cfg config.Config) (store.IStore, error) {
	st := store.NewRedisStore(cfg.Store)
	if err := st.Ping(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("store unreachable: %w", err)
	}
	return st, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. Runs stop
// cooperatively at the next batch boundary and still print partial results.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// WriteJSONReport saves a report struct as indented JSON.
func WriteJSONReport(path string, report any) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteMetricsReport saves the process counters in Prometheus text format.
func WriteMetricsReport(path string) error {
	var buf bytes.Buffer
	metrics.WritePrometheus(&buf, true)
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
