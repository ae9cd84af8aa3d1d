package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// initViperEnv mirrors the CLI's viper initialization so LFBENCH_* variables
// are visible to the override pass.
func initViperEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	t.Cleanup(viper.Reset)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Writer.KeyTTLSec != 259200 {
		t.Errorf("Expected default TTL 259200s, got %d", cfg.Writer.KeyTTLSec)
	}
	if cfg.Writer.KeyTTL() != 72*time.Hour {
		t.Errorf("Expected TTL of 72h, got %v", cfg.Writer.KeyTTL())
	}
	if cfg.Writer.MaxKeys != 200000 {
		t.Errorf("Expected default max keys 200000, got %d", cfg.Writer.MaxKeys)
	}
	if cfg.Writer.NumWorkers != 4 || cfg.Reader.NumThreads != 4 {
		t.Errorf("Expected 4 workers and 4 reader threads, got %d and %d",
			cfg.Writer.NumWorkers, cfg.Reader.NumThreads)
	}
	if cfg.PrimaryVersion != "v23" || cfg.SecondaryVersion != "v22" {
		t.Errorf("Expected versions v23/v22, got %s/%s",
			cfg.PrimaryVersion, cfg.SecondaryVersion)
	}
	if cfg.Store.Addr() != "localhost:6379" {
		t.Errorf("Expected default address localhost:6379, got %s", cfg.Store.Addr())
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LFBENCH_STORE_HOST", "redis.internal")
	t.Setenv("LFBENCH_WRITER_COUNT", "8")
	t.Setenv("LFBENCH_WRITER_SKIP_PROBABILITY", "0.25")
	t.Setenv("LFBENCH_PRIMARY_VERSION", "v30")
	initViperEnv(t)

	cfg := Load(zap.NewNop())

	if cfg.Store.Host != "redis.internal" {
		t.Errorf("Expected host override, got %q", cfg.Store.Host)
	}
	if cfg.Writer.NumWorkers != 8 {
		t.Errorf("Expected 8 workers, got %d", cfg.Writer.NumWorkers)
	}
	if cfg.Writer.SkipProbability != 0.25 {
		t.Errorf("Expected skip probability 0.25, got %f", cfg.Writer.SkipProbability)
	}
	if cfg.PrimaryVersion != "v30" {
		t.Errorf("Expected primary version v30, got %q", cfg.PrimaryVersion)
	}
	// Untouched values keep their defaults.
	if cfg.Writer.BatchSize != 100 {
		t.Errorf("Expected default batch size 100, got %d", cfg.Writer.BatchSize)
	}
}

func TestInvalidOverrideRetainsDefault(t *testing.T) {
	t.Setenv("LFBENCH_WRITER_TTL", "three-days")
	t.Setenv("LFBENCH_WRITER_SKIP_PROBABILITY", "lots")
	initViperEnv(t)

	cfg := Load(zap.NewNop())

	if cfg.Writer.KeyTTLSec != 259200 {
		t.Errorf("Expected invalid TTL override to be ignored, got %d", cfg.Writer.KeyTTLSec)
	}
	if cfg.Writer.SkipProbability != 0 {
		t.Errorf("Expected invalid skip override to be ignored, got %f", cfg.Writer.SkipProbability)
	}
}

func TestDefaultVersionTag(t *testing.T) {
	day23 := time.Date(2025, time.June, 23, 12, 0, 0, 0, time.UTC)
	if got := DefaultVersionTag(day23); got != "v23" {
		t.Errorf("Expected v23, got %q", got)
	}
	day1 := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	if got := DefaultVersionTag(day1); got != "v1" {
		t.Errorf("Expected v1, got %q", got)
	}
}

func TestEnvVarName(t *testing.T) {
	if got := envVarName("store-host"); got != "LFBENCH_STORE_HOST" {
		t.Errorf("Expected LFBENCH_STORE_HOST, got %q", got)
	}
}

func TestStringRedactsPassword(t *testing.T) {
	cfg := Default()

	if s := cfg.String(); !strings.Contains(s, "none") {
		t.Error("Expected password shown as none when unset")
	}

	cfg.Store.Password = "hunter2"
	s := cfg.String()
	if strings.Contains(s, "hunter2") {
		t.Error("Expected password to be redacted")
	}
	if !strings.Contains(s, "***") {
		t.Error("Expected redaction marker in output")
	}
}
