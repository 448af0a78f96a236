package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"vconv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Pauses are disabled, the poll tick is short, and ffmpeg/ffprobe point at
// paths that do not exist unless WithStubbedTools is applied.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Tools.FFmpeg = filepath.Join(base, "missing", "ffmpeg")
	cfgVal.Tools.FFprobe = filepath.Join(base, "missing", "ffprobe")
	cfgVal.Tools.ProbeTimeoutSeconds = 2
	cfgVal.Backends.NativeChunkSize = 1024
	cfgVal.Simulation.DelayScale = 0
	cfgVal.UI.PollIntervalMs = 10
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithNativeDisabled turns the native backend off.
func WithNativeDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backends.NativeEnabled = false
	}
}

// WithHistoryDisabled turns the SQLite history off.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithMetricsTextfile enables the Prometheus textfile under the base dir.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "vconv.prom")
	}
}

// WithStubbedTools writes ffmpeg and ffprobe shell stubs that answer
// `-version` and points the config at them.
func WithStubbedTools() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range []string{"ffmpeg", "ffprobe"} {
			target := filepath.Join(binDir, name)
			script := []byte("#!/bin/sh\necho \"" + name + " version 0.0-stub\"\nexit 0\n")
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.cfg.Tools.FFmpeg = filepath.Join(binDir, "ffmpeg")
		b.cfg.Tools.FFprobe = filepath.Join(binDir, "ffprobe")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

// WriteConfig encodes cfg as TOML at path so it can be loaded with config.Load.
func WriteConfig(t testing.TB, cfg *config.Config, path string) {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}
