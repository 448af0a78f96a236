package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vconv/internal/testsupport"
)

type cliTestEnv struct {
	baseDir     string
	configPath  string
	stateDir    string
	metricsPath string
	mediaDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithMetricsTextfile()}, opts...)...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("VCONV_FFMPEG", "")
	t.Setenv("VCONV_FFPROBE", "")

	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "config.toml"),
		stateDir:    cfg.Paths.StateDir,
		metricsPath: cfg.Metrics.Textfile,
		mediaDir:    filepath.Join(base, "media"),
	}
	if err := os.MkdirAll(env.mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}
	testsupport.WriteConfig(t, cfg, env.configPath)
	return env
}

func (e *cliTestEnv) writeSource(t *testing.T, name string, size int) string {
	t.Helper()
	return testsupport.WriteSource(t, e.mediaDir, name, size)
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
