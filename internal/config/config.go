package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"

	"vconv/internal/media"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Tools names the external encoder binaries and how long probes may take.
type Tools struct {
	FFmpeg              string `toml:"ffmpeg"`
	FFprobe             string `toml:"ffprobe"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
}

// Backends toggles and tunes the in-process backends.
type Backends struct {
	NativeEnabled   bool `toml:"native_enabled"`
	NativeChunkSize int  `toml:"native_chunk_size"`
}

// Simulation controls pacing of the simulated and native backends.
type Simulation struct {
	// DelayScale multiplies every pause. 0 disables pauses, 1 is real time.
	DelayScale float64 `toml:"delay_scale"`
}

// Defaults are the conversion parameters used when the CLI omits a flag.
type Defaults struct {
	Format     string `toml:"format"`
	Resolution string `toml:"resolution"`
	Bitrate    string `toml:"bitrate"`
	FrameRate  string `toml:"frame_rate"`
}

// UI contains presentation settings for the CLI consumer.
type UI struct {
	PollIntervalMs int `toml:"poll_interval_ms"`
}

// History controls the SQLite conversion log.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Metrics controls the Prometheus textfile export.
type Metrics struct {
	// Textfile is written after every conversion when set.
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vconv.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Tools: ffmpeg/ffprobe binaries and probe timeout
//   - Backends: native backend toggle and read size
//   - Simulation: pacing for placeholder backends
//   - Defaults: format and video settings used when flags are omitted
//   - UI: consumer poll interval
//   - History: SQLite conversion log
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Tools      Tools      `toml:"tools"`
	Backends   Backends   `toml:"backends"`
	Simulation Simulation `toml:"simulation"`
	Defaults   Defaults   `toml:"defaults"`
	UI         UI         `toml:"ui"`
	History    History    `toml:"history"`
	Metrics    Metrics    `toml:"metrics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, lock, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.LockDir(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Metrics.Textfile != "" {
		if err := os.MkdirAll(filepath.Dir(c.Metrics.Textfile), 0o755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	return nil
}

// LockDir holds per-output advisory lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// HistoryPath is the SQLite database recording finished conversions.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// ProbeTimeout bounds a single backend availability probe.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Tools.ProbeTimeoutSeconds) * time.Second
}

// PollInterval is the consumer tick for draining progress events.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.UI.PollIntervalMs) * time.Millisecond
}

// DefaultFormat returns the configured target container.
func (c *Config) DefaultFormat() media.ContainerFormat {
	return media.ParseFormat(c.Defaults.Format)
}

// DefaultSettings resolves the configured video settings. Values were
// checked by Validate, so parse failures fall back to the built-in defaults.
func (c *Config) DefaultSettings() media.VideoSettings {
	settings := media.DefaultSettings()
	if res, err := media.ParseResolution(c.Defaults.Resolution); err == nil {
		settings.Resolution = res
	}
	if rate, err := media.ParseBitrate(c.Defaults.Bitrate); err == nil {
		settings.Bitrate = rate
	}
	if fps, err := media.ParseFrameRate(c.Defaults.FrameRate); err == nil {
		settings.FrameRate = fps
	}
	return settings
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample atomically writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := renameio.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
