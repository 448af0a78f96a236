package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeDefaults()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if value, ok := os.LookupEnv("VCONV_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFmpeg = strings.TrimSpace(value)
	}
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if value, ok := os.LookupEnv("VCONV_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFprobe = strings.TrimSpace(value)
	}
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	if c.Backends.NativeChunkSize == 0 {
		c.Backends.NativeChunkSize = defaultNativeChunkSize
	}
}

func (c *Config) normalizeDefaults() {
	c.Defaults.Format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Defaults.Format), "."))
	if c.Defaults.Format == "" {
		c.Defaults.Format = defaultFormat
	}
	c.Defaults.Resolution = strings.ToLower(strings.TrimSpace(c.Defaults.Resolution))
	if c.Defaults.Resolution == "" {
		c.Defaults.Resolution = defaultResolution
	}
	c.Defaults.Bitrate = strings.ToLower(strings.TrimSpace(c.Defaults.Bitrate))
	if c.Defaults.Bitrate == "" {
		c.Defaults.Bitrate = defaultBitrate
	}
	c.Defaults.FrameRate = strings.ToLower(strings.TrimSpace(c.Defaults.FrameRate))
	if c.Defaults.FrameRate == "" {
		c.Defaults.FrameRate = defaultFrameRate
	}
}

func (c *Config) normalizeMetrics() error {
	textfile := strings.TrimSpace(c.Metrics.Textfile)
	if textfile == "" {
		c.Metrics.Textfile = ""
		return nil
	}
	expanded, err := expandPath(textfile)
	if err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	c.Metrics.Textfile = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
