package config

import (
	"errors"
	"fmt"

	"vconv/internal/media"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateBackends(); err != nil {
		return err
	}
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validateUI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTools() error {
	return ensurePositiveMap(map[string]int{
		"tools.probe_timeout_seconds": c.Tools.ProbeTimeoutSeconds,
	})
}

func (c *Config) validateBackends() error {
	if c.Backends.NativeChunkSize < minNativeChunkSize || c.Backends.NativeChunkSize > maxNativeChunkSize {
		return fmt.Errorf("backends.native_chunk_size must be between %d and %d bytes", minNativeChunkSize, maxNativeChunkSize)
	}
	if c.Simulation.DelayScale < 0 || c.Simulation.DelayScale > maxDelayScale {
		return fmt.Errorf("simulation.delay_scale must be between 0 and %g", maxDelayScale)
	}
	return nil
}

func (c *Config) validateDefaults() error {
	if media.ParseFormat(c.Defaults.Format) == media.FormatUnknown {
		return fmt.Errorf("defaults.format %q is not a supported container (mp4, mkv, avi, mov, webm)", c.Defaults.Format)
	}
	if _, err := media.ParseResolution(c.Defaults.Resolution); err != nil {
		return fmt.Errorf("defaults.resolution: %w", err)
	}
	if _, err := media.ParseBitrate(c.Defaults.Bitrate); err != nil {
		return fmt.Errorf("defaults.bitrate: %w", err)
	}
	if _, err := media.ParseFrameRate(c.Defaults.FrameRate); err != nil {
		return fmt.Errorf("defaults.frame_rate: %w", err)
	}
	return nil
}

func (c *Config) validateUI() error {
	if c.UI.PollIntervalMs < minPollIntervalMs || c.UI.PollIntervalMs > maxPollIntervalMs {
		return fmt.Errorf("ui.poll_interval_ms must be between %d and %d", minPollIntervalMs, maxPollIntervalMs)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
