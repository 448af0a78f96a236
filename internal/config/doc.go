// Package config loads, normalizes, and validates vconv configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides for the
// encoder binaries (VCONV_FFMPEG, VCONV_FFPROBE). The Config type centralizes
// every knob the orchestrator and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
