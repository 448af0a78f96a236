package preflight

import (
	"vconv/internal/config"
	"vconv/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll checks the state, lock and log directories.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Lock directory", cfg.LockDir()),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// CheckTools resolves the configured ffmpeg and ffprobe binaries.
func CheckTools(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries(deps.ToolRequirements(cfg.Tools.FFmpeg, cfg.Tools.FFprobe))
}
