package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vconv/internal/backend"
	"vconv/internal/convert"
	"vconv/internal/deps"
	"vconv/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend availability, tool paths, and directory checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			orchestrator := convert.New(cfg, logger)
			availability := orchestrator.ProbeAll(cmd.Context())

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("backends", colorize)...)
			lines = append(lines, backendLines(availability, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("tools", colorize)...)
			lines = append(lines, toolLines(preflight.CheckTools(cfg), colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("directories", colorize)...)
			lines = append(lines, directoryLines(preflight.RunAll(cfg), colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("configuration", colorize)...)
			lines = append(lines, configLines(ctx, colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

// backendLines renders one line per backend followed by the backend a
// conversion would start with.
func backendLines(availability []convert.Availability, colorize bool) []string {
	lines := make([]string, 0, len(availability)+1)
	preferred := backend.Simulated
	found := false
	for _, a := range availability {
		kind := statusWarn
		message := "unavailable - " + a.Kind.Describe()
		switch {
		case a.Available:
			kind = statusOK
			message = "available - " + a.Kind.Describe()
			if !found && a.Kind != backend.Simulated {
				preferred = a.Kind
				found = true
			}
		case a.Err != nil:
			message = fmt.Sprintf("unavailable: %v", a.Err)
		}
		lines = append(lines, renderStatusLine(a.Kind.String(), kind, message, colorize))
	}
	lines = append(lines, renderStatusLine("Preferred", statusInfo, preferred.String(), colorize))
	return lines
}

func toolLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, status := range statuses {
		switch {
		case status.Available:
			lines = append(lines, renderStatusLine(status.Name, statusOK, fmt.Sprintf("Ready (command: %s)", status.Command), colorize))
		case status.Optional:
			lines = append(lines, renderStatusLine(status.Name, statusWarn, status.Detail, colorize))
		default:
			lines = append(lines, renderStatusLine(status.Name, statusError, status.Detail, colorize))
		}
	}
	return lines
}

func directoryLines(results []preflight.Result, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		kind := statusError
		if result.Passed {
			kind = statusOK
		}
		lines = append(lines, renderStatusLine(titleLabel(result.Name), kind, result.Detail, colorize))
	}
	return lines
}

func configLines(ctx *commandContext, colorize bool) []string {
	cfg := ctx.config
	if cfg == nil {
		return nil
	}
	pathMessage := ctx.configPath
	if !ctx.configSeen {
		pathMessage += " (not found, defaults in use)"
	}
	return []string{
		renderStatusLine("Config file", statusInfo, pathMessage, colorize),
		renderStatusLine("Native enabled", statusInfo, yesNo(cfg.Backends.NativeEnabled), colorize),
		renderStatusLine("History", statusInfo, yesNo(cfg.History.Enabled), colorize),
		renderStatusLine("Poll interval", statusInfo, cfg.PollInterval().String(), colorize),
	}
}
