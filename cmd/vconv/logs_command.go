package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vconv/internal/logging"
	"vconv/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var conversion string
	var raw bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent entries from the vconv log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			out := cmd.OutOrStdout()
			printer := logPrinter{out: out, conversion: conversion, raw: raw}

			tail, offset, err := logs.Tail(path, lines)
			if err != nil {
				return err
			}
			printer.print(tail)
			if !follow {
				return nil
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Follow(runCtx, path, offset, 250*time.Millisecond, printer.print)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().StringVar(&conversion, "conversion", "", "Only show entries for this conversion ID prefix")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unchanged")
	return cmd
}

type logPrinter struct {
	out        io.Writer
	conversion string
	raw        bool
}

func (p logPrinter) print(lines []string) {
	for _, line := range lines {
		entry, ok := logs.Parse(line)
		if !ok {
			if p.conversion == "" {
				fmt.Fprintln(p.out, line)
			}
			continue
		}
		if !entry.Matches(p.conversion) {
			continue
		}
		if p.raw {
			fmt.Fprintln(p.out, line)
		} else {
			fmt.Fprintln(p.out, entry.Format())
		}
	}
}
