package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vconv/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), ctx, func(store *history.Store) error {
				entries, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No conversions recorded")
					return nil
				}
				fmt.Fprintln(out, historyTable(entries))
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, historySummary(stats))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "Maximum number of conversions to show")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), ctx, func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d conversion(s)\n", removed)
				return nil
			})
		},
	})

	return cmd
}

func withHistory(ctx context.Context, cmdCtx *commandContext, fn func(*history.Store) error) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled (set history.enabled = true)")
	}
	store, err := history.Open(ctx, cfg.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func historyTable(entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		result := entry.Result
		if entry.ErrorMessage != "" && !entry.Succeeded() {
			result += ": " + truncate(entry.ErrorMessage, 48)
		}
		rows = append(rows, []string{
			entry.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			filepath.Base(entry.SourcePath),
			entry.Format.Label(),
			entry.Backend,
			strconv.Itoa(entry.Attempts),
			entry.Elapsed.Round(time.Millisecond).String(),
			result,
		})
	}
	return renderTable(
		[]string{"Finished", "Source", "Format", "Backend", "Attempts", "Elapsed", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func historySummary(stats map[string]int) string {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", key, stats[key]))
	}
	return "Totals: " + strings.Join(parts, " ")
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
