package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vconv/internal/browse"
)

func newBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "browse [dir]",
		Short:       "List subdirectories and convertible video files",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			entries, err := browse.List(dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), browseTable(entries))
			return nil
		},
	}
}

func browseTable(entries []browse.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		switch entry.Kind {
		case browse.KindParent:
			rows = append(rows, []string{"..", "parent", "", ""})
		case browse.KindDir:
			rows = append(rows, []string{entry.Name + "/", "dir", "", ""})
		default:
			rows = append(rows, []string{entry.Name, "file", humanSize(entry.Size), entry.Format.Label()})
		}
	}
	return renderTable([]string{"Name", "Type", "Size", "Format"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft})
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
