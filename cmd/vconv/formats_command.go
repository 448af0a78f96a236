package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vconv/internal/media"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "formats",
		Short:       "List supported output formats",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), formatsTable())
			return nil
		},
	}
}

func formatsTable() string {
	formats := media.Formats()
	rows := make([][]string, 0, len(formats))
	for _, f := range formats {
		rows = append(rows, []string{f.Label(), "." + f.Extension(), f.Description()})
	}
	return renderTable([]string{"Format", "Extension", "Description"}, rows, nil)
}
