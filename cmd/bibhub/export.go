package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bibhub/internal/store"
	"bibhub/pkg/models"
)

func (a *app) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "export json|csv",
		Short:     "Write the stored corpus as a JSON snapshot or CSV",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"json", "csv"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			backend, err := openStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			records, err := backend.ReadAll(ctx)
			if err != nil {
				return err
			}

			if args[0] == "json" && output != "" && output != "-" {
				if err := store.SaveSnapshot(output, records); err != nil {
					return err
				}
				a.logger.Info().Int("records", len(records)).Str("path", output).Msg("snapshot written")
				return nil
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return writeExport(w, args[0], records)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}

func writeExport(w io.Writer, format string, records []models.Restaurant) error {
	switch format {
	case "json":
		return store.WriteSnapshot(w, records)
	case "csv":
		return store.WriteCSV(w, records)
	}
	return fmt.Errorf("unknown export format %q", format)
}
