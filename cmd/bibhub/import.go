package main

import (
	"github.com/spf13/cobra"

	"bibhub/internal/store"
)

func (a *app) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot.json>",
		Short: "Replace the stored corpus with a validated JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := store.LoadSnapshot(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			backend, err := openStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := backend.ReplaceAll(ctx, records); err != nil {
				return err
			}
			a.logger.Info().Int("records", len(records)).Str("path", args[0]).Msg("snapshot imported")
			return nil
		},
	}
}
