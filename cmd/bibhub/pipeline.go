package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bibhub/pkg/models"
)

func (a *app) pipelineCommand() *cobra.Command {
	var bibOnly bool

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Fetch, match, geocode and store the corpus once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			backend, err := openStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			runner, err := buildRunner(a.cfg, backend, nil)
			if err != nil {
				return err
			}
			res, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			run := res.Run
			fmt.Fprintf(out, "run %s: %d certification, %d directory, %d golden, %d geocoded\n",
				run.ID, run.CertificationCount, run.DirectoryCount, run.GoldenCount, run.GeocodedCount)
			if bibOnly {
				fmt.Fprintf(out, "%d %s restaurants\n", countDistinction(res.Golden, models.DistinctionBibGourmand), models.DistinctionBibGourmand)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&bibOnly, "bib-only", false, "also print how many golden records hold the Bib Gourmand")
	return cmd
}

func countDistinction(records []models.Restaurant, distinction string) int {
	n := 0
	for _, r := range records {
		if r.Distinction.Type == distinction {
			n++
		}
	}
	return n
}
