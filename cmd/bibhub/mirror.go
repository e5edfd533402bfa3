package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"bibhub/internal/scraper"
)

func (a *app) mirrorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Snapshot the sources and serve snapshots for development",
	}
	cmd.AddCommand(a.mirrorServeCommand(), a.mirrorDumpCommand())
	return cmd
}

func (a *app) mirrorServeCommand() *cobra.Command {
	var addr string
	var files scraper.MirrorFiles

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve source snapshots at /certification and /directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if files.Certification == "" && files.Directory == "" {
				return errors.New("at least one of --certification or --directory is required")
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           scraper.MirrorHandler(files),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			a.logger.Info().Str("addr", addr).Msg("mirror listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9000", "listen address")
	cmd.Flags().StringVar(&files.Certification, "certification", "data/certification.json", "certification snapshot")
	cmd.Flags().StringVar(&files.Directory, "directory", "data/directory.json", "directory snapshot")
	return cmd
}

func (a *app) mirrorDumpCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Fetch both configured sources and write their snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources, err := buildSources(a.cfg.Sources)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			certs, err := sources.FetchCertification(ctx)
			if err != nil {
				return err
			}
			dirs, err := sources.FetchDirectory(ctx)
			if err != nil {
				return err
			}

			if err := scraper.WriteSourceSnapshot(filepath.Join(dir, "certification.json"), certs); err != nil {
				return err
			}
			if err := scraper.WriteSourceSnapshot(filepath.Join(dir, "directory.json"), dirs); err != nil {
				return err
			}
			a.logger.Info().Int("certification", len(certs)).Int("directory", len(dirs)).Str("dir", dir).Msg("snapshots written")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data", "output directory")
	return cmd
}
