package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bibhub/internal/config"
	"bibhub/internal/logging"
)

type app struct {
	configFile string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger
}

func newApp() *app {
	return &app{logger: zerolog.Nop()}
}

func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bibhub",
		Short: "Restaurant reconciliation service",
		Long: `bibhub fetches the certification guide and the quality directory,
keeps the guide records the directory confirms, geocodes them and serves
the result through a filter and sort query API.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default is ./bibhub.yaml or $HOME/.bibhub/bibhub.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "shortcut for --log-level=debug")

	root.AddCommand(
		a.serveCommand(),
		a.pipelineCommand(),
		a.exportCommand(),
		a.importCommand(),
		a.mirrorCommand(),
		a.queryCommand(),
		a.watchCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	switch {
	case a.logLevel != "":
		cfg.Log.Level = a.logLevel
	case a.verbose:
		cfg.Log.Level = "debug"
	}
	logging.Configure(cfg.Log)

	a.cfg = cfg
	a.logger = logging.Component("cli")
	return nil
}
