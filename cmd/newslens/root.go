package main

import (
	"context"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dgallion1/newslens/internal/app"
	"github.com/dgallion1/newslens/internal/config"
	"github.com/dgallion1/newslens/internal/logging"
)

// env is the configuration shared by every subcommand.
type env struct {
	cfg config.Config
	log *slog.Logger
}

// build wires the services. Commands that call the completion service
// require a valid configuration.
func (e *env) build(ctx context.Context, needLLM bool) (*app.App, error) {
	if needLLM {
		if err := e.cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return app.Build(ctx, e.cfg, e.log)
}

func newRootCommand() *cobra.Command {
	e := &env{}
	var (
		verbose bool
		noStore bool
	)

	cmd := &cobra.Command{
		Use:           "newslens",
		Short:         "Summarize, classify and translate news text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if noStore {
				cfg.DBPath = ""
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			e.cfg = cfg
			e.log = logging.NewWithWriter(cmd.ErrOrStderr(), level, cfg.LogJSON)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&noStore, "no-history", false, "do not read or write the analysis history")

	cmd.AddCommand(
		newAnalyzeCommand(e),
		newSummarizeCommand(e),
		newTranslateCommand(e),
		newModelsCommand(e),
		newHeadlinesCommand(e),
	)
	return cmd
}
