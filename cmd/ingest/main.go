// Command ingest runs one-off ingestion passes and inspects the salary and
// role pipelines from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"job-ingest-go/internal/app"
	"job-ingest-go/internal/config"
	"job-ingest-go/internal/logger"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	debug   bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ingest",
		Short:         "Job ingestion and salary normalization",
		Long:          `Fetches job postings, resolves them into canonical records and normalizes their salaries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newRunCommand(),
		newServeCommand(),
		newSourcesCommand(),
		newParseSalaryCommand(),
		newClassifyTitleCommand(),
		newDedupeKeyCommand(),
		newMigrateCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ingest version %s\n", version)
			},
		},
	)
	return root
}

// loadConfig reads the config file, .env and environment.
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	if len(cfg.Logging.OutputPaths) == 0 || cfg.Logging.OutputPaths[0] == "stdout" {
		// stdout carries command output
		cfg.Logging.OutputPaths = []string{"stderr"}
	}
	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// loadApp builds the full pipeline.
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, log)
}
