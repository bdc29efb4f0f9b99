package main

import (
	"github.com/spf13/cobra"

	"job-ingest-go/internal/app"
)

func newServeCommand() *cobra.Command {
	var (
		address    string
		noSchedule bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the ingestion schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			if noSchedule {
				cfg.Schedule.Enabled = false
			}
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			defer log.Sync()
			return a.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides server.address)")
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "serve the API without scheduled runs")
	return cmd
}
