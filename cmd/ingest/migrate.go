package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"job-ingest-go/internal/config"
	"job-ingest-go/internal/storage/postgres"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate needs the postgres driver, got %q", cfg.Storage.Driver)
			}
			store, err := postgres.Open(cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info("schema applied")
			return nil
		},
	}
}
