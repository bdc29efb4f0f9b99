package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"job-ingest-go/internal/sources"
	"job-ingest-go/pkg/httpclient"
)

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List configured sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			client := httpclient.NewHttpClient(cfg.Retry.RequestTimeout, httpclient.WithRetry(cfg.HTTPRetry()))
			sm, err := sources.NewManagerFromConfig(cfg.Sources, client, log)
			if err != nil {
				return fmt.Errorf("failed to load sources: %w", err)
			}
			renderSources(cmd.OutOrStdout(), sm)
			return nil
		},
	}
}

func renderSources(w io.Writer, sm *sources.SourceManager) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Kind", "Enabled", "Rate Limit", "Base URL", "Scope"})
	for _, src := range sm.GetSources() {
		cfg, _ := sm.GetSourceConfig(src.GetName())
		scope := strings.Join(append(append([]string{}, cfg.Categories...), cfg.Boards...), ",")
		if cfg.Path != "" {
			scope = cfg.Path
		}
		t.AppendRow(table.Row{src.GetName(), src.GetKind(), cfg.Enabled, cfg.RateLimit, src.GetBaseURL(), scope})
	}
	t.Render()
}
