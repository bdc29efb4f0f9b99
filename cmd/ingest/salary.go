package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"job-ingest-go/internal/api"
	"job-ingest-go/internal/resolver"
	"job-ingest-go/internal/roles"
	"job-ingest-go/internal/salary"
	"job-ingest-go/internal/salary/extract"
)

func newParseSalaryCommand() *cobra.Command {
	var (
		req      api.ParseSalaryRequest
		htmlFile string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "parse-salary [text]",
		Short: "Extract and normalize a salary without storing anything",
		Example: `  ingest parse-salary "Base pay: $150k - $190k per year" --country US
  ingest parse-salary --html-file posting.html --vendor greenhouse`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Text = args[0]
			}
			if htmlFile != "" {
				b, err := os.ReadFile(htmlFile)
				if err != nil {
					return err
				}
				req.HTML = string(b)
			}
			if req.Text == "" && req.HTML == "" {
				return fmt.Errorf("either text or --html-file is required")
			}
			if !slices.Contains(extract.Vendors(), req.Vendor) {
				return fmt.Errorf("unknown vendor %q (want one of %s)", req.Vendor, strings.Join(extract.Vendors(), ", "))
			}

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			resp := api.ParseSalary(salary.NewNormalizer(cfg.Policy()), req)

			if output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			renderSalary(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&htmlFile, "html-file", "", "posting HTML to scan like a description")
	cmd.Flags().StringVar(&req.Vendor, "vendor", "generic", "ATS vendor layout of the HTML: "+strings.Join(extract.Vendors(), ", "))
	cmd.Flags().StringVar(&req.CountryCode, "country", "", "ISO country code hint")
	cmd.Flags().StringVar(&req.Location, "location", "", "location hint")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json")
	return cmd
}

func renderSalary(w io.Writer, resp api.ParseSalaryResponse) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Field", "Value"})

	if c := resp.Candidate; c != nil {
		t.AppendRows([]table.Row{
			{"Matched text", c.Text},
			{"Strategy", c.Strategy},
			{"Score", c.Score},
			{"Amount", fmt.Sprintf("%g - %g %s per %s", c.Min, c.Max, c.Currency, c.Interval)},
		})
		t.AppendSeparator()
	}
	if s := resp.Salary; s != nil {
		t.AppendRows([]table.Row{
			{"Currency", s.Currency},
			{"Annual min", annual(s.MinAnnual)},
			{"Annual max", annual(s.MaxAnnual)},
			{"High salary", s.IsHighSalary},
			{"Very high", s.IsVeryHighSalary},
		})
		t.AppendSeparator()
	}
	v := resp.Validation
	t.AppendRows([]table.Row{
		{"Source", v.Source},
		{"Validated", v.Validated},
		{"Confidence", v.Confidence},
		{"Reason", v.Reason},
	})
	t.Render()
}

func annual(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func newClassifyTitleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "classify-title <title>...",
		Short: "Show the role classification and dedupe token for job titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Title", "Token", "Seniority", "Discipline", "Manager", "Slug"})
			for _, title := range args {
				title = strings.TrimSpace(title)
				role := roles.Normalize(title)
				t.AppendRow(table.Row{title, roles.TitleToken(title), role.Seniority, role.Discipline, role.IsPeopleManager, role.Slug})
			}
			t.Render()
			return nil
		},
	}
}

func newDedupeKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe-key <company-id> <title> <location>",
		Short: "Print the dedupe key a posting would resolve to",
		Args:  cobra.ExactArgs(3),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), resolver.DedupeKey(args[0], args[1], args[2]))
		},
	}
}
