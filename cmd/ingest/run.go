package main

import (
	"fmt"

	"github.com/epeers/ownership/internal/app"
	"github.com/epeers/ownership/internal/models"
	"github.com/epeers/ownership/internal/services"
	"github.com/spf13/cobra"
)

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest the filings of one filer",
	Long: `Discover a filer's filings, parse each accession and, with --dest db,
merge the rows and refresh the filer's holdings time series.

Examples:
  ingest run --cik 1067983 --form 13f --limit 4
  ingest run --cik 0000102909 --form 13g --dest none
  ingest run --cik 1067983 --discovery atom`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := runRequest(cmd)
		if err != nil {
			return err
		}
		if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
			cfg.Workers = workers
		}

		ctx, cancel := signalContext()
		defer cancel()

		pipeline, err := app.New(ctx, cfg, req.Merge)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		resp, err := pipeline.Ingest.Run(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

// runRequest validates the run flags
func runRequest(cmd *cobra.Command) (services.RunRequest, error) {
	cik, _ := cmd.Flags().GetString("cik")
	forms, _ := cmd.Flags().GetStringSlice("form")
	limit, _ := cmd.Flags().GetInt("limit")
	since, _ := cmd.Flags().GetString("since")
	dest, _ := cmd.Flags().GetString("dest")
	discovery, _ := cmd.Flags().GetString("discovery")

	kinds, err := services.ParseKinds(forms)
	if err != nil {
		return services.RunRequest{}, err
	}
	if limit < 0 {
		return services.RunRequest{}, fmt.Errorf("--limit must not be negative")
	}
	if dest != "db" && dest != "none" {
		return services.RunRequest{}, fmt.Errorf("--dest must be 'db' or 'none', got %q", dest)
	}
	if discovery != services.DiscoverySubmissions && discovery != services.DiscoveryAtom {
		return services.RunRequest{}, fmt.Errorf("--discovery must be %q or %q, got %q", services.DiscoverySubmissions, services.DiscoveryAtom, discovery)
	}

	req := services.RunRequest{
		CIK:       cik,
		Kinds:     kinds,
		Limit:     limit,
		Merge:     dest == "db",
		Discovery: discovery,
	}
	if since != "" {
		if req.Since, err = models.ParseDate(since); err != nil {
			return services.RunRequest{}, fmt.Errorf("invalid --since: %w", err)
		}
	}
	return req, nil
}

// addRunFlags declares the run command's flags
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("cik", "", "filer central index key")
	cmd.Flags().StringSlice("form", []string{"all"}, "filing kinds: 13f, 13g, 13g/a or all")
	cmd.Flags().Int("limit", 0, "most recent filings per kind (0 = no limit)")
	cmd.Flags().String("since", "", "only filings on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("dest", "db", "where results go: db or none")
	cmd.Flags().Int("workers", 0, "accessions parsed concurrently (default from WORKERS)")
	cmd.Flags().String("discovery", services.DiscoverySubmissions, "filing discovery source: submissions or atom")
}

func init() {
	addRunFlags(runCmd)
	_ = runCmd.MarkFlagRequired("cik")
}
