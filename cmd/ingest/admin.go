package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/epeers/ownership/internal/app"
	"github.com/epeers/ownership/internal/handlers"
	"github.com/epeers/ownership/internal/models"
	"github.com/spf13/cobra"
)

// --- Time Series Command ---

var timeseriesCmd = &cobra.Command{
	Use:   "timeseries [fund-id...]",
	Short: "Rebuild holdings time series",
	Long:  "Derive share count changes for the given funds, or for every fund with filings when none are given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var fundIDs []int64
		for _, a := range args {
			id, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid fund id %q", a)
			}
			fundIDs = append(fundIDs, id)
		}

		ctx, cancel := signalContext()
		defer cancel()

		pipeline, err := app.New(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		resp, err := pipeline.TimeSeries.Rebuild(ctx, fundIDs)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

// --- Funds Command ---

var fundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "Manage funds",
}

var fundsLoadCmd = &cobra.Command{
	Use:   "load [csv-file]",
	Short: "Seed funds from a CSV file with cik and name columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		funds, err := handlers.ParseFundsCSV(f)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		pipeline, err := app.New(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		inserted, skipped, errs := pipeline.Funds.BulkCreate(ctx, funds)
		resp := models.UploadFundsResponse{Inserted: inserted, Skipped: skipped, Errors: []string{}}
		for _, e := range errs {
			resp.Errors = append(resp.Errors, e.Error())
		}
		return printJSON(resp)
	},
}

// --- Cache Command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the parse result cache",
}

var cacheGetCmd = &cobra.Command{
	Use:   "get [accession]",
	Short: "Print the cached parse result of an accession",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := cacheNamespace(cmd)
		if err != nil {
			return err
		}
		results, store, err := app.OpenResultCache(cfg)
		if err != nil {
			return err
		}
		if c, ok := store.(interface{ Close() error }); ok {
			defer c.Close()
		}

		p, ok := results.Get(ns, args[0])
		if !ok {
			return fmt.Errorf("no current cache entry for %s in %s", args[0], ns)
		}
		return printJSON(models.CacheEntryResponse{
			Namespace:      ns,
			Accession:      models.NormalizeAccession(args[0]),
			ParserVersion:  p.ParserVersion,
			CurrentVersion: results.Version(ns),
			CacheTime:      p.CacheTime,
			Rows:           p.Rows,
		})
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm [accession]",
	Short: "Remove the cached parse result of an accession",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := cacheNamespace(cmd)
		if err != nil {
			return err
		}
		results, store, err := app.OpenResultCache(cfg)
		if err != nil {
			return err
		}
		if c, ok := store.(interface{ Close() error }); ok {
			defer c.Close()
		}
		return results.Invalidate(ns, args[0])
	},
}

// cacheNamespace resolves the --form flag to a cache namespace
func cacheNamespace(cmd *cobra.Command) (string, error) {
	form, _ := cmd.Flags().GetString("form")
	kind, err := models.ParseFilingKind(form)
	if err != nil {
		return "", err
	}
	return kind.CacheNamespace(), nil
}

func init() {
	fundsCmd.AddCommand(fundsLoadCmd)

	cacheCmd.PersistentFlags().String("form", "13f", "filing kind of the accession: 13f or 13g")
	cacheCmd.AddCommand(cacheGetCmd)
	cacheCmd.AddCommand(cacheRmCmd)
}
