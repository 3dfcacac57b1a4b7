package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/epeers/ownership/internal/edgar"
	"github.com/epeers/ownership/internal/models"
	"github.com/epeers/ownership/internal/parser"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of accessions parsed concurrently
const DefaultWorkers = 4

// Discovery sources for filings
const (
	DiscoverySubmissions = "submissions"
	DiscoveryAtom        = "atom"
)

// atomFeedCount is how many entries are requested from the Atom feed when no
// limit is given
const atomFeedCount = 100

// FilingFeed lists the filings of a filer
type FilingFeed interface {
	Submissions(ctx context.Context, cik string) (*edgar.SubmissionsResponse, error)
	AtomFilings(ctx context.Context, cik, form string, count int) (*edgar.AtomFeed, error)
}

// BatchMerger merges staged rows into the database
type BatchMerger interface {
	MergeBatch(ctx context.Context, rows []models.StagedHolding, kind models.FilingKind) (*models.MergeReport, error)
}

// SeriesRebuilder derives time series for funds
type SeriesRebuilder interface {
	Rebuild(ctx context.Context, fundIDs []int64) (*models.RebuildTimeSeriesResponse, error)
}

// Batch is a set of accessions of one filing kind from one filer
type Batch struct {
	CIK       string
	FilerName string
	Kind      models.FilingKind
	Filings   []models.FilingRef
}

// BatchResult is the parsed and staged output of a batch
type BatchResult struct {
	Kind    models.FilingKind
	Filings []*models.ParsedFiling
	Rows    []models.StagedHolding
	Skipped []string
}

// RawRows counts the rows parsed before staging
func (r *BatchResult) RawRows() int {
	n := 0
	for _, f := range r.Filings {
		n += f.RowCount()
	}
	return n
}

// RunRequest describes one ingestion run for a filer
type RunRequest struct {
	CIK       string
	Kinds     []models.FilingKind
	Limit     int
	Since     time.Time
	Merge     bool
	Discovery string
}

// IngestService runs filings through fetch, parse, stage and merge
type IngestService struct {
	feed       FilingFeed
	parsers    *parser.Set
	merger     BatchMerger
	timeSeries SeriesRebuilder
	workers    int
}

// NewIngestService creates a new IngestService. merger and timeSeries may be
// nil when results are not persisted.
func NewIngestService(feed FilingFeed, parsers *parser.Set, merger BatchMerger, timeSeries SeriesRebuilder, workers int) *IngestService {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &IngestService{
		feed:       feed,
		parsers:    parsers,
		merger:     merger,
		timeSeries: timeSeries,
		workers:    workers,
	}
}

// ProcessBatch parses every accession of a batch on a bounded worker pool and
// stages the results. An accession that fails is skipped with a warning and
// never aborts the batch; only cancellation of ctx does.
func (s *IngestService) ProcessBatch(ctx context.Context, batch Batch) (*BatchResult, error) {
	defer TrackTime("ProcessBatch", time.Now())

	p, err := s.parsers.ParserFor(batch.Kind)
	if err != nil {
		return nil, err
	}

	parsed := make([]*models.ParsedFiling, len(batch.Filings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, ref := range batch.Filings {
		if ctx.Err() != nil {
			break
		}
		if ref.CIK == "" {
			ref.CIK = batch.CIK
		}
		if ref.FilerName == "" {
			ref.FilerName = batch.FilerName
		}
		if ref.Kind == "" {
			ref.Kind = batch.Kind
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := p.ParsePrimaryDocument(gctx, ref)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.WithFields(log.Fields{"accession": ref.Accession, "kind": ref.Kind}).Warnf("skipping accession: %v", err)
				AddWarning(ctx, warningFor(ref.Accession, err))
				return nil
			}
			for _, w := range result.Warnings {
				AddWarning(ctx, w)
			}
			parsed[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &BatchResult{Kind: batch.Kind}
	for i, f := range parsed {
		if f == nil {
			result.Skipped = append(result.Skipped, models.NormalizeAccession(batch.Filings[i].Accession))
			continue
		}
		result.Filings = append(result.Filings, f)
	}

	rows, warnings := StageFilings(result.Filings)
	for _, w := range warnings {
		AddWarning(ctx, w)
	}
	result.Rows = rows

	log.WithFields(log.Fields{
		"kind":      batch.Kind,
		"requested": len(batch.Filings),
		"parsed":    len(result.Filings),
		"skipped":   len(result.Skipped),
		"staged":    len(rows),
	}).Info("batch processed")
	return result, nil
}

// Run discovers the filer's filings of each requested kind, processes them and,
// when asked to, merges the results and refreshes the affected time series. A
// failed merge is reported in the kind's summary and does not stop the run.
func (s *IngestService) Run(ctx context.Context, req RunRequest) (*models.IngestResponse, error) {
	defer TrackTime("IngestRun", time.Now())

	if req.Merge && (s.merger == nil || s.timeSeries == nil) {
		return nil, errors.New("merge requested but no database is configured")
	}
	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = []models.FilingKind{models.FilingKind13F, models.FilingKind13G}
	}

	ctx, wc := NewWarningContext(ctx)
	resp := &models.IngestResponse{CIK: models.NormalizeCIK(req.CIK)}

	var feed *edgar.SubmissionsResponse
	if req.Discovery != DiscoveryAtom {
		var err error
		feed, err = s.feed.Submissions(ctx, req.CIK)
		if err != nil {
			return nil, fmt.Errorf("failed to load submissions: %w", err)
		}
		resp.FilerName = feed.EntityName
	}

	fundSet := map[int64]bool{}
	var fundIDs []int64
	for _, kind := range kinds {
		refs, err := s.discover(ctx, req, feed, kind)
		if err != nil {
			return nil, err
		}
		if resp.FilerName == "" && len(refs) > 0 {
			resp.FilerName = refs[0].FilerName
		}

		if _, err := s.parsers.ParserFor(kind); err != nil {
			AddWarning(ctx, models.Warning{Code: models.WarnNoParser, Message: err.Error()})
			resp.Kinds = append(resp.Kinds, models.KindSummary{Kind: kind, Requested: len(refs), Skipped: len(refs)})
			continue
		}

		batch, err := s.ProcessBatch(ctx, Batch{CIK: resp.CIK, FilerName: resp.FilerName, Kind: kind, Filings: refs})
		if err != nil {
			return nil, err
		}
		summary := models.KindSummary{
			Kind:      kind,
			Requested: len(refs),
			Processed: len(batch.Filings),
			Skipped:   len(batch.Skipped),
			RawRows:   batch.RawRows(),
		}

		if req.Merge {
			report, err := s.merger.MergeBatch(ctx, batch.Rows, kind)
			if err != nil {
				summary.StagingErr = err.Error()
			} else {
				summary.Merge = report
				for _, id := range report.FundIDs {
					if !fundSet[id] {
						fundSet[id] = true
						fundIDs = append(fundIDs, id)
					}
				}
			}
		}
		resp.Kinds = append(resp.Kinds, summary)
	}

	if req.Merge && len(fundIDs) > 0 {
		ts, err := s.timeSeries.Rebuild(ctx, fundIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild time series: %w", err)
		}
		resp.TimeSeriesPoints = ts.Inserted
	}

	resp.Warnings = wc.GetWarnings()
	return resp, nil
}

// discover lists the filings of one kind from the configured source
func (s *IngestService) discover(ctx context.Context, req RunRequest, feed *edgar.SubmissionsResponse, kind models.FilingKind) ([]models.FilingRef, error) {
	if req.Discovery == DiscoveryAtom {
		count := req.Limit
		if count <= 0 {
			count = atomFeedCount
		}
		atom, err := s.feed.AtomFilings(ctx, req.CIK, edgar.FeedForm(kind), count)
		if err != nil {
			return nil, fmt.Errorf("failed to load atom feed: %w", err)
		}
		return edgar.AtomRefs(atom, req.CIK, kind, req.Limit, req.Since), nil
	}
	return edgar.SelectFilings(feed, kind, req.Limit, req.Since), nil
}

// ParseKinds maps user-facing form names ("13f", "13g", "13g/a", "all") to
// filing kinds, dropping duplicates
func ParseKinds(forms []string) ([]models.FilingKind, error) {
	var kinds []models.FilingKind
	seen := map[models.FilingKind]bool{}
	add := func(k models.FilingKind) {
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	for _, f := range forms {
		if f == "" || f == "all" {
			add(models.FilingKind13F)
			add(models.FilingKind13G)
			continue
		}
		k, err := models.ParseFilingKind(f)
		if err != nil {
			return nil, err
		}
		add(k)
	}
	return kinds, nil
}
