// Package app wires configuration into the ingestion pipeline shared by the
// API server and the command line.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/epeers/ownership/config"
	"github.com/epeers/ownership/internal/cache"
	"github.com/epeers/ownership/internal/database"
	"github.com/epeers/ownership/internal/edgar"
	"github.com/epeers/ownership/internal/extraction"
	"github.com/epeers/ownership/internal/parser"
	"github.com/epeers/ownership/internal/repository"
	"github.com/epeers/ownership/internal/services"
	log "github.com/sirupsen/logrus"
)

// Pipeline holds the wired components. Database-backed fields are nil when
// the pipeline was built without a database.
type Pipeline struct {
	Client     *edgar.Client
	Results    *cache.ResultCache
	Parsers    *parser.Set
	Ingest     *services.IngestService
	TimeSeries *services.TimeSeriesService

	DB       *database.DB
	Funds    *repository.FundRepository
	Filings  *repository.FilingRepository
	Holdings *repository.HoldingRepository
	Series   *repository.TimeSeriesRepository

	store cache.Store
}

// ConfigureLogging applies the configured log level
func ConfigureLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// NewClient creates the archive client under the configured fetch policy
func NewClient(cfg *config.Config) *edgar.Client {
	return edgar.NewClient(cfg.UserAgent,
		edgar.WithRetryPolicy(edgar.RetryPolicy{
			MaxAttempts: cfg.FetchMaxAttempts,
			BaseDelay:   cfg.FetchBaseDelay,
			MaxDelay:    cfg.FetchMaxDelay,
		}),
		edgar.WithRateLimit(cfg.RateLimit),
		edgar.WithTimeout(cfg.FetchTimeout),
	)
}

// OpenResultCache opens the configured cache backend at the current parser
// versions
func OpenResultCache(cfg *config.Config) (*cache.ResultCache, cache.Store, error) {
	store, err := cache.OpenStore(cfg.CacheBackend, cfg.CacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return cache.NewResultCache(store, parser.CacheVersions()), store, nil
}

// New builds the pipeline. With withDB set, the database is connected and
// migrated and results can be merged.
func New(ctx context.Context, cfg *config.Config, withDB bool) (*Pipeline, error) {
	p := &Pipeline{Client: NewClient(cfg)}

	var err error
	if p.Results, p.store, err = OpenResultCache(cfg); err != nil {
		return nil, err
	}

	p.Parsers = &parser.Set{
		Deterministic: parser.NewInfoTableParser(p.Client, p.Results),
	}
	model, err := extraction.NewModel(ctx, cfg.LLMProvider, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	if err != nil {
		log.Warnf("Schedule 13G extraction disabled: %v", err)
	} else {
		p.Parsers.TextAssisted = parser.NewSchedule13GParser(p.Client, extraction.NewExtractor(model), p.Results,
			parser.WithMaxRetries(cfg.ExtractMaxRetries))
		log.Infof("Schedule 13G extraction using %s", model.Name())
	}

	if !withDB {
		p.Ingest = services.NewIngestService(p.Client, p.Parsers, nil, nil, cfg.Workers)
		return p, nil
	}

	if err := cfg.RequireDatabase(); err != nil {
		p.Close()
		return nil, err
	}
	if p.DB, err = database.New(ctx, cfg.PGURL); err != nil {
		p.Close()
		return nil, err
	}
	if err := p.DB.Migrate(ctx); err != nil {
		p.Close()
		return nil, err
	}

	p.Funds = repository.NewFundRepository(p.DB.Pool)
	p.Filings = repository.NewFilingRepository(p.DB.Pool)
	p.Holdings = repository.NewHoldingRepository(p.DB.Pool)
	p.Series = repository.NewTimeSeriesRepository(p.DB.Pool)

	merger := services.NewMergeService(repository.NewStagingRepository(p.DB.Pool), p.Funds)
	p.TimeSeries = services.NewTimeSeriesService(p.Holdings, p.Series)
	p.Ingest = services.NewIngestService(p.Client, p.Parsers, merger, p.TimeSeries, cfg.Workers)
	return p, nil
}

// Close releases the database pool and cache store
func (p *Pipeline) Close() {
	if p.DB != nil {
		p.DB.Close()
	}
	if c, ok := p.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Errorf("failed to close cache: %v", err)
		}
	}
}
