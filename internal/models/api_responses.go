package models

import (
	"encoding/json"
	"time"
)

// IngestRequest represents the request body for triggering an ingestion run
type IngestRequest struct {
	CIK   string       `json:"cik" binding:"required"`
	Forms []string     `json:"forms"` // 13f, 13g; empty means all
	Limit int          `json:"limit"` // per kind; 0 means no limit
	Since FlexibleDate `json:"since"` // only filings on or after this date
	Merge *bool        `json:"merge"` // defaults to true
}

// KindSummary summarizes one filing kind within an ingestion run
type KindSummary struct {
	Kind       FilingKind   `json:"filing_kind"`
	Requested  int          `json:"requested"`
	Processed  int          `json:"processed"`
	Skipped    int          `json:"skipped"`
	RawRows    int          `json:"raw_rows"`
	Merge      *MergeReport `json:"merge,omitempty"`
	StagingErr string       `json:"staging_error,omitempty"`
}

// MergeReport counts what a merge inserted versus found already present
type MergeReport struct {
	StagingID          string  `json:"staging_id"`
	StagedRows         int     `json:"staged_rows"`
	FundsInserted      int64   `json:"funds_inserted"`
	SecuritiesInserted int64   `json:"securities_inserted"`
	FilingsInserted    int64   `json:"filings_inserted"`
	FilingsLinked      int64   `json:"filings_linked"`
	HoldingsInserted   int64   `json:"holdings_inserted"`
	HoldingsSkipped    int64   `json:"holdings_skipped"`
	FundIDs            []int64 `json:"fund_ids,omitempty"`
}

// IngestResponse represents the result of an ingestion run
type IngestResponse struct {
	CIK              string        `json:"cik"`
	FilerName        string        `json:"filer_name"`
	Kinds            []KindSummary `json:"kinds"`
	TimeSeriesPoints int64         `json:"time_series_points"`
	Warnings         []Warning     `json:"warnings,omitempty"`
}

// RebuildTimeSeriesRequest represents the request body for rebuilding time series
type RebuildTimeSeriesRequest struct {
	FundIDs []int64 `json:"fund_ids"` // empty means every fund
}

// RebuildTimeSeriesResponse reports how many points were inserted
type RebuildTimeSeriesResponse struct {
	Funds    int   `json:"funds"`
	Inserted int64 `json:"inserted"`
}

// UploadFundsResponse reports the outcome of a funds CSV upload
type UploadFundsResponse struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// FundTimeSeriesResponse is the derived share count series of one fund
type FundTimeSeriesResponse struct {
	Fund   Fund              `json:"fund"`
	Points []TimeSeriesPoint `json:"points"`
}

// FilingDetailResponse is a merged filing with its holdings
type FilingDetailResponse struct {
	Filing   Filing          `json:"filing"`
	Holdings []HoldingRecord `json:"holdings"`
}

// CacheEntryResponse describes a cached parse result
type CacheEntryResponse struct {
	Namespace      string          `json:"namespace"`
	Accession      string          `json:"accession_number"`
	ParserVersion  int             `json:"parser_version"`
	CurrentVersion int             `json:"current_version"`
	CacheTime      time.Time       `json:"cache_time"`
	Rows           json.RawMessage `json:"rows" swaggertype:"object"`
}
