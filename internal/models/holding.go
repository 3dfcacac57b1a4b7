package models

import (
	"time"
)

// Unparsed numeric fields in an information table are reported with this sentinel
const MissingAmount int64 = -1

// InfoTableRow is one infoTable element of a 13F information table, as read
// from the XML with no interpretation beyond integer coercion.
type InfoTableRow struct {
	IssuerName   *string `json:"issuer"`
	TitleOfClass *string `json:"class"`
	CUSIP        *string `json:"cusip"`
	FIGI         *string `json:"figi"`
	Value        int64   `json:"value"`
	SharesOwned  int64   `json:"shares_owned"`
	ShareType    *string `json:"share_type"`
	Discretion   *string `json:"discretion"`
	VotingSole   *string `json:"voting_sole"`
	VotingShared *string `json:"voting_shared"`
	VotingNone   *string `json:"voting_none"`
}

// Schedule13GEntry is the structured record extracted from a Schedule 13G
// cover page. Field names follow the extraction contract.
type Schedule13GEntry struct {
	ReportDate        string  `json:"report_date" validate:"required,reportdate"`
	Issuer            string  `json:"issuer" validate:"required"`
	NameFiler         string  `json:"name_filer" validate:"required"`
	IRSIDFiler        string  `json:"irs_id_filer"`
	CUSIP             string  `json:"cusip" validate:"required"`
	SharesOwned       int64   `json:"shares_owned" validate:"gte=0"`
	PercentOfClass    float64 `json:"percent_of_class" validate:"gte=0,lte=100"`
	VotingSole        int64   `json:"voting_sole" validate:"gte=0"`
	VotingShared      int64   `json:"voting_shared" validate:"gte=0"`
	SharesDispoSole   int64   `json:"shares_dispo_sole" validate:"gte=0"`
	SharesDispoShared int64   `json:"shares_dispo_shared" validate:"gte=0"`
}

// ParsedFiling is the output of parsing a single accession. Exactly one of
// InfoTable or Extracted is populated, depending on the filing kind.
type ParsedFiling struct {
	Accession     string            `json:"accession_number"`
	FilerCIK      string            `json:"filer_cik"`
	FilerName     string            `json:"filer_name,omitempty"`
	Kind          FilingKind        `json:"filing_kind"`
	ReportDate    *time.Time        `json:"report_date,omitempty"`
	PrimaryDocURL string            `json:"primary_doc_url,omitempty"`
	InfoTable     []InfoTableRow    `json:"info_table,omitempty"`
	Extracted     *Schedule13GEntry `json:"extracted,omitempty"`

	// Non-fatal issues met while parsing; never cached
	Warnings []Warning `json:"-"`
}

// RowCount is the number of raw holding rows the filing contributes
func (p *ParsedFiling) RowCount() int {
	if p.Extracted != nil {
		return 1
	}
	return len(p.InfoTable)
}

// StagedHolding is a raw row normalized for the merge: identifiers resolved
// to natural keys, voting strings coerced, sentinels mapped to nil.
type StagedHolding struct {
	Ordinal           int
	Accession         string
	FilerCIK          string
	FilerName         string
	Kind              FilingKind
	ReportDate        time.Time
	PrimaryDocURL     *string
	IssuerName        string
	CUSIP             string
	FIGI              *string
	ShareType         string
	SharesOwned       *int64
	ValueDollar       *int64
	Discretion        *string
	VotingSole        *int64
	VotingShared      *int64
	VotingNone        *int64
	PercentOfClass    *float64
	SharesDispoSole   *int64
	SharesDispoShared *int64
}

// HoldingRecord is a persisted position of one security within one filing
type HoldingRecord struct {
	ID                int64    `json:"holding_id"`
	FilingID          int64    `json:"filing_id"`
	SecurityID        int64    `json:"security_id"`
	ShareType         string   `json:"share_type"`
	SharesOwned       *int64   `json:"shares_owned"`
	ValueDollar       *int64   `json:"value_dollar"`
	Discretion        *string  `json:"discretion"`
	VotingSole        *int64   `json:"voting_sole"`
	VotingShared      *int64   `json:"voting_shared"`
	VotingNone        *int64   `json:"voting_none"`
	PercentOfClass    *float64 `json:"percent_of_class"`
	SharesDispoSole   *int64   `json:"shares_dispo_sole"`
	SharesDispoShared *int64   `json:"shares_dispo_shared"`
}

// HoldingObservation is one reported share count for a (fund, security) pair
type HoldingObservation struct {
	FilingID    int64
	SecurityID  int64
	ReportDate  time.Time
	SharesOwned int64
}

// TimeSeriesPoint is a derived change record for one (fund, security, date)
type TimeSeriesPoint struct {
	FundID          int64     `json:"fund_id"`
	SecurityID      int64     `json:"security_id"`
	Date            time.Time `json:"date"`
	SharesOwned     int64     `json:"shares_owned"`
	SharesChange    int64     `json:"shares_change"`
	SharesChangePct *float64  `json:"shares_change_pct"`
}
