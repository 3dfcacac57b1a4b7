package models

import (
	"fmt"
	"strings"
	"time"
)

// FilingKind is the regulatory form a filing was submitted under
type FilingKind string

const (
	FilingKind13F  FilingKind = "13F"
	FilingKind13G  FilingKind = "13G"
	FilingKind13GA FilingKind = "13G/A"
)

// ParseFilingKind maps a user-facing or feed form string onto a FilingKind.
// Accepts the short names (13f, 13g, 13g/a) as well as archive form types
// such as "13F-HR", "SC 13G" and "SCHEDULE 13G/A".
func ParseFilingKind(s string) (FilingKind, error) {
	form := strings.ToUpper(strings.TrimSpace(s))
	form = strings.TrimPrefix(form, "SC ")
	form = strings.TrimPrefix(form, "SCHEDULE ")
	switch form {
	case "13F", "13F-HR", "13F-HR/A":
		return FilingKind13F, nil
	case "13G":
		return FilingKind13G, nil
	case "13G/A":
		return FilingKind13GA, nil
	}
	return "", fmt.Errorf("unknown filing kind %q", s)
}

// IsSchedule13G reports whether the kind is extracted from free text
func (k FilingKind) IsSchedule13G() bool {
	return k == FilingKind13G || k == FilingKind13GA
}

// CacheNamespace groups kinds that share a parser and therefore a cache layout
func (k FilingKind) CacheNamespace() string {
	if k.IsSchedule13G() {
		return "g13"
	}
	return "f13"
}

// NormalizeAccession strips dashes so that "0001-23-000456" and
// "000123000456" address the same filing.
func NormalizeAccession(accession string) string {
	return strings.ReplaceAll(strings.TrimSpace(accession), "-", "")
}

// NormalizeCIK strips leading zeros from a central index key
func NormalizeCIK(cik string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(strings.TrimPrefix(strings.ToUpper(cik), "CIK")), "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// Fund is the entity that files holdings reports, keyed by CIK
type Fund struct {
	ID   int64  `json:"fund_id"`
	CIK  string `json:"cik"`
	Name string `json:"fund_name"`
}

// Security is an issuer security keyed by CUSIP
type Security struct {
	ID         int64   `json:"security_id"`
	IssuerName string  `json:"issuer_name"`
	CUSIP      string  `json:"cusip"`
	FIGI       *string `json:"figi,omitempty"`
}

// Filing is one submitted report
type Filing struct {
	ID              int64      `json:"filing_id"`
	AccessionNumber string     `json:"accession_number"`
	FilerCIK        string     `json:"filer_cik"`
	FundID          *int64     `json:"fund_id,omitempty"`
	Kind            FilingKind `json:"filing_kind"`
	ReportDate      time.Time  `json:"report_date"`
	PrimaryDocURL   *string    `json:"primary_doc_url,omitempty"`
}

// FilingRef identifies a filing to fetch and parse
type FilingRef struct {
	CIK        string
	FilerName  string
	Accession  string
	Kind       FilingKind
	ReportDate *time.Time // from the submissions feed when known
}
