package models

// WarningCode categorizes warnings by subsystem.
// W1xxx = fetch, W2xxx = parsing/extraction, W3xxx = merge, W4xxx = cache.
type WarningCode string

const (
	WarnFetchFailed       WarningCode = "W1001" // accession skipped after retries or a permanent fetch error
	WarnInfoTableMissing  WarningCode = "W2001" // 13F accession has no information table file (zero rows)
	WarnPrimaryDocMissing WarningCode = "W2002" // no html or text document in the filing index
	WarnExtractionFailed  WarningCode = "W2003" // extraction retries exhausted
	WarnParseFailed       WarningCode = "W2004" // document could not be decoded
	WarnNoParser          WarningCode = "W2005" // filing kind skipped because its parser is not configured
	WarnMissingReportDate WarningCode = "W3001" // filing dropped at staging for lack of a report date
	WarnMissingCUSIP      WarningCode = "W3002" // row dropped at staging for lack of a CUSIP
	WarnCacheWriteFailed  WarningCode = "W4001" // result computed but could not be cached
)

// Warning represents a non-fatal issue encountered during processing.
type Warning struct {
	Code      WarningCode `json:"code"`
	Accession string      `json:"accession_number,omitempty"`
	Message   string      `json:"message"`
}
