package edgar

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SubmissionsResponse is the per-filer submissions feed.
// Recent filings are reported as parallel arrays.
type SubmissionsResponse struct {
	CIK        string `json:"cik"`
	EntityName string `json:"name"`
	Filings    struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds the column-oriented recent filings table
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// FilingSummary is one row of the recent filings table
type FilingSummary struct {
	AccessionNumber string
	FilingDate      string
	ReportDate      string
	Form            string
	PrimaryDocument string
}

// Rows converts the column-oriented table into rows, tolerating short columns
func (r RecentFilings) Rows() []FilingSummary {
	at := func(col []string, i int) string {
		if i < len(col) {
			return col[i]
		}
		return ""
	}
	rows := make([]FilingSummary, 0, len(r.AccessionNumber))
	for i, acc := range r.AccessionNumber {
		rows = append(rows, FilingSummary{
			AccessionNumber: acc,
			FilingDate:      at(r.FilingDate, i),
			ReportDate:      at(r.ReportDate, i),
			Form:            at(r.Form, i),
			PrimaryDocument: at(r.PrimaryDocument, i),
		})
	}
	return rows
}

// FilingIndex is the index.json directory listing of one accession
type FilingIndex struct {
	Directory struct {
		Name string      `json:"name"`
		Item []IndexItem `json:"item"`
	} `json:"directory"`
}

// IndexItem is one file within an accession directory
type IndexItem struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Size         IndexSize `json:"size"`
	LastModified string    `json:"last-modified"`
}

// IndexSize is a file size that the archive reports as a string, a number,
// or an empty string for directories and generated files. Missing sizes are 0.
type IndexSize int64

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *IndexSize) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		var f float64
		if jerr := json.Unmarshal([]byte(raw), &f); jerr != nil {
			*s = 0
			return nil
		}
		n = int64(f)
	}
	*s = IndexSize(n)
	return nil
}
