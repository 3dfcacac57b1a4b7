package edgar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/epeers/ownership/internal/models"
)

// padCIK pads a CIK number to 10 digits with leading zeros.
func padCIK(cik string) string {
	cik = models.NormalizeCIK(cik)
	if len(cik) < 10 {
		cik = strings.Repeat("0", 10-len(cik)) + cik
	}
	return cik
}

// SubmissionsURL is the submissions feed address for a filer
func (c *Client) SubmissionsURL(cik string) string {
	return fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, padCIK(cik))
}

// FilingBaseURL is the archive directory of one accession
func (c *Client) FilingBaseURL(cik, accession string) string {
	return fmt.Sprintf("%s/Archives/edgar/data/%s/%s",
		c.archiveBaseURL, models.NormalizeCIK(cik), models.NormalizeAccession(accession))
}

// DocumentURL is the archive address of a single file within an accession
func (c *Client) DocumentURL(cik, accession, name string) string {
	return c.FilingBaseURL(cik, accession) + "/" + name
}

// Submissions fetches the submissions feed for a filer
func (c *Client) Submissions(ctx context.Context, cik string) (*SubmissionsResponse, error) {
	var resp SubmissionsResponse
	if err := c.FetchJSON(ctx, c.SubmissionsURL(cik), &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch submissions for CIK %s: %w", cik, err)
	}
	return &resp, nil
}

// FilingIndex fetches the index.json directory listing for an accession
func (c *Client) FilingIndex(ctx context.Context, cik, accession string) ([]IndexItem, error) {
	var idx FilingIndex
	if err := c.FetchJSON(ctx, c.FilingBaseURL(cik, accession)+"/index.json", &idx); err != nil {
		return nil, fmt.Errorf("failed to fetch index for %s: %w", accession, err)
	}
	return idx.Directory.Item, nil
}

// Document fetches one file of an accession
func (c *Client) Document(ctx context.Context, cik, accession, name string) ([]byte, error) {
	body, err := c.FetchBytes(ctx, c.DocumentURL(cik, accession, name))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s of %s: %w", name, accession, err)
	}
	return body, nil
}

// MatchesKind reports whether a feed form string belongs to a filing kind.
// 13F selects original holdings reports only; 13G selects both originals and
// amendments, 13G/A amendments only.
func MatchesKind(form string, kind models.FilingKind) bool {
	form = strings.ToUpper(strings.TrimSpace(form))
	original := form == "SC 13G" || form == "SCHEDULE 13G"
	amendment := form == "SC 13G/A" || form == "SCHEDULE 13G/A"
	switch kind {
	case models.FilingKind13F:
		return form == "13F-HR"
	case models.FilingKind13G:
		return original || amendment
	case models.FilingKind13GA:
		return amendment
	}
	return false
}

// SelectFilings picks the filings of one kind from a submissions feed, in
// feed order (most recent first). A zero limit means no limit; a zero since
// disables date filtering.
func SelectFilings(feed *SubmissionsResponse, kind models.FilingKind, limit int, since time.Time) []models.FilingRef {
	var refs []models.FilingRef
	for _, row := range feed.Filings.Recent.Rows() {
		if !MatchesKind(row.Form, kind) {
			continue
		}
		if !since.IsZero() {
			filed, err := models.ParseDate(row.FilingDate)
			if err == nil && filed.Before(since) {
				continue
			}
		}
		rowKind, err := models.ParseFilingKind(row.Form)
		if err != nil {
			rowKind = kind
		}
		ref := models.FilingRef{
			CIK:       models.NormalizeCIK(feed.CIK),
			FilerName: feed.EntityName,
			Accession: row.AccessionNumber,
			Kind:      rowKind,
		}
		if row.ReportDate != "" {
			if d, err := models.ParseDate(row.ReportDate); err == nil {
				ref.ReportDate = &d
			}
		}
		refs = append(refs, ref)
		if limit > 0 && len(refs) >= limit {
			break
		}
	}
	return refs
}
