package edgar

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/epeers/ownership/internal/models"
	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

var (
	accessionPattern  = regexp.MustCompile(`\d{10}-\d{2}-\d{6}`)
	filingDatePattern = regexp.MustCompile(`<filing-date>\s*(\d{4}-\d{2}-\d{2})\s*</filing-date>`)
	feedCIKSuffix     = regexp.MustCompile(`\s*\(\d+\)\s*$`)
)

// AtomFeed is a company Atom feed: the filer's name and its recent filings
type AtomFeed struct {
	FilerName string
	Entries   []AtomEntry
}

// AtomEntry is one filing announced in a company Atom feed
type AtomEntry struct {
	AccessionNumber string
	Form            string
	Title           string
	Filed           time.Time // zero when the entry carries no date
}

// AtomFeedURL is the company browse feed for one form type
func (c *Client) AtomFeedURL(cik, form string, count int) string {
	params := url.Values{}
	params.Set("action", "getcompany")
	params.Set("CIK", padCIK(cik))
	params.Set("type", form)
	params.Set("dateb", "")
	params.Set("owner", "include")
	params.Set("count", fmt.Sprint(count))
	params.Set("output", "atom")
	return c.archiveBaseURL + "/cgi-bin/browse-edgar?" + params.Encode()
}

// AtomFilings lists recent filings of a form type from the company Atom feed.
// It is an alternative discovery path to the submissions feed that tracks new
// filings sooner.
func (c *Client) AtomFilings(ctx context.Context, cik, form string, count int) (*AtomFeed, error) {
	body, err := c.FetchBytes(ctx, c.AtomFeedURL(cik, form, count))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch atom feed for CIK %s: %w", cik, err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse atom feed for CIK %s: %w", cik, err)
	}

	result := &AtomFeed{FilerName: feedCIKSuffix.ReplaceAllString(strings.TrimSpace(feed.Title), "")}
	for _, item := range feed.Items {
		acc := accessionPattern.FindString(item.GUID)
		if acc == "" {
			acc = accessionPattern.FindString(item.Content)
		}
		if acc == "" {
			acc = accessionPattern.FindString(item.Link)
		}
		if acc == "" {
			log.Debugf("edgar: atom entry %q has no accession number", item.Title)
			continue
		}
		entry := AtomEntry{
			AccessionNumber: acc,
			Title:           item.Title,
			Filed:           entryDate(item),
		}
		if len(item.Categories) > 0 {
			entry.Form = strings.TrimSpace(item.Categories[0])
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

// entryDate is the filing date from the entry content, else the date the
// entry was last updated
func entryDate(item *gofeed.Item) time.Time {
	if m := filingDatePattern.FindStringSubmatch(item.Content); m != nil {
		if d, err := models.ParseDate(m[1]); err == nil {
			return d
		}
	}
	if item.UpdatedParsed != nil {
		y, mo, d := item.UpdatedParsed.Date()
		return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}

// FeedForm is the form type to request from the Atom feed for a filing kind.
// The feed matches form types by prefix, so "SC 13G" also returns amendments.
func FeedForm(kind models.FilingKind) string {
	switch kind {
	case models.FilingKind13F:
		return "13F-HR"
	case models.FilingKind13GA:
		return "SC 13G/A"
	}
	return "SC 13G"
}

// AtomRefs converts the Atom entries that belong to a filing kind into filing
// refs, in feed order. A zero limit means no limit; a zero since disables date
// filtering. Entries without a date are kept.
func AtomRefs(feed *AtomFeed, cik string, kind models.FilingKind, limit int, since time.Time) []models.FilingRef {
	var refs []models.FilingRef
	for _, e := range feed.Entries {
		if !MatchesKind(e.Form, kind) {
			continue
		}
		if !since.IsZero() && !e.Filed.IsZero() && e.Filed.Before(since) {
			continue
		}
		rowKind, err := models.ParseFilingKind(e.Form)
		if err != nil {
			rowKind = kind
		}
		refs = append(refs, models.FilingRef{
			CIK:       models.NormalizeCIK(cik),
			FilerName: feed.FilerName,
			Accession: e.AccessionNumber,
			Kind:      rowKind,
		})
		if limit > 0 && len(refs) >= limit {
			break
		}
	}
	return refs
}
