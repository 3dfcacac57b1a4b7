package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/epeers/ownership/internal/cache"
	"github.com/epeers/ownership/internal/edgar"
	"github.com/epeers/ownership/internal/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"
)

var ErrEmptyDocument = errors.New("document has no root element")

// InfoTableParser reads the holdings of a 13F filing from its XML
// information table
type InfoTableParser struct {
	source  Source
	cache   *cache.ResultCache
	primary PrimaryDocHeuristic
}

// NewInfoTableParser creates a 13F parser. A nil cache disables caching.
func NewInfoTableParser(source Source, c *cache.ResultCache) *InfoTableParser {
	return &InfoTableParser{
		source:  source,
		cache:   c,
		primary: LargestHTMLThenText,
	}
}

// ParsePrimaryDocument returns one row per holding in the accession's
// information table. A filing without an information table yields no rows
// and a warning rather than an error.
func (p *InfoTableParser) ParsePrimaryDocument(ctx context.Context, ref models.FilingRef) (*models.ParsedFiling, error) {
	if parsed, ok := cached(p.cache, ref); ok {
		log.Debugf("parser: %s served from cache (%d rows)", ref.Accession, len(parsed.InfoTable))
		return parsed, nil
	}

	items, err := p.source.FilingIndex(ctx, ref.CIK, ref.Accession)
	if err != nil {
		return nil, err
	}

	parsed := &models.ParsedFiling{
		Accession: models.NormalizeAccession(ref.Accession),
		FilerCIK:  models.NormalizeCIK(ref.CIK),
		FilerName: ref.FilerName,
		Kind:      ref.Kind,
	}

	info, ok := findInfoTable(items)
	if !ok {
		log.Warnf("parser: no information table in %s", ref.Accession)
		parsed.Warnings = append(parsed.Warnings, models.Warning{
			Code:      models.WarnInfoTableMissing,
			Accession: parsed.Accession,
			Message:   "filing index has no information table file",
		})
		parsed.ReportDate = p.reportDate(ref, items, edgar.IndexItem{})
		return parsed, nil
	}
	parsed.ReportDate = p.reportDate(ref, items, info)

	doc, err := p.source.Document(ctx, ref.CIK, ref.Accession, info.Name)
	if err != nil {
		return nil, err
	}
	rows, err := DecodeInfoTable(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse information table of %s: %w", ref.Accession, err)
	}
	parsed.InfoTable = rows
	parsed.PrimaryDocURL = p.source.DocumentURL(ref.CIK, ref.Accession, info.Name)

	if p.cache != nil {
		if err := p.cache.Set(ref.Kind.CacheNamespace(), ref.Accession, parsed); err != nil {
			log.Warnf("parser: %v", err)
			parsed.Warnings = append(parsed.Warnings, models.Warning{
				Code:      models.WarnCacheWriteFailed,
				Accession: parsed.Accession,
				Message:   err.Error(),
			})
		}
	}
	return parsed, nil
}

// reportDate prefers the feed's report date, then the primary document's
// modification date, then the information table's
func (p *InfoTableParser) reportDate(ref models.FilingRef, items []edgar.IndexItem, info edgar.IndexItem) *time.Time {
	if ref.ReportDate != nil {
		d := *ref.ReportDate
		return &d
	}
	if primary, ok := p.primary(items); ok {
		if d, ok := lastModifiedDate(primary); ok {
			return &d
		}
	}
	if d, ok := lastModifiedDate(info); ok {
		return &d
	}
	return nil
}

// findInfoTable picks the file whose name contains "infotable", preferring XML
func findInfoTable(items []edgar.IndexItem) (edgar.IndexItem, bool) {
	var fallback *edgar.IndexItem
	for i, item := range items {
		name := strings.ToLower(item.Name)
		if !strings.Contains(name, "infotable") {
			continue
		}
		if strings.HasSuffix(name, ".xml") {
			return item, true
		}
		if fallback == nil {
			fallback = &items[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return edgar.IndexItem{}, false
}

// infoTableElement mirrors one infoTable element. Pointers distinguish an
// absent element from an empty one.
type infoTableElement struct {
	NameOfIssuer *string `xml:"nameOfIssuer"`
	TitleOfClass *string `xml:"titleOfClass"`
	CUSIP        *string `xml:"cusip"`
	FIGI         *string `xml:"figi"`
	Value        *string `xml:"value"`
	SharesAmount *string `xml:"shrsOrPrnAmt>sshPrnamt"`
	SharesType   *string `xml:"shrsOrPrnAmt>sshPrnamtType"`
	Discretion   *string `xml:"investmentDiscretion"`
	VotingSole   *string `xml:"votingAuthority>Sole"`
	VotingShared *string `xml:"votingAuthority>Shared"`
	VotingNone   *string `xml:"votingAuthority>None"`
}

func (e infoTableElement) row() models.InfoTableRow {
	return models.InfoTableRow{
		IssuerName:   trimmed(e.NameOfIssuer),
		TitleOfClass: trimmed(e.TitleOfClass),
		CUSIP:        trimmed(e.CUSIP),
		FIGI:         trimmed(e.FIGI),
		Value:        parseAmount(e.Value),
		SharesOwned:  parseAmount(e.SharesAmount),
		ShareType:    trimmed(e.SharesType),
		Discretion:   trimmed(e.Discretion),
		VotingSole:   trimmed(e.VotingSole),
		VotingShared: trimmed(e.VotingShared),
		VotingNone:   trimmed(e.VotingNone),
	}
}

// DecodeInfoTable decodes an information table document. The namespace of the
// root element is taken as the document namespace; only infoTable elements in
// that namespace are read.
func DecodeInfoTable(doc []byte) ([]models.InfoTableRow, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.CharsetReader = charset.NewReaderLabel

	var (
		ns       string
		rootSeen bool
		rows     []models.InfoTableRow
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode XML: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !rootSeen {
			rootSeen = true
			ns = se.Name.Space
			continue
		}
		if se.Name.Local != "infoTable" || se.Name.Space != ns {
			continue
		}
		var el infoTableElement
		if err := dec.DecodeElement(&el, &se); err != nil {
			return nil, fmt.Errorf("failed to decode infoTable %d: %w", len(rows)+1, err)
		}
		rows = append(rows, el.row())
	}
	if !rootSeen {
		return nil, ErrEmptyDocument
	}
	if rows == nil {
		rows = []models.InfoTableRow{}
	}
	return rows, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// parseAmount reads an integer amount, returning MissingAmount when the
// element is absent or not numeric
func parseAmount(s *string) int64 {
	if s == nil {
		return models.MissingAmount
	}
	raw := strings.ReplaceAll(strings.TrimSpace(*s), ",", "")
	if raw == "" {
		return models.MissingAmount
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int64(f)
	}
	return models.MissingAmount
}
