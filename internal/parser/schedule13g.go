package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/epeers/ownership/internal/cache"
	"github.com/epeers/ownership/internal/extraction"
	"github.com/epeers/ownership/internal/models"
	log "github.com/sirupsen/logrus"
)

// DefaultMaxRetries is the number of extra extraction attempts per accession
const DefaultMaxRetries = 1

// Schedule13GParser extracts the cover page of a Schedule 13G or 13G/A from
// its primary document through an extraction oracle
type Schedule13GParser struct {
	source     Source
	oracle     extraction.Oracle
	cache      *cache.ResultCache
	primary    PrimaryDocHeuristic
	prefilter  Prefilter
	schema     extraction.Schema
	maxRetries int
}

// Schedule13GOption configures a Schedule13GParser
type Schedule13GOption func(*Schedule13GParser)

// WithPrimaryDocHeuristic replaces the primary document heuristic
func WithPrimaryDocHeuristic(h PrimaryDocHeuristic) Schedule13GOption {
	return func(p *Schedule13GParser) {
		if h != nil {
			p.primary = h
		}
	}
}

// WithPrefilter replaces the section markers
func WithPrefilter(f Prefilter) Schedule13GOption {
	return func(p *Schedule13GParser) { p.prefilter = f }
}

// WithMaxRetries sets the number of extra extraction attempts
func WithMaxRetries(n int) Schedule13GOption {
	return func(p *Schedule13GParser) {
		if n >= 0 {
			p.maxRetries = n
		}
	}
}

// NewSchedule13GParser creates a 13G parser. A nil cache disables caching.
func NewSchedule13GParser(source Source, oracle extraction.Oracle, c *cache.ResultCache, opts ...Schedule13GOption) *Schedule13GParser {
	p := &Schedule13GParser{
		source:     source,
		oracle:     oracle,
		cache:      c,
		primary:    LargestHTMLThenText,
		prefilter:  DefaultPrefilter,
		schema:     extraction.Schedule13GSchema,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParsePrimaryDocument extracts one record from the accession's primary
// document. A cached extraction at the current version skips all fetching.
func (p *Schedule13GParser) ParsePrimaryDocument(ctx context.Context, ref models.FilingRef) (*models.ParsedFiling, error) {
	if parsed, ok := cached(p.cache, ref); ok && parsed.Extracted != nil {
		log.Debugf("parser: %s served from cache", ref.Accession)
		return parsed, nil
	}

	items, err := p.source.FilingIndex(ctx, ref.CIK, ref.Accession)
	if err != nil {
		return nil, err
	}
	primary, ok := p.primary(items)
	if !ok {
		log.Warnf("parser: no primary document in %s", ref.Accession)
		return &models.ParsedFiling{
			Accession:  models.NormalizeAccession(ref.Accession),
			FilerCIK:   models.NormalizeCIK(ref.CIK),
			FilerName:  ref.FilerName,
			Kind:       ref.Kind,
			ReportDate: ref.ReportDate,
			Warnings: []models.Warning{{
				Code:      models.WarnPrimaryDocMissing,
				Accession: models.NormalizeAccession(ref.Accession),
				Message:   "filing index has no html or text document",
			}},
		}, nil
	}

	doc, err := p.source.Document(ctx, ref.CIK, ref.Accession, primary.Name)
	if err != nil {
		return nil, err
	}
	text, err := ExtractText(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s of %s: %w", primary.Name, ref.Accession, err)
	}
	text = p.prefilter.Apply(text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("primary document %s of %s has no text", primary.Name, ref.Accession)
	}

	entry, err := p.oracle.ExtractAndValidate(ctx, text, p.schema, p.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", ref.Accession, err)
	}

	parsed := &models.ParsedFiling{
		Accession:     models.NormalizeAccession(ref.Accession),
		FilerCIK:      models.NormalizeCIK(ref.CIK),
		FilerName:     ref.FilerName,
		Kind:          ref.Kind,
		PrimaryDocURL: p.source.DocumentURL(ref.CIK, ref.Accession, primary.Name),
		Extracted:     entry,
	}
	if parsed.FilerName == "" {
		parsed.FilerName = entry.NameFiler
	}

	// The cover page date is the event date of the filing; fall back to the
	// feed and then to the document's modification date.
	if d, err := models.ParseDate(entry.ReportDate); err == nil {
		parsed.ReportDate = &d
	} else if ref.ReportDate != nil {
		d := *ref.ReportDate
		parsed.ReportDate = &d
	} else if d, ok := lastModifiedDate(primary); ok {
		parsed.ReportDate = &d
	}

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
