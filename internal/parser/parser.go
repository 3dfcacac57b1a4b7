package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/ownership/internal/cache"
	"github.com/epeers/ownership/internal/edgar"
	"github.com/epeers/ownership/internal/models"
)

// Current result versions. Bump when a parser's output changes so that
// cached results written by the previous logic are re-parsed.
const (
	InfoTableVersion   = 1
	Schedule13GVersion = 1
)

// CacheVersions maps each cache namespace to its parser's current version
func CacheVersions() map[string]int {
	return map[string]int{
		models.FilingKind13F.CacheNamespace(): InfoTableVersion,
		models.FilingKind13G.CacheNamespace(): Schedule13GVersion,
	}
}

var (
	ErrUnsupportedKind = errors.New("no parser for filing kind")
)

// Strategy is how a filing kind is turned into structured rows
type Strategy int

const (
	// Deterministic decodes a machine-readable information table
	Deterministic Strategy = iota
	// TextAssisted narrows free text and hands it to an extraction oracle
	TextAssisted
)

func (s Strategy) String() string {
	switch s {
	case Deterministic:
		return "deterministic"
	case TextAssisted:
		return "text-assisted"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// StrategyFor returns the parsing strategy for a filing kind
func StrategyFor(kind models.FilingKind) (Strategy, error) {
	switch {
	case kind == models.FilingKind13F:
		return Deterministic, nil
	case kind.IsSchedule13G():
		return TextAssisted, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}

// Source is the part of the archive client the parsers read from
type Source interface {
	FilingIndex(ctx context.Context, cik, accession string) ([]edgar.IndexItem, error)
	Document(ctx context.Context, cik, accession, name string) ([]byte, error)
	DocumentURL(cik, accession, name string) string
}

// Parser turns one accession into a parsed filing
type Parser interface {
	ParsePrimaryDocument(ctx context.Context, ref models.FilingRef) (*models.ParsedFiling, error)
}

// Set holds one parser per strategy
type Set struct {
	Deterministic Parser
	TextAssisted  Parser
}

// ParserFor resolves the parser for a filing kind
func (s *Set) ParserFor(kind models.FilingKind) (Parser, error) {
	strategy, err := StrategyFor(kind)
	if err != nil {
		return nil, err
	}
	var p Parser
	switch strategy {
	case Deterministic:
		p = s.Deterministic
	case TextAssisted:
		p = s.TextAssisted
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s parser not configured", ErrUnsupportedKind, strategy)
	}
	return p, nil
}

// cached loads a previously parsed filing for ref, if one is current
func cached(c *cache.ResultCache, ref models.FilingRef) (*models.ParsedFiling, bool) {
	if c == nil {
		return nil, false
	}
	var parsed models.ParsedFiling
	if !c.GetInto(ref.Kind.CacheNamespace(), ref.Accession, &parsed) {
		return nil, false
	}
	return &parsed, true
}
