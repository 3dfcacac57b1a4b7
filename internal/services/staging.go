package services

import (
	"strconv"
	"strings"

	"github.com/epeers/ownership/internal/models"
)

// defaultShareType is assumed when a row does not state one
const defaultShareType = "SH"

// StageFilings maps parsed filings to staged holdings, numbering rows in the
// order given so that the merge can keep the first of any duplicates. Filings
// without a report date and rows without a CUSIP cannot be merged; they are
// dropped and reported as warnings.
func StageFilings(filings []*models.ParsedFiling) ([]models.StagedHolding, []models.Warning) {
	var (
		rows     []models.StagedHolding
		warnings []models.Warning
		ordinal  int
	)
	for _, f := range filings {
		if f == nil {
			continue
		}
		if f.ReportDate == nil {
			if f.RowCount() > 0 {
				warnings = append(warnings, models.Warning{
					Code:      models.WarnMissingReportDate,
					Accession: f.Accession,
					Message:   "filing has no report date; rows dropped",
				})
			}
			continue
		}

		base := models.StagedHolding{
			Accession:     models.NormalizeAccession(f.Accession),
			FilerCIK:      models.NormalizeCIK(f.FilerCIK),
			FilerName:     strings.TrimSpace(f.FilerName),
			Kind:          f.Kind,
			ReportDate:    *f.ReportDate,
			PrimaryDocURL: nonEmpty(&f.PrimaryDocURL),
		}

		var staged []models.StagedHolding
		if f.Extracted != nil {
			staged = []models.StagedHolding{stageExtracted(base, f.Extracted)}
		} else {
			staged = make([]models.StagedHolding, 0, len(f.InfoTable))
			for _, row := range f.InfoTable {
				staged = append(staged, stageInfoTableRow(base, row))
			}
		}

		dropped := 0
		for _, h := range staged {
			if h.CUSIP == "" {
				dropped++
				continue
			}
			ordinal++
			h.Ordinal = ordinal
			rows = append(rows, h)
		}
		if dropped > 0 {
			warnings = append(warnings, models.Warning{
				Code:      models.WarnMissingCUSIP,
				Accession: base.Accession,
				Message:   strconv.Itoa(dropped) + " row(s) without a CUSIP dropped",
			})
		}
	}
	return rows, warnings
}

// stageInfoTableRow maps one information table row. Amount sentinels become
// NULL and voting authority strings are parsed here.
func stageInfoTableRow(base models.StagedHolding, row models.InfoTableRow) models.StagedHolding {
	h := base
	h.CUSIP = strings.ToUpper(deref(row.CUSIP))
	h.IssuerName = deref(row.IssuerName)
	h.FIGI = nonEmpty(row.FIGI)
	h.ShareType = defaultShareType
	if st := strings.ToUpper(deref(row.ShareType)); st != "" {
		h.ShareType = st
	}
	h.SharesOwned = amount(row.SharesOwned)
	h.ValueDollar = amount(row.Value)
	h.Discretion = nonEmpty(row.Discretion)
	h.VotingSole = coerceVoting(row.VotingSole)
	h.VotingShared = coerceVoting(row.VotingShared)
	h.VotingNone = coerceVoting(row.VotingNone)
	return h
}

// stageExtracted maps one extracted cover page record
func stageExtracted(base models.StagedHolding, e *models.Schedule13GEntry) models.StagedHolding {
	h := base
	h.CUSIP = strings.ToUpper(strings.TrimSpace(e.CUSIP))
	h.IssuerName = strings.TrimSpace(e.Issuer)
	h.ShareType = defaultShareType
	if h.FilerName == "" {
		h.FilerName = strings.TrimSpace(e.NameFiler)
	}

	shares := e.SharesOwned
	pct := e.PercentOfClass
	votingSole := e.VotingSole
	votingShared := e.VotingShared
	dispoSole := e.SharesDispoSole
	dispoShared := e.SharesDispoShared
	h.SharesOwned = &shares
	h.PercentOfClass = &pct
	h.VotingSole = &votingSole
	h.VotingShared = &votingShared
	h.SharesDispoSole = &dispoSole
	h.SharesDispoShared = &dispoShared
	return h
}

// amount maps the missing-amount sentinel to nil
func amount(n int64) *int64 {
	if n == models.MissingAmount {
		return nil
	}
	return &n
}

// coerceVoting parses a voting authority count. Thousands separators are
// ignored and fractional values truncated; anything else is unknown.
func coerceVoting(s *string) *int64 {
	raw := strings.ReplaceAll(deref(s), ",", "")
	if raw == "" {
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		n := int64(f)
		return &n
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nonEmpty(s *string) *string {
	v := deref(s)
	if v == "" {
		return nil
	}
	return &v
}
