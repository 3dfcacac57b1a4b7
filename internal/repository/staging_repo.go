package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/epeers/ownership/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// mergeLockKey is the advisory lock taken by every merge transaction
const mergeLockKey int64 = 0x13F013

var stagingColumns = []string{
	"ordinal", "accession_number", "filer_cik", "filer_name", "filing_kind", "report_date", "primary_doc_url",
	"issuer_name", "cusip", "figi", "share_type", "shares_owned", "value_dollar", "discretion",
	"voting_sole", "voting_shared", "voting_none", "percent_of_class", "shares_dispo_sole", "shares_dispo_shared",
}

// StagingRepository loads staged holdings into a per-batch temporary table and
// merges them into the normalized tables. Every method runs inside the
// caller's transaction.
type StagingRepository struct {
	pool *pgxpool.Pool
}

// NewStagingRepository creates a new StagingRepository
func NewStagingRepository(pool *pgxpool.Pool) *StagingRepository {
	return &StagingRepository{pool: pool}
}

// BeginTx starts a new transaction
func (r *StagingRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// StagingTable returns the temporary table name for a staging id
func StagingTable(stagingID string) string {
	return "staging_" + strings.ReplaceAll(strings.ToLower(stagingID), "-", "")
}

// Lock serializes merges across processes until the transaction ends
func (r *StagingRepository) Lock(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, mergeLockKey); err != nil {
		return fmt.Errorf("failed to take merge lock: %w", err)
	}
	return nil
}

// Load creates the staging table and copies rows into it
func (r *StagingRepository) Load(ctx context.Context, tx pgx.Tx, table string, rows []models.StagedHolding) (int64, error) {
	ident := pgx.Identifier{table}.Sanitize()
	create := `
		CREATE TEMP TABLE ` + ident + ` (
			ordinal             INTEGER NOT NULL,
			accession_number    TEXT NOT NULL,
			filer_cik           TEXT NOT NULL,
			filer_name          TEXT NOT NULL,
			filing_kind         TEXT NOT NULL,
			report_date         DATE NOT NULL,
			primary_doc_url     TEXT,
			issuer_name         TEXT NOT NULL,
			cusip               TEXT NOT NULL,
			figi                TEXT,
			share_type          TEXT NOT NULL,
			shares_owned        BIGINT,
			value_dollar        BIGINT,
			discretion          TEXT,
			voting_sole         BIGINT,
			voting_shared       BIGINT,
			voting_none         BIGINT,
			percent_of_class    DOUBLE PRECISION,
			shares_dispo_sole   BIGINT,
			shares_dispo_shared BIGINT
		) ON COMMIT DROP
	`
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("failed to create staging table: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, stagingColumns, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		h := rows[i]
		return []any{
			int32(h.Ordinal), h.Accession, h.FilerCIK, h.FilerName, string(h.Kind), h.ReportDate, h.PrimaryDocURL,
			h.IssuerName, h.CUSIP, h.FIGI, h.ShareType, h.SharesOwned, h.ValueDollar, h.Discretion,
			h.VotingSole, h.VotingShared, h.VotingNone, h.PercentOfClass, h.SharesDispoSole, h.SharesDispoShared,
		}, nil
	}))
	if err != nil {
		return 0, fmt.Errorf("failed to copy staged rows: %w", err)
	}
	return n, nil
}

// MergeFunds creates funds for staged filers that carry both a CIK and a name.
// Existing funds are never renamed.
func (r *StagingRepository) MergeFunds(ctx context.Context, tx pgx.Tx, table string) (int64, error) {
	query := `
		INSERT INTO funds (cik, fund_name)
		SELECT DISTINCT ON (filer_cik) filer_cik, filer_name
		FROM ` + pgx.Identifier{table}.Sanitize() + `
		WHERE filer_cik <> '' AND filer_name <> ''
		ORDER BY filer_cik, ordinal
		ON CONFLICT (cik) DO NOTHING
	`
	ct, err := tx.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to merge funds: %w", err)
	}
	return ct.RowsAffected(), nil
}

// MergeSecurities creates a security for each unseen CUSIP. The first staged
// row for a CUSIP names it; existing securities keep their name.
func (r *StagingRepository) MergeSecurities(ctx context.Context, tx pgx.Tx, table string) (int64, error) {
	query := `
		INSERT INTO securities (issuer_name, cusip, figi)
		SELECT DISTINCT ON (cusip) issuer_name, cusip, figi
		FROM ` + pgx.Identifier{table}.Sanitize() + `
		ORDER BY cusip, ordinal
		ON CONFLICT (cusip) DO NOTHING
	`
	ct, err := tx.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to merge securities: %w", err)
	}
	return ct.RowsAffected(), nil
}

// MergeFilings creates one filing per staged accession, linked to its fund
// when the filer is known. Existing filings are left as they are.
func (r *StagingRepository) MergeFilings(ctx context.Context, tx pgx.Tx, table string) (int64, error) {
	query := `
		INSERT INTO filings (accession_number, filer_cik, fund_id, filing_kind, report_date, primary_doc_url)
		SELECT DISTINCT ON (s.accession_number)
		       s.accession_number, s.filer_cik, f.fund_id, s.filing_kind, s.report_date, s.primary_doc_url
		FROM ` + pgx.Identifier{table}.Sanitize() + ` s
		LEFT JOIN funds f ON f.cik = s.filer_cik
		ORDER BY s.accession_number, s.ordinal
		ON CONFLICT (accession_number) DO NOTHING
	`
	ct, err := tx.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to merge filings: %w", err)
	}
	return ct.RowsAffected(), nil
}

// MergeHoldings inserts one holding per (filing, security, share type). When
// the batch repeats a key the lowest ordinal wins; keys already merged are
// skipped.
func (r *StagingRepository) MergeHoldings(ctx context.Context, tx pgx.Tx, table string) (int64, error) {
	query := `
		INSERT INTO holdings_raw (
			filing_id, security_id, share_type, shares_owned, value_dollar, discretion,
			voting_sole, voting_shared, voting_none, percent_of_class, shares_dispo_sole, shares_dispo_shared
		)
		SELECT DISTINCT ON (fl.filing_id, sec.security_id, s.share_type)
		       fl.filing_id, sec.security_id, s.share_type, s.shares_owned, s.value_dollar, s.discretion,
		       s.voting_sole, s.voting_shared, s.voting_none, s.percent_of_class, s.shares_dispo_sole, s.shares_dispo_shared
		FROM ` + pgx.Identifier{table}.Sanitize() + ` s
		JOIN filings fl ON fl.accession_number = s.accession_number
		JOIN securities sec ON sec.cusip = s.cusip
		ORDER BY fl.filing_id, sec.security_id, s.share_type, s.ordinal
		ON CONFLICT (filing_id, security_id, share_type) DO NOTHING
	`
	ct, err := tx.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to merge holdings: %w", err)
	}
	return ct.RowsAffected(), nil
}

// TouchedFunds returns the funds owning any filing in the staging table
func (r *StagingRepository) TouchedFunds(ctx context.Context, tx pgx.Tx, table string) ([]int64, error) {
	query := `
		SELECT DISTINCT fl.fund_id
		FROM ` + pgx.Identifier{table}.Sanitize() + ` s
		JOIN filings fl ON fl.accession_number = s.accession_number
		WHERE fl.fund_id IS NOT NULL
		ORDER BY fl.fund_id
	`
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query touched funds: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fund id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
