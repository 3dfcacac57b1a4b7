package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/ownership/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrFilingNotFound = errors.New("filing not found")

// FilingRepository handles database operations for filings
type FilingRepository struct {
	pool *pgxpool.Pool
}

// NewFilingRepository creates a new FilingRepository
func NewFilingRepository(pool *pgxpool.Pool) *FilingRepository {
	return &FilingRepository{pool: pool}
}

// GetByAccession retrieves a filing by accession number, dashed or not
func (r *FilingRepository) GetByAccession(ctx context.Context, accession string) (*models.Filing, error) {
	query := `
		SELECT filing_id, accession_number, filer_cik, fund_id, filing_kind, report_date, primary_doc_url
		FROM filings
		WHERE accession_number = $1
	`
	f := &models.Filing{}
	var kind string
	err := r.pool.QueryRow(ctx, query, models.NormalizeAccession(accession)).Scan(
		&f.ID, &f.AccessionNumber, &f.FilerCIK, &f.FundID, &kind, &f.ReportDate, &f.PrimaryDocURL,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFilingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get filing: %w", err)
	}
	f.Kind = models.FilingKind(kind)
	return f, nil
}
