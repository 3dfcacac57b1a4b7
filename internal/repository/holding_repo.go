package repository

import (
	"context"
	"fmt"

	"github.com/epeers/ownership/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HoldingRepository handles database operations for merged holdings
type HoldingRepository struct {
	pool *pgxpool.Pool
}

// NewHoldingRepository creates a new HoldingRepository
func NewHoldingRepository(pool *pgxpool.Pool) *HoldingRepository {
	return &HoldingRepository{pool: pool}
}

// GetByFiling retrieves the holdings of one filing
func (r *HoldingRepository) GetByFiling(ctx context.Context, filingID int64) ([]models.HoldingRecord, error) {
	query := `
		SELECT holding_id, filing_id, security_id, share_type, shares_owned, value_dollar, discretion,
		       voting_sole, voting_shared, voting_none, percent_of_class::float8,
		       shares_dispo_sole, shares_dispo_shared
		FROM holdings_raw
		WHERE filing_id = $1
		ORDER BY holding_id
	`
	rows, err := r.pool.Query(ctx, query, filingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var result []models.HoldingRecord
	for rows.Next() {
		var h models.HoldingRecord
		if err := rows.Scan(
			&h.ID, &h.FilingID, &h.SecurityID, &h.ShareType, &h.SharesOwned, &h.ValueDollar, &h.Discretion,
			&h.VotingSole, &h.VotingShared, &h.VotingNone, &h.PercentOfClass,
			&h.SharesDispoSole, &h.SharesDispoShared,
		); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

// GetObservations retrieves every reported share count for a fund, ordered by
// security, report date and filing. Only share (SH) positions with a known
// count are returned.
func (r *HoldingRepository) GetObservations(ctx context.Context, fundID int64) ([]models.HoldingObservation, error) {
	query := `
		SELECT fl.filing_id, h.security_id, fl.report_date, h.shares_owned
		FROM holdings_raw h
		JOIN filings fl ON fl.filing_id = h.filing_id
		WHERE fl.fund_id = $1
		  AND h.share_type = 'SH'
		  AND h.shares_owned IS NOT NULL
		ORDER BY h.security_id, fl.report_date, fl.filing_id
	`
	rows, err := r.pool.Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var result []models.HoldingObservation
	for rows.Next() {
		var o models.HoldingObservation
		if err := rows.Scan(&o.FilingID, &o.SecurityID, &o.ReportDate, &o.SharesOwned); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}
