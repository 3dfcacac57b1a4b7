package repository

import (
	"context"
	"fmt"

	"github.com/epeers/ownership/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TimeSeriesRepository handles database operations for derived holdings series
type TimeSeriesRepository struct {
	pool *pgxpool.Pool
}

// NewTimeSeriesRepository creates a new TimeSeriesRepository
func NewTimeSeriesRepository(pool *pgxpool.Pool) *TimeSeriesRepository {
	return &TimeSeriesRepository{pool: pool}
}

// GetByFund retrieves the series of a fund ordered by security and date
func (r *TimeSeriesRepository) GetByFund(ctx context.Context, fundID int64) ([]models.TimeSeriesPoint, error) {
	query := `
		SELECT fund_id, security_id, date, shares_owned, shares_change, shares_change_pct::float8
		FROM holdings_ts
		WHERE fund_id = $1
		ORDER BY security_id, date
	`
	rows, err := r.pool.Query(ctx, query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query time series: %w", err)
	}
	defer rows.Close()

	var result []models.TimeSeriesPoint
	for rows.Next() {
		var p models.TimeSeriesPoint
		if err := rows.Scan(&p.FundID, &p.SecurityID, &p.Date, &p.SharesOwned, &p.SharesChange, &p.SharesChangePct); err != nil {
			return nil, fmt.Errorf("failed to scan time series point: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetFundIDsWithFilings returns every fund that has at least one linked filing
func (r *TimeSeriesRepository) GetFundIDsWithFilings(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT fund_id FROM filings WHERE fund_id IS NOT NULL ORDER BY fund_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund ids: %w", err)
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

// InsertPoints stores derived points, leaving existing (fund, security, date)
// points untouched. Returns the number of points inserted.
func (r *TimeSeriesRepository) InsertPoints(ctx context.Context, points []models.TimeSeriesPoint) (int64, error) {
	if len(points) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO holdings_ts (fund_id, security_id, date, shares_owned, shares_change, shares_change_pct)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fund_id, security_id, date) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(query, p.FundID, p.SecurityID, p.Date, p.SharesOwned, p.SharesChange, p.SharesChangePct)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range points {
		ct, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert time series point: %w", err)
		}
		inserted += ct.RowsAffected()
	}
	return inserted, nil
}
