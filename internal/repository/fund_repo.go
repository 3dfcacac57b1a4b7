package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/ownership/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrFundNotFound = errors.New("fund not found")

// FundRepository handles database operations for funds
type FundRepository struct {
	pool *pgxpool.Pool
}

// NewFundRepository creates a new FundRepository
func NewFundRepository(pool *pgxpool.Pool) *FundRepository {
	return &FundRepository{pool: pool}
}

// GetByCIK retrieves a fund by its normalized CIK
func (r *FundRepository) GetByCIK(ctx context.Context, cik string) (*models.Fund, error) {
	query := `
		SELECT fund_id, cik, fund_name
		FROM funds
		WHERE cik = $1
	`
	f := &models.Fund{}
	err := r.pool.QueryRow(ctx, query, models.NormalizeCIK(cik)).Scan(&f.ID, &f.CIK, &f.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}
	return f, nil
}

// GetAll retrieves all funds
func (r *FundRepository) GetAll(ctx context.Context) ([]*models.Fund, error) {
	query := `
		SELECT fund_id, cik, fund_name
		FROM funds
		ORDER BY fund_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query funds: %w", err)
	}
	defer rows.Close()

	var result []*models.Fund
	for rows.Next() {
		f := &models.Fund{}
		if err := rows.Scan(&f.ID, &f.CIK, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// BulkCreate inserts funds using batch operations. Funds whose CIK already
// exists are skipped and keep their current name.
// Returns the count of inserted and skipped funds, plus any errors.
func (r *FundRepository) BulkCreate(ctx context.Context, funds []models.Fund) (inserted int, skipped int, errs []error) {
	if len(funds) == 0 {
		return 0, 0, nil
	}

	query := `
		INSERT INTO funds (cik, fund_name)
		VALUES ($1, $2)
		ON CONFLICT (cik) DO NOTHING
		RETURNING fund_id
	`

	batch := &pgx.Batch{}
	for _, f := range funds {
		batch.Queue(query, models.NormalizeCIK(f.CIK), f.Name)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i, f := range funds {
		var id int64
		err := br.QueryRow().Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// CIK already present - a skip, not an error
				skipped++
				continue
			}
			errs = append(errs, fmt.Errorf("failed to insert fund %d (%s): %w", i, f.CIK, err))
			continue
		}
		inserted++
	}
	return inserted, skipped, errs
}

// LinkFilings sets fund_id on filings that were merged before their filer's
// fund existed. Returns the number of filings linked.
func (r *FundRepository) LinkFilings(ctx context.Context, tx pgx.Tx) (int64, error) {
	query := `
		UPDATE filings fl
		SET fund_id = f.fund_id
		FROM funds f
		WHERE fl.fund_id IS NULL AND fl.filer_cik = f.cik
	`
	ct, err := tx.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to link filings to funds: %w", err)
	}
	return ct.RowsAffected(), nil
}
