package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/ownership/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSecurityNotFound = errors.New("security not found")

// SecurityRepository handles database operations for securities
type SecurityRepository struct {
	pool *pgxpool.Pool
}

// NewSecurityRepository creates a new SecurityRepository
func NewSecurityRepository(pool *pgxpool.Pool) *SecurityRepository {
	return &SecurityRepository{pool: pool}
}

// GetByCUSIP retrieves a security by CUSIP
func (r *SecurityRepository) GetByCUSIP(ctx context.Context, cusip string) (*models.Security, error) {
	query := `
		SELECT security_id, issuer_name, cusip, figi
		FROM securities
		WHERE cusip = $1
	`
	s := &models.Security{}
	err := r.pool.QueryRow(ctx, query, cusip).Scan(&s.ID, &s.IssuerName, &s.CUSIP, &s.FIGI)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSecurityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security: %w", err)
	}
	return s, nil
}
