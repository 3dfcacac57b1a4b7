package services

import (
	"context"
	"fmt"
	"time"

	"github.com/epeers/ownership/internal/models"
	"github.com/epeers/ownership/internal/repository"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MergeError reports a staging batch that was rolled back. The staging id
// identifies the batch in the logs; nothing from it was applied.
type MergeError struct {
	StagingID string
	Kind      models.FilingKind
	Err       error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge of %s batch %s rolled back: %v", e.Kind, e.StagingID, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// MergeService merges staged holdings into the normalized tables
type MergeService struct {
	stagingRepo *repository.StagingRepository
	fundRepo    *repository.FundRepository
}

// NewMergeService creates a new MergeService
func NewMergeService(stagingRepo *repository.StagingRepository, fundRepo *repository.FundRepository) *MergeService {
	return &MergeService{
		stagingRepo: stagingRepo,
		fundRepo:    fundRepo,
	}
}

// MergeBatch applies one staging batch in a single transaction. Re-merging
// rows that are already present changes nothing, so a batch may be replayed
// safely. Failed batches are not retried.
func (s *MergeService) MergeBatch(ctx context.Context, rows []models.StagedHolding, kind models.FilingKind) (*models.MergeReport, error) {
	defer TrackTime("MergeBatch", time.Now())

	stagingID := uuid.NewString()
	report := &models.MergeReport{StagingID: stagingID, StagedRows: len(rows)}
	if len(rows) == 0 {
		return report, nil
	}
	fail := func(err error) (*models.MergeReport, error) {
		log.WithFields(log.Fields{"staging_id": stagingID, "kind": kind}).Errorf("merge failed: %v", err)
		return nil, &MergeError{StagingID: stagingID, Kind: kind, Err: err}
	}

	tx, err := s.stagingRepo.BeginTx(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	if err := s.stagingRepo.Lock(ctx, tx); err != nil {
		return fail(err)
	}

	table := repository.StagingTable(stagingID)
	if _, err := s.stagingRepo.Load(ctx, tx, table, rows); err != nil {
		return fail(err)
	}

	if report.FundsInserted, err = s.stagingRepo.MergeFunds(ctx, tx, table); err != nil {
		return fail(err)
	}
	if report.SecuritiesInserted, err = s.stagingRepo.MergeSecurities(ctx, tx, table); err != nil {
		return fail(err)
	}
	if report.FilingsInserted, err = s.stagingRepo.MergeFilings(ctx, tx, table); err != nil {
		return fail(err)
	}
	if report.FilingsLinked, err = s.fundRepo.LinkFilings(ctx, tx); err != nil {
		return fail(err)
	}
	if report.HoldingsInserted, err = s.stagingRepo.MergeHoldings(ctx, tx, table); err != nil {
		return fail(err)
	}
	report.HoldingsSkipped = int64(len(rows)) - report.HoldingsInserted

	if report.FundIDs, err = s.stagingRepo.TouchedFunds(ctx, tx, table); err != nil {
		return fail(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fail(fmt.Errorf("failed to commit transaction: %w", err))
	}

	log.WithFields(log.Fields{
		"staging_id": stagingID,
		"kind":       kind,
		"staged":     report.StagedRows,
		"securities": report.SecuritiesInserted,
		"filings":    report.FilingsInserted,
		"holdings":   report.HoldingsInserted,
	}).Info("merge committed")
	return report, nil
}
