package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/epeers/ownership/internal/models"
	"github.com/epeers/ownership/internal/repository"
	log "github.com/sirupsen/logrus"
)

// TimeSeriesService derives per-fund, per-security share count changes
type TimeSeriesService struct {
	holdingRepo    *repository.HoldingRepository
	timeSeriesRepo *repository.TimeSeriesRepository
}

// NewTimeSeriesService creates a new TimeSeriesService
func NewTimeSeriesService(holdingRepo *repository.HoldingRepository, timeSeriesRepo *repository.TimeSeriesRepository) *TimeSeriesService {
	return &TimeSeriesService{
		holdingRepo:    holdingRepo,
		timeSeriesRepo: timeSeriesRepo,
	}
}

// Rebuild derives the series of each fund and stores the points not yet
// present. An empty fundIDs rebuilds every fund with filings.
func (s *TimeSeriesService) Rebuild(ctx context.Context, fundIDs []int64) (*models.RebuildTimeSeriesResponse, error) {
	defer TrackTime("RebuildTimeSeries", time.Now())

	if len(fundIDs) == 0 {
		ids, err := s.timeSeriesRepo.GetFundIDsWithFilings(ctx)
		if err != nil {
			return nil, err
		}
		fundIDs = ids
	}

	resp := &models.RebuildTimeSeriesResponse{}
	for _, fundID := range fundIDs {
		obs, err := s.holdingRepo.GetObservations(ctx, fundID)
		if err != nil {
			return nil, fmt.Errorf("failed to load observations for fund %d: %w", fundID, err)
		}
		points := DeriveSeries(fundID, obs)
		inserted, err := s.timeSeriesRepo.InsertPoints(ctx, points)
		if err != nil {
			return nil, fmt.Errorf("failed to store series for fund %d: %w", fundID, err)
		}
		log.Debugf("timeseries: fund %d: %d observations, %d points, %d inserted", fundID, len(obs), len(points), inserted)
		resp.Funds++
		resp.Inserted += inserted
	}
	return resp, nil
}

// DeriveSeries computes change points from a fund's observations. Several
// observations of one security on the same date collapse to the one from the
// latest filing. The first point of each security has zero change and no
// percentage; a change from zero shares has no percentage either.
func DeriveSeries(fundID int64, obs []models.HoldingObservation) []models.TimeSeriesPoint {
	sorted := make([]models.HoldingObservation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.SecurityID != b.SecurityID {
			return a.SecurityID < b.SecurityID
		}
		if !a.ReportDate.Equal(b.ReportDate) {
			return a.ReportDate.Before(b.ReportDate)
		}
		return a.FilingID < b.FilingID
	})

	// Last observation per (security, date) wins
	var collapsed []models.HoldingObservation
	for _, o := range sorted {
		n := len(collapsed)
		if n > 0 && collapsed[n-1].SecurityID == o.SecurityID && collapsed[n-1].ReportDate.Equal(o.ReportDate) {
			collapsed[n-1] = o
			continue
		}
		collapsed = append(collapsed, o)
	}

	points := make([]models.TimeSeriesPoint, 0, len(collapsed))
	for i, o := range collapsed {
		p := models.TimeSeriesPoint{
			FundID:      fundID,
			SecurityID:  o.SecurityID,
			Date:        o.ReportDate,
			SharesOwned: o.SharesOwned,
		}
		if i > 0 && collapsed[i-1].SecurityID == o.SecurityID {
			prev := collapsed[i-1].SharesOwned
			p.SharesChange = o.SharesOwned - prev
			if prev != 0 {
				pct := float64(p.SharesChange) / float64(prev) * 100
				p.SharesChangePct = &pct
			}
		}
		points = append(points, p)
	}
	return points
}
