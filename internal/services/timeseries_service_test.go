package services

import (
	"math"
	"testing"
	"time"

	"github.com/epeers/ownership/internal/models"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDeriveSeries(t *testing.T) {
	obs := []models.HoldingObservation{
		{FilingID: 3, SecurityID: 10, ReportDate: day("2023-07-01"), SharesOwned: 120},
		{FilingID: 1, SecurityID: 10, ReportDate: day("2023-01-01"), SharesOwned: 100},
		{FilingID: 2, SecurityID: 10, ReportDate: day("2023-04-01"), SharesOwned: 150},
	}

	points := DeriveSeries(7, obs)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	want := []struct {
		date   string
		shares int64
		change int64
		pct    *float64
	}{
		{"2023-01-01", 100, 0, nil},
		{"2023-04-01", 150, 50, f64Ptr(50)},
		{"2023-07-01", 120, -30, f64Ptr(-20)},
	}
	for i, w := range want {
		p := points[i]
		if p.FundID != 7 || p.SecurityID != 10 {
			t.Errorf("point %d: unexpected keys %d/%d", i, p.FundID, p.SecurityID)
		}
		if p.Date.Format("2006-01-02") != w.date || p.SharesOwned != w.shares || p.SharesChange != w.change {
			t.Errorf("point %d: got %s %d %+d, want %s %d %+d", i, p.Date.Format("2006-01-02"), p.SharesOwned, p.SharesChange, w.date, w.shares, w.change)
		}
		switch {
		case w.pct == nil && p.SharesChangePct != nil:
			t.Errorf("point %d: expected no percentage, got %v", i, *p.SharesChangePct)
		case w.pct != nil && p.SharesChangePct == nil:
			t.Errorf("point %d: expected %v%%, got none", i, *w.pct)
		case w.pct != nil && math.Abs(*p.SharesChangePct-*w.pct) > 1e-9:
			t.Errorf("point %d: expected %v%%, got %v%%", i, *w.pct, *p.SharesChangePct)
		}
	}
}

func TestDeriveSeries_SeparatesSecurities(t *testing.T) {
	obs := []models.HoldingObservation{
		{FilingID: 1, SecurityID: 2, ReportDate: day("2023-01-01"), SharesOwned: 10},
		{FilingID: 1, SecurityID: 1, ReportDate: day("2023-01-01"), SharesOwned: 500},
		{FilingID: 2, SecurityID: 2, ReportDate: day("2023-04-01"), SharesOwned: 15},
	}
	points := DeriveSeries(1, obs)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].SecurityID != 1 || points[0].SharesChange != 0 {
		t.Errorf("expected security 1 to start its own series, got %+v", points[0])
	}
	if points[1].SecurityID != 2 || points[1].SharesChange != 0 || points[1].SharesChangePct != nil {
		t.Errorf("expected security 2 first point to have no change, got %+v", points[1])
	}
	if points[2].SharesChange != 5 {
		t.Errorf("expected change of 5, got %d", points[2].SharesChange)
	}
}

func TestDeriveSeries_SameDateLatestFilingWins(t *testing.T) {
	obs := []models.HoldingObservation{
		{FilingID: 1, SecurityID: 1, ReportDate: day("2023-01-01"), SharesOwned: 100},
		{FilingID: 5, SecurityID: 1, ReportDate: day("2023-04-01"), SharesOwned: 999},
		{FilingID: 4, SecurityID: 1, ReportDate: day("2023-04-01"), SharesOwned: 200},
	}
	points := DeriveSeries(1, obs)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[1].SharesOwned != 999 || points[1].SharesChange != 899 {
		t.Errorf("expected the later filing's count, got %+v", points[1])
	}
}

func TestDeriveSeries_FromZero(t *testing.T) {
	obs := []models.HoldingObservation{
		{FilingID: 1, SecurityID: 1, ReportDate: day("2023-01-01"), SharesOwned: 0},
		{FilingID: 2, SecurityID: 1, ReportDate: day("2023-04-01"), SharesOwned: 40},
	}
	points := DeriveSeries(1, obs)
	if points[1].SharesChange != 40 || points[1].SharesChangePct != nil {
		t.Errorf("expected change 40 with no percentage, got %+v", points[1])
	}
}

func TestDeriveSeries_Empty(t *testing.T) {
	if points := DeriveSeries(1, nil); len(points) != 0 {
		t.Errorf("expected no points, got %d", len(points))
	}
}
