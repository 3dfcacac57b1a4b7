package services

import (
	"context"
	"errors"
	"sync"

	"github.com/epeers/ownership/internal/edgar"
	"github.com/epeers/ownership/internal/extraction"
	"github.com/epeers/ownership/internal/models"
)

type warningContextKey struct{}

// WarningCollector accumulates warnings across the accessions of a run.
// Workers add to it concurrently.
type WarningCollector struct {
	mu       sync.Mutex
	warnings []models.Warning
}

// NewWarningContext returns a context carrying a fresh WarningCollector,
// plus a reference to the collector so the caller can retrieve warnings later.
func NewWarningContext(ctx context.Context) (context.Context, *WarningCollector) {
	wc := &WarningCollector{}
	return context.WithValue(ctx, warningContextKey{}, wc), wc
}

// AddWarning appends a warning to the collector in ctx.
// If ctx has no collector, the call is a no-op.
func AddWarning(ctx context.Context, w models.Warning) {
	wc, ok := ctx.Value(warningContextKey{}).(*WarningCollector)
	if !ok || wc == nil {
		return
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.warnings = append(wc.warnings, w)
}

// GetWarnings returns all collected warnings.
func (wc *WarningCollector) GetWarnings() []models.Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	out := make([]models.Warning, len(wc.warnings))
	copy(out, wc.warnings)
	return out
}

// warningFor classifies the error that made an accession be skipped
func warningFor(accession string, err error) models.Warning {
	w := models.Warning{
		Code:      models.WarnParseFailed,
		Accession: models.NormalizeAccession(accession),
		Message:   err.Error(),
	}
	var fetchErr *edgar.FetchError
	var extErr *extraction.ExtractionError
	switch {
	case errors.As(err, &extErr):
		w.Code = models.WarnExtractionFailed
	case errors.As(err, &fetchErr):
		w.Code = models.WarnFetchFailed
	}
	return w
}
