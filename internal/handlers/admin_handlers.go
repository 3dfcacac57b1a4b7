package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/epeers/ownership/internal/edgar"
	"github.com/epeers/ownership/internal/models"
	"github.com/epeers/ownership/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Ingester runs an ingestion for one filer
type Ingester interface {
	Run(ctx context.Context, req services.RunRequest) (*models.IngestResponse, error)
}

// SeriesRebuilder refreshes derived time series
type SeriesRebuilder interface {
	Rebuild(ctx context.Context, fundIDs []int64) (*models.RebuildTimeSeriesResponse, error)
}

// FundCreator seeds funds in bulk
type FundCreator interface {
	BulkCreate(ctx context.Context, funds []models.Fund) (inserted int, skipped int, errs []error)
}

// AdminHandler handles admin endpoints
type AdminHandler struct {
	ingestSvc     Ingester
	timeSeriesSvc SeriesRebuilder
	fundRepo      FundCreator
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(ingestSvc Ingester, timeSeriesSvc SeriesRebuilder, fundRepo FundCreator) *AdminHandler {
	return &AdminHandler{
		ingestSvc:     ingestSvc,
		timeSeriesSvc: timeSeriesSvc,
		fundRepo:      fundRepo,
	}
}

// Ingest handles POST /admin/ingest
// @Summary Ingest a filer's ownership filings
// @Description Fetch, parse and merge the 13F and Schedule 13G filings of one filer
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.IngestRequest true "Filer and forms to ingest"
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/ingest [post]
func (h *AdminHandler) Ingest(c *gin.Context) {
	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	kinds, err := services.ParseKinds(req.Forms)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if req.Limit < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "limit must not be negative",
		})
		return
	}

	merge := true
	if req.Merge != nil {
		merge = *req.Merge
	}

	resp, err := h.ingestSvc.Run(c.Request.Context(), services.RunRequest{
		CIK:   req.CIK,
		Kinds: kinds,
		Limit: req.Limit,
		Since: req.Since.Time,
		Merge: merge,
	})
	if err != nil {
		if errors.Is(err, edgar.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "no filer found for cik: " + req.CIK,
			})
			return
		}
		log.Errorf("ingest of %s failed: %v", req.CIK, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RebuildTimeSeries handles POST /admin/timeseries/rebuild
// @Summary Rebuild holdings time series
// @Description Derive share count changes for the given funds, or every fund when none are given
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.RebuildTimeSeriesRequest false "Funds to rebuild"
// @Success 200 {object} models.RebuildTimeSeriesResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/timeseries/rebuild [post]
func (h *AdminHandler) RebuildTimeSeries(c *gin.Context) {
	var req models.RebuildTimeSeriesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
	}

	resp, err := h.timeSeriesSvc.Rebuild(c.Request.Context(), req.FundIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UploadFunds handles POST /admin/funds/upload
// @Summary Seed funds from CSV
// @Description Create funds from a CSV file with cik and name columns. Existing CIKs are skipped.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} models.UploadFundsResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/funds/upload [post]
func (h *AdminHandler) UploadFunds(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "file is required",
		})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "failed to open uploaded file",
		})
		return
	}
	defer file.Close()

	funds, err := ParseFundsCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	inserted, skipped, errs := h.fundRepo.BulkCreate(c.Request.Context(), funds)
	resp := models.UploadFundsResponse{
		Inserted: inserted,
		Skipped:  skipped,
		Errors:   make([]string, 0, len(errs)),
	}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, e.Error())
	}
	log.Infof("funds upload: %d inserted, %d skipped, %d errors", inserted, skipped, len(errs))

	c.JSON(http.StatusOK, resp)
}
