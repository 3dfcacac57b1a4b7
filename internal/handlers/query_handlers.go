package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/epeers/ownership/internal/models"
	"github.com/epeers/ownership/internal/repository"
	"github.com/gin-gonic/gin"
)

// FundReader looks up funds
type FundReader interface {
	GetAll(ctx context.Context) ([]*models.Fund, error)
	GetByCIK(ctx context.Context, cik string) (*models.Fund, error)
}

// FilingReader looks up merged filings
type FilingReader interface {
	GetByAccession(ctx context.Context, accession string) (*models.Filing, error)
}

// HoldingReader lists the holdings of a filing
type HoldingReader interface {
	GetByFiling(ctx context.Context, filingID int64) ([]models.HoldingRecord, error)
}

// SeriesReader lists the derived series of a fund
type SeriesReader interface {
	GetByFund(ctx context.Context, fundID int64) ([]models.TimeSeriesPoint, error)
}

// QueryHandler serves read-only views of merged data
type QueryHandler struct {
	funds    FundReader
	filings  FilingReader
	holdings HoldingReader
	series   SeriesReader
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(funds FundReader, filings FilingReader, holdings HoldingReader, series SeriesReader) *QueryHandler {
	return &QueryHandler{
		funds:    funds,
		filings:  filings,
		holdings: holdings,
		series:   series,
	}
}

// ListFunds handles GET /funds
// @Summary List funds
// @Description Get every known fund
// @Tags funds
// @Produce json
// @Success 200 {array} models.Fund
// @Failure 500 {object} models.ErrorResponse
// @Router /funds [get]
func (h *QueryHandler) ListFunds(c *gin.Context) {
	funds, err := h.funds.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	// Return empty array if no funds
	if funds == nil {
		funds = []*models.Fund{}
	}

	c.JSON(http.StatusOK, funds)
}

// GetFundTimeSeries handles GET /funds/:cik/timeseries
// @Summary Get a fund's holdings time series
// @Description Get the share count changes of every security held by a fund
// @Tags funds
// @Produce json
// @Param cik path string true "Fund CIK"
// @Success 200 {object} models.FundTimeSeriesResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /funds/{cik}/timeseries [get]
func (h *QueryHandler) GetFundTimeSeries(c *gin.Context) {
	ctx := c.Request.Context()
	cik := c.Param("cik")

	fund, err := h.funds.GetByCIK(ctx, cik)
	if err != nil {
		if errors.Is(err, repository.ErrFundNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "fund not found for cik: " + cik,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	points, err := h.series.GetByFund(ctx, fund.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	if points == nil {
		points = []models.TimeSeriesPoint{}
	}

	c.JSON(http.StatusOK, models.FundTimeSeriesResponse{
		Fund:   *fund,
		Points: points,
	})
}

// GetFiling handles GET /filings/:accession
// @Summary Get a merged filing
// @Description Get a filing and its holdings by accession number, with or without dashes
// @Tags filings
// @Produce json
// @Param accession path string true "Accession number"
// @Success 200 {object} models.FilingDetailResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /filings/{accession} [get]
func (h *QueryHandler) GetFiling(c *gin.Context) {
	ctx := c.Request.Context()
	accession := strings.TrimSpace(c.Param("accession"))
	if models.NormalizeAccession(accession) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid accession number",
		})
		return
	}

	filing, err := h.filings.GetByAccession(ctx, accession)
	if err != nil {
		if errors.Is(err, repository.ErrFilingNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "filing not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	holdings, err := h.holdings.GetByFiling(ctx, filing.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	if holdings == nil {
		holdings = []models.HoldingRecord{}
	}

	c.JSON(http.StatusOK, models.FilingDetailResponse{
		Filing:   *filing,
		Holdings: holdings,
	})
}
