package handlers

import (
	"net/http"

	"github.com/epeers/ownership/internal/cache"
	"github.com/epeers/ownership/internal/models"
	"github.com/gin-gonic/gin"
)

// CacheHandler exposes the parse result cache
type CacheHandler struct {
	results *cache.ResultCache
}

// NewCacheHandler creates a new CacheHandler
func NewCacheHandler(results *cache.ResultCache) *CacheHandler {
	return &CacheHandler{results: results}
}

// cacheTarget resolves the namespace and accession of a cache request
func cacheTarget(c *gin.Context) (string, string, bool) {
	kind, err := models.ParseFilingKind(c.DefaultQuery("form", "13f"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return "", "", false
	}
	accession := models.NormalizeAccession(c.Param("accession"))
	if accession == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "invalid accession number",
		})
		return "", "", false
	}
	return kind.CacheNamespace(), accession, true
}

// GetEntry handles GET /admin/cache/:accession
// @Summary Get a cached parse result
// @Description Get the cached rows of an accession. Entries from an older parser version are reported missing.
// @Tags admin
// @Produce json
// @Param accession path string true "Accession number"
// @Param form query string false "Filing kind (13f, 13g); defaults to 13f"
// @Success 200 {object} models.CacheEntryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/cache/{accession} [get]
func (h *CacheHandler) GetEntry(c *gin.Context) {
	ns, accession, ok := cacheTarget(c)
	if !ok {
		return
	}

	p, found := h.results.Get(ns, accession)
	if !found {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "no current cache entry for " + accession,
		})
		return
	}

	c.JSON(http.StatusOK, models.CacheEntryResponse{
		Namespace:      ns,
		Accession:      accession,
		ParserVersion:  p.ParserVersion,
		CurrentVersion: h.results.Version(ns),
		CacheTime:      p.CacheTime,
		Rows:           p.Rows,
	})
}

// Invalidate handles DELETE /admin/cache/:accession
// @Summary Invalidate a cached parse result
// @Description Remove the cached rows of an accession so the next run parses it again
// @Tags admin
// @Produce json
// @Param accession path string true "Accession number"
// @Param form query string false "Filing kind (13f, 13g); defaults to 13f"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /admin/cache/{accession} [delete]
func (h *CacheHandler) Invalidate(c *gin.Context) {
	ns, accession, ok := cacheTarget(c)
	if !ok {
		return
	}

	if err := h.results.Invalidate(ns, accession); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cache entry removed", "accession_number": accession})
}
