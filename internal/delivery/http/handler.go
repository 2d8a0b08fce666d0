package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cartscan/backend/internal/domain"
	"github.com/cartscan/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	lookup *usecase.LookupService
}

// NewHandler creates a new HTTP handler
func NewHandler(lookup *usecase.LookupService) *Handler {
	return &Handler{lookup: lookup}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cartscan-backend",
		"version": "1.0.0",
	})
}

// GetProduct handles GET /api/v1/products/:barcode
func (h *Handler) GetProduct(c *gin.Context) {
	if h.lookup == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "lookup service not configured"})
		return
	}

	result, err := h.lookup.GetCombined(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// batchRequest is the body of POST /api/v1/products/batch
type batchRequest struct {
	Barcodes []string `json:"barcodes"`
}

// GetProductBatch handles POST /api/v1/products/batch
func (h *Handler) GetProductBatch(c *gin.Context) {
	if h.lookup == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "lookup service not configured"})
		return
	}

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with a barcodes array"})
		return
	}

	result, err := h.lookup.GetCombinedBatch(c.Request.Context(), req.Barcodes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFoodProduct handles GET /api/v1/products/:barcode/food. Unlike the
// combined lookup this is a raw pass-through: provider failures surface
// directly instead of being masked by the partial-failure policy.
func (h *Handler) GetFoodProduct(c *gin.Context) {
	if h.lookup == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "lookup service not configured"})
		return
	}

	result, err := h.lookup.GetFoodOnly(c.Request.Context(), c.Param("barcode"), parseFields(c.Query("fields")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRetailProduct handles GET /api/v1/products/:barcode/retail
func (h *Handler) GetRetailProduct(c *gin.Context) {
	if h.lookup == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "lookup service not configured"})
		return
	}

	result, err := h.lookup.GetRetailOnly(c.Request.Context(), c.Param("barcode"), parseFields(c.Query("fields")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SearchProducts handles GET /api/v1/search?q=&page=&page_size=
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.lookup == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "lookup service not configured"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

	result, err := h.lookup.SearchRetail(c.Request.Context(), c.Query("q"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseFields splits a comma-separated fields query parameter, dropping
// empty segments. Returns nil when the parameter is absent so clients get
// the provider's full schema.
func parseFields(raw string) []string {
	if raw == "" {
		return nil
	}

	var fields []string
	for _, field := range strings.Split(raw, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

// respondError maps a domain error onto an HTTP status
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrUpstreamFailure):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
