package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/repository"
	"github.com/mamadbah2/bapokting/internal/service/catalog"
)

// CatalogService is the write surface over surveys and reference data.
type CatalogService interface {
	ListSurveys(ctx context.Context, filter models.SurveyFilter) (repository.SurveyBatch, error)
	CreateSurvey(ctx context.Context, rec models.SurveyRecord) (models.SurveyRecord, error)
	UpdateSurvey(ctx context.Context, id string, rec models.SurveyRecord) (models.SurveyRecord, error)
	DeleteSurvey(ctx context.Context, id string) error

	ListCommodities(ctx context.Context) ([]models.Commodity, error)
	CreateCommodity(ctx context.Context, c models.Commodity) (models.Commodity, error)
	UpdateCommodity(ctx context.Context, id string, c models.Commodity) (models.Commodity, error)
	DeleteCommodity(ctx context.Context, id string) error

	ListMarkets(ctx context.Context, activeOnly bool) ([]models.Market, error)
	CreateMarket(ctx context.Context, m models.Market) (models.Market, error)
	UpdateMarket(ctx context.Context, id string, m models.Market) (models.Market, error)
	DeleteMarket(ctx context.Context, id string) error
}

// CatalogHandler serves CRUD endpoints for surveys, commodities and markets.
type CatalogHandler struct {
	svc    CatalogService
	logger *zap.Logger
}

// NewCatalogHandler constructs the CRUD HTTP adapter.
func NewCatalogHandler(svc CatalogService, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{svc: svc, logger: logger}
}

// ListSurveys answers GET /api/v1/surveys.
func (h *CatalogHandler) ListSurveys(c *gin.Context) {
	filter := models.SurveyFilter{
		MarketID: c.Query("market"),
		From:     c.Query("from"),
		To:       c.Query("to"),
	}
	batch, err := h.svc.ListSurveys(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, "list surveys", err)
		return
	}
	records := batch.Records
	if records == nil {
		records = []models.SurveyRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "rejected": batch.Rejected})
}

// CreateSurvey answers POST /api/v1/surveys.
func (h *CatalogHandler) CreateSurvey(c *gin.Context) {
	var rec models.SurveyRecord
	if !h.bind(c, &rec) {
		return
	}
	created, err := h.svc.CreateSurvey(c.Request.Context(), rec)
	if err != nil {
		h.writeError(c, "create survey", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateSurvey answers PUT /api/v1/surveys/:id.
func (h *CatalogHandler) UpdateSurvey(c *gin.Context) {
	var rec models.SurveyRecord
	if !h.bind(c, &rec) {
		return
	}
	updated, err := h.svc.UpdateSurvey(c.Request.Context(), c.Param("id"), rec)
	if err != nil {
		h.writeError(c, "update survey", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteSurvey answers DELETE /api/v1/surveys/:id.
func (h *CatalogHandler) DeleteSurvey(c *gin.Context) {
	if err := h.svc.DeleteSurvey(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "delete survey", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCommodities answers GET /api/v1/commodities.
func (h *CatalogHandler) ListCommodities(c *gin.Context) {
	items, err := h.svc.ListCommodities(c.Request.Context())
	if err != nil {
		h.writeError(c, "list commodities", err)
		return
	}
	if items == nil {
		items = []models.Commodity{}
	}
	c.JSON(http.StatusOK, items)
}

// CreateCommodity answers POST /api/v1/commodities.
func (h *CatalogHandler) CreateCommodity(c *gin.Context) {
	var in models.Commodity
	if !h.bind(c, &in) {
		return
	}
	created, err := h.svc.CreateCommodity(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, "create commodity", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateCommodity answers PUT /api/v1/commodities/:id.
func (h *CatalogHandler) UpdateCommodity(c *gin.Context) {
	var in models.Commodity
	if !h.bind(c, &in) {
		return
	}
	updated, err := h.svc.UpdateCommodity(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, "update commodity", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCommodity answers DELETE /api/v1/commodities/:id.
func (h *CatalogHandler) DeleteCommodity(c *gin.Context) {
	if err := h.svc.DeleteCommodity(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "delete commodity", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMarkets answers GET /api/v1/markets.
func (h *CatalogHandler) ListMarkets(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "active must be a boolean"})
			return
		}
		activeOnly = v
	}
	items, err := h.svc.ListMarkets(c.Request.Context(), activeOnly)
	if err != nil {
		h.writeError(c, "list markets", err)
		return
	}
	if items == nil {
		items = []models.Market{}
	}
	c.JSON(http.StatusOK, items)
}

// CreateMarket answers POST /api/v1/markets.
func (h *CatalogHandler) CreateMarket(c *gin.Context) {
	var in models.Market
	if !h.bind(c, &in) {
		return
	}
	created, err := h.svc.CreateMarket(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, "create market", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateMarket answers PUT /api/v1/markets/:id.
func (h *CatalogHandler) UpdateMarket(c *gin.Context) {
	var in models.Market
	if !h.bind(c, &in) {
		return
	}
	updated, err := h.svc.UpdateMarket(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, "update market", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteMarket answers DELETE /api/v1/markets/:id.
func (h *CatalogHandler) DeleteMarket(c *gin.Context) {
	if err := h.svc.DeleteMarket(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "delete market", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *CatalogHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Error("store request failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "data store unavailable"})
	}
}
