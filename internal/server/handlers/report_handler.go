package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/service/aggregation"
	"github.com/mamadbah2/bapokting/internal/service/export"
	"github.com/mamadbah2/bapokting/internal/service/reporting"
)

// ReportService builds the aggregated and raw report views.
type ReportService interface {
	PriceReport(ctx context.Context, req models.ReportRequest) (models.Report, error)
	SurveyListing(ctx context.Context, req models.ReportRequest) (models.SurveyListing, aggregation.Lookup, error)
	Dashboard(ctx context.Context, marketID string) (reporting.Dashboard, error)
}

// Exporter renders report tables.
type Exporter interface {
	Write(w io.Writer, format export.Format, t export.Table) error
	Push(ctx context.Context, t export.Table) error
}

// PanelRefresher builds reports for a dashboard view, discarding superseded ones.
type PanelRefresher interface {
	Refresh(ctx context.Context, key string, req models.ReportRequest) (models.Report, error)
}

// PanelHeader names the dashboard view a price report request belongs to.
const PanelHeader = "X-Panel-ID"

// SnapshotLister lists archived report snapshots.
type SnapshotLister interface {
	ListSnapshots(ctx context.Context, limit int) ([]models.ReportSnapshot, error)
}

// ReportHandler serves report, export and archive endpoints.
type ReportHandler struct {
	reports  ReportService
	exporter Exporter
	archive  SnapshotLister
	panels   PanelRefresher
	logger   *zap.Logger
}

// NewReportHandler constructs the report HTTP adapter. archive and panels may be nil.
func NewReportHandler(reports ReportService, exporter Exporter, archive SnapshotLister, panels PanelRefresher, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, exporter: exporter, archive: archive, panels: panels, logger: logger}
}

// PriceReport answers GET /api/v1/reports/prices.
func (h *ReportHandler) PriceReport(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	var (
		report models.Report
		err    error
	)
	if key := c.GetHeader(PanelHeader); key != "" && h.panels != nil {
		report, err = h.panels.Refresh(c.Request.Context(), key, req)
	} else {
		report, err = h.reports.PriceReport(c.Request.Context(), req)
	}
	if err != nil {
		h.reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Dashboard answers GET /api/v1/reports/dashboard.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dash, err := h.reports.Dashboard(c.Request.Context(), c.Query("market"))
	if err != nil {
		h.reportError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// ExportPriceReport answers GET /api/v1/reports/prices/export.
func (h *ReportHandler) ExportPriceReport(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	report, err := h.reports.PriceReport(c.Request.Context(), req)
	if err != nil {
		h.reportError(c, err)
		return
	}

	name := fmt.Sprintf("Prices %s %s", report.Period, report.To)
	table := export.AggregatedTable(name, report.Rows)
	h.deliver(c, export.Format(c.DefaultQuery("format", string(export.FormatCSV))), table,
		fmt.Sprintf("price-report-%s-%s", report.From, report.To))
}

// ExportSurveys answers GET /api/v1/surveys/export.
func (h *ReportHandler) ExportSurveys(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	listing, ref, err := h.reports.SurveyListing(c.Request.Context(), req)
	if err != nil {
		h.reportError(c, err)
		return
	}

	name := fmt.Sprintf("Surveys %s %s", listing.Period, listing.To)
	table := export.RawTable(name, listing.Records, ref)
	h.deliver(c, export.Format(c.DefaultQuery("format", string(export.FormatCSV))), table,
		fmt.Sprintf("price-surveys-%s-%s", listing.From, listing.To))
}

// Archive answers GET /api/v1/reports/archive.
func (h *ReportHandler) Archive(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive is not configured"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	snapshots, err := h.archive.ListSnapshots(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed listing report snapshots", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to read report archive"})
		return
	}
	if snapshots == nil {
		snapshots = []models.ReportSnapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

func (h *ReportHandler) bindRequest(c *gin.Context) (models.ReportRequest, bool) {
	var req models.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("invalid report query", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return models.ReportRequest{}, false
	}
	return req, true
}

func (h *ReportHandler) deliver(c *gin.Context, format export.Format, table export.Table, filename string) {
	if format == export.FormatSheets {
		if err := h.exporter.Push(c.Request.Context(), table); err != nil {
			if errors.Is(err, export.ErrSheetsDisabled) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			h.logger.Error("failed pushing export to sheets", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "unable to export to google sheets"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "exported", "tab": table.Name, "rows": len(table.Rows)})
		return
	}

	mime, ext, err := export.ContentType(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, format, table); err != nil {
		h.logger.Error("failed rendering export", zap.String("format", string(format)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to render export"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, filename, ext))
	c.Data(http.StatusOK, mime, buf.Bytes())
}

func (h *ReportHandler) reportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reporting.ErrInvalidPeriod):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, reporting.ErrStaleResult):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("failed building report", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to build report"})
}
