// Package export serialises report rows into CSV, XLSX or Google Sheets tabs.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/service/aggregation"
	"github.com/mamadbah2/bapokting/internal/trace"
)

// Format names an export artifact type.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSheets Format = "sheets"
)

const displayDateLayout = "02/01/2006"

var (
	// ErrUnsupportedFormat is returned for unknown export formats.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrSheetsDisabled is returned when a Sheets export is requested without credentials.
	ErrSheetsDisabled = errors.New("google sheets export is not configured")
)

// AggregatedHeader mirrors the columns of the price report table.
var AggregatedHeader = []string{
	"No", "Commodity", "Unit", "Market", "Samples",
	"Average Price", "Min Price", "Max Price", "Latest Survey", "Trend",
}

// RawHeader mirrors the columns of the survey listing table.
var RawHeader = []string{
	"No", "Survey Date", "Market", "Commodity", "Unit",
	"Price", "Stock Status", "Quality", "Operator", "Notes",
}

// Table is a titled grid with a fixed header.
type Table struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// AggregatedTable lays aggregated rows out in display order.
func AggregatedTable(name string, rows []models.AggregatedReportRow) Table {
	t := Table{Name: name, Header: AggregatedHeader, Rows: make([][]interface{}, 0, len(rows))}
	for i, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			i + 1, r.CommodityName, r.CommodityUnit, r.MarketName, r.SampleCount,
			r.AveragePrice, r.MinPrice, r.MaxPrice, DisplayDate(r.LatestSurveyDate), string(r.Trend),
		})
	}
	return t
}

// RawTable lays raw surveys out in display order, resolving names through ref.
func RawTable(name string, records []models.SurveyRecord, ref aggregation.Lookup) Table {
	t := Table{Name: name, Header: RawHeader, Rows: make([][]interface{}, 0, len(records))}
	for i, rec := range records {
		commodity, unit, market := aggregation.UnknownName, "", aggregation.UnknownName
		if ref != nil {
			if c, ok := ref.Commodity(rec.CommodityID); ok {
				commodity, unit = c.Name, c.Unit
			}
			if m, ok := ref.Market(rec.MarketID); ok {
				market = m.Name
			}
		}
		t.Rows = append(t.Rows, []interface{}{
			i + 1, DisplayDate(rec.SurveyDate), market, commodity, unit,
			rec.Price, string(rec.StockStatus), string(rec.Quality), rec.OperatorName, rec.Notes,
		})
	}
	return t
}

// DisplayDate renders an ISO date as dd/mm/yyyy; unparseable values pass through.
func DisplayDate(iso string) string {
	d, err := time.Parse(models.DateLayout, iso)
	if err != nil {
		return iso
	}
	return d.Format(displayDateLayout)
}

// WriteCSV writes the header and rows as CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, formatCell(cell))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the table as a single-sheet workbook. Numbers stay numeric cells.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(t.Name)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("xlsx: name sheet: %w", err)
	}

	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx: locate row %d: %w", i+2, err)
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

// SheetsWriter is the spreadsheet capability Sheets exports need.
type SheetsWriter interface {
	ReplaceRows(ctx context.Context, tab string, rows [][]interface{}) error
}

// Service dispatches exports by format.
type Service struct {
	sheets SheetsWriter
	logger *zap.Logger
}

// NewService builds an export service. sheets may be nil when Sheets export is disabled.
func NewService(sheets SheetsWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sheets: sheets, logger: logger}
}

// ContentType returns the MIME type and file extension of a downloadable format.
func ContentType(format Format) (string, string, error) {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8", "csv", nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Write renders t as a downloadable artifact into w.
func (s *Service) Write(w io.Writer, format Format, t Table) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Push replaces the Google Sheets tab named after t with its header and rows.
func (s *Service) Push(ctx context.Context, t Table) error {
	if s.sheets == nil {
		return ErrSheetsDisabled
	}

	ctx, span := trace.StartSpan(ctx, "export.push_sheets", attribute.Int("rows", len(t.Rows)))
	defer span.End()

	rows := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	rows = append(rows, header)
	rows = append(rows, t.Rows...)

	if err := s.sheets.ReplaceRows(ctx, sheetName(t.Name), rows); err != nil {
		span.RecordError(err)
		return fmt.Errorf("push %s to sheets: %w", t.Name, err)
	}

	s.logger.Info("report pushed to google sheets", zap.String("tab", sheetName(t.Name)), zap.Int("rows", len(t.Rows)))
	return nil
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// sheetName clamps to the 31 character worksheet limit shared by Excel and Sheets.
func sheetName(name string) string {
	if name == "" {
		return "Report"
	}
	r := []rune(name)
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}
