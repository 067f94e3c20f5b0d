package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/bapokting/internal/config"
)

// Repository defines the spreadsheet operations used by report exports.
type Repository interface {
	ReplaceRows(ctx context.Context, tab string, rows [][]interface{}) error
	AppendRows(ctx context.Context, tab string, rows [][]interface{}) error
}

var _ Repository = (*GoogleSheetRepository)(nil)

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// ReplaceRows clears the tab and writes rows starting at A1.
func (r *GoogleSheetRepository) ReplaceRows(ctx context.Context, tab string, rows [][]interface{}) error {
	if tab == "" {
		return fmt.Errorf("tab must not be empty")
	}

	if err := r.ensureTab(ctx, tab); err != nil {
		return err
	}

	clearRange := a1(tab, "A:Z")
	if _, err := r.service.Spreadsheets.Values.Clear(r.spreadsheetID, clearRange, &sheetsapi.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear range %s: %w", clearRange, err)
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := r.service.Spreadsheets.Values.Update(r.spreadsheetID, a1(tab, "A1"), payload).
		ValueInputOption("RAW").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("write rows into %s: %w", tab, err)
	}

	r.logger.Debug("sheet tab replaced", zap.String("tab", tab), zap.Int("rows", len(rows)))
	return nil
}

// AppendRows appends rows after the last filled row of the tab.
func (r *GoogleSheetRepository) AppendRows(ctx context.Context, tab string, rows [][]interface{}) error {
	if tab == "" {
		return fmt.Errorf("tab must not be empty")
	}

	if err := r.ensureTab(ctx, tab); err != nil {
		return err
	}

	payload := &sheetsapi.ValueRange{Values: rows}
	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, a1(tab, "A:A"), payload).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into %s: %w", tab, err)
	}

	r.logger.Debug("rows appended to sheet", zap.String("tab", tab), zap.Int("rows", len(rows)))
	return nil
}

// ensureTab adds the worksheet when the spreadsheet does not have it yet.
func (r *GoogleSheetRepository) ensureTab(ctx context.Context, tab string) error {
	doc, err := r.service.Spreadsheets.Get(r.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", r.spreadsheetID, err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{Properties: &sheetsapi.SheetProperties{Title: tab}},
		}},
	}
	if _, err := r.service.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	r.logger.Info("sheet tab created", zap.String("tab", tab))
	return nil
}

// a1 builds an A1 range, quoting the tab name so spaces and quotes survive.
func a1(tab, cells string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + cells
}
