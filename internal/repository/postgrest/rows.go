package postgrest

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

var errMissingPrice = errors.New("price is missing")

// flexID accepts ids serialised either as JSON strings (uuid) or numbers (bigint).
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type surveyRow struct {
	ID           flexID   `json:"id"`
	SurveyDate   string   `json:"survey_date"`
	MarketID     flexID   `json:"market_id"`
	CommodityID  flexID   `json:"commodity_id"`
	Price        *float64 `json:"price"`
	StockStatus  string   `json:"stock_status"`
	Quality      string   `json:"quality"`
	OperatorName string   `json:"operator_name"`
	Notes        *string  `json:"notes"`
}

// surveyPayload is the write shape; the id is assigned by the database.
type surveyPayload struct {
	SurveyDate   string  `json:"survey_date"`
	MarketID     string  `json:"market_id"`
	CommodityID  string  `json:"commodity_id"`
	Price        float64 `json:"price"`
	StockStatus  string  `json:"stock_status"`
	Quality      string  `json:"quality"`
	OperatorName string  `json:"operator_name"`
	Notes        *string `json:"notes"`
}

func newSurveyPayload(rec models.SurveyRecord) surveyPayload {
	p := surveyPayload{
		SurveyDate:   rec.SurveyDate,
		MarketID:     rec.MarketID,
		CommodityID:  rec.CommodityID,
		Price:        rec.Price,
		StockStatus:  string(rec.StockStatus),
		Quality:      string(rec.Quality),
		OperatorName: rec.OperatorName,
	}
	if rec.Notes != "" {
		notes := rec.Notes
		p.Notes = &notes
	}
	return p
}

// decodeSurvey turns one raw JSON row into a validated record.
func decodeSurvey(raw json.RawMessage) (models.SurveyRecord, error) {
	var row surveyRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return models.SurveyRecord{}, err
	}
	if row.Price == nil {
		return models.SurveyRecord{}, errMissingPrice
	}

	rec := models.SurveyRecord{
		ID:           string(row.ID),
		SurveyDate:   normalizeDate(row.SurveyDate),
		MarketID:     string(row.MarketID),
		CommodityID:  string(row.CommodityID),
		Price:        *row.Price,
		StockStatus:  models.StockStatus(row.StockStatus),
		Quality:      models.Quality(row.Quality),
		OperatorName: row.OperatorName,
	}
	if row.Notes != nil {
		rec.Notes = *row.Notes
	}

	if err := rec.Validate(); err != nil {
		return models.SurveyRecord{}, err
	}
	return rec, nil
}

// normalizeDate trims timestamp columns down to their calendar date.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 10 && (value[10] == 'T' || value[10] == ' ') {
		return value[:10]
	}
	return value
}

type commodityRow struct {
	ID       flexID `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Active   *bool  `json:"is_active"`
}

func (r commodityRow) model() models.Commodity {
	return models.Commodity{
		ID:       string(r.ID),
		Name:     r.Name,
		Unit:     r.Unit,
		Category: r.Category,
		Active:   r.Active == nil || *r.Active,
	}
}

type commodityPayload struct {
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Active   bool   `json:"is_active"`
}

type marketRow struct {
	ID      flexID `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Active  *bool  `json:"is_active"`
}

func (r marketRow) model() models.Market {
	return models.Market{
		ID:      string(r.ID),
		Name:    r.Name,
		Address: r.Address,
		Active:  r.Active == nil || *r.Active,
	}
}

type marketPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Active  bool   `json:"is_active"`
}
