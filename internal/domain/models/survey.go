package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the ISO 8601 calendar date layout used for survey dates.
const DateLayout = "2006-01-02"

// ErrInvalidSurvey is returned when a survey record fails validation.
var ErrInvalidSurvey = errors.New("invalid survey record")

// StockStatus enumerates the stock levels an operator can observe at a market.
type StockStatus string

const (
	StockAvailable   StockStatus = "available"
	StockLimited     StockStatus = "limited"
	StockUnavailable StockStatus = "unavailable"
)

// Valid reports whether s is a known stock status.
func (s StockStatus) Valid() bool {
	switch s {
	case StockAvailable, StockLimited, StockUnavailable:
		return true
	}
	return false
}

// Quality enumerates the observed quality grades of a commodity.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityAverage   Quality = "average"
	QualityPoor      Quality = "poor"
)

// Valid reports whether q is a known quality grade.
func (q Quality) Valid() bool {
	switch q {
	case QualityExcellent, QualityGood, QualityAverage, QualityPoor:
		return true
	}
	return false
}

// SurveyRecord is a single price, stock and quality observation for one commodity
// at one market on one date.
type SurveyRecord struct {
	ID           string      `json:"id"`
	SurveyDate   string      `json:"survey_date" binding:"required"`
	MarketID     string      `json:"market_id" binding:"required"`
	CommodityID  string      `json:"commodity_id" binding:"required"`
	Price        float64     `json:"price" binding:"gte=0"`
	StockStatus  StockStatus `json:"stock_status" binding:"required,oneof=available limited unavailable"`
	Quality      Quality     `json:"quality" binding:"required,oneof=excellent good average poor"`
	OperatorName string      `json:"operator_name"`
	Notes        string      `json:"notes,omitempty"`
}

// Validate checks the record shape accepted at the data-source boundary.
func (r SurveyRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.MarketID) == "":
		return fmt.Errorf("%w: market_id is required", ErrInvalidSurvey)
	case strings.TrimSpace(r.CommodityID) == "":
		return fmt.Errorf("%w: commodity_id is required", ErrInvalidSurvey)
	case math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price < 0:
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidSurvey)
	case !r.StockStatus.Valid():
		return fmt.Errorf("%w: unknown stock_status %q", ErrInvalidSurvey, r.StockStatus)
	case !r.Quality.Valid():
		return fmt.Errorf("%w: unknown quality %q", ErrInvalidSurvey, r.Quality)
	}

	if _, err := time.Parse(DateLayout, r.SurveyDate); err != nil {
		return fmt.Errorf("%w: survey_date %q is not YYYY-MM-DD", ErrInvalidSurvey, r.SurveyDate)
	}

	return nil
}

// SurveyFilter narrows survey queries at the source. Dates are inclusive and empty
// fields are unbounded; an empty MarketID or "all" selects every market.
type SurveyFilter struct {
	MarketID string
	From     string
	To       string
}

// AllMarkets reports whether the filter spans every market.
func (f SurveyFilter) AllMarkets() bool {
	return f.MarketID == "" || strings.EqualFold(f.MarketID, "all")
}
