package models

import "time"

// Trend is a coarse classification of price movement within a reporting window.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// SkipReason explains why a survey record did not contribute to a report.
type SkipReason string

const (
	SkipInvalidPrice        SkipReason = "invalid_price"
	SkipInvalidDate         SkipReason = "invalid_date"
	SkipMissingKey          SkipReason = "missing_key"
	SkipOutsideMarketFilter SkipReason = "outside_market_filter"
)

// Period selects the date window of a price report.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
	PeriodCustom  Period = "custom"
)

// AggregatedReportRow summarises every survey of one commodity at one market.
type AggregatedReportRow struct {
	CommodityID      string  `bson:"commodity_id" json:"commodity_id"`
	MarketID         string  `bson:"market_id" json:"market_id"`
	CommodityName    string  `bson:"commodity_name" json:"commodity_name"`
	CommodityUnit    string  `bson:"commodity_unit" json:"commodity_unit"`
	MarketName       string  `bson:"market_name" json:"market_name"`
	SampleCount      int     `bson:"sample_count" json:"sample_count"`
	AveragePrice     float64 `bson:"average_price" json:"average_price"`
	MinPrice         float64 `bson:"min_price" json:"min_price"`
	MaxPrice         float64 `bson:"max_price" json:"max_price"`
	LatestSurveyDate string  `bson:"latest_survey_date" json:"latest_survey_date"`
	Trend            Trend   `bson:"trend" json:"trend"`
}

// ReportRequest is the filter selected by a dashboard user.
type ReportRequest struct {
	Period   Period `form:"period" json:"period"`
	MarketID string `form:"market" json:"market"`
	From     string `form:"from" json:"from"`
	To       string `form:"to" json:"to"`
}

// Report is the view model of one aggregated price report render.
type Report struct {
	Period      Period                `json:"period"`
	From        string                `json:"from"`
	To          string                `json:"to"`
	MarketID    string                `json:"market_id,omitempty"`
	Rows        []AggregatedReportRow `json:"rows"`
	Skipped     map[SkipReason]int    `json:"skipped,omitempty"`
	Rejected    int                   `json:"rejected"`
	Notice      string                `json:"notice,omitempty"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// SurveyListing is a raw (non-aggregated) survey view for a period.
type SurveyListing struct {
	Period   Period         `json:"period"`
	From     string         `json:"from"`
	To       string         `json:"to"`
	MarketID string         `json:"market_id,omitempty"`
	Records  []SurveyRecord `json:"records"`
	Rejected int            `json:"rejected"`
	Notice   string         `json:"notice,omitempty"`
}

// ReportSnapshot is an archived copy of an aggregated report stored in MongoDB.
type ReportSnapshot struct {
	Period    Period                `bson:"period" json:"period"`
	From      string                `bson:"from" json:"from"`
	To        string                `bson:"to" json:"to"`
	MarketID  string                `bson:"market_id" json:"market_id"`
	Rows      []AggregatedReportRow `bson:"rows" json:"rows"`
	CreatedAt time.Time             `bson:"created_at" json:"created_at"`
}
