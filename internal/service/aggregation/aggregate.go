// Package aggregation turns raw price surveys into per commodity and market
// summaries with a coarse price trend.
package aggregation

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

const (
	// UnknownName replaces commodity or market names missing from reference data.
	UnknownName = "Unknown"

	upRatio   = 1.05
	downRatio = 0.95
)

// Lookup resolves display metadata for commodities and markets.
type Lookup interface {
	Commodity(id string) (models.Commodity, bool)
	Market(id string) (models.Market, bool)
}

// MarketFilter restricts aggregation to one market. AllMarkets (or "all") keeps every record.
type MarketFilter string

// AllMarkets disables the market guard.
const AllMarkets MarketFilter = ""

func (f MarketFilter) admits(marketID string) bool {
	if f == AllMarkets || strings.EqualFold(string(f), "all") {
		return true
	}
	return string(f) == marketID
}

// Result holds the rows of one aggregation plus bookkeeping about dropped input.
type Result struct {
	Rows    []models.AggregatedReportRow
	Skipped map[models.SkipReason]int
	Input   int
}

// SkippedTotal is the number of input records that did not reach any row.
func (r Result) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

type groupKey struct {
	commodityID string
	marketID    string
}

type observation struct {
	index int
	date  string
	price float64
}

// Aggregate partitions records by (commodity, market) and summarises each partition.
// Selection by date and market belongs to the source: Aggregate never filters by
// date, and for source-filtered input the market filter selects nothing away. It
// only counts rows of another market, should a source leak one, under
// outside_market_filter. Invalid records are skipped and counted, never fatal.
// Rows come back sorted by commodity name, market name, then ids.
func Aggregate(records []models.SurveyRecord, ref Lookup, market MarketFilter) Result {
	res := Result{
		Rows:    []models.AggregatedReportRow{},
		Skipped: map[models.SkipReason]int{},
		Input:   len(records),
	}

	groups := make(map[groupKey][]observation)
	for i, rec := range records {
		if reason, ok := check(rec); !ok {
			res.Skipped[reason]++
			continue
		}
		if !market.admits(rec.MarketID) {
			res.Skipped[models.SkipOutsideMarketFilter]++
			continue
		}

		key := groupKey{commodityID: rec.CommodityID, marketID: rec.MarketID}
		groups[key] = append(groups[key], observation{index: i, date: rec.SurveyDate, price: rec.Price})
	}

	for key, obs := range groups {
		res.Rows = append(res.Rows, summarize(key, obs, ref))
	}

	slices.SortFunc(res.Rows, compareRows)
	return res
}

// ClassifyTrend compares the chronologically first and last observed prices
// against a 5% band.
func ClassifyTrend(first, last float64) models.Trend {
	switch {
	case last > first*upRatio:
		return models.TrendUp
	case last < first*downRatio:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

func check(rec models.SurveyRecord) (models.SkipReason, bool) {
	if rec.CommodityID == "" || rec.MarketID == "" {
		return models.SkipMissingKey, false
	}
	if math.IsNaN(rec.Price) || math.IsInf(rec.Price, 0) || rec.Price < 0 {
		return models.SkipInvalidPrice, false
	}
	if _, err := time.Parse(models.DateLayout, rec.SurveyDate); err != nil {
		return models.SkipInvalidDate, false
	}
	return "", true
}

func summarize(key groupKey, obs []observation, ref Lookup) models.AggregatedReportRow {
	minPrice, maxPrice := obs[0].price, obs[0].price
	latest := obs[0].date
	var sum float64

	for _, o := range obs {
		sum += o.price
		if o.price < minPrice {
			minPrice = o.price
		}
		if o.price > maxPrice {
			maxPrice = o.price
		}
		if o.date > latest {
			latest = o.date
		}
	}

	// float rounding can push the mean of equal prices past the extremes
	avg := math.Min(math.Max(sum/float64(len(obs)), minPrice), maxPrice)

	row := models.AggregatedReportRow{
		CommodityID:      key.commodityID,
		MarketID:         key.marketID,
		CommodityName:    UnknownName,
		MarketName:       UnknownName,
		SampleCount:      len(obs),
		AveragePrice:     avg,
		MinPrice:         minPrice,
		MaxPrice:         maxPrice,
		LatestSurveyDate: latest,
		Trend:            trend(obs),
	}

	if ref != nil {
		if c, ok := ref.Commodity(key.commodityID); ok {
			row.CommodityName = c.Name
			row.CommodityUnit = c.Unit
		}
		if m, ok := ref.Market(key.marketID); ok {
			row.MarketName = m.Name
		}
	}

	return row
}

// trend orders observations by survey date; equal dates keep input order.
func trend(obs []observation) models.Trend {
	if len(obs) < 2 {
		return models.TrendStable
	}

	ordered := slices.Clone(obs)
	slices.SortStableFunc(ordered, func(a, b observation) int {
		return cmp.Or(strings.Compare(a.date, b.date), cmp.Compare(a.index, b.index))
	})

	return ClassifyTrend(ordered[0].price, ordered[len(ordered)-1].price)
}

func compareRows(a, b models.AggregatedReportRow) int {
	return cmp.Or(
		strings.Compare(a.CommodityName, b.CommodityName),
		strings.Compare(a.MarketName, b.MarketName),
		strings.Compare(a.CommodityID, b.CommodityID),
		strings.Compare(a.MarketID, b.MarketID),
	)
}
