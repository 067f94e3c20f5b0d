package aggregation

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/service/reference"
)

func survey(commodity, market string, price float64, date string) models.SurveyRecord {
	return models.SurveyRecord{
		CommodityID: commodity,
		MarketID:    market,
		Price:       price,
		SurveyDate:  date,
		StockStatus: models.StockAvailable,
		Quality:     models.QualityGood,
	}
}

func refData() *reference.Data {
	return reference.NewData(
		[]models.Commodity{
			{ID: "1", Name: "Beras Medium", Unit: "kg"},
			{ID: "2", Name: "Minyak Goreng", Unit: "liter"},
		},
		[]models.Market{
			{ID: "1", Name: "Pasar Besar"},
			{ID: "2", Name: "Pasar Dinoyo"},
		},
	)
}

func TestAggregateEndToEnd(t *testing.T) {
	records := []models.SurveyRecord{
		survey("1", "1", 12000, "2024-01-01"),
		survey("1", "1", 13000, "2024-01-10"),
	}

	res := Aggregate(records, refData(), AllMarkets)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, 2, row.SampleCount)
	assert.Equal(t, 12500.0, row.AveragePrice)
	assert.Equal(t, 12000.0, row.MinPrice)
	assert.Equal(t, 13000.0, row.MaxPrice)
	assert.Equal(t, "2024-01-10", row.LatestSurveyDate)
	assert.Equal(t, models.TrendUp, row.Trend)
	assert.Equal(t, "Beras Medium", row.CommodityName)
	assert.Equal(t, "kg", row.CommodityUnit)
	assert.Equal(t, "Pasar Besar", row.MarketName)
}

func TestAggregateEmptyInput(t *testing.T) {
	res := Aggregate(nil, refData(), AllMarkets)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
	assert.Zero(t, res.SkippedTotal())
}

func TestTrendClassification(t *testing.T) {
	cases := []struct {
		name   string
		prices [2]float64
		want   models.Trend
	}{
		{"rise above band", [2]float64{100, 106}, models.TrendUp},
		{"inside band", [2]float64{100, 104}, models.TrendStable},
		{"fall below band", [2]float64{100, 94}, models.TrendDown},
		{"exact upper edge", [2]float64{100, 105}, models.TrendStable},
		{"exact lower edge", [2]float64{100, 95}, models.TrendStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records := []models.SurveyRecord{
				survey("1", "1", tc.prices[0], "2024-02-01"),
				survey("1", "1", tc.prices[1], "2024-02-02"),
			}
			res := Aggregate(records, refData(), AllMarkets)
			require.Len(t, res.Rows, 1)
			assert.Equal(t, tc.want, res.Rows[0].Trend)
		})
	}
}

func TestSingleRecordIsStable(t *testing.T) {
	res := Aggregate([]models.SurveyRecord{survey("1", "1", 500, "2024-03-01")}, refData(), AllMarkets)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, models.TrendStable, res.Rows[0].Trend)
	assert.Equal(t, 1, res.Rows[0].SampleCount)
}

func TestTrendUsesChronologyNotFetchOrder(t *testing.T) {
	// fetched newest first: chronologically 100 -> 80 is a fall
	records := []models.SurveyRecord{
		survey("1", "1", 80, "2024-03-05"),
		survey("1", "1", 120, "2024-03-03"),
		survey("1", "1", 100, "2024-03-01"),
	}

	res := Aggregate(records, refData(), AllMarkets)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, models.TrendDown, res.Rows[0].Trend)
}

func TestTrendTieBreaksOnInputOrder(t *testing.T) {
	records := []models.SurveyRecord{
		survey("1", "1", 100, "2024-03-01"),
		survey("1", "1", 200, "2024-03-01"),
	}
	res := Aggregate(records, refData(), AllMarkets)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, models.TrendUp, res.Rows[0].Trend)

	swapped := []models.SurveyRecord{records[1], records[0]}
	res = Aggregate(swapped, refData(), AllMarkets)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, models.TrendDown, res.Rows[0].Trend)
}

func TestStatisticsBoundsAndCounts(t *testing.T) {
	records := []models.SurveyRecord{
		survey("1", "1", 12000, "2024-01-01"),
		survey("1", "1", 12500, "2024-01-02"),
		survey("1", "1", 11800, "2024-01-03"),
		survey("2", "1", 17000, "2024-01-01"),
		survey("2", "2", 16500, "2024-01-01"),
		survey("2", "2", 16900, "2024-01-04"),
		survey("1", "2", 0.1, "2024-01-01"),
		survey("1", "2", 0.1, "2024-01-02"),
		survey("1", "2", 0.1, "2024-01-03"),
	}

	res := Aggregate(records, refData(), AllMarkets)
	require.Len(t, res.Rows, 4)

	total := 0
	seen := map[[2]string]bool{}
	for _, row := range res.Rows {
		assert.LessOrEqual(t, row.MinPrice, row.AveragePrice)
		assert.LessOrEqual(t, row.AveragePrice, row.MaxPrice)
		assert.GreaterOrEqual(t, row.SampleCount, 1)

		key := [2]string{row.CommodityID, row.MarketID}
		assert.False(t, seen[key], "duplicate key %v", key)
		seen[key] = true
		total += row.SampleCount
	}
	assert.Equal(t, len(records), total)
	assert.Zero(t, res.SkippedTotal())
}

func TestAggregateIsIdempotentAndPure(t *testing.T) {
	records := []models.SurveyRecord{
		survey("2", "2", 16500, "2024-01-04"),
		survey("1", "1", 12000, "2024-01-01"),
		survey("2", "2", 16900, "2024-01-01"),
	}
	snapshot := append([]models.SurveyRecord(nil), records...)

	first := Aggregate(records, refData(), AllMarkets)
	second := Aggregate(records, refData(), AllMarkets)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second aggregation differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, records); diff != "" {
		t.Errorf("input records mutated (-before +after):\n%s", diff)
	}
}

func TestRowsAreSortedByName(t *testing.T) {
	records := []models.SurveyRecord{
		survey("2", "2", 1, "2024-01-01"),
		survey("2", "1", 1, "2024-01-01"),
		survey("1", "2", 1, "2024-01-01"),
	}

	res := Aggregate(records, refData(), AllMarkets)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "Beras Medium", res.Rows[0].CommodityName)
	assert.Equal(t, "Pasar Besar", res.Rows[1].MarketName)
	assert.Equal(t, "Pasar Dinoyo", res.Rows[2].MarketName)
}

func TestReferenceMissUsesPlaceholder(t *testing.T) {
	res := Aggregate([]models.SurveyRecord{survey("99", "42", 1000, "2024-01-01")}, refData(), AllMarkets)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, UnknownName, res.Rows[0].CommodityName)
	assert.Equal(t, "", res.Rows[0].CommodityUnit)
	assert.Equal(t, UnknownName, res.Rows[0].MarketName)

	res = Aggregate([]models.SurveyRecord{survey("1", "1", 1000, "2024-01-01")}, nil, AllMarkets)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, UnknownName, res.Rows[0].CommodityName)
}

func TestMalformedRecordsAreSkippedAndCounted(t *testing.T) {
	records := []models.SurveyRecord{
		survey("1", "1", 12000, "2024-01-01"),
		survey("1", "1", math.NaN(), "2024-01-02"),
		survey("1", "1", math.Inf(1), "2024-01-02"),
		survey("1", "1", -5, "2024-01-02"),
		survey("1", "1", 12000, "01/02/2024"),
		survey("", "1", 12000, "2024-01-02"),
	}

	res := Aggregate(records, refData(), AllMarkets)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1, res.Rows[0].SampleCount)
	assert.Equal(t, 3, res.Skipped[models.SkipInvalidPrice])
	assert.Equal(t, 1, res.Skipped[models.SkipInvalidDate])
	assert.Equal(t, 1, res.Skipped[models.SkipMissingKey])
	assert.Equal(t, len(records), res.Input)
	assert.Equal(t, len(records), res.SkippedTotal()+res.Rows[0].SampleCount)
}

func TestMarketFilterGuard(t *testing.T) {
	records := []models.SurveyRecord{
		survey("1", "1", 100, "2024-01-01"),
		survey("1", "2", 100, "2024-01-01"),
	}

	res := Aggregate(records, refData(), MarketFilter("1"))
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "1", res.Rows[0].MarketID)
	assert.Equal(t, 1, res.Skipped[models.SkipOutsideMarketFilter])

	res = Aggregate(records, refData(), MarketFilter("all"))
	assert.Len(t, res.Rows, 2)
}

func TestMarketFilterNeverNarrowsSourceSelection(t *testing.T) {
	// Already filtered to market 1 by the source, spanning years: nothing is dropped.
	records := []models.SurveyRecord{
		survey("1", "1", 100, "2019-06-01"),
		survey("1", "1", 120, "2024-01-01"),
		survey("2", "1", 50, "2031-12-31"),
	}

	guarded := Aggregate(records, refData(), MarketFilter("1"))
	open := Aggregate(records, refData(), AllMarkets)

	if diff := cmp.Diff(open.Rows, guarded.Rows); diff != "" {
		t.Errorf("market guard changed the rows (-all +guarded):\n%s", diff)
	}
	assert.Zero(t, guarded.SkippedTotal())
	assert.Equal(t, 3, guarded.Rows[0].SampleCount+guarded.Rows[1].SampleCount)
}
