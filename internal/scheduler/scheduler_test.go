package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

type fixedReports struct {
	report models.Report
	req    models.ReportRequest
}

func (f *fixedReports) PriceReport(_ context.Context, req models.ReportRequest) (models.Report, error) {
	f.req = req
	return f.report, nil
}

type memArchive struct{ saved []models.ReportSnapshot }

func (m *memArchive) SaveSnapshot(_ context.Context, s models.ReportSnapshot) error {
	m.saved = append(m.saved, s)
	return nil
}

type memSheet struct {
	tab  string
	rows [][]interface{}
}

func (m *memSheet) AppendRows(_ context.Context, tab string, rows [][]interface{}) error {
	m.tab = tab
	m.rows = append(m.rows, rows...)
	return nil
}

func TestArchiveMonthlyStoresSnapshot(t *testing.T) {
	reports := &fixedReports{report: models.Report{
		Period: models.PeriodMonthly, From: "2024-01-01", To: "2024-01-31",
		Rows: []models.AggregatedReportRow{{
			CommodityID: "c1", MarketID: "m1", CommodityName: "Beras Medium", CommodityUnit: "kg",
			MarketName: "Pasar Besar", SampleCount: 2, AveragePrice: 12500, MinPrice: 12000,
			MaxPrice: 13000, LatestSurveyDate: "2024-01-10", Trend: models.TrendUp,
		}},
	}}
	archive := &memArchive{}
	sheet := &memSheet{}

	s := NewScheduler("0 20 * * *", nil, reports, nil, WithArchive(archive), WithSheets(sheet, "Archive"))
	s.now = func() time.Time { return time.Date(2024, time.January, 31, 13, 0, 0, 0, time.UTC) }

	require.NoError(t, s.ArchiveMonthly(context.Background()))

	assert.Equal(t, models.PeriodMonthly, reports.req.Period)
	assert.Empty(t, reports.req.MarketID)

	require.Len(t, archive.saved, 1)
	assert.Equal(t, "2024-01-01", archive.saved[0].From)
	assert.Len(t, archive.saved[0].Rows, 1)

	assert.Equal(t, "Archive", sheet.tab)
	require.Len(t, sheet.rows, 1)
	assert.Equal(t, []interface{}{
		"01/01/2024", "31/01/2024", "Beras Medium", "kg", "Pasar Besar", 2,
		12500.0, 12000.0, 13000.0, "10/01/2024", "up",
	}, sheet.rows[0])
}

func TestArchiveMonthlySkipsUnavailableData(t *testing.T) {
	reports := &fixedReports{report: models.Report{Period: models.PeriodMonthly, Notice: "unavailable"}}
	archive := &memArchive{}

	s := NewScheduler("0 20 * * *", nil, reports, nil, WithArchive(archive))
	require.Error(t, s.ArchiveMonthly(context.Background()))
	assert.Empty(t, archive.saved)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler("not a cron", nil, &fixedReports{}, nil)
	require.Error(t, s.Start())
}
