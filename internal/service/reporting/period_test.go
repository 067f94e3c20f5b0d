package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

func TestResolvePeriod(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	// 2024-03-14 20:00 UTC is already the 15th in Jakarta.
	now := time.Date(2024, time.March, 14, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		period models.Period
		from   string
		to     string
		want   DateRange
		wantP  models.Period
	}{
		{name: "daily", period: models.PeriodDaily, want: DateRange{From: "2024-03-15", To: "2024-03-15"}, wantP: models.PeriodDaily},
		{name: "monthly", period: models.PeriodMonthly, want: DateRange{From: "2024-03-01", To: "2024-03-15"}, wantP: models.PeriodMonthly},
		{name: "empty defaults to monthly", period: "", want: DateRange{From: "2024-03-01", To: "2024-03-15"}, wantP: models.PeriodMonthly},
		{name: "yearly", period: models.PeriodYearly, want: DateRange{From: "2024-01-01", To: "2024-03-15"}, wantP: models.PeriodYearly},
		{name: "case insensitive", period: "Yearly", want: DateRange{From: "2024-01-01", To: "2024-03-15"}, wantP: models.PeriodYearly},
		{name: "custom", period: models.PeriodCustom, from: "2023-12-01", to: "2024-01-31", want: DateRange{From: "2023-12-01", To: "2024-01-31"}, wantP: models.PeriodCustom},
		{name: "custom single day", period: models.PeriodCustom, from: "2024-01-31", to: "2024-01-31", want: DateRange{From: "2024-01-31", To: "2024-01-31"}, wantP: models.PeriodCustom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rng, err := ResolvePeriod(tt.period, now, loc, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.wantP, p)
			assert.Equal(t, tt.want, rng)
		})
	}
}

func TestResolvePeriodRejectsBadInput(t *testing.T) {
	now := time.Date(2024, time.March, 15, 8, 0, 0, 0, time.UTC)

	cases := map[string][3]string{
		"unknown period":  {"weekly", "", ""},
		"custom no bound": {"custom", "2024-01-01", ""},
		"custom bad from": {"custom", "01/01/2024", "2024-01-31"},
		"custom bad to":   {"custom", "2024-01-01", "2024-13-01"},
		"custom reversed": {"custom", "2024-02-01", "2024-01-01"},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ResolvePeriod(models.Period(c[0]), now, nil, c[1], c[2])
			require.ErrorIs(t, err, ErrInvalidPeriod)
		})
	}
}
