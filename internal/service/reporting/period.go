package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

// ErrInvalidPeriod indicates an unknown period or malformed custom range.
var ErrInvalidPeriod = errors.New("invalid report period")

// DateRange is an inclusive pair of ISO dates.
type DateRange struct {
	From string
	To   string
}

// ResolvePeriod turns a period selection into an inclusive date range in loc.
// An empty period means monthly. Custom ranges require both bounds with from <= to.
func ResolvePeriod(period models.Period, now time.Time, loc *time.Location, from, to string) (models.Period, DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	today := now.In(loc)
	todayISO := today.Format(models.DateLayout)

	switch models.Period(strings.ToLower(string(period))) {
	case models.PeriodDaily:
		return models.PeriodDaily, DateRange{From: todayISO, To: todayISO}, nil
	case models.PeriodMonthly, "":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
		return models.PeriodMonthly, DateRange{From: first.Format(models.DateLayout), To: todayISO}, nil
	case models.PeriodYearly:
		first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return models.PeriodYearly, DateRange{From: first.Format(models.DateLayout), To: todayISO}, nil
	case models.PeriodCustom:
		if from == "" || to == "" {
			return "", DateRange{}, fmt.Errorf("%w: custom period needs from and to", ErrInvalidPeriod)
		}
		start, err := time.Parse(models.DateLayout, from)
		if err != nil {
			return "", DateRange{}, fmt.Errorf("%w: from %q is not YYYY-MM-DD", ErrInvalidPeriod, from)
		}
		end, err := time.Parse(models.DateLayout, to)
		if err != nil {
			return "", DateRange{}, fmt.Errorf("%w: to %q is not YYYY-MM-DD", ErrInvalidPeriod, to)
		}
		if end.Before(start) {
			return "", DateRange{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidPeriod, from, to)
		}
		return models.PeriodCustom, DateRange{From: from, To: to}, nil
	default:
		return "", DateRange{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
}
