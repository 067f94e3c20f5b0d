package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

func TestRebindDollar(t *testing.T) {
	got := rebindDollar(`UPDATE markets SET name = ?, address = ? WHERE id = ?`)
	assert.Equal(t, `UPDATE markets SET name = $1, address = $2 WHERE id = $3`, got)
}

func TestRebindKeepsSQLitePlaceholders(t *testing.T) {
	s := &Store{}
	assert.Equal(t, "SELECT ? , ?", s.rebind("SELECT ? , ?"))

	s.postgres = true
	assert.Equal(t, "SELECT $1 , $2", s.rebind("SELECT ? , ?"))
}

type fakeRow []interface{}

func (r fakeRow) Scan(dest ...interface{}) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r[i].(string)
		case *float64:
			*p = r[i].(float64)
		default:
			if sc, ok := d.(interface{ Scan(any) error }); ok {
				if err := sc.Scan(r[i]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func TestScanSurveyTrimsTimestampDates(t *testing.T) {
	rec, err := scanSurvey(fakeRow{"s-1", "2024-01-03T00:00:00Z", "7", "3", "12500", "limited", "average", "Sari", nil})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-03", rec.SurveyDate)
	assert.Equal(t, models.StockLimited, rec.StockStatus)
	assert.Equal(t, 12500.0, rec.Price)
	assert.Equal(t, "", rec.Notes)
}

func TestScanSurveyRejectsNullPrice(t *testing.T) {
	_, err := scanSurvey(fakeRow{"s-1", "2024-01-03", "7", "3", nil, "limited", "average", "Sari", "catatan"})
	assert.ErrorIs(t, err, models.ErrInvalidSurvey)
}

func TestScanSurveyRejectsNonNumericPrice(t *testing.T) {
	_, err := scanSurvey(fakeRow{"s-1", "2024-01-03", "7", "3", "abc", "limited", "average", "Sari", nil})
	assert.ErrorIs(t, err, models.ErrInvalidSurvey)
}
