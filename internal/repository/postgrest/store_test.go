package postgrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bapokting/internal/config"
	"github.com/mamadbah2/bapokting/internal/domain/models"
	"github.com/mamadbah2/bapokting/internal/repository"
	client "github.com/mamadbah2/bapokting/pkg/clients/postgrest"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewStore(client.NewClient(config.DatabaseConfig{BaseURL: srv.URL, APIKey: "k"}), nil)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestListSurveysRejectsMalformedRows(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eq.7", q.Get("market_id"))
		assert.ElementsMatch(t, []string{"gte.2024-01-01", "lte.2024-01-31"}, q["survey_date"])

		writeJSON(w, http.StatusOK, `[
			{"id":1,"survey_date":"2024-01-02","market_id":7,"commodity_id":3,"price":12000,"stock_status":"available","quality":"good","operator_name":"Sari","notes":null},
			{"id":2,"survey_date":"2024-01-03T00:00:00+07:00","market_id":7,"commodity_id":3,"price":12500,"stock_status":"limited","quality":"average","operator_name":"Sari","notes":"naik"},
			{"id":3,"survey_date":"2024-01-04","market_id":7,"commodity_id":3,"price":"abc","stock_status":"available","quality":"good"},
			{"id":4,"survey_date":"2024-01-04","market_id":7,"commodity_id":3,"stock_status":"available","quality":"good"},
			{"id":5,"survey_date":"2024-01-04","market_id":7,"commodity_id":3,"price":100,"stock_status":"gone","quality":"good"}
		]`)
	})

	batch, err := s.ListSurveys(context.Background(), models.SurveyFilter{MarketID: "7", From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, 3, batch.Rejected)

	assert.Equal(t, "1", batch.Records[0].ID)
	assert.Equal(t, "7", batch.Records[0].MarketID)
	assert.Equal(t, "2024-01-03", batch.Records[1].SurveyDate)
	assert.Equal(t, "naik", batch.Records[1].Notes)
}

func TestListSurveysAllMarketsOmitsFilter(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, has := r.URL.Query()["market_id"]
		assert.False(t, has)
		writeJSON(w, http.StatusOK, `[]`)
	})

	batch, err := s.ListSurveys(context.Background(), models.SurveyFilter{MarketID: "all"})
	require.NoError(t, err)
	assert.Empty(t, batch.Records)
}

func TestDeleteMissingRowIsNotFound(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.9", r.URL.Query().Get("id"))
		writeJSON(w, http.StatusOK, `[]`)
	})

	err := s.DeleteMarket(context.Background(), "9")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestListMarketsActiveOnly(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.true", r.URL.Query().Get("is_active"))
		writeJSON(w, http.StatusOK, `[{"id":"m-1","name":"Pasar Besar","address":"Jl. Pasar","is_active":true}]`)
	})

	markets, err := s.ListMarkets(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, models.Market{ID: "m-1", Name: "Pasar Besar", Address: "Jl. Pasar", Active: true}, markets[0])
}

func TestCreateSurveyReturnsStoredRow(t *testing.T) {
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusCreated, `[{"id":"s-1","survey_date":"2024-05-01","market_id":"1","commodity_id":"2","price":15000,"stock_status":"available","quality":"excellent","operator_name":"Budi"}]`)
	})

	rec, err := s.CreateSurvey(context.Background(), models.SurveyRecord{
		SurveyDate: "2024-05-01", MarketID: "1", CommodityID: "2", Price: 15000,
		StockStatus: models.StockAvailable, Quality: models.QualityExcellent, OperatorName: "Budi",
	})
	require.NoError(t, err)
	assert.Equal(t, "s-1", rec.ID)
	assert.Equal(t, 15000.0, rec.Price)
}

func TestListSurveysPagesPastServerRowCap(t *testing.T) {
	const total, maxRows = 5, 2
	requests := 0
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
		assert.NoError(t, err)

		end := min(offset+maxRows, total)
		var rows []string
		for i := offset; i < end; i++ {
			rows = append(rows, fmt.Sprintf(
				`{"id":%d,"survey_date":"2024-01-%02d","market_id":7,"commodity_id":3,"price":%d,"stock_status":"available","quality":"good"}`,
				i+1, i+1, 12000+i*100))
		}
		w.Header().Set("Content-Range", fmt.Sprintf("%d-%d/%d", offset, end-1, total))
		writeJSON(w, http.StatusOK, "["+strings.Join(rows, ",")+"]")
	})
	s.pageSize = 1000

	batch, err := s.ListSurveys(context.Background(), models.SurveyFilter{MarketID: "7"})
	require.NoError(t, err)
	assert.Equal(t, 3, requests)
	require.Len(t, batch.Records, total)
	assert.Equal(t, "5", batch.Records[4].ID)
	assert.Zero(t, batch.Rejected)
}

func TestListSurveysStopsOnShortPageWithoutTotal(t *testing.T) {
	requests := 0
	s := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		if r.URL.Query().Get("offset") == "0" {
			writeJSON(w, http.StatusOK, `[
				{"id":1,"survey_date":"2024-01-01","market_id":7,"commodity_id":3,"price":1,"stock_status":"available","quality":"good"},
				{"id":2,"survey_date":"2024-01-02","market_id":7,"commodity_id":3,"price":2,"stock_status":"available","quality":"good"}
			]`)
			return
		}
		writeJSON(w, http.StatusOK, `[
			{"id":3,"survey_date":"2024-01-03","market_id":7,"commodity_id":3,"price":3,"stock_status":"available","quality":"good"}
		]`)
	})
	s.pageSize = 2

	batch, err := s.ListSurveys(context.Background(), models.SurveyFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Len(t, batch.Records, 3)
}
