package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bapokting/internal/server/handlers"
)

func TestHealthz(t *testing.T) {
	engine := New(handlers.NewReportHandler(nil, nil, nil, nil, nil), handlers.NewCatalogHandler(nil, nil), nil)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRoutesRegistered(t *testing.T) {
	engine := New(handlers.NewReportHandler(nil, nil, nil, nil, nil), handlers.NewCatalogHandler(nil, nil), nil)

	got := map[string]bool{}
	for _, r := range engine.Routes() {
		got[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/reports/prices",
		"GET /api/v1/reports/prices/export",
		"GET /api/v1/reports/dashboard",
		"GET /api/v1/reports/archive",
		"GET /api/v1/surveys",
		"POST /api/v1/surveys",
		"GET /api/v1/surveys/export",
		"PUT /api/v1/surveys/:id",
		"DELETE /api/v1/surveys/:id",
		"GET /api/v1/commodities",
		"DELETE /api/v1/commodities/:id",
		"GET /api/v1/markets",
		"PUT /api/v1/markets/:id",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
}

func TestArchiveWithoutMongoIsUnavailable(t *testing.T) {
	engine := New(handlers.NewReportHandler(nil, nil, nil, nil, nil), handlers.NewCatalogHandler(nil, nil), nil)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/archive", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
