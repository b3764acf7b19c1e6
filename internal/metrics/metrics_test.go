package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/api/regions/:region/countries", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("region"))
	})
	e.GET("/api/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadRequest, "bad start")
	})

	ok := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/regions/:region/countries", "200")
	bad := HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/fail", "400")
	okBefore, badBefore := testutil.ToFloat64(ok), testutil.ToFloat64(bad)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/regions/Africa/countries", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fail", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, badBefore+1, testutil.ToFloat64(bad))
	assert.Zero(t, testutil.ToFloat64(HTTPRequestsInFlight))
}

func TestRecordDatasetLoad(t *testing.T) {
	success := DatasetLoadsTotal.WithLabelValues("success")
	failure := DatasetLoadsTotal.WithLabelValues("error")
	successBefore, failureBefore := testutil.ToFloat64(success), testutil.ToFloat64(failure)

	RecordDatasetLoad(120*time.Millisecond, 4200, 3, nil)
	assert.Equal(t, successBefore+1, testutil.ToFloat64(success))
	assert.Equal(t, 4200.0, testutil.ToFloat64(DatasetRows))
	assert.Equal(t, 3.0, testutil.ToFloat64(DatasetDroppedRows))

	RecordDatasetLoad(time.Millisecond, 0, 0, errors.New("no such file"))
	assert.Equal(t, failureBefore+1, testutil.ToFloat64(failure))
	assert.Equal(t, 4200.0, testutil.ToFloat64(DatasetRows), "failed load keeps the last row count")
}

func TestHandlerExposesMetrics(t *testing.T) {
	e := echo.New()
	e.GET("/metrics", Handler())
	RecordDatasetLoad(time.Millisecond, 1, 0, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ucdp_dashboard_dataset_rows"))
}
