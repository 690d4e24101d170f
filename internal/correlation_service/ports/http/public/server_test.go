package public

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/langowen/corra/deploy/config"
	"github.com/langowen/corra/internal/correlation_service/adapter/api_client/valet"
	"github.com/langowen/corra/internal/correlation_service/metrics"
	"github.com/langowen/corra/internal/correlation_service/service"
	"github.com/langowen/corra/internal/entities"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(upstream string) *config.Config {
	cfg := &config.Config{}
	cfg.Upstream.BaseURL = upstream
	cfg.Upstream.CorraSeriesID = "AVG.INTWO"
	cfg.Upstream.FXSeriesID = "FXUSDCAD"
	cfg.Correlation.Alignment = "zero-fill"
	return cfg
}

// valetStub serves rows per series; a nil map makes every request fail.
func valetStub(t *testing.T, rows map[string][][2]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rows == nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}

		parts := strings.Split(r.URL.Path, "/")
		series := parts[len(parts)-2]

		fmt.Fprintf(w, "\"SERIES\"\n\"%s\",\"label\"\n\n\"OBSERVATIONS\"\n\"date\",\"%s\"\n", series, series)
		for _, row := range rows[series] {
			fmt.Fprintf(w, "\"%s\",\"%s\"\n", row[0], row[1])
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newTestRouter(t *testing.T, cfg *config.Config) (http.Handler, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	client := valet.NewHTTPClient(nil, cfg.Upstream.BaseURL)

	svc, err := service.NewService(client, cfg,
		service.WithLogger(discard),
		service.WithMetrics(metrics.New(reg)),
	)
	require.NoError(t, err)

	return NewRouter(NewServer(nil, cfg, svc), discard, reg), reg
}

func postJSON(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/values", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeFields(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var fields map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	return fields
}

func TestPostValuesHappyPath(t *testing.T) {
	up := valetStub(t, map[string][][2]string{
		"FXUSDCAD":  {{"2020-04-09", "1.3961"}, {"2020-04-13", "1.4003"}, {"2020-04-14", "1.3866"}, {"2020-04-15", "1.4079"}},
		"AVG.INTWO": {{"2020-04-09", "0.2500"}, {"2020-04-13", "0.2400"}, {"2020-04-14", "0.2600"}, {"2020-04-15", "0.2300"}},
	})
	h, _ := newTestRouter(t, testConfig(up.URL))

	rec := postJSON(h, `{"startdate": "2020-04-09", "enddate": "2020-05-12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	f := decodeFields(t, rec)
	for _, k := range []string{"USDCAD_Avg", "USDCAD_High", "USDCAD_Low", "CORRA_Avg", "CORRA_High", "CORRA_Low", "Coefficient"} {
		require.Contains(t, f, k)
		require.IsType(t, float64(0), f[k], k)
	}

	assert.LessOrEqual(t, f["USDCAD_Low"].(float64), f["USDCAD_Avg"].(float64))
	assert.LessOrEqual(t, f["USDCAD_Avg"].(float64), f["USDCAD_High"].(float64))
	assert.Equal(t, 1.4079, f["USDCAD_High"])
	assert.Equal(t, 0.23, f["CORRA_Low"])

	coef := f["Coefficient"].(float64)
	assert.GreaterOrEqual(t, coef, -1.0-1e-9)
	assert.LessOrEqual(t, coef, 1.0+1e-9)
}

func TestPostValuesInvertedDates(t *testing.T) {
	h, _ := newTestRouter(t, testConfig("http://127.0.0.1:1"))

	rec := postJSON(h, `{"startdate":"2020-05-12","enddate":"2020-04-09"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The End date must be greater than the Start date")
}

func TestPostValuesMalformedDate(t *testing.T) {
	h, _ := newTestRouter(t, testConfig("http://127.0.0.1:1"))

	rec := postJSON(h, `{"startdate":"not-a-date","enddate":"2020-05-12"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Error: Invalid Start Date", rec.Body.String())
}

func TestPostValuesStrictStatus(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.HTTPServer.StrictStatus = true
	h, _ := newTestRouter(t, cfg)

	rec := postJSON(h, `{"startdate":"2020-04-09","enddate":"garbage"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error: Invalid End Date", rec.Body.String())
}

func TestPostValuesBadJSON(t *testing.T) {
	h, _ := newTestRouter(t, testConfig("http://127.0.0.1:1"))

	rec := postJSON(h, `{"startdate":`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Error: Invalid Start Date", rec.Body.String())
}

func TestPostValuesProviderUnreachable(t *testing.T) {
	up := valetStub(t, nil)
	h, reg := newTestRouter(t, testConfig(up.URL))

	rec := postJSON(h, `{"startdate":"2020-04-09","enddate":"2020-05-12"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	f := decodeFields(t, rec)
	assert.Equal(t, 0.0, f["USDCAD_Avg"])
	assert.Equal(t, 0.0, f["USDCAD_High"])
	assert.Equal(t, 0.0, f["CORRA_Avg"])
	assert.Equal(t, 0.0, f["CORRA_High"])
	assert.Equal(t, "NaN", f["Coefficient"])

	metricsRec := httptest.NewRecorder()
	h.ServeHTTP(metricsRec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metricsRec.Body.String(), `correlation_upstream_fetches_total{outcome="error",series="FXUSDCAD"} 1`)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestPostValuesForm(t *testing.T) {
	up := valetStub(t, map[string][][2]string{
		"FXUSDCAD":  {{"2020-04-09", "1"}, {"2020-04-10", "2"}, {"2020-04-13", "3"}},
		"AVG.INTWO": {{"2020-04-09", "2"}, {"2020-04-10", "4"}, {"2020-04-13", "6"}},
	})
	h, _ := newTestRouter(t, testConfig(up.URL))

	form := url.Values{"startdate": {"2020-04-09"}, "enddate": {"2020-04-13"}}
	req := httptest.NewRequest(http.MethodPost, "/api/values", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	f := decodeFields(t, rec)
	assert.InDelta(t, 1.0, f["Coefficient"].(float64), 1e-9)
	assert.Equal(t, 2.0, f["USDCAD_Avg"])
	assert.Equal(t, 4.0, f["CORRA_Avg"])
}

func TestIndexAndGetValues(t *testing.T) {
	h, _ := newTestRouter(t, testConfig("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/api/values"`)
	assert.Contains(t, rec.Body.String(), `name="startdate"`)
	assert.Contains(t, rec.Body.String(), `name="enddate"`)
	assert.Contains(t, rec.Body.String(), "YYYY-MM-DD")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/values", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/values", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type canceledService struct{}

func (canceledService) Analyze(ctx context.Context, _, _ string) (*entities.CorrelationResult, error) {
	return nil, errors.Wrap(context.Canceled, "service.Analyze")
}

func TestPostValuesServiceError(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	h := NewRouter(NewServer(nil, cfg, canceledService{}), discard, prometheus.NewRegistry())

	rec := postJSON(h, `{"startdate":"2020-04-09","enddate":"2020-05-12"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "context canceled")
}
