package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringwatch/internal/api"
	"ringwatch/internal/scheduler"
	"ringwatch/internal/tracking"
)

// stubController records calls and returns canned results.
type stubController struct {
	startResult scheduler.StartResult
	startErr    error
	stopErr     error
	setPriceErr error
	variantsErr error
	intervalErr error
	checkResult []tracking.Observation
	status      scheduler.Status
	history     []tracking.Observation

	gotSink     string
	gotPrice    decimal.Decimal
	gotVariants []tracking.VariantID
	gotInterval time.Duration
	gotLimit    int
}

func (s *stubController) Start(_ context.Context, sink string) (scheduler.StartResult, error) {
	s.gotSink = sink
	return s.startResult, s.startErr
}

func (s *stubController) Stop(_ context.Context) error { return s.stopErr }

func (s *stubController) SetTargetPrice(_ context.Context, price decimal.Decimal) error {
	s.gotPrice = price
	return s.setPriceErr
}

func (s *stubController) SetVariants(_ context.Context, variants []tracking.VariantID) error {
	s.gotVariants = variants
	return s.variantsErr
}

func (s *stubController) SetInterval(_ context.Context, d time.Duration) error {
	s.gotInterval = d
	return s.intervalErr
}

func (s *stubController) CheckNow(_ context.Context) ([]tracking.Observation, error) {
	return s.checkResult, nil
}

func (s *stubController) Status() scheduler.Status { return s.status }

func (s *stubController) History(_ context.Context, n int) ([]tracking.Observation, error) {
	s.gotLimit = n
	return s.history, nil
}

func doRequest(t *testing.T, ctrl api.Controller, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := api.NewServer(ctrl, zerolog.Nop())

	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set(echoHeaderContentType, "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestStartEndpoint(t *testing.T) {
	ctrl := &stubController{
		startResult: scheduler.StartResult{
			Interval:        30 * time.Minute,
			TargetPrice:     decimal.NewFromFloat(299.0),
			TrackedVariants: []tracking.VariantID{tracking.Silver, tracking.Black},
		},
	}

	rec := doRequest(t, ctrl, http.MethodPost, "/api/v1/tracking/start", `{"sink":"deals"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deals", ctrl.gotSink)
	assert.JSONEq(t, `{
		"interval_minutes": 30,
		"target_price": "299.00",
		"tracked_variants": ["silver","black"]
	}`, rec.Body.String())
}

func TestStartAlreadyRunningConflict(t *testing.T) {
	ctrl := &stubController{startErr: scheduler.ErrAlreadyRunning}
	rec := doRequest(t, ctrl, http.MethodPost, "/api/v1/tracking/start", `{"sink":"deals"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStopEndpoint(t *testing.T) {
	rec := doRequest(t, &stubController{}, http.MethodPost, "/api/v1/tracking/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, &stubController{stopErr: scheduler.ErrAlreadyStopped}, http.MethodPost, "/api/v1/tracking/stop", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSetTargetPriceEndpoint(t *testing.T) {
	ctrl := &stubController{}
	rec := doRequest(t, ctrl, http.MethodPut, "/api/v1/tracking/target-price", `{"price":275.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ctrl.gotPrice.Equal(decimal.NewFromFloat(275.5)))

	ctrl = &stubController{setPriceErr: tracking.ErrPriceOutOfRange}
	rec = doRequest(t, ctrl, http.MethodPut, "/api/v1/tracking/target-price", `{"price":50}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "target price")
}

func TestSetVariantsEndpoint(t *testing.T) {
	ctrl := &stubController{}
	rec := doRequest(t, ctrl, http.MethodPut, "/api/v1/tracking/variants", `{"variants":["silver","gold"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []tracking.VariantID{tracking.Silver, tracking.Gold}, ctrl.gotVariants)

	ctrl = &stubController{variantsErr: &tracking.InvalidVariantsError{Invalid: []tracking.VariantID{"copper"}}}
	rec = doRequest(t, ctrl, http.MethodPut, "/api/v1/tracking/variants", `{"variants":["copper"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "copper")
}

func TestSetIntervalEndpoint(t *testing.T) {
	ctrl := &stubController{}
	rec := doRequest(t, ctrl, http.MethodPut, "/api/v1/tracking/interval", `{"minutes":45}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 45*time.Minute, ctrl.gotInterval)

	ctrl = &stubController{intervalErr: tracking.ErrIntervalOutOfRange}
	rec = doRequest(t, ctrl, http.MethodPut, "/api/v1/tracking/interval", `{"minutes":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckEndpointEmptyResultIsOK(t *testing.T) {
	rec := doRequest(t, &stubController{checkResult: []tracking.Observation{}}, http.MethodPost, "/api/v1/tracking/check", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	ctrl := &stubController{status: scheduler.Status{
		Running:         true,
		TargetPrice:     decimal.NewFromFloat(299.0),
		Interval:        time.Hour,
		TrackedVariants: []tracking.VariantID{tracking.Silver},
		AlertSink:       "deals",
	}}

	rec := doRequest(t, ctrl, http.MethodGet, "/api/v1/tracking/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"running": true,
		"target_price": "299.00",
		"interval_minutes": 60,
		"tracked_variants": ["silver"],
		"alert_sink": "deals"
	}`, rec.Body.String())
}

func TestHistoryEndpointLimit(t *testing.T) {
	ctrl := &stubController{history: []tracking.Observation{}}

	rec := doRequest(t, ctrl, http.MethodGet, "/api/v1/tracking/history?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ctrl.gotLimit)

	rec = doRequest(t, ctrl, http.MethodGet, "/api/v1/tracking/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, ctrl.gotLimit)

	rec = doRequest(t, ctrl, http.MethodGet, "/api/v1/tracking/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpointRejectsOutOfRangeLimit(t *testing.T) {
	ctrl := &stubController{history: []tracking.Observation{}}

	for _, limit := range []string{"0", "-5", "1001", "2000000000"} {
		rec := doRequest(t, ctrl, http.MethodGet, "/api/v1/tracking/history?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}

	// The controller must never see a rejected limit.
	assert.Zero(t, ctrl.gotLimit)

	rec := doRequest(t, ctrl, http.MethodGet, "/api/v1/tracking/history?limit=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000, ctrl.gotLimit)
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, &stubController{}, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
