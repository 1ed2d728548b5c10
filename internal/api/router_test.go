package api

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/services"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePredictor struct {
	lastReq services.PredictRequest
	pred    *services.Prediction
	err     error
	place   domain.Place
	geoErr  error
}

func (f *fakePredictor) Predict(ctx context.Context, req services.PredictRequest) (*services.Prediction, error) {
	f.lastReq = req
	return f.pred, f.err
}

func (f *fakePredictor) Geocode(ctx context.Context, address string) (domain.Place, error) {
	return f.place, f.geoErr
}

type fakeDashboard struct {
	metrics domain.DeliveryMetrics
	points  []domain.TrendPoint
	stops   []services.RouteStop
	hours   int
	limit   int
}

func (f *fakeDashboard) Metrics(ctx context.Context) (domain.DeliveryMetrics, error) {
	return f.metrics, nil
}

func (f *fakeDashboard) Trend(ctx context.Context, hours int) ([]domain.TrendPoint, error) {
	f.hours = hours
	return f.points, nil
}

func (f *fakeDashboard) Routes(ctx context.Context, limit int) ([]services.RouteStop, error) {
	f.limit = limit
	return f.stops, nil
}

func newTestRouter(p *fakePredictor, d *fakeDashboard) http.Handler {
	return NewRouter(Deps{
		Predictor:      p,
		Dashboard:      d,
		ModelVersion:   "v-test",
		AllowedOrigins: []string{"*"},
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&fakePredictor{}, &fakeDashboard{}), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","model_version":"v-test"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestPredictEndpoint(t *testing.T) {
	p := &fakePredictor{pred: &services.Prediction{
		ID:               "abc",
		Pickup:           domain.Place{Coordinates: domain.Coordinates{Lat: 22.74, Lon: 75.89}},
		Delivery:         domain.Place{Coordinates: domain.Coordinates{Lat: 22.76, Lon: 75.91}},
		DistanceKm:       3.0234,
		Weather:          domain.Weather{Condition: domain.WeatherSunny, TemperatureC: 29},
		TrafficIndex:     1.2,
		TrafficDensity:   domain.TrafficMedium,
		PredictedMinutes: 27.98765,
		ModelVersion:     "v-test",
	}}
	h := newTestRouter(p, &fakeDashboard{})

	rec := do(t, h, http.MethodPost, "/predict",
		`{"pickupAddress":"Vijay Nagar","address":"Scheme 54","city":"Urban","deliveryPersonAge":37}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 27.99, got["predicted_time"])
	assert.Equal(t, 3.02, got["distance_km"])
	assert.Equal(t, "Medium", got["traffic_density"])
	assert.Equal(t, map[string]any{"lat": 22.74, "lng": 75.89}, got["pickup"])

	assert.Equal(t, "Vijay Nagar", p.lastReq.PickupAddress)
	assert.Equal(t, "Scheme 54", p.lastReq.DeliveryAddress)
	require.NotNil(t, p.lastReq.PersonAge)
	assert.Equal(t, 37.0, *p.lastReq.PersonAge)
	assert.Nil(t, p.lastReq.VehicleType)
}

func TestPredictEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "invalid json body"},
		{"unknown field", `{"pickupAddress":"a","address":"b","extra":1}`, nil, http.StatusBadRequest, "invalid json body"},
		{"two objects", `{"pickupAddress":"a","address":"b"}{}`, nil, http.StatusBadRequest, "body must contain only one JSON object"},
		{"not found", `{"pickupAddress":"a","address":"b"}`, domain.ErrNotFound, http.StatusBadRequest, "Invalid address"},
		{"malformed", `{"pickupAddress":"","address":"b"}`,
			&domain.MalformedInputError{Field: "pickupAddress", Reason: "required"}, http.StatusBadRequest,
			"malformed input: pickupAddress: required"},
		{"provider", `{"pickupAddress":"a","address":"b"}`,
			&domain.ProviderError{Provider: "nominatim", Err: errors.New("503")}, http.StatusBadGateway,
			"upstream provider unavailable"},
		{"model", `{"pickupAddress":"a","address":"b"}`,
			&domain.ModelShapeError{Got: 3, Want: 4}, http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(&fakePredictor{err: tt.err}, &fakeDashboard{})
			rec := do(t, h, http.MethodPost, "/predict", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.msg+`"}`, rec.Body.String())
		})
	}
}

func TestGeocodeEndpoint(t *testing.T) {
	p := &fakePredictor{place: domain.Place{
		Coordinates: domain.Coordinates{Lat: 22.7, Lon: 75.8},
		City:        "Indore",
	}}
	rec := do(t, newTestRouter(p, &fakeDashboard{}), http.MethodPost, "/geocode", `{"address":"Indore"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lat":22.7,"lng":75.8,"city":"Indore"}`, rec.Body.String())

	p = &fakePredictor{geoErr: domain.ErrNotFound}
	rec = do(t, newTestRouter(p, &fakeDashboard{}), http.MethodPost, "/geocode", `{"address":"Atlantis"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"address not found"}`, rec.Body.String())
}

func TestDashboardEndpoints(t *testing.T) {
	created := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)
	d := &fakeDashboard{
		metrics: services.CannedMetrics,
		points: []domain.TrendPoint{{
			Bucket: created, AverageMinutes: 25.456, AverageTraffic: 1.2, AverageTempC: 29, PredictionsCount: 2,
		}},
		stops: []services.RouteStop{{
			Order: 1,
			Record: domain.PredictionRecord{
				ID:               "r1",
				PickupAddress:    "A",
				DeliveryAddress:  "B",
				PredictedMinutes: 20,
				Features: domain.DerivedFeatureSet{Raw: domain.RawDeliveryRecord{
					Delivery: domain.Coordinates{Lat: 22.7, Lon: 75.8},
					City:     "Urban",
				}},
			},
		}},
	}
	h := newTestRouter(&fakePredictor{}, d)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalDeliveries":156,"averageTime":28,"vehicleUtilization":85}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/trendData", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 24, d.hours)
	assert.JSONEq(t,
		`[{"timestamp":"2026-03-19T12:00:00Z","deliveryTime":25.46,"traffic":1.2,"temperature":29,"count":2}]`,
		rec.Body.String())

	rec = do(t, h, http.MethodGet, "/routes?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, d.limit)
	var routes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	require.Len(t, routes, 1)
	assert.Equal(t, 22.7, routes[0]["lat"])
	order := routes[0]["order"].(map[string]any)
	assert.Equal(t, "r1", order["id"])
	assert.Equal(t, "B", order["address"])
	assert.Equal(t, "Urban", order["city"])

	rec = do(t, h, http.MethodGet, "/trendData?hours=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/routes?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestRouter(&fakePredictor{}, &fakeDashboard{}), http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"method not allowed"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	newTestRouter(&fakePredictor{}, &fakeDashboard{}).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
