package features

import (
	"errors"
	"math"
	"testing"

	"delivery-eta-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLookups() *LookupTables {
	return NewLookupTables(
		map[string]float64{"Urban": 22.9, "Metropolitian": 27.1, "Semi-Urban ": 49.7},
		map[TrafficWeatherKey]float64{
			{Traffic: "Medium", Weather: "Sunny"}: 21.4,
			{Traffic: "Jam", Weather: "Fog"}:      38.2,
		},
		map[string]float64{"motorcycle": 3, "scooter": 3, "bicycle": 0},
	)
}

func scenarioRecord() domain.RawDeliveryRecord {
	return domain.RawDeliveryRecord{
		PersonAge:          37,
		PersonRating:       4.9,
		Pickup:             domain.Coordinates{Lat: 22.745049, Lon: 75.892471},
		Delivery:           domain.Coordinates{Lat: 22.765049, Lon: 75.912471},
		OrderDate:          "2022-03-19",
		OrderTime:          "11:30:00",
		Weather:            "Sunny",
		TrafficDensity:     "Medium",
		VehicleCondition:   2,
		VehicleType:        "motorcycle",
		MultipleDeliveries: 0,
		City:               "Urban",
		TemperatureC:       29.0,
		TrafficIndex:       1.2,
	}
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func TestGeodesicKmSymmetricAndZero(t *testing.T) {
	points := []domain.Coordinates{
		{Lat: 22.745049, Lon: 75.892471},
		{Lat: 22.765049, Lon: 75.912471},
		{Lat: 0, Lon: 0},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 51.505, Lon: -0.09},
		{Lat: 89.9, Lon: 179.9},
	}
	for _, a := range points {
		if d := GeodesicKm(a, a); d != 0 {
			t.Errorf("distance(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range points {
			if a == b {
				continue
			}
			ab, ba := GeodesicKm(a, b), GeodesicKm(b, a)
			if ab <= 0 {
				t.Errorf("distance(%v, %v) = %v, want > 0", a, b, ab)
			}
			if math.Abs(ab-ba) > 1e-6 {
				t.Errorf("distance not symmetric: %v vs %v", ab, ba)
			}
		}
	}
}

func TestGeodesicKmKnownDistances(t *testing.T) {
	// One degree of longitude on the WGS-84 equator.
	got := GeodesicKm(domain.Coordinates{Lat: 0, Lon: 0}, domain.Coordinates{Lat: 0, Lon: 1})
	assert.InDelta(t, 111.3195, got, 0.01)

	got = GeodesicKm(scenarioRecord().Pickup, scenarioRecord().Delivery)
	assert.InDelta(t, 3.02, got, 0.05)
}

func TestDeriveFeaturesScenario(t *testing.T) {
	f, err := DeriveFeatures(scenarioRecord(), testLookups())
	require.NoError(t, err)

	assert.Equal(t, domain.OrderClock{Day: 19, Month: 3, Year: 2022, Hour: 11, Minute: 30}, f.OrderClock)
	assert.Equal(t, 22.9, f.AvgDeliveryTimeArea)
	assert.Equal(t, 21.4, f.TrafficWeatherImpact)
	assert.Equal(t, 0.0, f.VehicleCapacityUtilization)
	assert.Greater(t, f.DistanceKm, 0.0)
}

func TestDeriveFeaturesIdempotent(t *testing.T) {
	lookups := testLookups()
	rec := scenarioRecord()
	rec.City = "Atlantis"

	first, err := DeriveFeatures(rec, lookups)
	require.NoError(t, err)
	second, err := DeriveFeatures(rec, lookups)
	require.NoError(t, err)

	for _, col := range domain.FeatureColumns {
		a, _ := first.Column(col)
		b, _ := second.Column(col)
		if a.Text != b.Text || a.Categorical != b.Categorical || !sameFloat(a.Number, b.Number) {
			t.Errorf("column %s differs between runs: %+v vs %+v", col, a, b)
		}
	}
}

func TestDeriveFeaturesUnseenKeysResolveToSentinel(t *testing.T) {
	rec := scenarioRecord()
	rec.City = "Atlantis"
	rec.Weather = "Blizzard"

	f, err := DeriveFeatures(rec, testLookups())
	require.NoError(t, err)

	assert.True(t, math.IsNaN(f.AvgDeliveryTimeArea), "city average should be NaN")
	assert.True(t, math.IsNaN(f.TrafficWeatherImpact), "pair average should be NaN")
}

func TestVehicleUtilizationGuards(t *testing.T) {
	lookups := testLookups()
	tests := []struct {
		name     string
		vehicle  string
		multiple float64
		want     float64
	}{
		{"regular", "motorcycle", 1.5, 0.5},
		{"padded key", " scooter ", 3, 1},
		{"zero max", "bicycle", 2, 0},
		{"missing key", "hovercraft", 2, 0},
		{"nan deliveries", "motorcycle", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lookups.VehicleUtilization(tt.vehicle, tt.multiple))
		})
	}

	rec := scenarioRecord()
	rec.VehicleType = "bicycle"
	rec.MultipleDeliveries = 2
	f, err := DeriveFeatures(rec, lookups)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.VehicleCapacityUtilization)
}

func TestNormalizeCity(t *testing.T) {
	lookups := testLookups()
	assert.Equal(t, "Metropolitian", lookups.NormalizeCity("Metropolitan"))
	assert.Equal(t, "Urban", lookups.NormalizeCity(" Urban "))
	assert.Equal(t, "Semi-Urban", lookups.NormalizeCity("Semi-Urban"))

	fixed := NewLookupTables(map[string]float64{"Metropolitan": 27}, nil, nil)
	assert.Equal(t, "Metropolitan", fixed.NormalizeCity("Metropolitan"))

	neither := NewLookupTables(map[string]float64{"Urban": 20}, nil, nil)
	assert.Equal(t, "Metropolitan", neither.NormalizeCity("Metropolitan"))

	rec := scenarioRecord()
	rec.City = "Metropolitan"
	f, err := DeriveFeatures(rec, lookups)
	require.NoError(t, err)
	assert.Equal(t, "Metropolitian", f.Raw.City)
	assert.Equal(t, 27.1, f.AvgDeliveryTimeArea)
}

func TestDeriveFeaturesMalformedInput(t *testing.T) {
	rec := scenarioRecord()
	rec.OrderDate = "19th of March"

	_, err := DeriveFeatures(rec, testLookups())
	var mie *domain.MalformedInputError
	require.True(t, errors.As(err, &mie), "got %v", err)
	assert.Equal(t, "order_date", mie.Field)

	rec = scenarioRecord()
	rec.Delivery.Lat = 120
	_, err = DeriveFeatures(rec, testLookups())
	require.True(t, errors.As(err, &mie), "got %v", err)
}
