package services

import (
	"context"
	"testing"
	"time"

	"delivery-eta-service/internal/adapters/repositories"
	"delivery-eta-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delivered(id string, at time.Time, to domain.Coordinates, minutes float64) domain.PredictionRecord {
	return domain.PredictionRecord{
		ID:               id,
		CreatedAt:        at,
		PredictedMinutes: minutes,
		Features: domain.DerivedFeatureSet{
			Raw: domain.RawDeliveryRecord{
				Pickup:       domain.Coordinates{Lat: 22.70, Lon: 75.80},
				Delivery:     to,
				TrafficIndex: 1.2,
				TemperatureC: 29,
			},
		},
	}
}

func TestDashboardWithoutStore(t *testing.T) {
	svc := NewDashboardService(nil)
	ctx := context.Background()

	m, err := svc.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, CannedMetrics, m)

	trend, err := svc.Trend(ctx, 24)
	require.NoError(t, err)
	assert.Empty(t, trend)

	routes, err := svc.Routes(ctx, 20)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestDashboardRejectsBadArguments(t *testing.T) {
	svc := NewDashboardService(nil)
	var malformed *domain.MalformedInputError

	_, err := svc.Trend(context.Background(), 0)
	assert.ErrorAs(t, err, &malformed)
	_, err = svc.Routes(context.Background(), -1)
	assert.ErrorAs(t, err, &malformed)
}

func TestDashboardFromStore(t *testing.T) {
	repo := repositories.NewMemoryPredictionRepository(100)
	now := time.Date(2026, 3, 19, 12, 10, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, delivered("old", now.Add(-30*time.Hour), domain.Coordinates{Lat: 22.8, Lon: 75.9}, 50)))
	require.NoError(t, repo.Record(ctx, delivered("a", now.Add(-90*time.Minute), domain.Coordinates{Lat: 22.71, Lon: 75.81}, 20)))
	require.NoError(t, repo.Record(ctx, delivered("b", now.Add(-5*time.Minute), domain.Coordinates{Lat: 22.75, Lon: 75.85}, 30)))

	svc := NewDashboardService(repo)
	svc.Now = func() time.Time { return now }

	m, err := svc.Metrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, m.TotalDeliveries)

	trend, err := svc.Trend(ctx, 24)
	require.NoError(t, err)
	require.Len(t, trend, 2)
	assert.Equal(t, 20.0, trend[0].AverageMinutes)
	assert.Equal(t, 30.0, trend[1].AverageMinutes)

	routes, err := svc.Routes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	// Starting from the newest pickup, "a" is closer than "b".
	assert.Equal(t, "a", routes[0].Record.ID)
	assert.Equal(t, "b", routes[1].Record.ID)
	assert.Equal(t, 1, routes[0].Order)
	assert.Equal(t, 2, routes[1].Order)
}

func TestOrderStopsNearestNeighbor(t *testing.T) {
	start := domain.Coordinates{Lat: 0, Lon: 0}
	recs := []domain.PredictionRecord{
		delivered("far", time.Time{}, domain.Coordinates{Lat: 0, Lon: 3}, 0),
		delivered("near", time.Time{}, domain.Coordinates{Lat: 0, Lon: 1}, 0),
		delivered("mid", time.Time{}, domain.Coordinates{Lat: 0, Lon: 2}, 0),
	}

	stops, err := OrderStops(start, recs)
	require.NoError(t, err)
	require.Len(t, stops, 3)

	ids := []string{stops[0].Record.ID, stops[1].Record.ID, stops[2].Record.ID}
	assert.Equal(t, []string{"near", "mid", "far"}, ids)
	assert.InDelta(t, 111.3195, stops[0].LegKm, 0.01)
	assert.InDelta(t, 3*111.3195, stops[2].Cumulative, 0.05)

	empty, err := OrderStops(start, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = OrderStops(domain.Coordinates{Lat: 95}, recs)
	assert.Error(t, err)
}
