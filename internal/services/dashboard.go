package services

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"delivery-eta-service/internal/ports"
	"fmt"
	"time"
)

// Values served by /metrics when no prediction store is configured.
var CannedMetrics = domain.DeliveryMetrics{
	TotalDeliveries:    156,
	AverageMinutes:     28,
	VehicleUtilization: 85,
}

// DashboardService answers the read-only dashboard endpoints from stored predictions.
type DashboardService struct {
	// Optional; nil serves canned metrics and empty lists.
	Repo ports.PredictionRepository
	Now  func() time.Time
}

func NewDashboardService(repo ports.PredictionRepository) *DashboardService {
	return &DashboardService{Repo: repo, Now: time.Now}
}

func (s *DashboardService) Metrics(ctx context.Context) (_ domain.DeliveryMetrics, err error) {
	defer obs.Time(ctx, "dashboard.Metrics")(&err)

	if s.Repo == nil {
		return CannedMetrics, nil
	}
	m, err := s.Repo.Summary(ctx)
	if err != nil {
		return domain.DeliveryMetrics{}, fmt.Errorf("dashboard metrics: %w", err)
	}
	return m, nil
}

// Trend returns hourly buckets covering the last hours hours.
func (s *DashboardService) Trend(ctx context.Context, hours int) (_ []domain.TrendPoint, err error) {
	defer obs.Time(ctx, "dashboard.Trend")(&err)

	if hours < 1 {
		return nil, &domain.MalformedInputError{Field: "hours", Reason: "must be >= 1"}
	}
	if s.Repo == nil {
		return []domain.TrendPoint{}, nil
	}

	since := s.Now().Add(-time.Duration(hours) * time.Hour).Truncate(time.Hour)
	points, err := s.Repo.Trend(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("dashboard trend: %w", err)
	}
	return points, nil
}

// Routes orders the most recent deliveries into a visiting sequence starting at the
// pickup of the newest one.
func (s *DashboardService) Routes(ctx context.Context, limit int) (_ []RouteStop, err error) {
	defer obs.Time(ctx, "dashboard.Routes")(&err)

	if limit < 1 {
		return nil, &domain.MalformedInputError{Field: "limit", Reason: "must be >= 1"}
	}
	if s.Repo == nil {
		return []RouteStop{}, nil
	}

	recs, err := s.Repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard routes: %w", err)
	}
	if len(recs) == 0 {
		return []RouteStop{}, nil
	}

	stops, err := OrderStops(recs[0].Features.Raw.Pickup, recs)
	if err != nil {
		return nil, fmt.Errorf("dashboard routes: %w", err)
	}
	return stops, nil
}
