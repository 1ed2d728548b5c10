package handlers

import (
	"context"
	"delivery-eta-service/internal/api/dto"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/services"
	"net/http"
	"time"
)

const (
	defaultTrendHours = 24
	maxTrendHours     = 24 * 30
	defaultRouteLimit = 20
	maxRouteLimit     = 500
)

// Dashboard is the slice of services.DashboardService the read endpoints need.
type Dashboard interface {
	Metrics(ctx context.Context) (domain.DeliveryMetrics, error)
	Trend(ctx context.Context, hours int) ([]domain.TrendPoint, error)
	Routes(ctx context.Context, limit int) ([]services.RouteStop, error)
}

type DashboardHandler struct {
	Service Dashboard
	Now     func() time.Time
}

func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Metrics(r.Context())
	if err != nil {
		writeServiceError(w, r, err, http.StatusNotFound, "not found")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.MetricsResponse{
		TotalDeliveries:    m.TotalDeliveries,
		AverageTime:        round2(m.AverageMinutes),
		VehicleUtilization: round2(m.VehicleUtilization),
	})
}

func (h *DashboardHandler) Trend(w http.ResponseWriter, r *http.Request) {
	hours, ok := queryInt(r, "hours", defaultTrendHours, maxTrendHours)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "hours must be a positive integer")
		return
	}

	points, err := h.Service.Trend(r.Context(), hours)
	if err != nil {
		writeServiceError(w, r, err, http.StatusNotFound, "not found")
		return
	}

	res := make([]dto.TrendPointResponse, 0, len(points))
	for _, p := range points {
		res = append(res, dto.TrendPointResponse{
			Timestamp:    p.Bucket,
			DeliveryTime: round2(p.AverageMinutes),
			Traffic:      round2(p.AverageTraffic),
			Temperature:  round2(p.AverageTempC),
			Count:        p.PredictionsCount,
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Routes returns recent deliveries in nearest-neighbor visiting order.
func (h *DashboardHandler) Routes(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultRouteLimit, maxRouteLimit)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	stops, err := h.Service.Routes(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err, http.StatusNotFound, "not found")
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}

	res := make([]dto.RoutePoint, 0, len(stops))
	for _, s := range stops {
		rec := s.Record
		res = append(res, dto.RoutePoint{
			Lat: rec.Features.Raw.Delivery.Lat,
			Lng: rec.Features.Raw.Delivery.Lon,
			Order: &dto.DeliveryOrder{
				ID:            rec.ID,
				PickupAddress: rec.PickupAddress,
				Address:       rec.DeliveryAddress,
				City:          rec.Features.Raw.City,
				Status:        orderStatus(rec, now),
				PredictedTime: round2(rec.PredictedMinutes),
			},
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// orderStatus treats an order as delivered once its predicted time has elapsed.
func orderStatus(rec domain.PredictionRecord, now time.Time) string {
	if rec.CreatedAt.IsZero() || now.Before(rec.CreatedAt) {
		return dto.StatusPending
	}
	eta := rec.CreatedAt.Add(time.Duration(rec.PredictedMinutes * float64(time.Minute)))
	if now.Before(eta) {
		return dto.StatusInProgress
	}
	return dto.StatusDelivered
}
