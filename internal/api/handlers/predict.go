package handlers

import (
	"context"
	"delivery-eta-service/internal/api/dto"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/services"
	"net/http"
)

// Predictor is the slice of services.DeliveryService the prediction endpoints need.
type Predictor interface {
	Predict(ctx context.Context, req services.PredictRequest) (*services.Prediction, error)
	Geocode(ctx context.Context, address string) (domain.Place, error)
}

type PredictHandler struct {
	Service Predictor
}

// Predict geocodes both addresses and returns the estimated delivery time in minutes.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req dto.PredictRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.Service.Predict(r.Context(), services.PredictRequest{
		PickupAddress:      req.PickupAddress,
		DeliveryAddress:    req.Address,
		City:               req.City,
		PersonAge:          req.DeliveryPersonAge,
		PersonRating:       req.DeliveryPersonRating,
		VehicleType:        req.VehicleType,
		VehicleCondition:   req.VehicleCondition,
		MultipleDeliveries: req.MultipleDeliveries,
		OrderedAt:          req.OrderedAt,
	})
	if err != nil {
		writeServiceError(w, r, err, http.StatusBadRequest, "Invalid address")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.PredictResponse{
		ID:             p.ID,
		PredictedTime:  round2(p.PredictedMinutes),
		Pickup:         dto.LatLng{Lat: p.Pickup.Lat, Lng: p.Pickup.Lon},
		Delivery:       dto.LatLng{Lat: p.Delivery.Lat, Lng: p.Delivery.Lon},
		DistanceKm:     round2(p.DistanceKm),
		Weather:        p.Weather.Condition,
		Temperature:    p.Weather.TemperatureC,
		TrafficIndex:   round2(p.TrafficIndex),
		TrafficDensity: p.TrafficDensity,
		ModelVersion:   p.ModelVersion,
	})
}

func (h *PredictHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	var req dto.GeocodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	place, err := h.Service.Geocode(r.Context(), req.Address)
	if err != nil {
		writeServiceError(w, r, err, http.StatusNotFound, "address not found")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.GeocodeResponse{
		Lat:  place.Lat,
		Lng:  place.Lon,
		City: place.City,
	})
}
