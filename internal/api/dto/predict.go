package dto

import "time"

type PredictRequest struct {
	PickupAddress        string     `json:"pickupAddress"`
	Address              string     `json:"address"`
	City                 string     `json:"city"`
	DeliveryPersonAge    *float64   `json:"deliveryPersonAge,omitempty"`
	DeliveryPersonRating *float64   `json:"deliveryPersonRating,omitempty"`
	VehicleType          *string    `json:"vehicleType,omitempty"`
	VehicleCondition     *int       `json:"vehicleCondition,omitempty"`
	MultipleDeliveries   *float64   `json:"multipleDeliveries,omitempty"`
	OrderedAt            *time.Time `json:"orderedAt,omitempty"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type PredictResponse struct {
	ID             string  `json:"id"`
	PredictedTime  float64 `json:"predicted_time"`
	Pickup         LatLng  `json:"pickup"`
	Delivery       LatLng  `json:"delivery"`
	DistanceKm     float64 `json:"distance_km"`
	Weather        string  `json:"weather"`
	Temperature    float64 `json:"temperature"`
	TrafficIndex   float64 `json:"traffic_index"`
	TrafficDensity string  `json:"traffic_density"`
	ModelVersion   string  `json:"model_version"`
}

type GeocodeRequest struct {
	Address string `json:"address"`
}

type GeocodeResponse struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	City string  `json:"city"`
}
