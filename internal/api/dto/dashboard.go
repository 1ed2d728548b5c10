package dto

import "time"

type MetricsResponse struct {
	TotalDeliveries    int     `json:"totalDeliveries"`
	AverageTime        float64 `json:"averageTime"`
	VehicleUtilization float64 `json:"vehicleUtilization"`
}

type TrendPointResponse struct {
	Timestamp    time.Time `json:"timestamp"`
	DeliveryTime float64   `json:"deliveryTime"`
	Traffic      float64   `json:"traffic"`
	Temperature  float64   `json:"temperature"`
	Count        int       `json:"count"`
}

// Order statuses understood by the dashboard frontend.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusDelivered  = "delivered"
)

type DeliveryOrder struct {
	ID            string  `json:"id"`
	PickupAddress string  `json:"pickupAddress"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	Status        string  `json:"status"`
	PredictedTime float64 `json:"predictedTime"`
}

type RoutePoint struct {
	Lat   float64        `json:"lat"`
	Lng   float64        `json:"lng"`
	Order *DeliveryOrder `json:"order,omitempty"`
}
