package domain

import "time"

// PredictionRecord is one scored request: the enriched record and its prediction.
type PredictionRecord struct {
	ID                string
	CreatedAt         time.Time
	PickupAddress     string
	DeliveryAddress   string
	Features          DerivedFeatureSet
	PredictedMinutes  float64
	ModelVersion      string
	SchemaFingerprint string
}

// DeliveryMetrics aggregates stored predictions.
type DeliveryMetrics struct {
	TotalDeliveries    int
	AverageMinutes     float64
	VehicleUtilization float64
}

// TrendPoint is one time bucket of stored predictions.
type TrendPoint struct {
	Bucket           time.Time
	AverageMinutes   float64
	AverageTraffic   float64
	AverageTempC     float64
	PredictionsCount int
}
