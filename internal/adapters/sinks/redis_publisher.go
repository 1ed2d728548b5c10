package sinks

import (
	"context"
	"delivery-eta-service/internal/domain"
	"fmt"
	"time"
)

// PredictionsChannel carries one JSON event per scored prediction.
const PredictionsChannel = "delivery:predictions"

// Publisher is the publish half of the Redis store.
type Publisher interface {
	Publish(ctx context.Context, channel string, value any) error
}

// PredictionEvent is the published payload.
type PredictionEvent struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	City             string    `json:"city"`
	PickupLat        float64   `json:"pickup_lat"`
	PickupLon        float64   `json:"pickup_lon"`
	DeliveryLat      float64   `json:"delivery_lat"`
	DeliveryLon      float64   `json:"delivery_lon"`
	DistanceKm       float64   `json:"distance_km"`
	Weather          string    `json:"weather"`
	TrafficDensity   string    `json:"traffic_density"`
	PredictedMinutes float64   `json:"predicted_minutes"`
	ModelVersion     string    `json:"model_version"`
}

// RedisPublisher publishes prediction events to a channel.
type RedisPublisher struct {
	pub     Publisher
	channel string
}

func NewRedisPublisher(pub Publisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = PredictionsChannel
	}
	return &RedisPublisher{pub: pub, channel: channel}
}

func (p *RedisPublisher) Record(ctx context.Context, rec domain.PredictionRecord) error {
	raw := rec.Features.Raw
	ev := PredictionEvent{
		ID:               rec.ID,
		CreatedAt:        rec.CreatedAt.UTC(),
		City:             raw.City,
		PickupLat:        raw.Pickup.Lat,
		PickupLon:        raw.Pickup.Lon,
		DeliveryLat:      raw.Delivery.Lat,
		DeliveryLon:      raw.Delivery.Lon,
		DistanceKm:       rec.Features.DistanceKm,
		Weather:          raw.Weather,
		TrafficDensity:   raw.TrafficDensity,
		PredictedMinutes: rec.PredictedMinutes,
		ModelVersion:     rec.ModelVersion,
	}
	if err := p.pub.Publish(ctx, p.channel, ev); err != nil {
		return fmt.Errorf("publish prediction id=%s: %w", rec.ID, err)
	}
	return nil
}
