package ports

import (
	"context"
	"delivery-eta-service/internal/domain"
)

// Port: current weather for a city, already mapped onto the model's condition vocabulary.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, city string) (domain.Weather, error)
}

// Port: congestion at a point as current / free-flow travel time (>= 0).
type TrafficProvider interface {
	TrafficIndex(ctx context.Context, at domain.Coordinates) (float64, error)
}
