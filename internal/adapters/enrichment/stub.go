package enrichment

import (
	"context"
	"delivery-eta-service/internal/domain"
)

// Values served in stub context mode.
var (
	StubWeather      = domain.Weather{Condition: domain.WeatherSunny, TemperatureC: 29.0}
	StubTrafficIndex = 1.0
)

// StaticWeather always reports the same weather.
type StaticWeather struct {
	Weather domain.Weather
}

func (s StaticWeather) CurrentWeather(ctx context.Context, city string) (domain.Weather, error) {
	return s.Weather, nil
}

// StaticTraffic always reports the same traffic index.
type StaticTraffic struct {
	Index float64
}

func (s StaticTraffic) TrafficIndex(ctx context.Context, at domain.Coordinates) (float64, error) {
	return s.Index, nil
}
