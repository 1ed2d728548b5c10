// Package enrichment holds the weather and traffic context adapters.
package enrichment

import (
	"context"
	"delivery-eta-service/internal/adapters/httpclient"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/platform/obs"
	"errors"
	"fmt"
	"strings"
	"time"
)

const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org"

// DefaultWindyThreshold is the wind speed (m/s) at or above which otherwise calm weather
// is reported as Windy.
const DefaultWindyThreshold = 10.8

type openWeatherResponse struct {
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// OpenWeather fetches current conditions from the OpenWeatherMap current weather API.
type OpenWeather struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string

	// WindyThreshold overrides DefaultWindyThreshold.
	WindyThreshold float64
}

func NewOpenWeather(apiKey, baseURL string, timeout time.Duration) (*OpenWeather, error) {
	if apiKey == "" {
		return nil, errors.New("OpenWeather api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeather{
		client:         httpclient.New(timeout, nil),
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		WindyThreshold: DefaultWindyThreshold,
	}, nil
}

func (o *OpenWeather) CurrentWeather(ctx context.Context, city string) (_ domain.Weather, err error) {
	defer obs.Time(ctx, "openweather.CurrentWeather")(&err)

	city = strings.TrimSpace(city)
	if city == "" {
		return domain.Weather{}, &domain.ProviderError{Provider: "openweather", Err: errors.New("city is empty")}
	}

	var decoded openWeatherResponse
	if err := o.client.GetJSON(ctx, o.baseURL+"/data/2.5/weather", map[string]string{
		"q":     city,
		"appid": o.apiKey,
		"units": "metric",
	}, &decoded); err != nil {
		return domain.Weather{}, &domain.ProviderError{Provider: "openweather", Err: err}
	}

	if decoded.Main.Temp == nil || len(decoded.Weather) == 0 {
		return domain.Weather{}, &domain.ProviderError{
			Provider: "openweather",
			Err:      fmt.Errorf("incomplete response for %q", city),
		}
	}

	return domain.Weather{
		Condition:    mapCondition(decoded.Weather[0].Main, decoded.Wind.Speed, o.WindyThreshold),
		TemperatureC: *decoded.Main.Temp,
	}, nil
}

// MapOpenWeatherCondition collapses an OpenWeatherMap "main" group onto the model's
// condition vocabulary.
func MapOpenWeatherCondition(main string, windSpeed float64) string {
	return mapCondition(main, windSpeed, DefaultWindyThreshold)
}

func mapCondition(main string, windSpeed, windyThreshold float64) string {
	switch strings.ToLower(strings.TrimSpace(main)) {
	case "thunderstorm", "rain", "drizzle", "snow", "squall", "tornado":
		return domain.WeatherStormy
	case "dust", "sand", "ash":
		return domain.WeatherSandstorms
	case "fog", "mist", "haze", "smoke":
		return domain.WeatherFog
	case "clouds":
		if windSpeed >= windyThreshold {
			return domain.WeatherWindy
		}
		return domain.WeatherCloudy
	default:
		if windSpeed >= windyThreshold {
			return domain.WeatherWindy
		}
		return domain.WeatherSunny
	}
}
