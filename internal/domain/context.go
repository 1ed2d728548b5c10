package domain

// Weather condition categories the model was trained on.
const (
	WeatherSunny      = "Sunny"
	WeatherStormy     = "Stormy"
	WeatherSandstorms = "Sandstorms"
	WeatherCloudy     = "Cloudy"
	WeatherFog        = "Fog"
	WeatherWindy      = "Windy"
)

// Road traffic density categories.
const (
	TrafficLow    = "Low"
	TrafficMedium = "Medium"
	TrafficHigh   = "High"
	TrafficJam    = "Jam"
)

// FallbackTrafficIndex is used when the traffic provider is unreachable or returns
// malformed data: free-flow conditions.
const FallbackTrafficIndex = 1.0

// DefaultWeather is used when the weather provider fails.
var DefaultWeather = Weather{Condition: WeatherSunny, TemperatureC: 25.0}

// Weather is the normalized current weather for a city.
type Weather struct {
	Condition    string
	TemperatureC float64
}

// TrafficDensityFromIndex buckets a traffic index (current / free-flow travel time).
func TrafficDensityFromIndex(index float64) string {
	switch {
	case index <= 1.0:
		return TrafficLow
	case index <= 2.0:
		return TrafficMedium
	case index <= 3.0:
		return TrafficHigh
	default:
		return TrafficJam
	}
}
