package features

import (
	"math"
	"strings"
)

// Category label found in the training data for metropolitan areas.
const (
	metropolitanCanonical = "Metropolitan"
	metropolitanTraining  = "Metropolitian"
)

// TrafficWeatherKey identifies a (road traffic density, weather condition) pair.
type TrafficWeatherKey struct {
	Traffic string
	Weather string
}

// LookupTables holds the training-time aggregates used during feature derivation.
// The maps are copied on construction and never written afterwards, so a single
// instance is shared by all requests.
type LookupTables struct {
	cityAvg           map[string]float64
	trafficWeatherAvg map[TrafficWeatherKey]float64
	vehicleMax        map[string]float64
}

func NewLookupTables(
	cityAvg map[string]float64,
	trafficWeatherAvg map[TrafficWeatherKey]float64,
	vehicleMax map[string]float64,
) *LookupTables {
	lt := &LookupTables{
		cityAvg:           make(map[string]float64, len(cityAvg)),
		trafficWeatherAvg: make(map[TrafficWeatherKey]float64, len(trafficWeatherAvg)),
		vehicleMax:        make(map[string]float64, len(vehicleMax)),
	}
	for k, v := range cityAvg {
		lt.cityAvg[strings.TrimSpace(k)] = v
	}
	for k, v := range trafficWeatherAvg {
		lt.trafficWeatherAvg[TrafficWeatherKey{
			Traffic: strings.TrimSpace(k.Traffic),
			Weather: strings.TrimSpace(k.Weather),
		}] = v
	}
	for k, v := range vehicleMax {
		lt.vehicleMax[strings.TrimSpace(k)] = v
	}
	return lt
}

// CityAverage returns the mean delivery time for the city category, NaN if unseen.
func (lt *LookupTables) CityAverage(city string) float64 {
	if v, ok := lt.cityAvg[strings.TrimSpace(city)]; ok {
		return v
	}
	return math.NaN()
}

// TrafficWeatherAverage returns the mean delivery time for the pair, NaN if unseen.
func (lt *LookupTables) TrafficWeatherAverage(traffic, weather string) float64 {
	key := TrafficWeatherKey{Traffic: strings.TrimSpace(traffic), Weather: strings.TrimSpace(weather)}
	if v, ok := lt.trafficWeatherAvg[key]; ok {
		return v
	}
	return math.NaN()
}

// VehicleUtilization divides the concurrent deliveries by the largest count seen for the
// vehicle type in training. Missing, zero or non-finite maxima yield 0.
func (lt *LookupTables) VehicleUtilization(vehicleType string, multipleDeliveries float64) float64 {
	peak, ok := lt.vehicleMax[strings.TrimSpace(vehicleType)]
	if !ok || peak == 0 || math.IsNaN(peak) || math.IsInf(peak, 0) || math.IsNaN(multipleDeliveries) {
		return 0
	}
	return multipleDeliveries / peak
}

// NormalizeCity maps a city category onto the spelling used by the lookup tables.
// "Metropolitan" becomes "Metropolitian" only when the tables carry the misspelled
// label and not the correct one.
func (lt *LookupTables) NormalizeCity(city string) string {
	city = strings.TrimSpace(city)
	if !strings.EqualFold(city, metropolitanCanonical) {
		return city
	}
	if _, ok := lt.cityAvg[metropolitanCanonical]; ok {
		return metropolitanCanonical
	}
	if _, ok := lt.cityAvg[metropolitanTraining]; ok {
		return metropolitanTraining
	}
	return city
}

// Cities returns the number of city entries. Used for load-time sanity checks.
func (lt *LookupTables) Cities() int { return len(lt.cityAvg) }

// Snapshot returns copies of the three tables, for serialization.
func (lt *LookupTables) Snapshot() (map[string]float64, map[TrafficWeatherKey]float64, map[string]float64) {
	city := make(map[string]float64, len(lt.cityAvg))
	for k, v := range lt.cityAvg {
		city[k] = v
	}
	pair := make(map[TrafficWeatherKey]float64, len(lt.trafficWeatherAvg))
	for k, v := range lt.trafficWeatherAvg {
		pair[k] = v
	}
	vehicle := make(map[string]float64, len(lt.vehicleMax))
	for k, v := range lt.vehicleMax {
		vehicle[k] = v
	}
	return city, pair, vehicle
}
