package domain

import (
	"math"
	"strconv"
	"strings"
)

// Canonical feature columns. Trained artifacts refer to features by these names and
// their fingerprint is computed over this list, so renaming or reordering a column is a
// schema change.
const (
	ColPersonAge                  = "person_age"
	ColPersonRating               = "person_rating"
	ColPickupLat                  = "pickup_lat"
	ColPickupLon                  = "pickup_lon"
	ColDeliveryLat                = "delivery_lat"
	ColDeliveryLon                = "delivery_lon"
	ColWeather                    = "weather"
	ColTrafficDensity             = "traffic_density"
	ColVehicleCondition           = "vehicle_condition"
	ColVehicleType                = "vehicle_type"
	ColMultipleDeliveries         = "multiple_deliveries"
	ColCity                       = "city"
	ColTemperatureC               = "temperature_c"
	ColTrafficIndex               = "traffic_index"
	ColOrderDay                   = "order_day"
	ColOrderMonth                 = "order_month"
	ColOrderYear                  = "order_year"
	ColOrderHour                  = "order_hour"
	ColOrderMinute                = "order_minute"
	ColDistanceKm                 = "distance_km"
	ColAvgDeliveryTimeArea        = "avg_delivery_time_area"
	ColTrafficWeatherImpact       = "traffic_weather_impact"
	ColVehicleCapacityUtilization = "vehicle_capacity_utilization"
)

// SchemaVersion is bumped whenever feature derivation changes meaning.
const SchemaVersion = 1

// FeatureColumns lists every column a DerivedFeatureSet exposes, in canonical order.
var FeatureColumns = []string{
	ColPersonAge, ColPersonRating,
	ColPickupLat, ColPickupLon, ColDeliveryLat, ColDeliveryLon,
	ColWeather, ColTrafficDensity, ColVehicleCondition, ColVehicleType,
	ColMultipleDeliveries, ColCity, ColTemperatureC, ColTrafficIndex,
	ColOrderDay, ColOrderMonth, ColOrderYear, ColOrderHour, ColOrderMinute,
	ColDistanceKm, ColAvgDeliveryTimeArea, ColTrafficWeatherImpact, ColVehicleCapacityUtilization,
}

// Value is a single cell of a feature row: either a number (NaN when missing) or a category
// (empty when missing).
type Value struct {
	Number      float64
	Text        string
	Categorical bool
}

func Num(v float64) Value { return Value{Number: v} }
func Cat(s string) Value  { return Value{Text: strings.TrimSpace(s), Categorical: true} }

func (v Value) Missing() bool {
	if v.Categorical {
		return v.Text == ""
	}
	return math.IsNaN(v.Number)
}

// Key renders the value as a category label. Numbers use the shortest representation
// that round-trips, so 1 and 1.0 share a key.
func (v Value) Key() string {
	if v.Categorical {
		return v.Text
	}
	return strconv.FormatFloat(v.Number, 'g', -1, 64)
}

// DerivedFeatureSet is a RawDeliveryRecord plus the features derived from it.
type DerivedFeatureSet struct {
	Raw RawDeliveryRecord
	OrderClock
	DistanceKm float64
	// NaN when the city was not seen during training.
	AvgDeliveryTimeArea float64
	// NaN when the (traffic, weather) pair was not seen during training.
	TrafficWeatherImpact       float64
	VehicleCapacityUtilization float64
}

// Column returns the named feature. ok is false for unknown names.
func (f DerivedFeatureSet) Column(name string) (Value, bool) {
	r := f.Raw
	switch name {
	case ColPersonAge:
		return Num(r.PersonAge), true
	case ColPersonRating:
		return Num(r.PersonRating), true
	case ColPickupLat:
		return Num(r.Pickup.Lat), true
	case ColPickupLon:
		return Num(r.Pickup.Lon), true
	case ColDeliveryLat:
		return Num(r.Delivery.Lat), true
	case ColDeliveryLon:
		return Num(r.Delivery.Lon), true
	case ColWeather:
		return Cat(r.Weather), true
	case ColTrafficDensity:
		return Cat(r.TrafficDensity), true
	case ColVehicleCondition:
		return Num(float64(r.VehicleCondition)), true
	case ColVehicleType:
		return Cat(r.VehicleType), true
	case ColMultipleDeliveries:
		return Num(r.MultipleDeliveries), true
	case ColCity:
		return Cat(r.City), true
	case ColTemperatureC:
		return Num(r.TemperatureC), true
	case ColTrafficIndex:
		return Num(r.TrafficIndex), true
	case ColOrderDay:
		return Num(float64(f.Day)), true
	case ColOrderMonth:
		return Num(float64(f.Month)), true
	case ColOrderYear:
		return Num(float64(f.Year)), true
	case ColOrderHour:
		return Num(float64(f.Hour)), true
	case ColOrderMinute:
		return Num(float64(f.Minute)), true
	case ColDistanceKm:
		return Num(f.DistanceKm), true
	case ColAvgDeliveryTimeArea:
		return Num(f.AvgDeliveryTimeArea), true
	case ColTrafficWeatherImpact:
		return Num(f.TrafficWeatherImpact), true
	case ColVehicleCapacityUtilization:
		return Num(f.VehicleCapacityUtilization), true
	}
	return Value{}, false
}
