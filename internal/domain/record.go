package domain

import (
	"math"
	"strings"
	"time"
)

// Accepted layouts for the order date and time. The training dataset stores dates as
// DD-MM-YYYY, the HTTP layer produces ISO dates.
var (
	orderDateLayouts = []string{"2006-01-02", "02-01-2006", "2006/01/02", "02/01/2006"}
	orderTimeLayouts = []string{"15:04:05", "15:04", "15:04:05.999999999"}
)

// RawDeliveryRecord is the untransformed input to prediction.
type RawDeliveryRecord struct {
	PersonAge          float64
	PersonRating       float64
	Pickup             Coordinates
	Delivery           Coordinates
	OrderDate          string
	OrderTime          string
	Weather            string
	TrafficDensity     string
	VehicleCondition   int
	VehicleType        string
	MultipleDeliveries float64
	City               string
	TemperatureC       float64
	TrafficIndex       float64
}

// Validate checks the record invariants: coordinate ranges, a non-negative traffic index
// and delivery count, and non-empty date/time.
func (r RawDeliveryRecord) Validate() error {
	if err := r.Pickup.Validate(); err != nil {
		return &MalformedInputError{Field: "pickup", Reason: err.Error()}
	}
	if err := r.Delivery.Validate(); err != nil {
		return &MalformedInputError{Field: "delivery", Reason: err.Error()}
	}
	if math.IsNaN(r.TrafficIndex) || r.TrafficIndex < 0 {
		return &MalformedInputError{Field: "traffic_index", Reason: "must be >= 0"}
	}
	if math.IsNaN(r.MultipleDeliveries) || r.MultipleDeliveries < 0 {
		return &MalformedInputError{Field: "multiple_deliveries", Reason: "must be >= 0"}
	}
	if strings.TrimSpace(r.OrderDate) == "" {
		return &MalformedInputError{Field: "order_date", Reason: "required"}
	}
	if strings.TrimSpace(r.OrderTime) == "" {
		return &MalformedInputError{Field: "order_time", Reason: "required"}
	}
	return nil
}

// OrderClock is the decomposed order timestamp.
type OrderClock struct {
	Day, Month, Year int
	Hour, Minute     int
}

// ParseOrderClock decomposes an order date and time-of-day.
func ParseOrderClock(date, clock string) (OrderClock, error) {
	d, ok := parseFirst(strings.TrimSpace(date), orderDateLayouts)
	if !ok {
		return OrderClock{}, &MalformedInputError{Field: "order_date", Reason: "cannot parse " + quote(date)}
	}

	t, ok := parseFirst(strings.TrimSpace(clock), orderTimeLayouts)
	if !ok {
		return OrderClock{}, &MalformedInputError{Field: "order_time", Reason: "cannot parse " + quote(clock)}
	}

	return OrderClock{
		Day:    d.Day(),
		Month:  int(d.Month()),
		Year:   d.Year(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}, nil
}

// SetOrderedAt fills OrderDate and OrderTime from a timestamp in its own location.
func (r *RawDeliveryRecord) SetOrderedAt(at time.Time) {
	r.OrderDate = at.Format("2006-01-02")
	r.OrderTime = at.Format("15:04:05")
}

func parseFirst(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func quote(s string) string { return `"` + s + `"` }
