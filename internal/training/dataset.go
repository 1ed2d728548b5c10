// Package training turns the historical delivery dataset into the lookup tables and
// preprocessor statistics the predictor loads at startup.
package training

import (
	"delivery-eta-service/internal/domain"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Example is one historical delivery and its observed duration.
type Example struct {
	Raw       domain.RawDeliveryRecord
	TimeTaken float64
}

// ReadStats counts what ReadExamples kept and skipped.
type ReadStats struct {
	Rows    int
	Skipped int
	// First few skip reasons, for logging.
	Reasons []string
}

const maxReasons = 5

// Dataset column names. Pickup coordinates appear under either name depending on the
// export.
var (
	colAge         = []string{"Delivery_person_Age"}
	colRating      = []string{"Delivery_person_Ratings"}
	colPickupLat   = []string{"Restaurant_latitude", "translogi_latitude"}
	colPickupLon   = []string{"Restaurant_longitude", "translogi_longitude"}
	colDeliveryLat = []string{"Delivery_location_latitude"}
	colDeliveryLon = []string{"Delivery_location_longitude"}
	colOrderDate   = []string{"Order_Date"}
	colOrderTime   = []string{"Time_Orderd"}
	colWeather     = []string{"Weatherconditions"}
	colTraffic     = []string{"Road_traffic_density"}
	colCondition   = []string{"Vehicle_condition"}
	colVehicle     = []string{"Type_of_vehicle"}
	colMultiple    = []string{"multiple_deliveries"}
	colCity        = []string{"City"}
	colTimeTaken   = []string{"Time_taken", "Time_taken(min)"}

	// Absent from the public dataset; zero when missing.
	colTemperature  = []string{"temperature", "Temperature"}
	colTrafficIndex = []string{"traffic_index"}
)

var requiredColumns = [][]string{
	colAge, colRating, colPickupLat, colPickupLon, colDeliveryLat, colDeliveryLon,
	colOrderDate, colOrderTime, colWeather, colTraffic, colCondition, colVehicle,
	colMultiple, colCity, colTimeTaken,
}

// ReadExamples parses the training CSV. Rows whose coordinates, vehicle condition, order
// timestamp or target cannot be parsed are skipped and counted; other missing values
// are kept as NaN or empty for the imputers.
func ReadExamples(r io.Reader) ([]Example, ReadStats, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("read examples: header: %w", err)
	}
	idx := indexHeader(header)
	for _, names := range requiredColumns {
		if _, ok := lookupColumn(idx, names); !ok {
			return nil, ReadStats{}, fmt.Errorf("read examples: missing column %q", names[0])
		}
	}

	var (
		out   []Example
		stats ReadStats
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read examples: line %d: %w", line, err)
		}
		stats.Rows++

		ex, err := parseRow(row{idx: idx, rec: rec})
		if err != nil {
			stats.Skipped++
			if len(stats.Reasons) < maxReasons {
				stats.Reasons = append(stats.Reasons, fmt.Sprintf("line %d: %v", line, err))
			}
			continue
		}
		out = append(out, ex)
	}
	return out, stats, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func lookupColumn(idx map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i, true
		}
	}
	return 0, false
}

type row struct {
	idx map[string]int
	rec []string
}

func (r row) text(names []string) string {
	i, ok := lookupColumn(r.idx, names)
	if !ok || i >= len(r.rec) {
		return ""
	}
	v := strings.TrimSpace(r.rec[i])
	if strings.EqualFold(v, "nan") {
		return ""
	}
	return v
}

// number parses a numeric cell. Missing cells are NaN.
func (r row) number(names []string) (float64, error) {
	v := r.text(names)
	if v == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("%s: %w", names[0], err)
	}
	return f, nil
}

// required parses a numeric cell that must be present.
func (r row) required(names []string) (float64, error) {
	f, err := r.number(names)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("%s: missing", names[0])
	}
	return f, nil
}

func parseRow(r row) (Example, error) {
	var (
		raw  domain.RawDeliveryRecord
		errs []error
	)
	num := func(dst *float64, names []string) {
		v, err := r.number(names)
		errs = append(errs, err)
		*dst = v
	}
	req := func(dst *float64, names []string) {
		v, err := r.required(names)
		errs = append(errs, err)
		*dst = v
	}

	num(&raw.PersonAge, colAge)
	num(&raw.PersonRating, colRating)
	req(&raw.Pickup.Lat, colPickupLat)
	req(&raw.Pickup.Lon, colPickupLon)
	req(&raw.Delivery.Lat, colDeliveryLat)
	req(&raw.Delivery.Lon, colDeliveryLon)
	num(&raw.MultipleDeliveries, colMultiple)

	var condition float64
	req(&condition, colCondition)

	timeTaken, err := parseMinutes(r.text(colTimeTaken))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", colTimeTaken[0], err))
	}

	if err := errors.Join(errs...); err != nil {
		return Example{}, err
	}

	raw.VehicleCondition = int(condition)
	raw.OrderDate = r.text(colOrderDate)
	raw.OrderTime = r.text(colOrderTime)
	raw.Weather = strings.TrimSpace(strings.TrimPrefix(r.text(colWeather), "conditions "))
	raw.TrafficDensity = r.text(colTraffic)
	raw.VehicleType = r.text(colVehicle)
	raw.City = r.text(colCity)

	// Optional context columns.
	if v, err := r.number(colTemperature); err == nil && !math.IsNaN(v) {
		raw.TemperatureC = v
	}
	if v, err := r.number(colTrafficIndex); err == nil && !math.IsNaN(v) {
		raw.TrafficIndex = v
	}

	return Example{Raw: raw, TimeTaken: timeTaken}, nil
}

// parseMinutes accepts "24" as well as the "(min) 24" form of some dataset exports.
func parseMinutes(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "(min)"))
	if s == "" {
		return 0, errors.New("missing")
	}
	return strconv.ParseFloat(s, 64)
}
