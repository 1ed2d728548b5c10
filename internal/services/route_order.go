package services

import (
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/features"
	"errors"
	"math"
)

// RouteStop is one delivery in visiting order.
type RouteStop struct {
	Order      int
	Record     domain.PredictionRecord
	LegKm      float64
	Cumulative float64
}

// OrderStops sequences delivery points with a greedy nearest-neighbor walk from start.
//
// Each step picks the closest remaining delivery by geodesic distance. It does not
// attempt global optimization; ties go to the earlier record so output is deterministic.
func OrderStops(start domain.Coordinates, records []domain.PredictionRecord) ([]RouteStop, error) {
	if err := start.Validate(); err != nil {
		return nil, errors.New("order stops: invalid start: " + err.Error())
	}

	remaining := make([]bool, len(records))
	for i := range remaining {
		remaining[i] = true
	}

	stops := make([]RouteStop, 0, len(records))
	current := start
	total := 0.0

	for len(stops) < len(records) {
		best := -1
		bestKm := math.Inf(1)

		// Greedy step.
		for i, ok := range remaining {
			if !ok {
				continue
			}
			km := features.GeodesicKm(current, records[i].Features.Raw.Delivery)
			if km < bestKm {
				best, bestKm = i, km
			}
		}
		if best < 0 {
			return nil, errors.New("order stops: failed to select next stop")
		}

		total += bestKm
		stops = append(stops, RouteStop{
			Order:      len(stops) + 1,
			Record:     records[best],
			LegKm:      bestKm,
			Cumulative: total,
		})

		remaining[best] = false
		current = records[best].Features.Raw.Delivery
	}

	return stops, nil
}
