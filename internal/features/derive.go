// Package features derives model features from a raw delivery record using the
// lookup tables fitted at training time.
package features

import (
	"delivery-eta-service/internal/domain"
)

// DeriveFeatures is a pure function of raw and lookups: identical inputs always yield
// identical outputs. Unseen categories resolve to NaN and are left for the preprocessor's
// imputers.
func DeriveFeatures(raw domain.RawDeliveryRecord, lookups *LookupTables) (domain.DerivedFeatureSet, error) {
	if err := raw.Validate(); err != nil {
		return domain.DerivedFeatureSet{}, err
	}

	clock, err := domain.ParseOrderClock(raw.OrderDate, raw.OrderTime)
	if err != nil {
		return domain.DerivedFeatureSet{}, err
	}

	raw.City = lookups.NormalizeCity(raw.City)

	return domain.DerivedFeatureSet{
		Raw:                        raw,
		OrderClock:                 clock,
		DistanceKm:                 GeodesicKm(raw.Pickup, raw.Delivery),
		AvgDeliveryTimeArea:        lookups.CityAverage(raw.City),
		TrafficWeatherImpact:       lookups.TrafficWeatherAverage(raw.TrafficDensity, raw.Weather),
		VehicleCapacityUtilization: lookups.VehicleUtilization(raw.VehicleType, raw.MultipleDeliveries),
	}, nil
}
