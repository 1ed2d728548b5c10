package features

import (
	"delivery-eta-service/internal/domain"

	"github.com/tidwall/geodesic"
)

// GeodesicKm returns the WGS-84 ellipsoidal distance between two points in kilometers.
func GeodesicKm(a, b domain.Coordinates) float64 {
	if a == b {
		return 0
	}

	var meters float64
	geodesic.WGS84.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, &meters, nil, nil)
	if meters < 0 {
		meters = -meters
	}
	return meters / 1000
}
