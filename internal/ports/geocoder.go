package ports

import (
	"context"
	"delivery-eta-service/internal/domain"
)

// Port: resolves a free-text address to coordinates and a city name.
type Geocoder interface {
	// Return domain.ErrNotFound when the provider has no match.
	Geocode(ctx context.Context, address string) (domain.Place, error)
}

// Port: a persistent address -> place cache in front of a Geocoder.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Place, error)
	PutMany(ctx context.Context, places map[string]domain.Place) error
}
